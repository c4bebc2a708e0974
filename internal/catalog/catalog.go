// Package catalog discovers worker scripts and keeps the ordered list of
// workers. A worker is an executable file in the workers directory whose
// header declares at least WORKER_QUESTION.
package catalog

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"

	"github.com/usb-cleaner-box/ucb/internal/model"
	"github.com/usb-cleaner-box/ucb/internal/walk"
)

const DefaultSuffix = ".sh"

type Catalog struct {
	dir      string
	suffix   string
	debounce time.Duration
	workers  atomic.Pointer[[]model.Worker]
}

// New returns an empty catalog for dir. Call Discover to populate it.
func New(dir string) *Catalog {
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	c := &Catalog{
		dir:      dir,
		suffix:   DefaultSuffix,
		debounce: time.Second,
	}
	c.workers.Store(&[]model.Worker{})
	return c
}

// WithSuffix changes the file name suffix identifying worker scripts.
func (c *Catalog) WithSuffix(suffix string) *Catalog {
	if suffix != "" {
		c.suffix = suffix
	}
	return c
}

// WithDebounce changes how long Watch waits for the directory to settle.
func (c *Catalog) WithDebounce(d time.Duration) *Catalog {
	c.debounce = d
	return c
}

func (c *Catalog) Dir() string {
	return c.dir
}

// Discover rescans the directory and atomically replaces the catalog.
// It returns the new ordered list, disabled workers included.
func (c *Catalog) Discover(ctx context.Context) []model.Worker {
	workers := discover(ctx, c.dir, c.suffix)
	c.workers.Store(&workers)
	slog.InfoContext(ctx, "workers discovered", "dir", c.dir, "count", len(workers))
	return slices.Clone(workers)
}

// Active returns the ordered workers, without the disabled ones unless includeDisabled is set.
func (c *Catalog) Active(includeDisabled bool) []model.Worker {
	all := *c.workers.Load()
	if includeDisabled {
		return slices.Clone(all)
	}
	ret := make([]model.Worker, 0, len(all))
	for _, w := range all {
		if w.Enabled {
			ret = append(ret, w)
		}
	}
	return ret
}

// ByID returns the worker with the given script name.
func (c *Catalog) ByID(id string) (model.Worker, error) {
	for _, w := range *c.workers.Load() {
		if w.ID == id {
			return w, nil
		}
	}
	return model.Worker{}, fmt.Errorf("%s: %w", id, model.ErrWorkerNotFound)
}

func discover(ctx context.Context, dir, suffix string) []model.Worker {
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		slog.WarnContext(ctx, "workers directory not found", "dir", dir)
		return []model.Worker{}
	}

	workers := make([]model.Worker, 0, 8)
	for entry, err := range walk.Dir(ctx, dir, suffix) {
		if err != nil {
			slog.WarnContext(ctx, "can't list worker", "dir", dir, "error", err)
			continue
		}
		w, ok := load(ctx, entry)
		if !ok {
			continue
		}
		slog.DebugContext(ctx, "discovered worker", "worker", w.String())
		workers = append(workers, w)
	}

	slices.SortStableFunc(workers, func(a, b model.Worker) int {
		return cmp.Compare(a.Order, b.Order)
	})
	return workers
}

func load(ctx context.Context, entry walk.Entry) (model.Worker, bool) {
	path := entry.Path()
	name := filepath.Base(path)
	if err := unix.Access(path, unix.X_OK); err != nil {
		slog.WarnContext(ctx, "worker script not executable: skipping", "worker", name, "error", err)
		return model.Worker{}, false
	}

	f, err := entry.Open()
	if err != nil {
		slog.WarnContext(ctx, "can't open worker script: skipping", "worker", name, "error", err)
		return model.Worker{}, false
	}
	defer func() {
		_ = f.Close()
	}()

	md, err := ParseMetadata(f)
	if err != nil {
		slog.WarnContext(ctx, "can't parse worker metadata: skipping", "worker", name, "error", err)
		return model.Worker{}, false
	}
	if md.Question == "" {
		slog.InfoContext(ctx, "no WORKER_QUESTION defined: skipping", "worker", name)
		return model.Worker{}, false
	}

	return model.Worker{
		ID:          name,
		Path:        path,
		Question:    md.Question,
		Order:       md.Order,
		Description: md.Description,
		Enabled:     md.Enabled,
	}, true
}
