package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch rediscovers the catalog whenever a worker script in the directory is
// created, changed, renamed or removed. Bursts of events are coalesced by the
// debounce interval. It blocks until ctx is canceled.
func (c *Catalog) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating workers watcher: %w", err)
	}
	defer w.Close() //nolint:errcheck

	if err := w.Add(c.dir); err != nil {
		return fmt.Errorf("watching %s: %w", c.dir, err)
	}
	slog.DebugContext(ctx, "watching workers directory", "dir", c.dir)

	// fire is nil while no rediscovery is pending
	var debounce *time.Timer
	var fire <-chan time.Time
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !strings.HasSuffix(ev.Name, c.suffix) {
				continue
			}
			slog.DebugContext(ctx, "workers directory changed", "event", ev.String())
			if debounce == nil {
				debounce = time.NewTimer(c.debounce)
			} else {
				debounce.Reset(c.debounce)
			}
			fire = debounce.C
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.ErrorContext(ctx, "workers watcher error", "error", err)
		case <-fire:
			fire = nil
			c.Discover(ctx)
		}
	}
}
