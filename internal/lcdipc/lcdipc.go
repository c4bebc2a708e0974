// Package lcdipc lets worker scripts put text on the LCD while they run.
//
// A worker writes a command file, typically with "ucb lcd LINE1 LINE2". The
// Monitor watches the file and publishes every new version as a Request on a
// channel, and Relay consumes the channel and updates the display.
package lcdipc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/time/rate"
)

const DefaultCommandFile = "/tmp/ucb_lcd_command"

type Request struct {
	Line1 string `json:"line1"`
	Line2 string `json:"line2"`
}

// Parse decodes a command file. JSON is tried first, otherwise the first two
// lines of the text are used. Empty content is not a request.
func Parse(b []byte) (Request, bool) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return Request{}, false
	}
	var req Request
	if err := json.Unmarshal(b, &req); err == nil {
		return req, true
	}
	line1, line2, _ := bytes.Cut(b, []byte("\n"))
	return Request{Line1: string(line1), Line2: string(line2)}, true
}

// Send writes req to the command file. The content is written to a
// temporary file in the same directory and renamed over the target, so the
// monitor never reads a partial command.
func Send(path string, req Request) error {
	b, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshaling lcd command: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming temp to target: %w", err)
	}
	return nil
}

// Monitor watches one command file.
type Monitor struct {
	path string
}

func NewMonitor(path string) *Monitor {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return &Monitor{path: path}
}

func (m *Monitor) Path() string {
	return m.path
}

// Run publishes a Request on out every time the command file is created or
// written. A command file left over from a previous run is ignored. Run
// blocks until ctx is canceled.
func (m *Monitor) Run(ctx context.Context, out chan<- Request) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating lcd watcher: %w", err)
	}
	defer w.Close() //nolint:errcheck

	dir := filepath.Dir(m.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating lcd command directory: %w", err)
	}
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	slog.DebugContext(ctx, "watching lcd command file", "path", m.path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != m.path || !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			b, err := os.ReadFile(m.path)
			if err != nil {
				slog.DebugContext(ctx, "can't read lcd command", "error", err)
				continue
			}
			req, ok := Parse(b)
			if !ok {
				continue
			}
			select {
			case out <- req:
			case <-ctx.Done():
				return nil
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.WarnContext(ctx, "lcd watcher error", "error", err)
		}
	}
}

// Displayer shows two lines of text.
type Displayer interface {
	Display(line1, line2 string) error
}

// MinInterval is the shortest time between two LCD updates driven by
// worker commands.
const MinInterval = 100 * time.Millisecond

// Relay shows requests received from in until ctx is canceled or in is
// closed. Updates are throttled to one per MinInterval and requests arriving
// in between are coalesced, the latest wins. Display errors are logged.
func Relay(ctx context.Context, in <-chan Request, d Displayer) error {
	limiter := rate.NewLimiter(rate.Every(MinInterval), 1)
	for {
		var req Request
		select {
		case <-ctx.Done():
			return nil
		case r, ok := <-in:
			if !ok {
				return nil
			}
			req = r
		}
		if err := limiter.Wait(ctx); err != nil {
			return nil
		}
		req, open := latest(in, req)
		slog.DebugContext(ctx, "lcd command", "line1", req.Line1, "line2", req.Line2)
		if err := d.Display(req.Line1, req.Line2); err != nil {
			slog.WarnContext(ctx, "lcd command display failed", "error", err)
		}
		if !open {
			return nil
		}
	}
}

// latest drains the requests already queued on in.
func latest(in <-chan Request, req Request) (Request, bool) {
	for {
		select {
		case r, ok := <-in:
			if !ok {
				return req, false
			}
			req = r
		default:
			return req, true
		}
	}
}
