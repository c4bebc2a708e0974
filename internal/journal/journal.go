// Package journal writes the append-only text log of the appliance: one
// timestamped line per event, a banner when a session starts and a separator
// when it ends.
package journal

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/usb-cleaner-box/ucb/internal/model"
)

const (
	TimeLayout  = "2006-01-02 15:04:05"
	bannerWidth = 80
)

var separator = strings.Repeat("-", 40)

// Journal is safe for concurrent use.
type Journal struct {
	mx  sync.Mutex
	w   io.Writer
	now func() time.Time
}

// Open appends to the journal file configured in cfg, rotating it with
// lumberjack once it grows over MaxSizeMB.
func Open(cfg model.Journal) *Journal {
	return New(&lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
	})
}

func New(w io.Writer) *Journal {
	return &Journal{w: w, now: time.Now}
}

// WithClock replaces time.Now. It exists for tests.
func (j *Journal) WithClock(now func() time.Time) *Journal {
	j.now = now
	return j
}

// Message writes "[YYYY-MM-DD HH:MM:SS] msg".
func (j *Journal) Message(msg string) error {
	return j.write(fmt.Sprintf("[%s] %s\n", j.now().Format(TimeLayout), msg))
}

func (j *Journal) Messagef(format string, args ...any) error {
	return j.Message(fmt.Sprintf(format, args...))
}

// Banner marks the start of a session on a device.
func (j *Journal) Banner(sessionID string, info model.DeviceInfo) error {
	rule := strings.Repeat("=", bannerWidth)
	title := "SESSION START"
	left := (bannerWidth - len(title)) / 2

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(rule + "\n")
	b.WriteString(strings.Repeat(" ", left) + title + strings.Repeat(" ", bannerWidth-left-len(title)) + "\n")
	b.WriteString(rule + "\n")
	for _, f := range [][2]string{
		{"Timestamp:", j.now().Format(TimeLayout)},
		{"Session:", sessionID},
		{"Device:", "/dev/" + info.Device},
		{"Size:", info.Size},
		{"Label:", info.Label},
		{"Filesystem:", info.FSType},
		{"Vendor:", info.Vendor},
		{"Model:", info.Model},
		{"Serial:", info.Serial},
	} {
		fmt.Fprintf(&b, "%-12s %s\n", f[0], f[1])
	}
	b.WriteString(rule + "\n")
	b.WriteString("\n")
	return j.write(b.String())
}

// Choice records the answer to a worker prompt.
func (j *Journal) Choice(workerID string, yes bool) error {
	answer := "NO"
	if yes {
		answer = "YES"
	}
	return j.Messagef("--- \"%s\": %s", workerID, answer)
}

func (j *Journal) Result(workerID string, outcome model.Outcome, exitCode int) error {
	return j.Messagef("Result \"%s\": %s (exit %d)", workerID, outcome, exitCode)
}

// Separator closes a session.
func (j *Journal) Separator() error {
	return j.write(separator + "\n")
}

func (j *Journal) Close() error {
	if c, ok := j.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (j *Journal) write(s string) error {
	j.mx.Lock()
	defer j.mx.Unlock()
	if _, err := io.WriteString(j.w, s); err != nil {
		return fmt.Errorf("writing journal: %w", err)
	}
	return nil
}
