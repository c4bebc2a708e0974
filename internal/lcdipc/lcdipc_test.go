package lcdipc_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/sync/errgroup"

	"github.com/usb-cleaner-box/ucb/internal/lcdipc"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestParse(t *testing.T) {
	t.Parallel()
	var testCases = []struct {
		scenario string
		given    string
		then     lcdipc.Request
		ok       bool
	}{
		{"json", `{"line1": "Scanning", "line2": "42%"}`, lcdipc.Request{Line1: "Scanning", Line2: "42%"}, true},
		{"json one line", `{"line1": "Copy"}`, lcdipc.Request{Line1: "Copy"}, true},
		{"two lines", "Scanning\n42%\n", lcdipc.Request{Line1: "Scanning", Line2: "42%"}, true},
		{"one line", "Scanning", lcdipc.Request{Line1: "Scanning"}, true},
		{"broken json", `{"line1":`, lcdipc.Request{Line1: `{"line1":`}, true},
		{"empty", "  \n", lcdipc.Request{}, false},
	}
	for _, tc := range testCases {
		t.Run(tc.scenario, func(t *testing.T) {
			t.Parallel()
			got, ok := lcdipc.Parse([]byte(tc.given))
			require.Equal(t, tc.ok, ok)
			require.Equal(t, tc.then, got)
		})
	}
}

func TestSend(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "ucb_lcd_command")
	require.NoError(t, lcdipc.Send(path, lcdipc.Request{Line1: "Copie", Line2: "3/10"}))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.JSONEq(t, `{"line1":"Copie","line2":"3/10"}`, string(b))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)

	require.Error(t, lcdipc.Send(filepath.Join(t.TempDir(), "missing", "cmd"), lcdipc.Request{}))
}

type recorder struct {
	mx    sync.Mutex
	lines [][2]string
}

func (r *recorder) Display(line1, line2 string) error {
	r.mx.Lock()
	defer r.mx.Unlock()
	r.lines = append(r.lines, [2]string{line1, line2})
	return nil
}

func (r *recorder) last() ([2]string, bool) {
	r.mx.Lock()
	defer r.mx.Unlock()
	if len(r.lines) == 0 {
		return [2]string{}, false
	}
	return r.lines[len(r.lines)-1], true
}

func TestMonitorRelay(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "ucb_lcd_command")
	require.NoError(t, os.WriteFile(path, []byte("stale\n"), 0o644))

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	requests := make(chan lcdipc.Request)
	rec := &recorder{}
	monitor := lcdipc.NewMonitor(path)
	require.Equal(t, path, monitor.Path())

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return monitor.Run(ctx, requests) })
	g.Go(func() error { return lcdipc.Relay(ctx, requests, rec) })

	require.Eventually(t, func() bool {
		_ = lcdipc.Send(path, lcdipc.Request{Line1: "Scanning", Line2: "sdb"})
		got, ok := rec.last()
		return ok && got == [2]string{"Scanning", "sdb"}
	}, 5*time.Second, 50*time.Millisecond)

	require.NoError(t, os.WriteFile(path, []byte("Done\nno threat\n"), 0o644))
	require.Eventually(t, func() bool {
		got, _ := rec.last()
		return got == [2]string{"Done", "no threat"}
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	require.NoError(t, g.Wait())
	for _, l := range rec.lines {
		require.NotEqual(t, "stale", l[0])
	}
}

func TestRelay_Closed(t *testing.T) {
	t.Parallel()
	in := make(chan lcdipc.Request, 1)
	in <- lcdipc.Request{Line1: "a", Line2: "b"}
	close(in)
	rec := &recorder{}
	require.NoError(t, lcdipc.Relay(t.Context(), in, rec))
	require.Equal(t, [][2]string{{"a", "b"}}, rec.lines)
}

func TestRelay_Throttled(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		in := make(chan lcdipc.Request, 3)
		rec := &recorder{}
		done := make(chan error)
		go func() {
			done <- lcdipc.Relay(t.Context(), in, rec)
		}()

		in <- lcdipc.Request{Line1: "Copie", Line2: "10%"}
		synctest.Wait()
		require.Equal(t, [][2]string{{"Copie", "10%"}}, rec.lines)

		in <- lcdipc.Request{Line1: "Copie", Line2: "20%"}
		in <- lcdipc.Request{Line1: "Copie", Line2: "30%"}
		synctest.Wait()
		require.Len(t, rec.lines, 1)

		time.Sleep(lcdipc.MinInterval)
		synctest.Wait()
		require.Equal(t, [][2]string{{"Copie", "10%"}, {"Copie", "30%"}}, rec.lines)

		close(in)
		require.NoError(t, <-done)
	})
}
