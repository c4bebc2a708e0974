package sim_test

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/usb-cleaner-box/ucb/internal/hw"
	"github.com/usb-cleaner-box/ucb/internal/model"
	"github.com/usb-cleaner-box/ucb/internal/sim"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	goleak.VerifyTestMain(m)
}

type change struct {
	pin  hw.Pin
	high bool
}

type changes struct {
	mx  sync.Mutex
	all []change
}

func (c *changes) record(pin hw.Pin, high bool) {
	c.mx.Lock()
	defer c.mx.Unlock()
	c.all = append(c.all, change{pin, high})
}

func (c *changes) get() []change {
	c.mx.Lock()
	defer c.mx.Unlock()
	return append([]change(nil), c.all...)
}

func TestPins(t *testing.T) {
	t.Parallel()
	m := hw.DefaultPinMap()
	rec := &changes{}
	pins := sim.NewPins(m).OnChange(rec.record)

	high, err := pins.Read(m.Left)
	require.NoError(t, err)
	require.True(t, high)

	require.NoError(t, pins.Write(m.Green, true))
	require.NoError(t, pins.Write(m.Green, true))
	require.NoError(t, pins.Write(m.Green, false))
	require.Equal(t, []change{{m.Green, true}, {m.Green, false}}, rec.get())
}

func TestTerminal(t *testing.T) {
	t.Parallel()
	m := hw.DefaultPinMap()
	var buf bytes.Buffer
	term := sim.NewTerminal(&buf, m)
	board := hw.NewBoard(sim.NewPins(m).OnChange(term.OnPin), m)
	lcd := hw.NewLCD(board, term)

	require.NoError(t, lcd.Display("USB détectée", "14.9G"))
	out := buf.String()
	require.Contains(t, out, "│USB detectee    │")
	require.Contains(t, out, "│14.9G           │")

	buf.Reset()
	require.NoError(t, board.Pins.Write(m.Red, true))
	require.Contains(t, buf.String(), "○ ○ ●")

	buf.Reset()
	tones := sim.NewTones(board.Pins, m.Buzzer)
	require.NoError(t, tones.Tone(440))
	require.Contains(t, buf.String(), "♪")
	require.NoError(t, tones.Silence())

	buf.Reset()
	require.NoError(t, lcd.Off())
	require.Contains(t, buf.String(), "│                │")
}

func TestKeyboard(t *testing.T) {
	t.Parallel()
	m := hw.DefaultPinMap()
	rec := &changes{}
	pins := sim.NewPins(m).OnChange(rec.record)
	r, w := io.Pipe()
	kb := sim.NewKeyboard(r, pins, m)

	done := make(chan error, 1)
	go func() {
		done <- kb.Run(t.Context())
	}()

	_, err := w.Write([]byte("r"))
	require.NoError(t, err)
	_, err = w.Write([]byte("\x1b[D"))
	require.NoError(t, err)
	_, err = w.Write([]byte("x"))
	require.NoError(t, err)
	_, err = w.Write([]byte("q"))
	require.NoError(t, err)

	select {
	case err := <-done:
		require.ErrorIs(t, err, sim.ErrQuit)
	case <-time.After(5 * time.Second):
		t.Fatal("keyboard did not quit")
	}
	require.NoError(t, w.Close())

	require.Equal(t, []change{
		{m.Right, false}, {m.Right, true},
		{m.Left, false}, {m.Left, true},
	}, rec.get())
}

func TestKeyboard_EOF(t *testing.T) {
	t.Parallel()
	m := hw.DefaultPinMap()
	kb := sim.NewKeyboard(strings.NewReader(""), sim.NewPins(m), m)
	require.NoError(t, kb.Run(t.Context()))
}

func TestDirDevices(t *testing.T) {
	t.Parallel()
	dir := filepath.Join(t.TempDir(), "devices")
	devices := sim.NewDirDevices(dir)

	ids, err := devices.ListRemovableDeviceIDs(t.Context())
	require.NoError(t, err)
	require.Empty(t, ids)

	got, err := devices.Dir()
	require.NoError(t, err)
	require.Equal(t, dir, got)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "sdb"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sdb.json"), []byte(`{"size": "14.9G", "vendor": "SanDisk"}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sdc"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden"), nil, 0o644))

	ids, err = devices.ListRemovableDeviceIDs(t.Context())
	require.NoError(t, err)
	require.Equal(t, []string{"sdb", "sdc"}, ids.IDs())

	info, err := devices.DeviceInfo(t.Context(), "sdb")
	require.NoError(t, err)
	want := model.NewDeviceInfo("sdb")
	want.Size = "14.9G"
	want.Vendor = "SanDisk"
	require.Equal(t, want, info)

	info, err = devices.DeviceInfo(t.Context(), "sdc")
	require.NoError(t, err)
	require.Equal(t, model.NewDeviceInfo("sdc"), info)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "sdc.json"), []byte(`{`), 0o644))
	info, err = devices.DeviceInfo(t.Context(), "sdc")
	require.Error(t, err)
	require.Equal(t, model.NewDeviceInfo("sdc"), info)
}
