package sim

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"

	"github.com/usb-cleaner-box/ucb/internal/hw"
)

var (
	green  = color.New(color.FgGreen, color.Bold).SprintFunc()
	orange = color.New(color.FgYellow, color.Bold).SprintFunc()
	red    = color.New(color.FgRed, color.Bold).SprintFunc()
	faint  = color.New(color.Faint).SprintFunc()
	screen = color.New(color.FgHiWhite, color.BgBlue).SprintFunc()
)

// Terminal draws the LCD and the LEDs of the box. It implements hw.Panel and
// its OnPin method is meant for Pins.OnChange.
type Terminal struct {
	mx     sync.Mutex
	w      io.Writer
	pins   hw.PinMap
	lines  [2]string
	leds   map[hw.Pin]bool
	lcdOn  bool
	buzzer bool
}

var _ hw.Panel = (*Terminal)(nil)

func NewTerminal(w io.Writer, pins hw.PinMap) *Terminal {
	return &Terminal{
		w:    w,
		pins: pins,
		leds: make(map[hw.Pin]bool),
	}
}

func (t *Terminal) Write(line1, line2 string) error {
	t.mx.Lock()
	defer t.mx.Unlock()
	t.lines = [2]string{line1, line2}
	t.lcdOn = true
	return t.render()
}

func (t *Terminal) Clear() error {
	t.mx.Lock()
	defer t.mx.Unlock()
	t.lines = [2]string{}
	t.lcdOn = false
	return t.render()
}

// OnPin redraws the status line when an output changes.
func (t *Terminal) OnPin(pin hw.Pin, high bool) {
	t.mx.Lock()
	defer t.mx.Unlock()
	switch pin {
	case t.pins.Green, t.pins.Orange, t.pins.Red:
		t.leds[pin] = high
	case t.pins.Buzzer:
		t.buzzer = high
	default:
		return
	}
	_ = t.render()
}

func (t *Terminal) render() error {
	var b strings.Builder
	// raw mode needs explicit carriage returns
	b.WriteString("\r\n┌" + strings.Repeat("─", hw.Columns) + "┐\r\n")
	for _, line := range t.lines {
		text := fmt.Sprintf("%-*s", hw.Columns, line)
		if t.lcdOn {
			text = screen(text)
		}
		b.WriteString("│" + text + "│\r\n")
	}
	b.WriteString("└" + strings.Repeat("─", hw.Columns) + "┘ ")
	b.WriteString(t.led(t.pins.Green, green) + " " + t.led(t.pins.Orange, orange) + " " + t.led(t.pins.Red, red))
	if t.buzzer {
		b.WriteString(" ♪")
	}
	b.WriteString("\r\n")
	_, err := io.WriteString(t.w, b.String())
	return err
}

func (t *Terminal) led(pin hw.Pin, on func(...any) string) string {
	if t.leds[pin] {
		return on("●")
	}
	return faint("○")
}
