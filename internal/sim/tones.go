package sim

import (
	"log/slog"

	"github.com/usb-cleaner-box/ucb/internal/hw"
)

// Tones stands for the PWM buzzer: it drives the buzzer pin and logs the
// frequencies.
type Tones struct {
	pins hw.Pins
	pin  hw.Pin
}

var _ hw.ToneGenerator = (*Tones)(nil)

func NewTones(pins hw.Pins, pin hw.Pin) *Tones {
	return &Tones{pins: pins, pin: pin}
}

func (t *Tones) Tone(freq float64) error {
	slog.Debug("buzzer", "freq", freq)
	return t.pins.Write(t.pin, true)
}

func (t *Tones) Silence() error {
	return t.pins.Write(t.pin, false)
}
