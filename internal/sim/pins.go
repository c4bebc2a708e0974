// Package sim is a hardware backend for workstations: GPIO lines live in
// memory, the LCD and LEDs are drawn on the terminal, the keyboard presses
// the buttons and a plain directory stands for the plugged USB devices.
package sim

import (
	"sync"

	"github.com/usb-cleaner-box/ucb/internal/hw"
)

// Pins is an in-memory GPIO bank. Button inputs idle high as if pulled up.
type Pins struct {
	mx       sync.Mutex
	levels   map[hw.Pin]bool
	onChange func(pin hw.Pin, high bool)
}

var _ hw.Pins = (*Pins)(nil)

func NewPins(m hw.PinMap) *Pins {
	return &Pins{
		levels: map[hw.Pin]bool{
			m.Left:  true,
			m.Right: true,
		},
	}
}

// OnChange registers fn to be called after every level change.
func (p *Pins) OnChange(fn func(pin hw.Pin, high bool)) *Pins {
	p.mx.Lock()
	defer p.mx.Unlock()
	p.onChange = fn
	return p
}

func (p *Pins) Write(pin hw.Pin, high bool) error {
	p.mx.Lock()
	changed := p.levels[pin] != high
	p.levels[pin] = high
	fn := p.onChange
	p.mx.Unlock()

	if changed && fn != nil {
		fn(pin, high)
	}
	return nil
}

func (p *Pins) Read(pin hw.Pin) (bool, error) {
	p.mx.Lock()
	defer p.mx.Unlock()
	return p.levels[pin], nil
}
