package hw

import (
	"fmt"
	"io"
)

// Pin is a BCM GPIO number.
type Pin int

// Pins reads and writes digital GPIO lines.
type Pins interface {
	Write(pin Pin, high bool) error
	Read(pin Pin) (bool, error)
}

type PinMap struct {
	Green    Pin `yaml:"green"`
	Orange   Pin `yaml:"orange"`
	Red      Pin `yaml:"red"`
	Left     Pin `yaml:"left"`
	Right    Pin `yaml:"right"`
	Buzzer   Pin `yaml:"buzzer"`
	LCDPower Pin `yaml:"lcd_power"`
}

func DefaultPinMap() PinMap {
	return PinMap{
		Green:    16,
		Orange:   20,
		Red:      21,
		Left:     23,
		Right:    24,
		Buzzer:   26,
		LCDPower: 4,
	}
}

// Board is the GPIO resource shared by every component of the box. It is
// passed explicitly to each constructor.
type Board struct {
	Pins Pins
	Map  PinMap
}

func NewBoard(pins Pins, m PinMap) *Board {
	return &Board{Pins: pins, Map: m}
}

func (b *Board) write(pin Pin, high bool) error {
	if err := b.Pins.Write(pin, high); err != nil {
		return fmt.Errorf("writing pin %d: %w", pin, err)
	}
	return nil
}

// pressed reads an active-low input.
func (b *Board) pressed(pin Pin) (bool, error) {
	high, err := b.Pins.Read(pin)
	if err != nil {
		return false, fmt.Errorf("reading pin %d: %w", pin, err)
	}
	return !high, nil
}

func (b *Board) Close() error {
	if c, ok := b.Pins.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
