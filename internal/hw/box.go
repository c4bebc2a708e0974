package hw

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/usb-cleaner-box/ucb/internal/model"
)

// Box is the Facade of the appliance assembled from its components.
type Box struct {
	board   *Board
	leds    *LEDs
	buttons *Buttons
	buzzer  *Buzzer
	lcd     *LCD
	devices Devices
}

var (
	_ Facade  = (*Box)(nil)
	_ Sweeper = (*Box)(nil)
)

func NewBox(board *Board, panel Panel, tones ToneGenerator, devices Devices) *Box {
	return &Box{
		board:   board,
		leds:    NewLEDs(board),
		buttons: NewButtons(board),
		buzzer:  NewBuzzer(tones),
		lcd:     NewLCD(board, panel),
		devices: devices,
	}
}

// LCD gives access to the display shared with the LCD command relay.
func (b *Box) LCD() *LCD {
	return b.lcd
}

func (b *Box) Display(_ context.Context, line1, line2 string) error {
	return b.lcd.Display(line1, line2)
}

func (b *Box) SetIndicator(ctx context.Context, color Color, mode Mode) error {
	return b.leds.Set(ctx, color, mode)
}

func (b *Box) PlayCue(ctx context.Context, cue Cue) error {
	return b.buzzer.Play(ctx, cue)
}

func (b *Box) WaitForButton(ctx context.Context, timeout time.Duration) (Button, error) {
	return b.buttons.Wait(ctx, timeout)
}

func (b *Box) Sweep(ctx context.Context, d time.Duration) error {
	return b.leds.Sweep(ctx, d)
}

func (b *Box) ListRemovableDeviceIDs(ctx context.Context) (DeviceSet, error) {
	if b.devices == nil {
		return nil, fmt.Errorf("listing devices: %w", model.ErrNoHardware)
	}
	return b.devices.ListRemovableDeviceIDs(ctx)
}

func (b *Box) DeviceInfo(ctx context.Context, id string) (model.DeviceInfo, error) {
	if b.devices == nil {
		return model.NewDeviceInfo(id), fmt.Errorf("device info: %w", model.ErrNoHardware)
	}
	return b.devices.DeviceInfo(ctx, id)
}

// Close stops the LEDs, silences the buzzer, turns the LCD off and releases
// the pins.
func (b *Box) Close() error {
	return errors.Join(
		b.leds.Off(),
		b.buzzer.Silence(),
		b.lcd.Off(),
		b.board.Close(),
	)
}
