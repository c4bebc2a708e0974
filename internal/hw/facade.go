// Package hw defines the hardware facade used by the session supervisor and
// its implementation on top of a Board: LEDs, two buttons, a buzzer and a
// 16x2 LCD panel.
package hw

import (
	"context"
	"maps"
	"slices"
	"time"

	"github.com/usb-cleaner-box/ucb/internal/model"
)

type Color int

const (
	ColorOff Color = iota
	ColorGreen
	ColorOrange
	ColorRed
)

func (c Color) String() string {
	switch c {
	case ColorGreen:
		return "green"
	case ColorOrange:
		return "orange"
	case ColorRed:
		return "red"
	default:
		return "off"
	}
}

type Mode int

const (
	ModeSolid Mode = iota
	ModeBlink
)

func (m Mode) String() string {
	if m == ModeBlink {
		return "blink"
	}
	return "solid"
}

type Cue int

const (
	CueStartup Cue = iota
	CueSuccess
	CueFailure
	CueWarning
	CueBeep
)

func (c Cue) String() string {
	switch c {
	case CueStartup:
		return "startup"
	case CueSuccess:
		return "success"
	case CueFailure:
		return "failure"
	case CueWarning:
		return "warning"
	case CueBeep:
		return "beep"
	default:
		return "unknown"
	}
}

// Button is the answer of WaitForButton. ButtonNone means the wait timed out.
type Button int

const (
	ButtonNone Button = iota
	ButtonLeft
	ButtonRight
)

func (b Button) String() string {
	switch b {
	case ButtonLeft:
		return "LEFT"
	case ButtonRight:
		return "RIGHT"
	default:
		return "NONE"
	}
}

// DeviceSet is a set of block device names like "sdb".
type DeviceSet map[string]struct{}

func NewDeviceSet(ids ...string) DeviceSet {
	s := make(DeviceSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s DeviceSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// IDs returns the sorted device names.
func (s DeviceSet) IDs() []string {
	return slices.Sorted(maps.Keys(s))
}

// Facade is everything the session supervisor needs from the appliance.
type Facade interface {
	Display(ctx context.Context, line1, line2 string) error
	SetIndicator(ctx context.Context, color Color, mode Mode) error
	PlayCue(ctx context.Context, cue Cue) error
	// WaitForButton blocks until a button is pressed and released. A zero
	// timeout waits forever, an expired one returns ButtonNone.
	WaitForButton(ctx context.Context, timeout time.Duration) (Button, error)
	ListRemovableDeviceIDs(ctx context.Context) (DeviceSet, error)
	DeviceInfo(ctx context.Context, id string) (model.DeviceInfo, error)
	Close() error
}

// Sweeper is implemented by facades able to run the LED chase animation.
type Sweeper interface {
	Sweep(ctx context.Context, d time.Duration) error
}

// Devices enumerates removable block devices.
type Devices interface {
	ListRemovableDeviceIDs(ctx context.Context) (DeviceSet, error)
	DeviceInfo(ctx context.Context, id string) (model.DeviceInfo, error)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
