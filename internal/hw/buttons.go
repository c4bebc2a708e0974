package hw

import (
	"context"
	"time"
)

const (
	DefaultSampleInterval = 10 * time.Millisecond
	DefaultDebounce       = 50 * time.Millisecond
)

// Buttons reads the two active-low push buttons.
type Buttons struct {
	board    *Board
	sample   time.Duration
	debounce time.Duration
}

func NewButtons(board *Board) *Buttons {
	return &Buttons{
		board:    board,
		sample:   DefaultSampleInterval,
		debounce: DefaultDebounce,
	}
}

// Wait first waits for both buttons to be released, then for a press that is
// still held after the debounce interval, and finally for its release.
// A zero timeout waits forever; on expiry ButtonNone is returned.
func (b *Buttons) Wait(ctx context.Context, timeout time.Duration) (Button, error) {
	expired := deadline(timeout)

	for {
		left, right, err := b.read()
		if err != nil {
			return ButtonNone, err
		}
		if !left && !right {
			break
		}
		if expired() {
			return ButtonNone, nil
		}
		if err := sleep(ctx, b.sample); err != nil {
			return ButtonNone, err
		}
	}

	expired = deadline(timeout)
	m := b.board.Map
	for {
		for _, c := range []struct {
			pin    Pin
			button Button
		}{{m.Left, ButtonLeft}, {m.Right, ButtonRight}} {
			ok, err := b.confirm(ctx, c.pin)
			if err != nil {
				return ButtonNone, err
			}
			if ok {
				return c.button, nil
			}
		}
		if expired() {
			return ButtonNone, nil
		}
		if err := sleep(ctx, b.sample); err != nil {
			return ButtonNone, err
		}
	}
}

// confirm reports a debounced press of pin and waits for its release.
func (b *Buttons) confirm(ctx context.Context, pin Pin) (bool, error) {
	pressed, err := b.board.pressed(pin)
	if err != nil || !pressed {
		return false, err
	}
	if err := sleep(ctx, b.debounce); err != nil {
		return false, err
	}
	if pressed, err = b.board.pressed(pin); err != nil || !pressed {
		return false, err
	}
	for {
		if err := sleep(ctx, b.sample); err != nil {
			return false, err
		}
		pressed, err := b.board.pressed(pin)
		if err != nil {
			return false, err
		}
		if !pressed {
			return true, nil
		}
	}
}

func (b *Buttons) read() (left, right bool, err error) {
	if left, err = b.board.pressed(b.board.Map.Left); err != nil {
		return false, false, err
	}
	right, err = b.board.pressed(b.board.Map.Right)
	return left, right, err
}

func deadline(timeout time.Duration) func() bool {
	if timeout <= 0 {
		return func() bool { return false }
	}
	end := time.Now().Add(timeout)
	return func() bool {
		return time.Now().After(end)
	}
}
