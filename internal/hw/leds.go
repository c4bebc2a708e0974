package hw

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

const (
	DefaultBlinkPeriod = 500 * time.Millisecond
	DefaultSweepStep   = 200 * time.Millisecond
)

// LEDs drives the green, orange and red indicators. Blinking and sweeping
// run on the Animator, so only one pattern is ever active.
type LEDs struct {
	board       *Board
	anim        Animator
	blinkPeriod time.Duration
	sweepStep   time.Duration
}

func NewLEDs(board *Board) *LEDs {
	return &LEDs{
		board:       board,
		blinkPeriod: DefaultBlinkPeriod,
		sweepStep:   DefaultSweepStep,
	}
}

// Set shows a single color. ColorOff turns everything off.
func (l *LEDs) Set(ctx context.Context, color Color, mode Mode) error {
	if err := l.Off(); err != nil {
		return err
	}
	if color == ColorOff {
		return nil
	}
	pin := l.pin(color)
	if mode == ModeSolid {
		return l.board.write(pin, true)
	}

	l.anim.Start(ctx, func(ctx context.Context) {
		on := true
		for {
			if err := l.board.write(pin, on); err != nil {
				slog.WarnContext(ctx, "blink", "color", color.String(), "error", err)
			}
			if sleep(ctx, l.blinkPeriod) != nil {
				_ = l.board.write(pin, false)
				return
			}
			on = !on
		}
	})
	return nil
}

// Sweep chases green, orange, red, orange for d in the background, then
// turns the LEDs off.
func (l *LEDs) Sweep(ctx context.Context, d time.Duration) error {
	if err := l.Off(); err != nil {
		return err
	}
	m := l.board.Map
	seq := []Pin{m.Green, m.Orange, m.Red, m.Orange}

	l.anim.Start(ctx, func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		for i := 0; ; i++ {
			pin := seq[i%len(seq)]
			if err := l.board.write(pin, true); err != nil {
				slog.WarnContext(ctx, "sweep", "error", err)
			}
			err := sleep(ctx, l.sweepStep)
			_ = l.board.write(pin, false)
			if err != nil {
				return
			}
		}
	})
	return nil
}

// Off stops any animation and turns all LEDs off.
func (l *LEDs) Off() error {
	l.anim.Stop()
	m := l.board.Map
	return errors.Join(
		l.board.write(m.Green, false),
		l.board.write(m.Orange, false),
		l.board.write(m.Red, false),
	)
}

// Wait blocks until a running sweep is over.
func (l *LEDs) Wait() {
	l.anim.Wait()
}

func (l *LEDs) pin(c Color) Pin {
	switch c {
	case ColorGreen:
		return l.board.Map.Green
	case ColorOrange:
		return l.board.Map.Orange
	default:
		return l.board.Map.Red
	}
}
