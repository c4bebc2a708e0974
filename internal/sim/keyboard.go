package sim

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"time"

	"golang.org/x/term"

	"github.com/usb-cleaner-box/ucb/internal/hw"
)

// ErrQuit is returned by Keyboard.Run when the user asked to stop.
var ErrQuit = errors.New("quit requested")

const DefaultPressDuration = 150 * time.Millisecond

// Keyboard turns key strokes into button presses: "l" or the left arrow
// presses the left button, "r" or the right arrow the right one. "q" and
// Ctrl-C quit.
type Keyboard struct {
	in    io.Reader
	pins  hw.Pins
	m     hw.PinMap
	press time.Duration
}

func NewKeyboard(in io.Reader, pins hw.Pins, m hw.PinMap) *Keyboard {
	return &Keyboard{in: in, pins: pins, m: m, press: DefaultPressDuration}
}

// Run reads keys until ctx is canceled, the input ends or the user quits.
// A terminal input is switched to raw mode for the duration of Run.
func (k *Keyboard) Run(ctx context.Context) error {
	if f, ok := k.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		state, err := term.MakeRaw(int(f.Fd()))
		if err != nil {
			return err
		}
		defer func() {
			_ = term.Restore(int(f.Fd()), state)
		}()
	}

	keys := make(chan byte)
	readErr := make(chan error, 1)
	go func() {
		r := bufio.NewReader(k.in)
		for {
			c, err := r.ReadByte()
			if err != nil {
				readErr <- err
				return
			}
			select {
			case keys <- c:
			case <-ctx.Done():
				return
			}
		}
	}()

	var seq []byte
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-readErr:
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		case c := <-keys:
			seq = append(seq, c)
			button, quit, done := decode(seq)
			if !done {
				continue
			}
			seq = seq[:0]
			if quit {
				return ErrQuit
			}
			if button != hw.ButtonNone {
				if err := k.pulse(ctx, button); err != nil {
					slog.WarnContext(ctx, "keyboard press", "error", err)
				}
			}
		}
	}
}

// decode recognizes single keys and the ESC [ C / ESC [ D arrow sequences.
func decode(seq []byte) (button hw.Button, quit bool, done bool) {
	switch seq[0] {
	case 'l', 'L':
		return hw.ButtonLeft, false, true
	case 'r', 'R':
		return hw.ButtonRight, false, true
	case 'q', 'Q', 0x03:
		return hw.ButtonNone, true, true
	case 0x1b:
		if len(seq) == 1 || len(seq) == 2 && seq[1] == '[' {
			return hw.ButtonNone, false, false
		}
		if len(seq) == 3 && seq[1] == '[' {
			switch seq[2] {
			case 'D':
				return hw.ButtonLeft, false, true
			case 'C':
				return hw.ButtonRight, false, true
			}
		}
	}
	return hw.ButtonNone, false, true
}

func (k *Keyboard) pulse(ctx context.Context, b hw.Button) error {
	pin := k.m.Left
	if b == hw.ButtonRight {
		pin = k.m.Right
	}
	if err := k.pins.Write(pin, false); err != nil {
		return err
	}
	t := time.NewTimer(k.press)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
	return k.pins.Write(pin, true)
}
