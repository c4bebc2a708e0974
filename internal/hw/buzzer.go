package hw

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ToneGenerator drives the buzzer, typically through PWM.
type ToneGenerator interface {
	Tone(freq float64) error
	Silence() error
}

// Note is a tone held for Dur. A zero Freq is a rest.
type Note struct {
	Freq float64
	Dur  time.Duration
}

const (
	noteG3  = 196.00
	noteA3  = 220.00
	noteC4  = 261.63
	noteEb4 = 311.13
	noteE4  = 329.63
	noteE4s = 331.13
	noteF4  = 349.23
	noteFs4 = 369.99
	noteG4  = 392.00
	noteAb4 = 415.30
	noteA4  = 440.00
)

func ms(n float64) time.Duration {
	return time.Duration(n * float64(time.Millisecond))
}

func failureMelody() []Note {
	notes := []Note{{noteG4, ms(200)}, {noteFs4, ms(200)}, {noteF4, ms(200)}}
	for range 9 {
		notes = append(notes, Note{noteE4, ms(200.0 / 3)}, Note{noteE4s, ms(200.0 / 3)})
	}
	return notes
}

func warningMelody() []Note {
	var notes []Note
	for range 4 {
		notes = append(notes, Note{noteA3, ms(100)}, Note{0, ms(50)})
	}
	return notes
}

// Melodies maps every cue to its notes.
var Melodies = map[Cue][]Note{
	CueStartup: {{noteC4, ms(500)}, {noteG4, ms(500)}, {noteAb4, ms(375)}, {noteEb4, ms(500)}},
	CueSuccess: {
		{noteG3, ms(100)}, {noteC4, ms(100)}, {noteE4, ms(100)},
		{noteG4, ms(200)}, {noteE4, ms(100)}, {noteG4, ms(500)},
	},
	CueFailure: failureMelody(),
	CueWarning: warningMelody(),
	CueBeep:    {{noteA4, ms(300)}},
}

// Buzzer plays one melody at a time; Play blocks until the melody is over.
type Buzzer struct {
	mx  sync.Mutex
	gen ToneGenerator
}

func NewBuzzer(gen ToneGenerator) *Buzzer {
	return &Buzzer{gen: gen}
}

func (b *Buzzer) Play(ctx context.Context, cue Cue) (err error) {
	notes, ok := Melodies[cue]
	if !ok {
		return fmt.Errorf("unknown cue %d", cue)
	}

	b.mx.Lock()
	defer b.mx.Unlock()
	defer func() {
		err = errors.Join(err, b.gen.Silence())
	}()

	for _, n := range notes {
		if n.Freq == 0 {
			err = b.gen.Silence()
		} else {
			err = b.gen.Tone(n.Freq)
		}
		if err != nil {
			return fmt.Errorf("playing %s: %w", cue, err)
		}
		if err := sleep(ctx, n.Dur); err != nil {
			return err
		}
	}
	return nil
}

func (b *Buzzer) Silence() error {
	return b.gen.Silence()
}
