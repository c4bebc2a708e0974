package hw_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/usb-cleaner-box/ucb/internal/hw"
)

type fakeTones struct {
	mx       sync.Mutex
	tones    []float64
	silences int
	fail     bool
}

func (f *fakeTones) Tone(freq float64) error {
	f.mx.Lock()
	defer f.mx.Unlock()
	if f.fail {
		return errors.New("pwm busy")
	}
	f.tones = append(f.tones, freq)
	return nil
}

func (f *fakeTones) Silence() error {
	f.mx.Lock()
	defer f.mx.Unlock()
	f.silences++
	return nil
}

func TestBuzzer(t *testing.T) {
	for cue, notes := range hw.Melodies {
		t.Run(cue.String(), func(t *testing.T) {
			synctest.Test(t, func(t *testing.T) {
				tones := &fakeTones{}
				buzzer := hw.NewBuzzer(tones)

				var want []float64
				var total time.Duration
				for _, n := range notes {
					if n.Freq != 0 {
						want = append(want, n.Freq)
					}
					total += n.Dur
				}

				start := time.Now()
				require.NoError(t, buzzer.Play(t.Context(), cue))
				require.Equal(t, total, time.Since(start))
				require.Equal(t, want, tones.tones)
				require.GreaterOrEqual(t, tones.silences, 1)
			})
		})
	}
}

func TestBuzzer_Beep(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		tones := &fakeTones{}
		start := time.Now()
		require.NoError(t, hw.NewBuzzer(tones).Play(t.Context(), hw.CueBeep))
		require.Equal(t, 300*time.Millisecond, time.Since(start))
		require.Equal(t, []float64{440}, tones.tones)
	})
}

func TestBuzzer_Errors(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		tones := &fakeTones{}
		buzzer := hw.NewBuzzer(tones)

		require.Error(t, buzzer.Play(t.Context(), hw.Cue(42)))

		ctx, cancel := context.WithTimeout(t.Context(), 100*time.Millisecond)
		defer cancel()
		err := buzzer.Play(ctx, hw.CueStartup)
		require.ErrorIs(t, err, context.DeadlineExceeded)
		require.Equal(t, 1, tones.silences)

		tones.fail = true
		require.ErrorContains(t, buzzer.Play(t.Context(), hw.CueBeep), "pwm busy")
	})
}
