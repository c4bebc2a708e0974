package hw_test

import (
	"context"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/usb-cleaner-box/ucb/internal/hw"
)

// press holds pin low during [at, at+hold) of the bubble clock.
func press(pins *fakePins, pin hw.Pin, at, hold time.Duration) {
	go func() {
		time.Sleep(at)
		pins.set(pin, false)
		time.Sleep(hold)
		pins.set(pin, true)
	}()
}

func TestButtons(t *testing.T) {
	m := hw.DefaultPinMap()
	var testCases = []struct {
		scenario string
		given    func(pins *fakePins)
		timeout  time.Duration
		then     hw.Button
	}{
		{
			scenario: "right",
			given: func(pins *fakePins) {
				press(pins, m.Right, 100*time.Millisecond, 200*time.Millisecond)
			},
			then: hw.ButtonRight,
		},
		{
			scenario: "left",
			given: func(pins *fakePins) {
				press(pins, m.Left, 100*time.Millisecond, 200*time.Millisecond)
			},
			then: hw.ButtonLeft,
		},
		{
			scenario: "bounce is ignored",
			given: func(pins *fakePins) {
				press(pins, m.Left, 100*time.Millisecond, 20*time.Millisecond)
				press(pins, m.Right, time.Second, 200*time.Millisecond)
			},
			then: hw.ButtonRight,
		},
		{
			scenario: "held button must be released first",
			given: func(pins *fakePins) {
				pins.set(m.Left, false)
				press(pins, m.Right, time.Second, 200*time.Millisecond)
				go func() {
					time.Sleep(500 * time.Millisecond)
					pins.set(m.Left, true)
				}()
			},
			then: hw.ButtonRight,
		},
		{
			scenario: "timeout",
			given:    func(*fakePins) {},
			timeout:  2 * time.Second,
			then:     hw.ButtonNone,
		},
		{
			scenario: "timeout while held",
			given: func(pins *fakePins) {
				pins.set(m.Right, false)
			},
			timeout: time.Second,
			then:    hw.ButtonNone,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.scenario, func(t *testing.T) {
			synctest.Test(t, func(t *testing.T) {
				board, pins := newBoard()
				buttons := hw.NewButtons(board)
				tc.given(pins)

				start := time.Now()
				got, err := buttons.Wait(t.Context(), tc.timeout)
				require.NoError(t, err)
				require.Equal(t, tc.then, got)
				if tc.timeout > 0 {
					require.GreaterOrEqual(t, time.Since(start), tc.timeout)
				}
			})
		})
	}
}

func TestButtons_Canceled(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		board, _ := newBoard()
		buttons := hw.NewButtons(board)
		ctx, cancel := context.WithTimeout(t.Context(), time.Second)
		defer cancel()

		got, err := buttons.Wait(ctx, 0)
		require.ErrorIs(t, err, context.DeadlineExceeded)
		require.Equal(t, hw.ButtonNone, got)
	})
}
