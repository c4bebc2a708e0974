package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/usb-cleaner-box/ucb/internal/hw"
	"github.com/usb-cleaner-box/ucb/internal/sim"
)

const checkStep = 500 * time.Millisecond

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "troubleshoot the hardware of the box",
}

var checkLEDsCmd = &cobra.Command{
	Use:   "leds",
	Short: "light the green, orange and red LEDs one after another",
	Args:  cobra.NoArgs,
	RunE:  doCheckLEDs,
}

var checkButtonsCmd = &cobra.Command{
	Use:   "buttons",
	Short: "print every button press until interrupted",
	Args:  cobra.NoArgs,
	RunE:  doCheckButtons,
}

func init() {
	checkCmd.AddCommand(checkLEDsCmd)
	checkCmd.AddCommand(checkButtonsCmd)
}

func doCheckLEDs(cmd *cobra.Command, _ []string) error {
	if err := checkBackend(); err != nil {
		return err
	}
	ctx := cmd.Context()
	box, _ := newBackend(nil)
	defer func() {
		_ = box.Close()
	}()

	for _, c := range []hw.Color{hw.ColorGreen, hw.ColorOrange, hw.ColorRed} {
		if err := box.SetIndicator(ctx, c, hw.ModeSolid); err != nil {
			return fmt.Errorf("led %s: %w", c, err)
		}
		if err := pause(ctx, checkStep); err != nil {
			return err
		}
		if err := box.SetIndicator(ctx, hw.ColorOff, hw.ModeSolid); err != nil {
			return fmt.Errorf("led %s: %w", c, err)
		}
		if err := pause(ctx, checkStep); err != nil {
			return err
		}
	}
	return nil
}

func doCheckButtons(cmd *cobra.Command, _ []string) error {
	if err := checkBackend(); err != nil {
		return err
	}
	box, keyboard := newBackend(nil)
	defer func() {
		_ = box.Close()
	}()

	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error {
		return keyboard.Run(ctx)
	})
	g.Go(func() error {
		for {
			b, err := box.WaitForButton(ctx, 0)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s button pressed\r\n", b)
		}
	})

	err := g.Wait()
	if errors.Is(err, sim.ErrQuit) {
		return nil
	}
	return err
}

func pause(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
