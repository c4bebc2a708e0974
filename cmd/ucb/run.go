package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/usb-cleaner-box/ucb/internal/catalog"
	"github.com/usb-cleaner-box/ucb/internal/hw"
	"github.com/usb-cleaner-box/ucb/internal/journal"
	"github.com/usb-cleaner-box/ucb/internal/lcdipc"
	"github.com/usb-cleaner-box/ucb/internal/log"
	"github.com/usb-cleaner-box/ucb/internal/model"
	"github.com/usb-cleaner-box/ucb/internal/service"
	"github.com/usb-cleaner-box/ucb/internal/sim"
	"github.com/usb-cleaner-box/ucb/internal/usb"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "run the kiosk: wait for USB devices and offer the workers",
	RunE:  doRun,
}

func doRun(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	attrs := slog.Group("ucb",
		slog.String("cmd", "run"),
		slog.Int("pid", os.Getpid()),
	)
	ctx = log.ContextAttrs(ctx, attrs)

	if err := checkBackend(); err != nil {
		return err
	}

	cat := catalog.New(config.Workers.Dir).WithSuffix(config.Workers.Suffix)
	cat.Discover(ctx)

	jrn := journal.Open(config.Journal)
	defer func() {
		_ = jrn.Close()
	}()

	devices, err := newDevices(ctx)
	if err != nil {
		return err
	}

	box, keyboard := newBackend(devices)

	runner := service.NewRunner().
		WithTimeout(config.Workers.Timeout.AsDuration()).
		WithEnv("UCB_LCD_COMMAND_FILE=" + config.LCD.CommandFile)

	timings := service.DefaultTimings()
	timings.PollInterval = config.Session.PollInterval.AsDuration()
	timings.AnswerTimeout = config.Session.AnswerTimeout.AsDuration()
	supervisor := service.NewSupervisor(box, cat, runner, jrn).WithTimings(timings)

	if config.Workers.Refresh != nil {
		refresher, err := service.NewRefresher(ctx, config.Workers.Refresh, func() {
			cat.Discover(ctx)
		})
		if err != nil {
			return err
		}
		refresher.Start()
		defer func() {
			if err := refresher.Shutdown(); err != nil {
				slog.WarnContext(ctx, "stopping refresher", "error", err)
			}
		}()
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return supervisor.Do(ctx)
	})
	g.Go(func() error {
		return keyboard.Run(ctx)
	})
	if config.Workers.Watch {
		g.Go(func() error {
			if err := cat.Watch(ctx); err != nil {
				slog.WarnContext(ctx, "workers directory is not watched", "error", err)
			}
			return nil
		})
	}

	requests := make(chan lcdipc.Request)
	monitor := lcdipc.NewMonitor(config.LCD.CommandFile)
	g.Go(func() error {
		defer close(requests)
		if err := monitor.Run(ctx, requests); err != nil {
			slog.WarnContext(ctx, "lcd commands are disabled", "path", monitor.Path(), "error", err)
		}
		return nil
	})
	g.Go(func() error {
		return lcdipc.Relay(ctx, requests, box.LCD())
	})

	err = g.Wait()
	if errors.Is(err, sim.ErrQuit) {
		slog.InfoContext(ctx, "quit requested")
		return nil
	}
	return err
}

func newDevices(ctx context.Context) (hw.Devices, error) {
	switch config.Hardware.Devices {
	case model.DevicesDir:
		d := sim.NewDirDevices(config.Hardware.DevicesDir)
		dir, err := d.Dir()
		if err != nil {
			return nil, err
		}
		slog.InfoContext(ctx, "simulated devices", "dir", dir)
		return d, nil
	default:
		return usb.NewDetector(), nil
	}
}

func checkBackend() error {
	if config.Hardware.Backend != model.BackendSim {
		return fmt.Errorf("hardware backend %q is not supported", config.Hardware.Backend)
	}
	return nil
}

// newBackend assembles the simulated box: the LCD and the LEDs are drawn on
// stdout and the buttons are read from stdin.
func newBackend(devices hw.Devices) (*hw.Box, *sim.Keyboard) {
	m := hw.DefaultPinMap()
	terminal := sim.NewTerminal(os.Stdout, m)
	pins := sim.NewPins(m).OnChange(terminal.OnPin)
	box := hw.NewBox(hw.NewBoard(pins, m), terminal, sim.NewTones(pins, m.Buzzer), devices)
	return box, sim.NewKeyboard(os.Stdin, pins, m)
}
