package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"github.com/usb-cleaner-box/ucb/internal/classify"
	"github.com/usb-cleaner-box/ucb/internal/hw"
	"github.com/usb-cleaner-box/ucb/internal/log"
	"github.com/usb-cleaner-box/ucb/internal/model"
)

// Workers supplies the ordered workers of a session.
type Workers interface {
	Active(includeDisabled bool) []model.Worker
}

// Executor runs one worker against a device.
type Executor interface {
	Run(ctx context.Context, worker model.Worker, device string) model.RunResult
}

// Journal is the append-only session log.
type Journal interface {
	Message(msg string) error
	Banner(sessionID string, info model.DeviceInfo) error
	Choice(workerID string, yes bool) error
	Result(workerID string, outcome model.Outcome, exitCode int) error
	Separator() error
}

type Supervisor struct {
	hw       hw.Facade
	workers  Workers
	executor Executor
	journal  Journal
	timings  Timings
	observer func(State)

	state   State
	seen    hw.DeviceSet
	session session
}

// session is the state of the device being served. An empty device means
// there is none.
type session struct {
	id     string
	device string
	info   model.DeviceInfo
}

func NewSupervisor(facade hw.Facade, workers Workers, executor Executor, journal Journal) *Supervisor {
	return &Supervisor{
		hw:       facade,
		workers:  workers,
		executor: executor,
		journal:  journal,
		timings:  DefaultTimings(),
		seen:     hw.NewDeviceSet(),
	}
}

// WithObserver registers fn to receive every state transition. fn is called
// from the supervisor goroutine.
func (s *Supervisor) WithObserver(fn func(State)) *Supervisor {
	s.observer = fn
	return s
}

func (s *Supervisor) WithTimings(t Timings) *Supervisor {
	s.timings = t
	return s
}

// Do runs the startup sequence and then serves devices one at a time until
// ctx is canceled. Errors and panics, in a session or while waiting for one,
// are contained, so Do returns nil only once ctx is done.
// Shutdown: LEDs off and the facade closed, whatever the exit path.
func (s *Supervisor) Do(ctx context.Context) error {
	slog.DebugContext(ctx, "starting a supervisor")
	defer s.teardown(ctx)

	err := s.guard(ctx, func() error {
		s.startup(ctx)
		if ids, err := s.hw.ListRemovableDeviceIDs(ctx); err != nil {
			s.hwError(ctx, "list devices", err)
		} else {
			s.seen = ids
		}
		return nil
	})
	if err != nil {
		s.fault(ctx, err)
	}

	for {
		err := s.guard(ctx, func() error {
			s.idle(ctx)
			device, err := s.waitForDevice(ctx)
			if err != nil {
				return err
			}
			s.serve(ctx, device)
			return nil
		})
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			s.fault(ctx, err)
		}
	}
}

func (s *Supervisor) startup(ctx context.Context) {
	s.display(ctx, startupLine1, startupLine2)
	s.cue(ctx, hw.CueStartup)
	s.sweep(ctx, s.timings.StartupSweep)
	s.message("USB Cleaner Box started")
}

func (s *Supervisor) idle(ctx context.Context) {
	s.session = session{}
	s.transition(ctx, StateIdle)
	s.display(ctx, waitingLine1, waitingLine2)
	s.indicator(ctx, hw.ColorOff, hw.ModeSolid)
}

// waitForDevice polls until a device absent from the previous poll shows up.
// When several appear at once any of them is taken.
func (s *Supervisor) waitForDevice(ctx context.Context) (string, error) {
	for {
		current, err := s.hw.ListRemovableDeviceIDs(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			s.hwError(ctx, "list devices", err)
		} else {
			var found string
			for id := range current {
				if !s.seen.Has(id) {
					found = id
					break
				}
			}
			s.seen = current
			if found != "" {
				return found, nil
			}
		}
		if err := sleep(ctx, s.timings.PollInterval); err != nil {
			return "", err
		}
	}
}

// serve runs a whole session and contains its failures.
func (s *Supervisor) serve(ctx context.Context, device string) {
	s.session = session{
		id:     uuid.NewString(),
		device: device,
		info:   model.NewDeviceInfo(device),
	}
	ctx = log.ContextAttrs(ctx,
		slog.String("session_id", s.session.id),
		slog.String("device", device),
	)
	slog.InfoContext(ctx, "USB device detected")

	err := s.guard(ctx, func() error {
		return s.runSession(ctx)
	})
	switch {
	case err == nil:
	case ctx.Err() != nil:
		slog.InfoContext(ctx, "session interrupted by shutdown")
	case errors.Is(err, model.ErrDeviceRemoved):
		slog.WarnContext(ctx, "device removed during the session")
		s.message("USB device removed during the session: " + device)
		s.separator()
	default:
		s.fault(ctx, err)
	}
}

// guard turns a panic of fn into an error.
func (s *Supervisor) guard(ctx context.Context, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "panic recovered", "panic", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}

// fault shows a generic error. The device stays in the seen set, so it does
// not start a new session until it is unplugged and plugged again.
// The pause is kept even when the error screen itself fails, so a broken
// facade can't spin the main loop.
func (s *Supervisor) fault(ctx context.Context, err error) {
	slog.ErrorContext(ctx, "session failed", "error", err)
	_ = s.guard(ctx, func() error {
		s.message("Session error: " + err.Error())
		s.separator()
		s.display(ctx, faultLine1, faultLine2)
		s.indicator(ctx, hw.ColorRed, hw.ModeBlink)
		s.cue(ctx, hw.CueFailure)
		return nil
	})
	_ = sleep(ctx, max(s.timings.MessagePause, s.timings.PollInterval))
}

func (s *Supervisor) runSession(ctx context.Context) error {
	s.transition(ctx, StateDevicePresent)
	if err := sleep(ctx, s.timings.SettleDelay); err != nil {
		return err
	}

	device := s.session.device
	info, err := s.hw.DeviceInfo(ctx, device)
	if err != nil {
		s.hwError(ctx, "device info", err)
	}
	if info.Device != "" {
		s.session.info = info
	}
	slog.DebugContext(ctx, "device info", "info", s.session.info)
	if err := s.journal.Banner(s.session.id, s.session.info); err != nil {
		slog.ErrorContext(ctx, "journal banner", "error", err)
	}
	s.message("USB device detected: " + device)

	s.display(ctx, detectedLine1, s.session.info.Size)
	s.cue(ctx, hw.CueBeep)
	if err := sleep(ctx, s.timings.MessagePause); err != nil {
		return err
	}

	for {
		workers := s.workers.Active(false)
		if len(workers) == 0 {
			slog.WarnContext(ctx, "no enabled workers available")
			s.message("No enabled workers available")
			s.display(ctx, noWorkersLine1, noWorkersLine2)
			if err := sleep(ctx, s.timings.MessagePause); err != nil {
				return err
			}
			break
		}
		if err := s.runWorkers(ctx, workers); err != nil {
			return err
		}
		again, err := s.ask(ctx, promptRepeat)
		if err != nil {
			return err
		}
		if !again {
			break
		}
	}
	return s.waitForRemoval(ctx)
}

func (s *Supervisor) runWorkers(ctx context.Context, workers []model.Worker) error {
	slog.InfoContext(ctx, "enabled workers", "count", len(workers))
	for _, w := range workers {
		yes, err := s.ask(ctx, w.Question)
		if err != nil {
			return err
		}
		if err := s.journal.Choice(w.ID, yes); err != nil {
			slog.ErrorContext(ctx, "journal choice", "error", err)
		}
		if yes {
			if err := s.runWorker(ctx, w); err != nil {
				return err
			}
		} else {
			slog.InfoContext(ctx, "skipping worker", "worker", w.ID)
		}
		if err := sleep(ctx, s.timings.BetweenWorkers); err != nil {
			return err
		}
	}
	return nil
}

// ask shows a yes/no question. RIGHT is yes; LEFT, no answer before the
// timeout or a button failure are no.
func (s *Supervisor) ask(ctx context.Context, question string) (bool, error) {
	if err := s.ensurePresent(ctx); err != nil {
		return false, err
	}
	s.transition(ctx, StateAsking)
	s.display(ctx, question, promptAnswers)
	s.indicator(ctx, hw.ColorOrange, hw.ModeSolid)

	button, err := s.hw.WaitForButton(ctx, s.timings.AnswerTimeout)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		s.hwError(ctx, "wait for button", err)
		button = hw.ButtonNone
	}
	yes := button == hw.ButtonRight
	slog.InfoContext(ctx, "answer", "question", question, "button", button.String(), "yes", yes)

	if yes {
		s.indicator(ctx, hw.ColorGreen, hw.ModeSolid)
	} else {
		s.indicator(ctx, hw.ColorRed, hw.ModeSolid)
	}
	return yes, sleep(ctx, s.timings.AnswerFlash)
}

// ensurePresent returns ErrDeviceRemoved when the device of the session is
// gone. A failed listing is not proof of removal.
func (s *Supervisor) ensurePresent(ctx context.Context) error {
	ids, err := s.hw.ListRemovableDeviceIDs(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.hwError(ctx, "list devices", err)
		return nil
	}
	if !ids.Has(s.session.device) {
		return fmt.Errorf("%s: %w", s.session.device, model.ErrDeviceRemoved)
	}
	return nil
}

func (s *Supervisor) runWorker(ctx context.Context, w model.Worker) error {
	s.transition(ctx, StateWorkerRunning)
	s.display(ctx, runningLine1, runningLine2)
	s.indicator(ctx, hw.ColorOrange, hw.ModeSolid)
	slog.InfoContext(ctx, "running worker", "worker", w.ID, "description", w.Description)
	s.message("Running worker: " + w.ID)

	res := s.executor.Run(ctx, w, s.session.device)
	if ctx.Err() != nil {
		return ctx.Err()
	}

	outcome := classify.Classify(res)
	s.transition(ctx, StateResultShown)
	slog.InfoContext(ctx, "worker finished",
		"worker", w.ID,
		"outcome", outcome.String(),
		"exit_code", res.ExitCode,
	)
	if outcome == model.OutcomeError {
		slog.ErrorContext(ctx, "worker failed", "worker", w.ID, "stderr", res.Stderr)
	}
	if err := s.journal.Result(w.ID, outcome, res.ExitCode); err != nil {
		slog.ErrorContext(ctx, "journal result", "error", err)
	}

	fb := feedbackFor(outcome)
	s.display(ctx, fb.line1, fb.line2)
	s.indicator(ctx, fb.color, hw.ModeBlink)
	s.cue(ctx, fb.cue)
	return sleep(ctx, s.timings.MessagePause)
}

func (s *Supervisor) waitForRemoval(ctx context.Context) error {
	s.transition(ctx, StateWaitingForRemoval)
	s.display(ctx, goodbyeLine1, goodbyeLine2)
	s.sweep(ctx, s.timings.GoodbyeSweep)
	if err := sleep(ctx, s.timings.MessagePause); err != nil {
		return err
	}

	for {
		ids, err := s.hw.ListRemovableDeviceIDs(ctx)
		switch {
		case err != nil && ctx.Err() != nil:
			return ctx.Err()
		case err != nil:
			s.hwError(ctx, "list devices", err)
		case !ids.Has(s.session.device):
			slog.InfoContext(ctx, "USB device removed")
			s.message("USB device removed: " + s.session.device)
			s.separator()
			return nil
		}
		if err := sleep(ctx, s.timings.PollInterval); err != nil {
			return err
		}
	}
}

// teardown runs with a context of its own, the parent is usually canceled.
func (s *Supervisor) teardown(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	slog.DebugContext(ctx, "shutting down the hardware")
	_ = s.guard(ctx, func() error {
		s.indicator(ctx, hw.ColorOff, hw.ModeSolid)
		return nil
	})
	if err := s.guard(ctx, s.hw.Close); err != nil {
		s.hwError(ctx, "close", err)
	}
	_ = s.guard(ctx, func() error {
		s.message("USB Cleaner Box stopped")
		return nil
	})
}

func (s *Supervisor) transition(ctx context.Context, st State) {
	slog.DebugContext(ctx, "state", "from", s.state.String(), "to", st.String())
	s.state = st
	if s.observer != nil {
		s.observer(st)
	}
}

func (s *Supervisor) display(ctx context.Context, line1, line2 string) {
	if err := s.hw.Display(ctx, line1, line2); err != nil {
		s.hwError(ctx, "display", err)
	}
}

func (s *Supervisor) indicator(ctx context.Context, c hw.Color, m hw.Mode) {
	if err := s.hw.SetIndicator(ctx, c, m); err != nil {
		s.hwError(ctx, "indicator", err)
	}
}

func (s *Supervisor) cue(ctx context.Context, c hw.Cue) {
	if err := s.hw.PlayCue(ctx, c); err != nil && ctx.Err() == nil {
		s.hwError(ctx, "cue "+c.String(), err)
	}
}

// sweep plays the LED chase, when the facade has one, and waits for it.
func (s *Supervisor) sweep(ctx context.Context, d time.Duration) {
	sw, ok := s.hw.(hw.Sweeper)
	if !ok || d <= 0 {
		return
	}
	if err := sw.Sweep(ctx, d); err != nil {
		s.hwError(ctx, "sweep", err)
		return
	}
	_ = sleep(ctx, d)
}

func (s *Supervisor) hwError(ctx context.Context, op string, err error) {
	slog.WarnContext(ctx, "hardware error: ignoring", "op", op, "error", err)
}

func (s *Supervisor) message(msg string) {
	if err := s.journal.Message(msg); err != nil {
		slog.Error("journal", "error", err)
	}
}

func (s *Supervisor) separator() {
	if err := s.journal.Separator(); err != nil {
		slog.Error("journal separator", "error", err)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
