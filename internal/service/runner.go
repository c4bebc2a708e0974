package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/usb-cleaner-box/ucb/internal/model"
)

const (
	DefaultTimeout   = 600 * time.Second
	DefaultWaitDelay = 2 * time.Second
)

var errWorkerTimeout = errors.New("worker timeout")

// Runner executes worker scripts, one at a time.
type Runner struct {
	mx        sync.Mutex
	running   bool
	timeout   time.Duration
	waitDelay time.Duration
	env       []string
}

func NewRunner() *Runner {
	return &Runner{
		timeout:   DefaultTimeout,
		waitDelay: DefaultWaitDelay,
	}
}

// WithTimeout changes the hard timeout of every run. Zero keeps the default.
func (r *Runner) WithTimeout(d time.Duration) *Runner {
	if d > 0 {
		r.timeout = d
	}
	return r
}

// WithWaitDelay bounds how long Run waits for the output pipes to be closed
// after the worker process exited or was killed.
func (r *Runner) WithWaitDelay(d time.Duration) *Runner {
	r.waitDelay = d
	return r
}

// WithEnv adds KEY=VALUE pairs to the environment of every worker.
func (r *Runner) WithEnv(env ...string) *Runner {
	r.env = append(r.env, env...)
	return r
}

func (r *Runner) Timeout() time.Duration {
	return r.timeout
}

// Run executes "<worker.Path> <device>" and waits for it to finish.
// It never returns an error: a timeout, a cancellation, a launch failure or a
// concurrent run are all reported as a failed result with ExitCode -1.
// The worker runs in its own process group which is killed as a whole on
// timeout or cancellation.
func (r *Runner) Run(ctx context.Context, worker model.Worker, device string) model.RunResult {
	if !r.acquire() {
		return model.Failed(model.ErrWorkerInProgress.Error())
	}
	defer r.release()

	ctx, cancel := context.WithTimeoutCause(ctx, r.timeout, errWorkerTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, worker.Path, device)
	cmd.Env = append(os.Environ(), "UCB_DEVICE="+device)
	cmd.Env = append(cmd.Env, r.env...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return killGroup(cmd.Process.Pid)
	}
	cmd.WaitDelay = r.waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	started := time.Now().UTC()
	slog.DebugContext(ctx, "starting worker", "worker", worker.ID, "path", worker.Path, "device", device)
	if err := cmd.Start(); err != nil {
		slog.ErrorContext(ctx, "worker can't be started", "worker", worker.ID, "error", err)
		res := model.Failed(err.Error())
		res.Started, res.Stopped = started, time.Now().UTC()
		return res
	}

	err := cmd.Wait()
	res := model.RunResult{
		Stdout:  stdout.String(),
		Stderr:  stderr.String(),
		Started: started,
		Stopped: time.Now().UTC(),
	}

	switch {
	case err != nil && errors.Is(context.Cause(ctx), errWorkerTimeout):
		slog.WarnContext(ctx, "worker timed out", "worker", worker.ID, "timeout", r.timeout)
		res.Succeeded, res.ExitCode = false, -1
		res.Stderr = fmt.Sprintf("worker timeout after %s", r.timeout)
	case err != nil && ctx.Err() != nil:
		slog.WarnContext(ctx, "worker canceled", "worker", worker.ID)
		res.Succeeded, res.ExitCode = false, -1
		res.Stderr = "worker canceled"
	default:
		res.ExitCode = cmd.ProcessState.ExitCode()
		// an orphaned child holding the pipes does not fail a worker which exited 0
		res.Succeeded = cmd.ProcessState.Success() && (err == nil || errors.Is(err, exec.ErrWaitDelay))
	}

	slog.DebugContext(ctx, "worker finished",
		"worker", worker.ID,
		"exit_code", res.ExitCode,
		"elapsed", res.Stopped.Sub(res.Started).String(),
	)
	return res
}

func (r *Runner) acquire() bool {
	r.mx.Lock()
	defer r.mx.Unlock()
	if r.running {
		return false
	}
	r.running = true
	return true
}

func (r *Runner) release() {
	r.mx.Lock()
	r.running = false
	r.mx.Unlock()
}

func killGroup(pid int) error {
	err := unix.Kill(-pid, unix.SIGKILL)
	if errors.Is(err, unix.ESRCH) {
		return os.ErrProcessDone
	}
	return err
}
