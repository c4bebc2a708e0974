package service_test

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/usb-cleaner-box/ucb/internal/model"
	"github.com/usb-cleaner-box/ucb/internal/service"
)

func script(t *testing.T, body string) model.Worker {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skipf("skipped, binary sh not available: %v", err)
	}
	path := filepath.Join(t.TempDir(), "worker.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return model.Worker{ID: "worker.sh", Path: path, Question: "Run?", Order: 1, Enabled: true}
}

func TestRunner(t *testing.T) {
	t.Parallel()

	var testCases = []struct {
		scenario string
		given    string
		then     model.RunResult
	}{
		{
			scenario: "success",
			given:    `echo "scan $1"; echo "device=$UCB_DEVICE lcd=$UCB_LCD_COMMAND_FILE"`,
			then: model.RunResult{
				Succeeded: true,
				ExitCode:  0,
				Stdout:    "scan sdb\ndevice=sdb lcd=/tmp/lcd\n",
			},
		},
		{
			scenario: "exit code",
			given:    `echo partial; echo "broken" 1>&2; exit 3`,
			then: model.RunResult{
				Succeeded: false,
				ExitCode:  3,
				Stdout:    "partial\n",
				Stderr:    "broken\n",
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.scenario, func(t *testing.T) {
			t.Parallel()
			worker := script(t, tc.given)
			runner := service.NewRunner().WithEnv("UCB_LCD_COMMAND_FILE=/tmp/lcd")
			res := runner.Run(t.Context(), worker, "sdb")
			require.NotZero(t, res.Started)
			require.False(t, res.Stopped.Before(res.Started))
			res.Started, res.Stopped = time.Time{}, time.Time{}
			require.Equal(t, tc.then, res)
		})
	}
}

func TestRunner_Timeout(t *testing.T) {
	t.Parallel()
	// the child keeps the pipes open: the whole process group has to be killed
	worker := script(t, "sleep 30 &\nsleep 30")
	runner := service.NewRunner().
		WithTimeout(200 * time.Millisecond).
		WithWaitDelay(time.Second)

	start := time.Now()
	res := runner.Run(t.Context(), worker, "sdb")
	require.Less(t, time.Since(start), 10*time.Second)
	require.False(t, res.Succeeded)
	require.Equal(t, -1, res.ExitCode)
	require.Equal(t, "worker timeout after 200ms", res.Stderr)
}

func TestRunner_DefaultTimeout(t *testing.T) {
	t.Parallel()
	runner := service.NewRunner()
	require.Equal(t, 10*time.Minute, runner.Timeout())
	require.Equal(t, 10*time.Minute, runner.WithTimeout(0).Timeout())
}

func TestRunner_Canceled(t *testing.T) {
	t.Parallel()
	worker := script(t, "sleep 30")
	ctx, cancel := context.WithCancel(t.Context())
	time.AfterFunc(100*time.Millisecond, cancel)

	res := service.NewRunner().Run(ctx, worker, "sdb")
	require.False(t, res.Succeeded)
	require.Equal(t, -1, res.ExitCode)
	require.Equal(t, "worker canceled", res.Stderr)
}

func TestRunner_LaunchError(t *testing.T) {
	t.Parallel()
	worker := model.Worker{ID: "missing.sh", Path: filepath.Join(t.TempDir(), "missing.sh")}
	res := service.NewRunner().Run(t.Context(), worker, "sdb")
	require.False(t, res.Succeeded)
	require.Equal(t, -1, res.ExitCode)
	require.Contains(t, res.Stderr, "no such file or directory")
}

func TestRunner_InProgress(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	marker := filepath.Join(dir, "started")
	worker := script(t, "touch "+marker+"\nsleep 30")

	runner := service.NewRunner()
	ctx, cancel := context.WithCancel(t.Context())
	var wg sync.WaitGroup
	var first model.RunResult
	wg.Go(func() {
		first = runner.Run(ctx, worker, "sdb")
	})
	require.Eventually(t, func() bool {
		_, err := os.Stat(marker)
		return err == nil
	}, 5*time.Second, 10*time.Millisecond)

	second := runner.Run(t.Context(), worker, "sdc")
	require.Equal(t, model.Failed(model.ErrWorkerInProgress.Error()), second)

	cancel()
	wg.Wait()
	require.Equal(t, "worker canceled", first.Stderr)
}
