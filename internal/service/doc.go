// Package service drives the appliance: it runs worker scripts and sequences
// the session of every inserted USB device.
//
// Overview
// The Supervisor owns a single-goroutine state machine. It polls the hardware
// facade for a new device, asks a yes/no question per active worker, runs the
// accepted workers through the Runner, shows the classified result and waits
// for the device to be removed.
//
//	Idle --new device--> DevicePresent --> Asking <----------------+
//	                                         | yes                 |
//	                                         v                     |
//	                                   WorkerRunning --> ResultShown
//	                                         | last worker, no repeat
//	                                         v
//	                                WaitingForRemoval --removed--> Idle
//
// Runner is a thin wrapper around os/exec:
//   - runs "<script> <device>" in its own process group
//   - captures stdout and stderr
//   - kills the whole group on timeout or cancellation
//   - refuses a second concurrent run
//
// Invariants:
//   - At most one worker process at a time.
//   - Every run produces one RunResult, failures included.
//   - A hardware error is logged and never ends a session.
//   - A session error or panic shows a generic error and returns to Idle.
//   - Only the cancellation of the context ends Supervisor.Do, and the
//     hardware is always shut down on the way out.
//
// NewRefresher schedules periodic catalog rediscovery with gocron.
package service
