package service

import "time"

type State int

const (
	StateIdle State = iota
	StateDevicePresent
	StateAsking
	StateWorkerRunning
	StateResultShown
	StateWaitingForRemoval
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateDevicePresent:
		return "DEVICE_PRESENT"
	case StateAsking:
		return "ASKING"
	case StateWorkerRunning:
		return "WORKER_RUNNING"
	case StateResultShown:
		return "RESULT_SHOWN"
	case StateWaitingForRemoval:
		return "WAITING_FOR_REMOVAL"
	default:
		return "UNKNOWN"
	}
}

// Timings are the delays of the session. A zero AnswerTimeout waits for a
// button forever.
type Timings struct {
	PollInterval   time.Duration
	SettleDelay    time.Duration
	MessagePause   time.Duration
	AnswerFlash    time.Duration
	BetweenWorkers time.Duration
	AnswerTimeout  time.Duration
	StartupSweep   time.Duration
	GoodbyeSweep   time.Duration
}

func DefaultTimings() Timings {
	return Timings{
		PollInterval:   500 * time.Millisecond,
		SettleDelay:    time.Second,
		MessagePause:   2 * time.Second,
		AnswerFlash:    300 * time.Millisecond,
		BetweenWorkers: 500 * time.Millisecond,
		StartupSweep:   4 * time.Second,
		GoodbyeSweep:   2 * time.Second,
	}
}
