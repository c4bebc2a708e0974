package model

import (
	"fmt"
	"time"
)

// DefaultOrder is assigned to workers without a valid WORKER_ORDER so they sort last.
const DefaultOrder = 999

// Worker describes a discovered worker script. It is immutable once discovered.
type Worker struct {
	ID          string `json:"id" yaml:"id"` // script file name
	Path        string `json:"path" yaml:"path"`
	Question    string `json:"question" yaml:"question"`
	Order       int    `json:"order" yaml:"order"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Enabled     bool   `json:"enabled" yaml:"enabled"`
}

func (w Worker) String() string {
	status := "enabled"
	if !w.Enabled {
		status = "disabled"
	}
	return fmt.Sprintf("Worker(%s, order=%d, question=%q, %s)", w.ID, w.Order, w.Question, status)
}

// RunResult is the outcome of a single worker execution.
// ExitCode is -1 when the worker timed out, was canceled or could not be started.
type RunResult struct {
	Succeeded bool
	ExitCode  int
	Stdout    string
	Stderr    string
	Started   time.Time
	Stopped   time.Time
}

// Failed builds the sentinel result used for every internal failure.
func Failed(reason string) RunResult {
	return RunResult{
		Succeeded: false,
		ExitCode:  -1,
		Stderr:    reason,
	}
}
