package hw

import (
	"context"
	"sync"
)

// Animator runs at most one background animation. Starting a new animation
// cancels the previous one and waits for its goroutine to return.
type Animator struct {
	mx     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// Start runs fn in a new goroutine. fn must return once its context is done.
func (a *Animator) Start(ctx context.Context, fn func(ctx context.Context)) {
	a.mx.Lock()
	defer a.mx.Unlock()
	a.stopLocked()

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	a.cancel, a.done = cancel, done
	go func() {
		defer close(done)
		defer cancel()
		fn(ctx)
	}()
}

// Stop cancels the running animation and waits for it.
func (a *Animator) Stop() {
	a.mx.Lock()
	defer a.mx.Unlock()
	a.stopLocked()
}

// Wait blocks until the running animation returns on its own.
func (a *Animator) Wait() {
	a.mx.Lock()
	done := a.done
	a.mx.Unlock()
	if done != nil {
		<-done
	}
}

func (a *Animator) stopLocked() {
	if a.cancel == nil {
		return
	}
	a.cancel()
	<-a.done
	a.cancel, a.done = nil, nil
}
