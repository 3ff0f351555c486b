package apply

import (
	"context"
	"sync"
	"time"
)

// Autosaver runs save on a fixed period until stopped. Stopping ends the
// loop but leaves a save that is already running to finish on its own.
type Autosaver struct {
	interval time.Duration
	save     func(context.Context) bool

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewAutosaver creates a stopped autosaver.
func NewAutosaver(interval time.Duration, save func(context.Context) bool) *Autosaver {
	return &Autosaver{interval: interval, save: save}
}

// Start launches the ticker loop. Starting a running autosaver is a no-op.
func (a *Autosaver) Start(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancel != nil {
		return
	}
	ctx, a.cancel = context.WithCancel(ctx)
	a.done = make(chan struct{})
	go a.run(ctx, a.done)
}

func (a *Autosaver) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			finished := make(chan struct{})
			go func() {
				defer close(finished)
				a.save(context.WithoutCancel(ctx))
			}()
			select {
			case <-finished:
			case <-ctx.Done():
				return
			}
		}
	}
}

// Stop cancels the loop and waits for it to exit. A save in progress is not
// waited for. Safe to call repeatedly.
func (a *Autosaver) Stop() {
	a.mu.Lock()
	cancel, done := a.cancel, a.done
	a.cancel, a.done = nil, nil
	a.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Running reports whether the loop is active.
func (a *Autosaver) Running() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cancel != nil
}
