package presence

import (
	"context"
	"fmt"
	"log"
	"sync"
)

// Lifecycle owns the one reconciliation loop of the process. The daemon
// constructs a single Lifecycle at startup and hands it to whatever needs to
// start or stop presence reporting.
type Lifecycle struct {
	connect Connector
	probe   Probe

	mu       sync.Mutex
	opts     LoopOptions
	onChange func(Snapshot)
	loop     *Loop
}

// NewLifecycle creates a lifecycle that dials publishers with connect and
// polls probe.
func NewLifecycle(connect Connector, probe Probe, opts LoopOptions) *Lifecycle {
	return &Lifecycle{
		connect: connect,
		probe:   probe,
		opts:    opts,
	}
}

// StartIdle connects the publisher and starts the loop. It returns nil
// without doing anything if a loop already exists. If the publisher cannot
// connect, no loop is created and the error is returned; presence reporting
// stays off.
func (lc *Lifecycle) StartIdle(ctx context.Context) error {
	lc.mu.Lock()
	defer lc.mu.Unlock()

	if lc.loop != nil {
		return nil
	}

	pub, err := lc.connect(ctx)
	if err != nil {
		return fmt.Errorf("failed to connect presence publisher: %w", err)
	}

	loop := NewLoop(pub, lc.probe, lc.opts)
	if lc.onChange != nil {
		loop.OnChange(lc.onChange)
	}
	lc.loop = loop
	loop.Start()

	log.Printf("[presence] loop started (interval %s)", loop.opts.PollInterval)
	return nil
}

// Stop signals the loop to stop. It is a no-op when no loop exists and does
// not wait for the loop to exit; see Wait.
func (lc *Lifecycle) Stop() {
	lc.mu.Lock()
	loop := lc.loop
	lc.mu.Unlock()

	if loop != nil {
		loop.Stop()
	}
}

// Wait blocks until the loop has exited or ctx is done. It returns nil
// immediately when no loop was ever started.
func (lc *Lifecycle) Wait(ctx context.Context) error {
	lc.mu.Lock()
	loop := lc.loop
	lc.mu.Unlock()

	if loop == nil {
		return nil
	}
	select {
	case <-loop.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Started reports whether a loop has been created.
func (lc *Lifecycle) Started() bool {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	return lc.loop != nil
}

// Snapshot returns the loop state, or the zero Snapshot before StartIdle
// has succeeded.
func (lc *Lifecycle) Snapshot() Snapshot {
	lc.mu.Lock()
	loop := lc.loop
	lc.mu.Unlock()

	if loop == nil {
		return Snapshot{}
	}
	return loop.Snapshot()
}

// SetFormat updates the status templates for the running loop and for a
// loop started later.
func (lc *Lifecycle) SetFormat(f Format) {
	lc.mu.Lock()
	lc.opts.Format = f
	loop := lc.loop
	lc.mu.Unlock()

	if loop != nil {
		loop.SetFormat(f)
	}
}

// OnChange registers a callback forwarded to the loop.
func (lc *Lifecycle) OnChange(fn func(Snapshot)) {
	lc.mu.Lock()
	lc.onChange = fn
	loop := lc.loop
	lc.mu.Unlock()

	if loop != nil {
		loop.OnChange(fn)
	}
}
