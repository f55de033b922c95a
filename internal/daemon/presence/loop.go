package presence

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// Default loop timings.
const (
	DefaultPollInterval   = time.Second
	DefaultProbeTimeout   = 2 * time.Second
	DefaultPublishTimeout = 5 * time.Second
)

// LoopOptions configures a Loop. Zero values take the defaults.
type LoopOptions struct {
	PollInterval   time.Duration
	ProbeTimeout   time.Duration
	PublishTimeout time.Duration
	Format         Format

	// Sleep waits between iterations. Defaults to time.Sleep.
	Sleep func(time.Duration)
}

func (o LoopOptions) withDefaults() LoopOptions {
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.ProbeTimeout <= 0 {
		o.ProbeTimeout = DefaultProbeTimeout
	}
	if o.PublishTimeout <= 0 {
		o.PublishTimeout = DefaultPublishTimeout
	}
	if o.Sleep == nil {
		o.Sleep = time.Sleep
	}
	return o
}

// Snapshot is a read-only view of the loop for the tray and control API.
type Snapshot struct {
	Active          bool // loop goroutine is polling
	TargetRunning   bool
	Document        string
	Published       Status
	LastPublishedAt time.Time
	LastError       string
	SetCalls        int
	ClearCalls      int
}

// Loop is the presence reconciliation loop. Create it with NewLoop; a Loop
// runs at most one polling goroutine over its lifetime.
type Loop struct {
	probe Probe
	opts  LoopOptions

	running   atomic.Bool
	startOnce sync.Once
	done      chan struct{}

	// mu guards the publisher and everything below it. The last published
	// status is compared and committed under the same lock as the publish
	// call itself.
	mu           sync.Mutex
	pub          Publisher
	last         Status
	clearPending bool
	format       Format
	onChange     func(Snapshot)
	snap         Snapshot
}

// NewLoop creates a loop that owns pub. The loop does not poll until Start.
func NewLoop(pub Publisher, probe Probe, opts LoopOptions) *Loop {
	opts = opts.withDefaults()
	return &Loop{
		probe:  probe,
		opts:   opts,
		done:   make(chan struct{}),
		pub:    pub,
		format: opts.Format,
	}
}

// Start spawns the polling goroutine. Calls after the first are no-ops.
func (l *Loop) Start() {
	l.startOnce.Do(func() {
		l.running.Store(true)
		go l.run()
	})
}

// Stop asks the loop to exit. It does not wait: the flag is observed at the
// top of the next iteration, after which the loop clears the published
// presence and closes Done.
func (l *Loop) Stop() {
	l.running.Store(false)
}

// Done is closed once the loop goroutine has exited.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// SetFormat replaces the status templates. The next iteration publishes if
// the rendered text changed.
func (l *Loop) SetFormat(f Format) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.format = f
}

// OnChange registers a callback invoked after each published transition.
// The callback runs on the loop goroutine and must not block for long.
func (l *Loop) OnChange(fn func(Snapshot)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onChange = fn
}

// Snapshot returns the current loop state.
func (l *Loop) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	s := l.snap
	s.Active = l.running.Load()
	return s
}

func (l *Loop) run() {
	defer close(l.done)

	wasRunning := false
	for l.running.Load() {
		running, err := l.isRunning()
		if err != nil {
			log.Printf("[presence] probe failed, skipping tick: %v", err)
			l.opts.Sleep(l.opts.PollInterval)
			continue
		}

		if !running {
			l.observe(false, "")
			if wasRunning || l.isClearPending() {
				l.clear()
			}
			wasRunning = false
			l.opts.Sleep(l.opts.PollInterval)
			continue
		}
		wasRunning = true

		doc := l.activeDocument()
		l.observe(true, doc)
		l.publish(doc)

		l.opts.Sleep(l.opts.PollInterval)
	}

	l.finalClear()
}

func (l *Loop) isRunning() (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), l.opts.ProbeTimeout)
	defer cancel()
	return l.probe.IsRunning(ctx)
}

// activeDocument treats any probe failure as "no active document".
func (l *Loop) activeDocument() string {
	ctx, cancel := context.WithTimeout(context.Background(), l.opts.ProbeTimeout)
	defer cancel()

	doc, err := l.probe.ActiveDocument(ctx)
	if err != nil {
		return ""
	}
	return doc
}

func (l *Loop) observe(running bool, doc string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.snap.TargetRunning = running
	l.snap.Document = doc
}

func (l *Loop) isClearPending() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.clearPending
}

// publish renders the status and sends it if it differs from the last
// successfully published one. A failed publish is not committed, so the
// same status is retried on the next tick.
func (l *Loop) publish(doc string) {
	l.mu.Lock()
	status := l.format.Render(doc)
	if status == l.last {
		l.mu.Unlock()
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), l.opts.PublishTimeout)
	err := l.pub.SetState(ctx, status.Text())
	cancel()

	l.snap.SetCalls++
	if err != nil {
		l.recordErrorLocked(err, "set")
		l.mu.Unlock()
		return
	}
	l.last = status
	l.clearPending = false
	l.snap.Published = status
	l.snap.LastPublishedAt = time.Now()
	l.snap.LastError = ""
	snap, fn := l.snap, l.onChange
	snap.Active = l.running.Load()
	l.mu.Unlock()

	log.Printf("[presence] published %q", status.Text())
	notify(fn, snap)
}

// clear sends one clear-state call for a running to not-running edge. On
// failure the clear stays pending and is retried on the next tick.
func (l *Loop) clear() {
	l.mu.Lock()
	ctx, cancel := context.WithTimeout(context.Background(), l.opts.PublishTimeout)
	err := l.pub.ClearState(ctx)
	cancel()

	l.snap.ClearCalls++
	if err != nil {
		l.clearPending = true
		l.recordErrorLocked(err, "clear")
		l.mu.Unlock()
		return
	}
	l.clearPending = false
	l.last = Absent()
	l.snap.Published = Absent()
	l.snap.LastPublishedAt = time.Now()
	l.snap.LastError = ""
	snap, fn := l.snap, l.onChange
	snap.Active = l.running.Load()
	l.mu.Unlock()

	log.Printf("[presence] cleared")
	notify(fn, snap)
}

// finalClear runs once when the loop exits. Its result is ignored.
func (l *Loop) finalClear() {
	l.mu.Lock()
	ctx, cancel := context.WithTimeout(context.Background(), l.opts.PublishTimeout)
	_ = l.pub.ClearState(ctx)
	cancel()
	_ = l.pub.Close()

	l.snap.ClearCalls++
	l.last = Absent()
	l.snap.Published = Absent()
	l.snap.TargetRunning = false
	l.snap.Document = ""
	snap, fn := l.snap, l.onChange
	l.mu.Unlock()

	log.Printf("[presence] loop stopped")
	notify(fn, snap)
}

// recordErrorLocked logs a publish failure once per distinct message so a
// disconnected peer does not flood the log every tick.
func (l *Loop) recordErrorLocked(err error, op string) {
	msg := err.Error()
	if msg != l.snap.LastError {
		log.Printf("[presence] %s failed: %v", op, err)
	}
	l.snap.LastError = msg
}

func notify(fn func(Snapshot), snap Snapshot) {
	if fn == nil {
		return
	}
	fn(snap)
}
