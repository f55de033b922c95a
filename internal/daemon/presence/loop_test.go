package presence

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eventually = 2 * time.Second

func startLoop(t *testing.T, probe Probe, pub Publisher, opts LoopOptions) *Loop {
	t.Helper()
	loop := NewLoop(pub, probe, opts)
	loop.Start()
	t.Cleanup(func() {
		loop.Stop()
		<-loop.Done()
	})
	return loop
}

func waitPolls(t *testing.T, probe *scriptProbe, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return probe.Calls() >= n }, eventually, time.Millisecond)
}

func stopAndWait(t *testing.T, loop *Loop) {
	t.Helper()
	loop.Stop()
	select {
	case <-loop.Done():
	case <-time.After(eventually):
		t.Fatal("loop did not exit")
	}
}

func TestLoop_TargetNeverRunningPublishesNothing(t *testing.T) {
	probe := newScriptProbe(stopped())
	pub := &recordingPublisher{}
	loop := startLoop(t, probe, pub, fastOptions())

	waitPolls(t, probe, 5)
	assert.Empty(t, pub.Calls())

	stopAndWait(t, loop)
	assert.Equal(t, []call{clearCall()}, pub.Calls(), "only the final clear on exit")
	assert.True(t, pub.Closed())
}

func TestLoop_DebouncesIdenticalStatus(t *testing.T) {
	probe := newScriptProbe(running("Foo"), running("Foo"), running("Bar"))
	pub := &recordingPublisher{}
	startLoop(t, probe, pub, fastOptions())

	waitPolls(t, probe, 6)
	assert.Equal(t, []call{
		set("Working on Foo"),
		set("Working on Bar"),
	}, pub.Calls())
}

func TestLoop_NoDocumentPublishesBrowsing(t *testing.T) {
	probe := newScriptProbe(running(""))
	pub := &recordingPublisher{}
	startLoop(t, probe, pub, fastOptions())

	waitPolls(t, probe, 4)
	assert.Equal(t, []call{set("Browsing projects")}, pub.Calls())
}

func TestLoop_DocumentProbeErrorMeansBrowsing(t *testing.T) {
	probe := newScriptProbe(step{running: true, doc: "ignored", docErr: errors.New("osascript: exit 1")})
	pub := &recordingPublisher{}
	startLoop(t, probe, pub, fastOptions())

	waitPolls(t, probe, 3)
	assert.Equal(t, []call{set("Browsing projects")}, pub.Calls())
}

func TestLoop_ClearsOnceWhenTargetExits(t *testing.T) {
	probe := newScriptProbe(running("Foo"), stopped())
	pub := &recordingPublisher{}
	startLoop(t, probe, pub, fastOptions())

	waitPolls(t, probe, 8)
	assert.Equal(t, []call{set("Working on Foo"), clearCall()}, pub.Calls())
}

func TestLoop_RepublishesAfterTargetRestarts(t *testing.T) {
	probe := newScriptProbe(
		running("Foo"), stopped(), stopped(),
		running("Foo"), stopped(),
	)
	pub := &recordingPublisher{}
	startLoop(t, probe, pub, fastOptions())

	waitPolls(t, probe, 8)
	assert.Equal(t, []call{
		set("Working on Foo"),
		clearCall(),
		set("Working on Foo"),
		clearCall(),
	}, pub.Calls())
}

func TestLoop_RunningProbeErrorSkipsTick(t *testing.T) {
	probe := newScriptProbe(
		running("Foo"),
		step{runningErr: context.DeadlineExceeded},
		running("Foo"),
	)
	pub := &recordingPublisher{}
	startLoop(t, probe, pub, fastOptions())

	waitPolls(t, probe, 5)
	assert.Equal(t, []call{set("Working on Foo")}, pub.Calls(), "a failed probe is neither a clear nor a change")
}

func TestLoop_FailedPublishIsRetried(t *testing.T) {
	probe := newScriptProbe(running("Foo"))
	pub := &recordingPublisher{failSet: 1}
	loop := startLoop(t, probe, pub, fastOptions())

	waitPolls(t, probe, 4)
	assert.Equal(t, []call{set("Working on Foo"), set("Working on Foo")}, pub.Calls())

	snap := loop.Snapshot()
	assert.Equal(t, NewStatus("Working on Foo"), snap.Published)
	assert.Empty(t, snap.LastError)
	assert.Equal(t, 2, snap.SetCalls)
	assert.False(t, snap.LastPublishedAt.IsZero())
}

func TestLoop_FailedClearIsRetried(t *testing.T) {
	probe := newScriptProbe(running("Foo"), stopped())
	pub := &recordingPublisher{failClear: 1}
	loop := startLoop(t, probe, pub, fastOptions())

	waitPolls(t, probe, 6)
	assert.Equal(t, []call{set("Working on Foo"), clearCall(), clearCall()}, pub.Calls())
	assert.Equal(t, Absent(), loop.Snapshot().Published)
}

func TestLoop_StartIsIdempotent(t *testing.T) {
	probe := newScriptProbe(running("Foo"))
	probe.delay = 200 * time.Microsecond
	pub := &recordingPublisher{}
	loop := NewLoop(pub, probe, fastOptions())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			loop.Start()
		}()
	}
	wg.Wait()

	waitPolls(t, probe, 10)
	stopAndWait(t, loop)

	assert.False(t, probe.concurrent.Load(), "probe was polled from more than one goroutine")
	assert.False(t, pub.overlap.Load())
	assert.Equal(t, []call{set("Working on Foo"), clearCall()}, pub.Calls())
}

func TestLoop_StopIsObservedAfterSleep(t *testing.T) {
	release := make(chan struct{})
	sleeping := make(chan struct{}, 1)

	opts := fastOptions()
	opts.Sleep = func(time.Duration) {
		select {
		case sleeping <- struct{}{}:
		default:
		}
		<-release
	}

	probe := newScriptProbe(running("Foo"))
	pub := &recordingPublisher{}
	loop := NewLoop(pub, probe, opts)
	loop.Start()

	<-sleeping
	loop.Stop()

	assert.Never(t, func() bool {
		select {
		case <-loop.Done():
			return true
		default:
			return false
		}
	}, 50*time.Millisecond, 5*time.Millisecond, "loop exited while still sleeping")
	assert.Equal(t, []call{set("Working on Foo")}, pub.Calls())

	close(release)
	select {
	case <-loop.Done():
	case <-time.After(eventually):
		t.Fatal("loop did not exit after sleep returned")
	}
	assert.Equal(t, []call{set("Working on Foo"), clearCall()}, pub.Calls())
	assert.Equal(t, 1, probe.Calls(), "no probe after stop was requested")
}

func TestLoop_StopClearsWithinOneInterval(t *testing.T) {
	opts := fastOptions()
	opts.PollInterval = 20 * time.Millisecond

	probe := newScriptProbe(running("Foo"))
	pub := &recordingPublisher{}
	loop := NewLoop(pub, probe, opts)
	loop.Start()

	require.Eventually(t, func() bool { return len(pub.Calls()) == 1 }, eventually, time.Millisecond)

	start := time.Now()
	stopAndWait(t, loop)
	assert.Less(t, time.Since(start), opts.PollInterval+opts.ProbeTimeout+opts.PublishTimeout)

	calls := pub.Calls()
	assert.Equal(t, clearCall(), calls[len(calls)-1])
	assert.True(t, pub.Closed())
	assert.False(t, loop.Snapshot().Active)
}

func TestLoop_HungProbeIsBounded(t *testing.T) {
	opts := fastOptions()
	opts.ProbeTimeout = 10 * time.Millisecond

	probe := &hangingProbe{}
	pub := &recordingPublisher{}
	loop := NewLoop(pub, probe, opts)
	loop.Start()

	require.Eventually(t, func() bool { return probe.calls.Load() >= 3 }, eventually, time.Millisecond)
	stopAndWait(t, loop)

	assert.Equal(t, []call{clearCall()}, pub.Calls())
}

func TestLoop_SetFormatRepublishes(t *testing.T) {
	probe := newScriptProbe(running("Foo"))
	pub := &recordingPublisher{}
	loop := startLoop(t, probe, pub, fastOptions())

	require.Eventually(t, func() bool { return len(pub.Calls()) == 1 }, eventually, time.Millisecond)
	loop.SetFormat(Format{Working: "Mixing %s", Browsing: "Idle"})

	require.Eventually(t, func() bool { return len(pub.Calls()) == 2 }, eventually, time.Millisecond)
	assert.Equal(t, set("Mixing Foo"), pub.Calls()[1])
}

func TestLoop_OnChangeReportsTransitions(t *testing.T) {
	probe := newScriptProbe(running("Foo"), stopped())
	pub := &recordingPublisher{}
	loop := NewLoop(pub, probe, fastOptions())

	var mu sync.Mutex
	var seen []Snapshot
	loop.OnChange(func(s Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, s)
	})
	loop.Start()

	waitPolls(t, probe, 4)
	stopAndWait(t, loop)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 3)

	assert.Equal(t, NewStatus("Working on Foo"), seen[0].Published)
	assert.True(t, seen[0].Active)
	assert.True(t, seen[0].TargetRunning)
	assert.Equal(t, "Foo", seen[0].Document)

	assert.Equal(t, Absent(), seen[1].Published)
	assert.False(t, seen[1].TargetRunning)

	assert.Equal(t, Absent(), seen[2].Published)
	assert.False(t, seen[2].Active)
}
