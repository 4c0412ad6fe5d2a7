package retry

import (
	"context"
	"sync"
	"time"

	"github.com/persistio/persist/observe"
	"github.com/persistio/persist/policy"
)

// fakeClock is a manual clock: time moves only when the test or the fake
// sleep advances it.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// testExecutor wires an executor whose sleeps are recorded and advance
// the fake clock instead of blocking.
type testExecutor struct {
	*Executor
	clockSrc *fakeClock
	sleeps   []time.Duration
}

func newTestExecutor(opts ...ExecutorOption) *testExecutor {
	te := &testExecutor{clockSrc: newFakeClock()}

	opts = append(opts, WithClock(te.clockSrc.Now))
	exec := NewExecutor(opts...)
	exec.sleep = func(_ context.Context, d time.Duration) error {
		te.sleeps = append(te.sleeps, d)
		te.clockSrc.Advance(d)
		return nil
	}
	exec.randFloat = func() float64 { return 0 }
	exec.newRunID = func() string { return "run-test" }

	te.Executor = exec
	return te
}

// recordingObserver captures every observer callback for assertions.
type recordingObserver struct {
	mu        sync.Mutex
	starts    []policy.Key
	attempts  []observe.AttemptRecord
	successes []observe.Timeline
	failures  []observe.Timeline
}

func (o *recordingObserver) OnStart(_ context.Context, key policy.Key, _ policy.Options) {
	o.mu.Lock()
	o.starts = append(o.starts, key)
	o.mu.Unlock()
}

func (o *recordingObserver) OnAttempt(_ context.Context, _ policy.Key, rec observe.AttemptRecord) {
	o.mu.Lock()
	o.attempts = append(o.attempts, rec)
	o.mu.Unlock()
}

func (o *recordingObserver) OnSuccess(_ context.Context, _ policy.Key, tl observe.Timeline) {
	o.mu.Lock()
	o.successes = append(o.successes, tl)
	o.mu.Unlock()
}

func (o *recordingObserver) OnFailure(_ context.Context, _ policy.Key, tl observe.Timeline) {
	o.mu.Lock()
	o.failures = append(o.failures, tl)
	o.mu.Unlock()
}
