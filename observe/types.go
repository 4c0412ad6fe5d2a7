// Package observe carries the observability side-channel of a retry run:
// per-attempt records, the run timeline, and the Observer fan-out.
// Observers see what happened; they cannot influence the loop.
package observe

import (
	"context"
	"time"

	"github.com/persistio/persist/classify"
	"github.com/persistio/persist/policy"
)

// AttemptRecord describes one attempt execution.
type AttemptRecord struct {
	// Attempt is the 1-based raw attempt number, counting skipped
	// attempts.
	Attempt int

	StartTime time.Time
	EndTime   time.Time

	// Outcome is the classification of the attempt's error.
	Outcome classify.Outcome

	Err error

	// Skipped marks a failure that did not consume the retry budget.
	Skipped bool

	// Delay is the backoff awaited after this attempt, zero when the run
	// terminated on it.
	Delay time.Duration
}

// Timeline is the structured record of a single run and all of its
// attempts.
type Timeline struct {
	// RunID uniquely identifies the run across observers and log lines.
	RunID string

	Key      policy.Key
	Start    time.Time
	End      time.Time
	Attempts []AttemptRecord
	FinalErr error
}

// Observer receives lifecycle callbacks for a single run.
type Observer interface {
	OnStart(ctx context.Context, key policy.Key, opts policy.Options)
	OnAttempt(ctx context.Context, key policy.Key, rec AttemptRecord)
	OnSuccess(ctx context.Context, key policy.Key, tl Timeline)
	OnFailure(ctx context.Context, key policy.Key, tl Timeline)
}
