package retry

import (
	"context"
	"time"
)

// Attempt is the context handed to OnFailedAttempt and ShouldRetry for a
// single failed attempt. A fresh value is built per failure and is never
// mutated afterwards; retries-left and skip counters are recomputed each
// iteration, not updated in place.
//
// Number is the raw 1-based attempt count and includes skipped attempts;
// SkippedAttempts says how many of those did not consume the retry
// budget. Only the backoff growth uses the skip-adjusted index.
type Attempt struct {
	// Err is the classified error of this attempt. Always a proper error
	// value; non-error panic values are wrapped before classification.
	Err error

	// Number is the 1-based attempt number.
	Number int

	// RetriesLeft is the remaining retry budget before this failure is
	// accounted, or policy.UnlimitedRetries.
	RetriesLeft int

	// SkippedAttempts counts failures so far, including this one if
	// Skipped, that did not consume the budget.
	SkippedAttempts int

	// Skipped marks this failure as not counting against the budget.
	Skipped bool

	// Start is the wall-clock start of the run, captured before the
	// first attempt.
	Start time.Time

	// Deadline is the effective wall-clock deadline of the run, zero
	// when the run has no MaxRetryTime budget.
	Deadline time.Time
}

// OnFailedAttemptFunc observes every failed retryable attempt, exactly
// once per failure, before ShouldRetry is consulted. A non-nil return
// terminates the run with that error.
type OnFailedAttemptFunc func(ctx context.Context, att Attempt) error

// ShouldRetryFunc decides whether the run continues after a failure that
// the policy would otherwise retry. A non-nil error terminates the run
// with that error.
type ShouldRetryFunc func(ctx context.Context, att Attempt) (bool, error)

// ShouldSkipFunc marks a failure as not consuming the retry budget. The
// attempt still fails, still advances the attempt number, and still
// reaches OnFailedAttempt.
type ShouldSkipFunc func(err error) bool
