// Package policy defines the retry policy data model: the raw option
// surface, its defaults, and the normalization that turns a partial
// configuration into a fully populated, validated Options value.
package policy

import (
	"math"
	"time"
)

// Sentinels for fields that are unbounded rather than zero. A zero
// Retries or MaxRetryTime is a valid, meaningful value (one attempt,
// zero wall-clock budget), so "no limit" needs its own representation.
const (
	// UnlimitedRetries disables the retry-count budget.
	UnlimitedRetries = -1

	// Unlimited disables a duration bound (MaxTimeout, MaxRetryTime).
	Unlimited time.Duration = -1
)

// Default values applied by Defaults and New.
const (
	DefaultRetries    = 10
	DefaultFactor     = 2.0
	DefaultMinTimeout = time.Second
)

// Options is the effective policy for a single retry run. Build one with
// New; a normalized Options is immutable by convention and safe to share
// across runs.
type Options struct {
	// Retries is the number of additional attempts allowed beyond the
	// first, or UnlimitedRetries.
	Retries int

	// Factor is the exponential backoff multiplier. Values <= 0 are
	// coerced to 1 by Normalize so the delay stays flat instead of
	// collapsing to zero or oscillating sign.
	Factor float64

	// MinTimeout is the delay before the second attempt and the base of
	// the exponential growth.
	MinTimeout time.Duration

	// MaxTimeout caps every computed delay. Unlimited disables the cap.
	MaxTimeout time.Duration

	// Randomize multiplies each delay by a uniform factor in [1, 2).
	Randomize bool

	// MaxRetryTime is the wall-clock budget for the whole run, measured
	// from just before the first attempt. Unlimited disables it. A zero
	// budget permits exactly one attempt.
	MaxRetryTime time.Duration

	// Unref marks delay timers as not keeping the host process alive.
	// Go timers never pin a process, so the flag is accepted and carried
	// for policy documents but has no runtime effect.
	Unref bool

	// Forever is the legacy "retry forever" switch. It is rejected by
	// Normalize; use Retries: UnlimitedRetries.
	Forever bool

	// Classifier optionally names a registered classifier to use instead
	// of the executor default.
	Classifier string
}

// Defaults returns the fully populated default policy: 10 retries,
// factor 2, 1s minimum delay, no delay cap, no wall-clock budget.
func Defaults() Options {
	return Options{
		Retries:      DefaultRetries,
		Factor:       DefaultFactor,
		MinTimeout:   DefaultMinTimeout,
		MaxTimeout:   Unlimited,
		MaxRetryTime: Unlimited,
	}
}

// New builds a normalized Options from Defaults plus the given options.
// It fails fast with a *ValidationError before any attempt can run.
func New(opts ...Option) (Options, error) {
	o := Defaults()
	for _, opt := range opts {
		opt(&o)
	}
	return o.Normalize()
}

// MustNew is New, panicking on invalid options. Intended for static
// policies whose validity is established by tests.
func MustNew(opts ...Option) Options {
	o, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return o
}

// Normalize validates o and returns a copy with coercions applied.
//
// Validation is pure and synchronous: an invalid field yields a
// *ValidationError and no attempt is ever started. The only coercion is
// Factor <= 0 -> 1, which keeps a degenerate multiplier from producing
// zero or negative backoff.
func (o Options) Normalize() (Options, error) {
	if o.Forever {
		return Options{}, &ValidationError{
			Field: "forever",
			Msg:   "the forever option is no longer supported: set retries to UnlimitedRetries instead",
		}
	}

	if o.Retries < 0 && o.Retries != UnlimitedRetries {
		return Options{}, &ValidationError{
			Field: "retries",
			Msg:   "retries must be a non-negative number",
		}
	}

	if math.IsNaN(o.Factor) {
		return Options{}, &ValidationError{
			Field: "factor",
			Msg:   "factor must be a valid number, got NaN",
		}
	}
	if o.Factor <= 0 {
		o.Factor = 1
	}

	if o.MinTimeout < 0 {
		return Options{}, &ValidationError{
			Field: "minTimeout",
			Msg:   "minTimeout must be a non-negative duration",
		}
	}
	if o.MaxTimeout < 0 && o.MaxTimeout != Unlimited {
		return Options{}, &ValidationError{
			Field: "maxTimeout",
			Msg:   "maxTimeout must be a non-negative duration or Unlimited",
		}
	}
	if o.MaxRetryTime < 0 && o.MaxRetryTime != Unlimited {
		return Options{}, &ValidationError{
			Field: "maxRetryTime",
			Msg:   "maxRetryTime must be a non-negative duration or Unlimited",
		}
	}

	return o, nil
}
