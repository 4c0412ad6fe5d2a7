package retry

import (
	"github.com/persistio/persist/classify"
	"github.com/persistio/persist/policy"
)

// callConfig is the per-run configuration: the policy plus the caller's
// hooks. Absent hooks behave as no-op / always-retry / never-skip, so
// the loop has one decision sequence regardless of what was supplied.
type callConfig struct {
	key     policy.Key
	pol     policy.Options
	polSet  bool
	polOpts []policy.Option

	onFailedAttempt OnFailedAttemptFunc
	shouldRetry     ShouldRetryFunc
	shouldSkip      ShouldSkipFunc

	classifier classify.Classifier
	network    classify.NetworkCheck
}

// CallOption configures a single retry run.
type CallOption func(*callConfig)

// WithOptions uses a prebuilt policy for this run. It is re-normalized,
// so a raw Options literal fails fast the same way policy.New would.
func WithOptions(o policy.Options) CallOption {
	return func(c *callConfig) {
		c.pol = o
		c.polSet = true
	}
}

// WithPolicy layers opts over the run's base policy: the WithOptions
// value when one is set, the defaults otherwise.
func WithPolicy(opts ...policy.Option) CallOption {
	return func(c *callConfig) {
		c.polOpts = append(c.polOpts, opts...)
	}
}

// WithKey labels the run for observers and providers.
func WithKey(key string) CallOption {
	return func(c *callConfig) {
		c.key = policy.ParseKey(key)
	}
}

// OnFailedAttempt observes each failed retryable attempt. See
// OnFailedAttemptFunc.
func OnFailedAttempt(fn OnFailedAttemptFunc) CallOption {
	return func(c *callConfig) {
		c.onFailedAttempt = fn
	}
}

// ShouldRetry overrides the continue decision. See ShouldRetryFunc.
func ShouldRetry(fn ShouldRetryFunc) CallOption {
	return func(c *callConfig) {
		c.shouldRetry = fn
	}
}

// ShouldSkip marks failures that must not consume the retry budget. See
// ShouldSkipFunc.
func ShouldSkip(fn ShouldSkipFunc) CallOption {
	return func(c *callConfig) {
		c.shouldSkip = fn
	}
}

// WithClassifier replaces the classifier for this run.
func WithClassifier(cls classify.Classifier) CallOption {
	return func(c *callConfig) {
		c.classifier = cls
	}
}

// WithNetworkCheck replaces the network-error predicate consulted when
// classifying type-mismatch errors for this run.
func WithNetworkCheck(check classify.NetworkCheck) CallOption {
	return func(c *callConfig) {
		c.network = check
	}
}
