package policy

import "time"

// Option mutates an Options value during New.
type Option func(*Options)

// Retries sets the retry budget. Use UnlimitedRetries to disable it.
func Retries(n int) Option {
	return func(o *Options) { o.Retries = n }
}

// Factor sets the exponential backoff multiplier.
func Factor(f float64) Option {
	return func(o *Options) { o.Factor = f }
}

// MinTimeout sets the base delay before the second attempt.
func MinTimeout(d time.Duration) Option {
	return func(o *Options) { o.MinTimeout = d }
}

// MaxTimeout caps each computed delay. Use Unlimited to disable the cap.
func MaxTimeout(d time.Duration) Option {
	return func(o *Options) { o.MaxTimeout = d }
}

// MaxRetryTime sets the wall-clock budget for the whole run. Use
// Unlimited to disable it.
func MaxRetryTime(d time.Duration) Option {
	return func(o *Options) { o.MaxRetryTime = d }
}

// Randomize toggles uniform [1, 2) jitter on each delay.
func Randomize(on bool) Option {
	return func(o *Options) { o.Randomize = on }
}

// Unref marks delay timers as not keeping the process alive. No-op on
// the Go runtime; see Options.Unref.
func Unref(on bool) Option {
	return func(o *Options) { o.Unref = on }
}

// Classifier names a registered classifier for this policy.
func Classifier(name string) Option {
	return func(o *Options) { o.Classifier = name }
}

// Forever is the removed legacy switch. New rejects it with a migration
// hint; it exists so old call sites fail loudly instead of silently
// retrying a bounded number of times.
//
// Deprecated: use Retries(UnlimitedRetries).
func Forever() Option {
	return func(o *Options) { o.Forever = true }
}
