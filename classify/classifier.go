package classify

import (
	"context"
	"errors"
)

// Built-in classifier registry names.
const (
	ClassifierDefault = "default"
	ClassifierAlways  = "always"
)

// RegisterBuiltins registers the core classifiers into reg.
func RegisterBuiltins(reg *Registry) {
	if reg == nil {
		return
	}
	reg.Register(ClassifierDefault, DefaultClassifier{})
	reg.Register(ClassifierAlways, AlwaysRetryOnError{})
}

// DefaultClassifier implements the standard disposition rules:
//
//   - nil error: success.
//   - AbortError in the chain: abort, surfacing the unwrapped cause.
//   - context.Canceled: abort (an external cancellation is never retried).
//   - type-mismatch error (runtime.Error): terminal, unless the network
//     predicate recognizes it as a transient network failure.
//   - anything else, including wrapped non-error panic values: retryable.
type DefaultClassifier struct {
	// Network overrides the network-failure predicate. Nil means
	// IsNetworkError.
	Network NetworkCheck
}

func (c DefaultClassifier) Classify(err error) Outcome {
	if err == nil {
		return Outcome{Kind: OutcomeSuccess, Reason: "success"}
	}

	var abort *AbortError
	if errors.As(err, &abort) {
		return Outcome{Kind: OutcomeAbort, Reason: "aborted", Cause: abort.Cause}
	}

	if errors.Is(err, context.Canceled) {
		return Outcome{Kind: OutcomeAbort, Reason: "context_canceled", Cause: err}
	}

	if isTypeMismatch(err) {
		network := c.Network
		if network == nil {
			network = IsNetworkError
		}
		if network(err) {
			return Outcome{Kind: OutcomeRetryable, Reason: "network_error", Cause: err}
		}
		return Outcome{Kind: OutcomeNonRetryable, Reason: "type_error", Cause: err}
	}

	return Outcome{Kind: OutcomeRetryable, Reason: "retryable_error", Cause: err}
}

// AlwaysRetryOnError classifies every non-nil error as retryable except
// explicit aborts and context cancellation. Useful when the caller's
// ShouldRetry hook carries all the decision logic.
type AlwaysRetryOnError struct{}

func (AlwaysRetryOnError) Classify(err error) Outcome {
	if err == nil {
		return Outcome{Kind: OutcomeSuccess, Reason: "success"}
	}
	var abort *AbortError
	if errors.As(err, &abort) {
		return Outcome{Kind: OutcomeAbort, Reason: "aborted", Cause: abort.Cause}
	}
	if errors.Is(err, context.Canceled) {
		return Outcome{Kind: OutcomeAbort, Reason: "context_canceled", Cause: err}
	}
	return Outcome{Kind: OutcomeRetryable, Reason: "retryable_error", Cause: err}
}
