// Package classify decides the disposition of a failed attempt: whether
// the failure is retryable, terminal, or an explicit abort. The retry
// loop branches on the Outcome tag rather than inspecting error types
// itself.
package classify

// OutcomeKind is the classifier's verdict about an attempt result.
type OutcomeKind int

const (
	OutcomeUnknown OutcomeKind = iota
	OutcomeSuccess
	OutcomeRetryable
	OutcomeNonRetryable
	OutcomeAbort
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeRetryable:
		return "retryable"
	case OutcomeNonRetryable:
		return "non_retryable"
	case OutcomeAbort:
		return "abort"
	default:
		return "unknown"
	}
}

// Outcome is the classification of one attempt.
type Outcome struct {
	Kind   OutcomeKind
	Reason string

	// Cause is the error to surface when the run terminates on this
	// outcome. For aborts this is the unwrapped cause, not the wrapper.
	Cause error
}

// Classifier turns an attempt error into an Outcome. A nil error must
// classify as OutcomeSuccess.
type Classifier interface {
	Classify(err error) Outcome
}

// ClassifierFunc adapts a function to the Classifier interface.
type ClassifierFunc func(err error) Outcome

func (f ClassifierFunc) Classify(err error) Outcome { return f(err) }
