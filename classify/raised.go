package classify

import (
	"errors"
	"fmt"
	"runtime"
)

// RaisedValueError wraps a non-error value recovered from a panicking
// operation. The wrapped error, carrying the stringified original value,
// is what propagates through classification and callbacks; the raw value
// never does. It classifies as retryable.
type RaisedValueError struct {
	Value any
}

func (e *RaisedValueError) Error() string {
	return fmt.Sprintf("persist: non-error value raised: %v", e.Value)
}

// TypeError is a constructible type-mismatch error. It satisfies
// runtime.Error, so it classifies the same way as a runtime panic error:
// terminal unless the network predicate recognizes its message.
type TypeError struct {
	Msg string
}

func (e *TypeError) Error() string { return e.Msg }

// RuntimeError marks TypeError as a runtime type error.
func (*TypeError) RuntimeError() {}

// isTypeMismatch reports whether err is a type-mismatch-class error:
// anything in its chain satisfying runtime.Error (bad type assertions,
// nil dereferences, TypeError values).
func isTypeMismatch(err error) bool {
	var rerr runtime.Error
	return errors.As(err, &rerr)
}
