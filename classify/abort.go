package classify

import "errors"

// AbortError wraps a cause to signal "stop retrying now". The retry loop
// terminates immediately and surfaces the cause, not the wrapper, and no
// further callbacks run for that failure.
type AbortError struct {
	Cause error
}

func (e *AbortError) Error() string {
	if e == nil || e.Cause == nil {
		return "persist: operation aborted"
	}
	return "persist: aborted: " + e.Cause.Error()
}

func (e *AbortError) Unwrap() error { return e.Cause }

// Abort wraps err so the retry loop stops immediately and returns err.
// A nil err is replaced by a generic "operation aborted" error so the
// run still terminates with a proper error value.
func Abort(err error) error {
	if err == nil {
		err = errors.New("persist: operation aborted")
	}
	return &AbortError{Cause: err}
}
