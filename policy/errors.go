package policy

// ValidationError indicates a malformed retry policy. It is raised
// synchronously, before the first attempt, and is never retried.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return "persist: invalid retry options: " + e.Msg
}
