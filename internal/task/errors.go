package task

import "errors"

// ErrNotFound is returned when an operation references a task identifier
// that has no store record.
var ErrNotFound = errors.New("task not found")

// ValidationError reports a field value rejected before any mutation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + " " + e.Reason
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
