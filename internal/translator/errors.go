package translator

import (
	"errors"
	"fmt"
)

// ErrTruncated is returned when the backend stopped on the token budget.
var ErrTruncated = errors.New("translation truncated by max tokens")

// BackendError wraps any failure of a backend call.
type BackendError struct {
	Op  string
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("translation backend %s: %v", e.Op, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

func backendError(op string, err error) error {
	var be *BackendError
	if errors.As(err, &be) {
		return err
	}
	return &BackendError{Op: op, Err: err}
}
