package services

import "errors"

var (
	ErrNotFound      = errors.New("message not found")
	ErrChildNotFound = errors.New("child not found")
)

// ValidationError marks input rejected before reaching the store.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return e.Err.Error() }

func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(err error) error {
	if err == nil {
		return nil
	}
	return &ValidationError{Err: err}
}
