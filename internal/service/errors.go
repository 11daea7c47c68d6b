package service

import (
	"errors"
	"fmt"
)

// ErrNotFound marks a missing recipe, step, tag or user target. Wrapped
// errors carry the specific entity; callers match with errors.Is.
var ErrNotFound = errors.New("record not found")

// ErrForbidden marks an operation attempted by someone other than the
// resource owner (or an admin).
var ErrForbidden = errors.New("forbidden")

// ValidationError is a malformed or incomplete payload. Never retried;
// mapped to a client error by the HTTP layer.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func newValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// UploadError is a blob storage failure for a required asset. It triggers
// rollback of the other assets uploaded by the same operation.
type UploadError struct {
	Asset string
	Err   error
}

func (e *UploadError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("failed to upload %s", e.Asset)
	}
	return fmt.Sprintf("failed to upload %s: %v", e.Asset, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// PersistenceError is an underlying store failure. Not retried by the
// services; surfaced after best-effort compensation.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
