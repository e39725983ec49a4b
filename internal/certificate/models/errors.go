package models

import (
	"errors"
	"fmt"
)

// ErrMissingIssueDate marks a row whose end date is absent, so no certificate
// ID can be derived from it.
var ErrMissingIssueDate = errors.New("end date is missing or unparsable")

// PersistenceError reports a store write that could not be committed.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// NewPersistenceError wraps err for operation op.
func NewPersistenceError(op string, err error) error {
	return &PersistenceError{Op: op, Err: err}
}
