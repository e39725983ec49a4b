// Package sentinel holds the infrastructure facts stores and caches report.
// Services translate them into domain errors or row failures; they never
// reach a client unwrapped.
package sentinel

import "errors"

var (
	// ErrNotFound: no record, or no live cached archive, under the key.
	ErrNotFound = errors.New("not found")
	// ErrConflict: a uniqueness rule rejected the write.
	ErrConflict = errors.New("conflict")
)
