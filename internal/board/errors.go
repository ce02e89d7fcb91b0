package board

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is returned when submitted card fields are rejected. No
	// state changes when it is returned.
	ErrValidation = errors.New("validation error")
	// ErrNotFound is returned when an operation references an unknown list or card.
	ErrNotFound = errors.New("not found")
)

// PersistenceError reports that a mutation was applied in memory but could not
// be written to durable storage.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist after %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// ErrCorrupt marks stored board content that cannot be decoded.
var ErrCorrupt = errors.New("corrupt board data")
