package app

import (
	"errors"
	"fmt"
)

var (
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrListNotFound    = errors.New("list not found")
	ErrItemNotFound    = errors.New("item not found")
	ErrInvalidOrder    = errors.New("invalid order")
	ErrEmptyText       = errors.New("item text must not be empty")
	ErrDuplicateText   = errors.New("item text already exists in list")
)

// ValidationError reports rejected user input. State is left unchanged.
type ValidationError struct {
	Field string
	Value string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// PersistenceError wraps a provider failure. When returned from a mutation
// the in-memory state has been rolled back to the last saved snapshot.
type PersistenceError struct {
	Op  string
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func indexError(index, length int) error {
	return fmt.Errorf("%w: %d (list has %d items)", ErrIndexOutOfRange, index, length)
}
