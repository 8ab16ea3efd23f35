package core

import "errors"

// Common errors.
var (
	ErrReadOnly        = errors.New("store is in read-only mode")
	ErrNotFound        = errors.New("term not found")
	ErrEmptyTerm       = errors.New("term cannot be empty")
	ErrEmptyDefinition = errors.New("definition cannot be empty")
	ErrDuplicateTerm   = errors.New("term already exists in the dictionary")
	ErrUnavailable     = errors.New("recipient unavailable")
)
