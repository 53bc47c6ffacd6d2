package store

import "errors"

var (
	// ErrNotFound is returned when a key does not exist.
	ErrNotFound = errors.New("store: key not found")

	// ErrConflict is returned by Watch when the watched key changed before
	// commit. It is a retry signal, not a failure.
	ErrConflict = errors.New("store: watched key modified")

	// ErrNotInteger is returned when Incr targets a value that is not a base-10 integer.
	ErrNotInteger = errors.New("store: value is not an integer")
)
