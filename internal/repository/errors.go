package repository

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("repository: not found")
	// ErrConflict indicates a compare-and-set write lost to a concurrent
	// writer and must be retried against fresh state.
	ErrConflict = errors.New("repository: conflict")
)
