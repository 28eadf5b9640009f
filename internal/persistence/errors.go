package persistence

import "errors"

var (
	ErrInvalidConfigType = errors.New("invalid config type for persistence module")
	ErrServiceNotFound   = errors.New("required service not found or wrong type")
	ErrInvalidWorkers    = errors.New("worker count must be at least 1")
	ErrInvalidPoolSize   = errors.New("per-worker connection budget must be at least 1")

	// ErrUnknownEvent reports an event variant the store has no mutation for.
	ErrUnknownEvent = errors.New("unknown persistence event")
)
