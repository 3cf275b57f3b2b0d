package service

import (
	"errors"
	"fmt"
)

// ErrLessonNotFound is returned by lookups for a (version, id) pair that is not cached.
var ErrLessonNotFound = errors.New("lesson not found")

// ValidationError is a local failure detected before any network call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// CatalogFetchError reports a failed lesson list fetch. The version stays
// uncached, so requesting it again retries.
type CatalogFetchError struct {
	Version string
	Cause   error
}

func (e *CatalogFetchError) Error() string {
	return fmt.Sprintf("load lessons for Go %s: %v", e.Version, e.Cause)
}

func (e *CatalogFetchError) Unwrap() error { return e.Cause }

// TransportError is a network or HTTP status failure while executing code.
type TransportError struct {
	Cause error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("execution request failed: %v", e.Cause)
}

func (e *TransportError) Unwrap() error { return e.Cause }

// ExecutionError is a compile or runtime error reported by the execution service.
type ExecutionError struct {
	Message string
}

func (e *ExecutionError) Error() string { return e.Message }
