package error_types

import (
	"errors"
	"fmt"
)

// Kind is the class of failure surfaced to a caller of the summary pipeline.
// A transport shell maps each kind onto its own signal (exit code, HTTP status).
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindBadRequest
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindBadRequest:
		return "bad_request"
	default:
		return "internal"
	}
}

// ResourceNotFoundError is returned when the store location does not exist or
// the prefix selects nothing. It is terminal and never retried.
type ResourceNotFoundError struct {
	Location string
	Prefix   string
	Err      error
}

func NewResourceNotFoundError(location, prefix string, err error) *ResourceNotFoundError {
	return &ResourceNotFoundError{Location: location, Prefix: prefix, Err: err}
}

func (e *ResourceNotFoundError) Error() string {
	msg := fmt.Sprintf("resource not found: %s", e.Location)
	if e.Prefix != "" {
		msg = fmt.Sprintf("%s (prefix %q)", msg, e.Prefix)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %s", msg, e.Err.Error())
	}
	return msg
}

func (e *ResourceNotFoundError) Unwrap() error { return e.Err }

// UnsupportedFormatError carries the format selector no parser is registered for.
type UnsupportedFormatError struct {
	Format    string
	Supported []string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported log format %q (supported: %v)", e.Format, e.Supported)
}

// InvalidFilterError is returned when a filter specification is missing a required value
// or names a store location which cannot be interpreted.
type InvalidFilterError struct {
	Field  string
	Reason string
}

func (e *InvalidFilterError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// FetchFailedError is a per-object failure, returned once the retry budget for the object is spent.
type FetchFailedError struct {
	Key      string
	Attempts int
	Err      error
}

func (e *FetchFailedError) Error() string {
	return fmt.Sprintf("failed to fetch object %s after %d attempt(s): %s", e.Key, e.Attempts, e.Err)
}

func (e *FetchFailedError) Unwrap() error { return e.Err }

// MalformedInputError scopes a decode failure to one object, or one line of it when Line > 0.
type MalformedInputError struct {
	Key  string
	Line int
	Err  error
}

func (e *MalformedInputError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("malformed input in %s line %d: %s", e.Key, e.Line, e.Err)
	}
	return fmt.Sprintf("malformed input in %s: %s", e.Key, e.Err)
}

func (e *MalformedInputError) Unwrap() error { return e.Err }

// ObjectLevel reports whether a MalformedInputError applies to the whole object
func (e *MalformedInputError) ObjectLevel() bool {
	return e.Line == 0
}

// KindOf classifies err for the caller
func KindOf(err error) Kind {
	if err == nil {
		return KindInternal
	}
	var notFound *ResourceNotFoundError
	if errors.As(err, &notFound) {
		return KindNotFound
	}
	var unsupported *UnsupportedFormatError
	if errors.As(err, &unsupported) {
		return KindBadRequest
	}
	var invalid *InvalidFilterError
	if errors.As(err, &invalid) {
		return KindBadRequest
	}
	return KindInternal
}

// IsSkippable reports whether err only affects a single object or line, so the
// pipeline may absorb it and continue.
func IsSkippable(err error) bool {
	var fetchFailed *FetchFailedError
	var malformed *MalformedInputError
	return errors.As(err, &fetchFailed) || errors.As(err, &malformed)
}
