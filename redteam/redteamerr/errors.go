package redteamerr

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupported indicates the operation is not available for the kind of location it was invoked against
	// (e.g. writing to a remote URL).
	ErrUnsupported = NewExpectedErr("operation not supported for this location")

	// ErrNoSources indicates there were no sources selected for a sync.
	ErrNoSources = NewExpectedErr("no sources matched the selection")
)

// FetchError is raised when retrieving the contents of a location fails: the transport could not connect, the
// remote responded with an error status, the body could not be read in full, or the payload could not be inflated.
type FetchError struct {
	Location   string
	StatusCode int
	Err        error
}

func NewFetchError(location string, err error) *FetchError {
	return &FetchError{Location: location, Err: err}
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("unable to read %q (status %d): %v", e.Location, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("unable to read %q: %v", e.Location, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NotFoundError is raised when a keyed record does not exist.
type NotFoundError struct {
	Collection string
	Key        string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no %s record found for %q", e.Collection, e.Key)
}

// MalformedInputError is raised for an input item that is missing required fields or carries unparseable values.
type MalformedInputError struct {
	ID    string
	Field string
	Err   error
}

func (e *MalformedInputError) Error() string {
	id := e.ID
	if id == "" {
		id = "<unknown>"
	}
	if e.Err != nil {
		return fmt.Sprintf("malformed input %s: field %q: %v", id, e.Field, e.Err)
	}
	return fmt.Sprintf("malformed input %s: missing field %q", id, e.Field)
}

func (e *MalformedInputError) Unwrap() error {
	return e.Err
}

// InterruptedError is raised when the operator interrupts work on a single location.
type InterruptedError struct {
	Location string
}

func (e *InterruptedError) Error() string {
	return fmt.Sprintf("interrupted while processing %q", e.Location)
}

func IsFetchError(err error) bool {
	var target *FetchError
	return errors.As(err, &target)
}

func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

func IsMalformedInput(err error) bool {
	var target *MalformedInputError
	return errors.As(err, &target)
}

func IsInterrupted(err error) bool {
	var target *InterruptedError
	return errors.As(err, &target)
}
