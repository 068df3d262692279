package redteamerr

import (
	"fmt"
)

// ExpectedErr represents a class of expected errors that redteam may produce.
type ExpectedErr struct {
	Err error
}

// NewExpectedErr generates a new ExpectedErr.
func NewExpectedErr(msgFormat string, args ...interface{}) ExpectedErr {
	return ExpectedErr{
		Err: fmt.Errorf(msgFormat, args...),
	}
}

// Error returns a string representing the underlying error condition.
func (e ExpectedErr) Error() string {
	return e.Err.Error()
}

func (e ExpectedErr) Unwrap() error {
	return e.Err
}
