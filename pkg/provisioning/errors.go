package provisioning

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidConfig = errors.New("provisioning: invalid configuration")

func invalidConfig(msg string, args ...any) error {
	return fmt.Errorf("%w: "+msg, append([]any{ErrInvalidConfig}, args...)...)
}

// ValidationReason tells why a row was rejected before processing.
type ValidationReason string

const (
	ReasonMissingField ValidationReason = "missing_field"
	ReasonDuplicate    ValidationReason = "duplicate"
)

// ValidationError rejects a single row. It never aborts a run.
type ValidationError struct {
	Line   int
	Field  string
	Reason ValidationReason
	Key    string

	// FirstLine is the line that claimed Key first. Set for duplicates only.
	FirstLine int
}

func (e *ValidationError) Error() string {
	switch e.Reason {
	case ReasonDuplicate:
		return fmt.Sprintf("line %d: duplicate %s %q (first seen on line %d)", e.Line, e.Field, e.Key, e.FirstLine)
	default:
		return fmt.Sprintf("line %d: required field %s is empty", e.Line, e.Field)
	}
}

// RemoteError is any directory call failure. The engine treats it as row-scoped.
type RemoteError struct {
	Op      string
	Code    string
	Message string
	Err     error
}

func (e *RemoteError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Code != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Op, msg, e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Op, msg)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// AlreadyExists reports the group-add case where the user is already a member.
func (e *RemoteError) AlreadyExists() bool {
	if e == nil {
		return false
	}
	return strings.Contains(strings.ToLower(e.Message), "already exist")
}

func asRemoteError(op string, err error) *RemoteError {
	var re *RemoteError
	if errors.As(err, &re) {
		return re
	}
	return &RemoteError{Op: op, Message: err.Error(), Err: err}
}
