package types

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode represents a unified error code across topicflow.
type ErrorCode string

// Configuration error codes. All of them are raised while compiling a job,
// before any task runs.
const (
	ErrMissingField ErrorCode = "CONFIG_MISSING_FIELD"
	ErrTypeMismatch ErrorCode = "CONFIG_TYPE_MISMATCH"
	ErrInvalidValue ErrorCode = "CONFIG_INVALID_VALUE"
	ErrUnknownKind  ErrorCode = "CONFIG_UNKNOWN_KIND"
	ErrParse        ErrorCode = "CONFIG_PARSE"
)

// Run error codes
const (
	ErrResource     ErrorCode = "RESOURCE"
	ErrStageFailure ErrorCode = "STAGE_FAILURE"
)

// Error represents a structured error with code, message, and location.
type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`

	// TaskKind is the job "type" discriminator the error belongs to, if any.
	TaskKind string `json:"task_kind,omitempty"`
	// Field is the dotted path inside the task entry, e.g. "hyperparameters.alpha".
	Field string `json:"field,omitempty"`
	// TaskIndex is the position in the job's tasks sequence, -1 when unknown.
	TaskIndex int `json:"task_index"`
	// Line is the 1-based line in the job document, 0 when unknown.
	Line int `json:"line,omitempty"`

	Cause error `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString("[")
	sb.WriteString(string(e.Code))
	sb.WriteString("] ")
	if e.TaskIndex >= 0 && e.TaskKind != "" {
		fmt.Fprintf(&sb, "tasks[%d] (%s): ", e.TaskIndex, e.TaskKind)
	} else if e.TaskKind != "" {
		fmt.Fprintf(&sb, "%s: ", e.TaskKind)
	}
	if e.Field != "" {
		fmt.Fprintf(&sb, "field %q: ", e.Field)
	}
	sb.WriteString(e.Message)
	if e.Line > 0 {
		fmt.Fprintf(&sb, " (line %d)", e.Line)
	}
	if e.Cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Cause.Error())
	}
	return sb.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message, TaskIndex: -1}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithTask sets the task kind and index.
func (e *Error) WithTask(kind string, index int) *Error {
	e.TaskKind = kind
	e.TaskIndex = index
	return e
}

// WithField sets the field path.
func (e *Error) WithField(field string) *Error {
	e.Field = field
	return e
}

// WithLine sets the document line.
func (e *Error) WithLine(line int) *Error {
	e.Line = line
	return e
}

// NewMissingFieldError reports a required field that is absent.
func NewMissingFieldError(kind, field string) *Error {
	return NewError(ErrMissingField, "required field is missing").
		WithTask(kind, -1).
		WithField(field)
}

// NewTypeMismatchError reports a field present with the wrong value type.
func NewTypeMismatchError(kind, field, want, got string) *Error {
	return NewError(ErrTypeMismatch, fmt.Sprintf("expected %s, got %s", want, got)).
		WithTask(kind, -1).
		WithField(field)
}

// NewInvalidValueError reports a well-typed value that is out of range.
func NewInvalidValueError(kind, field, reason string) *Error {
	return NewError(ErrInvalidValue, reason).
		WithTask(kind, -1).
		WithField(field)
}

// NewResourceError wraps a workspace or filesystem failure.
func NewResourceError(message string, cause error) *Error {
	return NewError(ErrResource, message).WithCause(cause)
}

// NewStageFailure wraps a failed stage handler.
func NewStageFailure(kind string, index int, cause error) *Error {
	return NewError(ErrStageFailure, "stage failed").
		WithTask(kind, index).
		WithCause(cause)
}

// AsError extracts the first *Error in err's chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) ErrorCode {
	if e, ok := AsError(err); ok {
		return e.Code
	}
	return ""
}

// IsErrorCode reports whether err carries the given code.
func IsErrorCode(err error, code ErrorCode) bool {
	return GetErrorCode(err) == code
}

// IsConfigurationError reports whether err is any CONFIG_* error.
func IsConfigurationError(err error) bool {
	return strings.HasPrefix(string(GetErrorCode(err)), "CONFIG_")
}

// IsResourceError reports whether err is a workspace/resource failure.
func IsResourceError(err error) bool {
	return IsErrorCode(err, ErrResource)
}

// IsStageFailure reports whether err is a stage handler failure.
func IsStageFailure(err error) bool {
	return IsErrorCode(err, ErrStageFailure)
}
