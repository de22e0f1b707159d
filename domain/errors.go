package domain

import (
	"errors"
	"fmt"
)

var (
	ErrConfigurationMissing = errors.New("notes directory is not configured")
	ErrDirectoryUnavailable = errors.New("notes directory is unavailable")
	ErrValidation           = errors.New("invalid input")
	ErrRenameConflict       = errors.New("note already exists")
	ErrIOFailure            = errors.New("filesystem operation failed")
	ErrParseFailure         = errors.New("todo file is not valid JSON")
	ErrTodoNotFound         = errors.New("todo not found")
)

// OpError is returned by the stores. Kind is one of the sentinel errors
// above; Err is the underlying cause and may be nil.
type OpError struct {
	Op   string
	Path string
	Kind error
	Err  error
}

func (e *OpError) Error() string {
	msg := e.Op + ": " + e.Kind.Error()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *OpError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func NewOpError(op, path string, kind, err error) *OpError {
	return &OpError{Op: op, Path: path, Kind: kind, Err: err}
}

// Invalid builds a validation error with a formatted reason.
func Invalid(op, format string, args ...any) *OpError {
	return &OpError{Op: op, Kind: ErrValidation, Err: fmt.Errorf(format, args...)}
}

// KindOf reports which taxonomy sentinel err carries, or nil.
func KindOf(err error) error {
	for _, k := range []error{
		ErrConfigurationMissing,
		ErrDirectoryUnavailable,
		ErrValidation,
		ErrRenameConflict,
		ErrTodoNotFound,
		ErrParseFailure,
		ErrIOFailure,
	} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// Describe produces the single line shown to a user for err.
func Describe(err error) string {
	var op *OpError
	if errors.As(err, &op) && errors.Is(op.Kind, ErrConfigurationMissing) {
		return op.Op + ": no notes folder selected"
	}
	return err.Error()
}
