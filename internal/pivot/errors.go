package pivot

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by this package wraps one of them.
var (
	ErrInvalidInput           = errors.New("invalid input")
	ErrUnsupportedAggregation = errors.New("unsupported aggregation")
	ErrKeyReconciliation      = errors.New("key reconciliation failed")
)

// Error describes a failed pivot build.
type Error struct {
	Kind   error
	Column string
	Msg    string
}

func (e *Error) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("pivot: %s: column %q: %s", e.Kind, e.Column, e.Msg)
	}
	return fmt.Sprintf("pivot: %s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Kind }

func invalidInput(column, format string, args ...any) *Error {
	return &Error{Kind: ErrInvalidInput, Column: column, Msg: fmt.Sprintf(format, args...)}
}
