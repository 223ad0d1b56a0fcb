package model

import (
	"errors"
	"fmt"
)

// Error kinds shared by the store and API layers. Store functions wrap these
// with context; handlers map them to HTTP status codes with errors.Is.
var (
	ErrInvalid   = errors.New("invalid input")
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden")
	ErrConflict  = errors.New("conflict")
)

// ErrUnsupportedFrequency is returned for frequency kinds that have no
// time-based due date computation (e.g. kilometers).
var ErrUnsupportedFrequency error = &Error{Kind: ErrInvalid, Msg: "unsupported frequency type"}

// Error is a classified error with a message that is safe to show to callers.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Kind }

// Invalidf returns an ErrInvalid-kind error.
func Invalidf(format string, args ...any) error {
	return &Error{Kind: ErrInvalid, Msg: fmt.Sprintf(format, args...)}
}

// NotFoundf returns an ErrNotFound-kind error.
func NotFoundf(format string, args ...any) error {
	return &Error{Kind: ErrNotFound, Msg: fmt.Sprintf(format, args...)}
}

// Forbiddenf returns an ErrForbidden-kind error.
func Forbiddenf(format string, args ...any) error {
	return &Error{Kind: ErrForbidden, Msg: fmt.Sprintf(format, args...)}
}

// Conflictf returns an ErrConflict-kind error.
func Conflictf(format string, args ...any) error {
	return &Error{Kind: ErrConflict, Msg: fmt.Sprintf(format, args...)}
}

// PublicMessage returns the caller-facing message of the classified error in
// err's chain, or fallback when there is none.
func PublicMessage(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return fallback
}
