// Package apperr models expected business failures of the payroll engine.
//
// A calculation that cannot proceed for a known business reason (missing
// employee, no published legal configuration, bad date range, locked run)
// returns an *Error. Any other error is an infrastructure fault from a
// collaborator and is passed through untouched.
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindNotFound      Kind = "not_found"
	KindInactive      Kind = "inactive"
	KindNoLegalConfig Kind = "no_legal_configuration"
	KindInvalidInput  Kind = "invalid_input"
	KindInvalidState  Kind = "invalid_state"
)

// ErrNotFound is returned by stores when a row does not exist. Services turn
// it into a KindNotFound failure with a domain message.
var ErrNotFound = errors.New("not found")

type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func New(kind Kind, message string) error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf reports the failure kind, or "" when err is not a business failure.
func KindOf(err error) Kind {
	var target *Error
	if errors.As(err, &target) {
		return target.Kind
	}
	return ""
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// IsFailure reports whether err is an expected business failure rather than
// an infrastructure fault.
func IsFailure(err error) bool {
	return KindOf(err) != ""
}
