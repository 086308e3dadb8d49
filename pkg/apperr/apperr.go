// Package apperr defines the error taxonomy shared by services and handlers.
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindMalformedResponse  Kind = "MalformedResponse"
	KindServiceUnavailable Kind = "ServiceUnavailable"
	KindValidation         Kind = "ValidationError"
	KindModerationRejected Kind = "ModerationRejected"
	KindNotFound           Kind = "NotFound"
	KindUnsupported        Kind = "Unsupported"
)

// Error carries a kind, a short user-facing message and the underlying cause.
// Details holds extra fields a handler may expose (e.g. a suggested rewrite).
type Error struct {
	Kind    Kind
	Message string
	Err     error
	Details map[string]string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, apperr.NotFound)
// works against the sentinels below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == "" && t.Err == nil
}

var (
	MalformedResponse  = &Error{Kind: KindMalformedResponse}
	ServiceUnavailable = &Error{Kind: KindServiceUnavailable}
	Validation         = &Error{Kind: KindValidation}
	ModerationRejected = &Error{Kind: KindModerationRejected}
	NotFound           = &Error{Kind: KindNotFound}
	Unsupported        = &Error{Kind: KindUnsupported}
)

func New(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func NewMalformed(message string, err error) *Error {
	return New(KindMalformedResponse, message, err)
}

func NewUnavailable(message string, err error) *Error {
	return New(KindServiceUnavailable, message, err)
}

func NewValidation(message string) *Error {
	return New(KindValidation, message, nil)
}

func NewNotFound(message string) *Error {
	return New(KindNotFound, message, nil)
}

// NewRejected builds a moderation rejection carrying the reason and an
// optional rewrite the user may accept.
func NewRejected(reason, suggestedFix string) *Error {
	e := New(KindModerationRejected, reason, nil)
	e.Details = map[string]string{"reason": reason}
	if suggestedFix != "" {
		e.Details["suggestedFix"] = suggestedFix
	}
	return e
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// As is a shorthand for errors.As into *Error.
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}
