// Package apperr is the error taxonomy shared by every handler in the
// serving core: NotFound, InvalidInput, Forbidden, UpstreamError, and
// ConfigError, per spec §7. Handlers match on Kind to decide the HTTP
// status; this package does not itself know about HTTP.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the handler-local translation described in
// spec §7.
type Kind int

const (
	// UpstreamError covers any git or database error other than "missing".
	UpstreamError Kind = iota
	NotFound
	InvalidInput
	Forbidden
	ConfigError
)

// Error decorates a cause with a Kind, so callers can classify it with
// errors.As without inspecting message text.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not found"
	case InvalidInput:
		return "invalid input"
	case Forbidden:
		return "forbidden"
	case ConfigError:
		return "config error"
	default:
		return "upstream error"
	}
}

func newErr(kind Kind, msg string, err error) error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// NotFoundf builds a NotFound error with a formatted message.
func NotFoundf(format string, args ...interface{}) error {
	return newErr(NotFound, sprintf(format, args...), nil)
}

// InvalidInputf builds an InvalidInput error with a formatted message.
func InvalidInputf(format string, args ...interface{}) error {
	return newErr(InvalidInput, sprintf(format, args...), nil)
}

// Forbiddenf builds a Forbidden error with a formatted message.
func Forbiddenf(format string, args ...interface{}) error {
	return newErr(Forbidden, sprintf(format, args...), nil)
}

// Upstream wraps a git/database error that isn't a "missing" condition.
func Upstream(err error) error {
	if err == nil {
		return nil
	}
	return newErr(UpstreamError, "", err)
}

// Config wraps a malformed-config error (TOML/JSON parse failure at load
// time).
func Config(err error) error {
	if err == nil {
		return nil
	}
	return newErr(ConfigError, "", err)
}

// KindOf returns the Kind of err if it (or something it wraps) is an
// *Error, defaulting to UpstreamError for plain errors so an un-translated
// error still maps to 500 rather than leaking details as a 200.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return UpstreamError
}

func sprintf(format string, args ...interface{}) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}
