// Package skerr wraps errors with enough caller context to read error
// chains without a debugger, in the spirit of the buildbot skerr package
// but trimmed to what this module's git and config loaders need: message
// wrapping that preserves errors.Is/errors.As over the original error.
package skerr

import "fmt"

// Wrap annotates err with nothing beyond its own identity, returning nil
// if err is nil. It exists so callers can return skerr.Wrap(err) at a
// boundary even when there's no extra context to add yet.
func Wrap(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w", err)
}

// Wrapf annotates err with a formatted message, returning nil if err is
// nil. The original error remains reachable through errors.Is/errors.As.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Fmt builds a new error from format, independent of any wrapped cause.
func Fmt(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}
