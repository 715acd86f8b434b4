// Package errors provides error handling helpers with stack traces.
package errors

import (
	goerrors "errors"

	errstack "github.com/go-errors/errors"
	"github.com/hashicorp/go-multierror"
)

// New creates an error with the given message and captures a stack trace.
func New(message string) error {
	return errstack.Wrap(message, 1)
}

// Errorf creates a formatted error and captures a stack trace.
func Errorf(format string, args ...any) error {
	return errstack.Wrap(errstack.Errorf(format, args...), 1)
}

// WithStackTrace wraps the given error with a stack trace, unless it already
// carries one.
func WithStackTrace(err error) error {
	if err == nil {
		return nil
	}

	var stacked *errstack.Error
	if goerrors.As(err, &stacked) {
		return err
	}

	return errstack.Wrap(err, 1)
}

// Unwrap returns the result of calling the Unwrap method on err, if any.
func Unwrap(err error) error {
	var stacked *errstack.Error
	if goerrors.As(err, &stacked) {
		return stacked.Unwrap()
	}

	return goerrors.Unwrap(err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return goerrors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return goerrors.As(err, target)
}

// IsError reports whether err's chain contains target. It exists for call
// sites that read better with a verb.
func IsError(err, target error) bool {
	return goerrors.Is(err, target)
}

// Append combines errors into a single multierror. Nil errors are dropped;
// the result is nil when every input is nil.
func Append(err error, errs ...error) error {
	combined := multierror.Append(err, errs...)
	return combined.ErrorOrNil()
}
