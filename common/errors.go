package common

import "github.com/pkg/errors"

// Wrap and Wrapf attach a stack trace and message to err at the call
// boundary, mirroring how store and RPC failures are annotated throughout
// this codebase. Prefer these over fmt.Errorf when the error crosses a
// package boundary a caller might need to unwind with errors.Cause.
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

func Wrapf(err error, format string, args ...any) error {
	return errors.Wrapf(err, format, args...)
}

// Cause unwraps a chain built with Wrap/Wrapf back to its root error.
func Cause(err error) error {
	return errors.Cause(err)
}
