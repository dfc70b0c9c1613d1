// Package availability classifies errors telling that a source cannot
// serve a request at all, as opposed to a transient failure.
package availability

import (
	"errors"
)

var (
	ErrUnimplemented       = NewError("not implemented")
	ErrBusy                = NewError("device or resource busy")
	ErrNoDevice            = NewError("no such device")
	ErrUnsupportedPlatform = NewError("not supported on this platform")
)

type errorString struct {
	s string
}

func NewError(text string) error {
	return &errorString{text}
}

// IsError reports whether err, or any error it wraps, is an availability error.
func IsError(err error) bool {
	var target *errorString
	return errors.As(err, &target)
}

func (e *errorString) Error() string {
	return e.s
}
