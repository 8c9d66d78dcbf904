// Package apierr defines the unified error shape produced for every failed
// call to the relay API. UI layers and the offline queue branch on the
// classification flags instead of inspecting transport errors directly.
package apierr

import (
	"errors"
	"fmt"
)

// Error is the normalized form of any transport or HTTP failure.
//
// At most one of NetworkError, Timeout and Canceled is set for a given
// instance; Status is zero unless an HTTP response was actually received.
// Err retains the unmodified source error for diagnostics and is never
// shown to the user.
type Error struct {
	Message      string
	Status       int
	NetworkError bool
	Timeout      bool
	Canceled     bool
	Err          error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Network reports a failure where no HTTP response was received.
func Network(cause error) *Error {
	return &Error{Message: "server unreachable", NetworkError: true, Err: cause}
}

// Timedout reports a request that exceeded its deadline.
func Timedout(cause error) *Error {
	return &Error{Message: "request timed out", Timeout: true, Err: cause}
}

// Aborted reports a request canceled by the caller.
func Aborted(cause error) *Error {
	return &Error{Message: "request canceled", Canceled: true, Err: cause}
}

// FromStatus reports a response with an error HTTP status. An empty message
// falls back to a generic per-status text supplied by the caller.
func FromStatus(status int, message string, cause error) *Error {
	return &Error{Message: message, Status: status, Err: cause}
}

// Unknown is the fallback when classification yields no specific cause.
func Unknown(cause error) *Error {
	return &Error{Message: "unexpected error", Err: cause}
}

// Retriable reports whether err represents a condition under which a failed
// write should be queued for later delivery: the server was unreachable or
// the request timed out. Server-side rejections and cancellations are not
// retriable.
func Retriable(err error) bool {
	var ae *Error
	if !errors.As(err, &ae) {
		return false
	}
	return ae.NetworkError || ae.Timeout
}

// StatusOf returns the HTTP status carried by err, or zero if err is not a
// normalized error or no response was received.
func StatusOf(err error) int {
	var ae *Error
	if !errors.As(err, &ae) {
		return 0
	}
	return ae.Status
}
