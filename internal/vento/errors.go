package vento

import "errors"

// Domain-specific errors for device communication.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrInvalidValue is returned when a value fails a parameter's
	// type or range validation before encoding.
	ErrInvalidValue = errors.New("vento: value not valid for parameter")

	// ErrNotWritable is returned when attempting to write a read-only parameter.
	ErrNotWritable = errors.New("vento: parameter is read-only")

	// ErrDecode is returned for malformed, truncated, or foreign response
	// datagrams. It marks the datagram as unusable; the transaction may
	// still succeed on a later datagram or retry.
	ErrDecode = errors.New("vento: cannot decode response")

	// ErrDeviceUnreachable is returned when a transaction exhausts its
	// retry budget without a decodable response.
	ErrDeviceUnreachable = errors.New("vento: device unreachable")

	// ErrClosed is returned when using a client after Close().
	ErrClosed = errors.New("vento: client closed")
)
