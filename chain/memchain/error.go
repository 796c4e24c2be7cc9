// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package memchain

// ErrorKind identifies a kind of error.  It has full support for errors.Is and
// errors.As, so the caller can directly check against an error kind when
// determining the reason for an error.
type ErrorKind string

// These constants are used to identify a specific Error.
const (
	// ErrUnknownOutput indicates an input references an output that does
	// not exist.
	ErrUnknownOutput = ErrorKind("ErrUnknownOutput")

	// ErrDoubleSpend indicates an input references an output that has
	// already been spent.
	ErrDoubleSpend = ErrorKind("ErrDoubleSpend")

	// ErrUnknownAddress indicates an address that was never allocated by
	// the builder.
	ErrUnknownAddress = ErrorKind("ErrUnknownAddress")

	// ErrInvalidAddress indicates an encoded address could not be decoded
	// or is not supported.
	ErrInvalidAddress = ErrorKind("ErrInvalidAddress")

	// ErrBadBootstrap indicates a malformed or mismatched bootstrap file.
	ErrBadBootstrap = ErrorKind("ErrBadBootstrap")
)

// Error satisfies the error interface and prints human-readable errors.
func (e ErrorKind) Error() string {
	return string(e)
}

// Error identifies an error related to building or querying an in-memory
// chain.  It has full support for errors.Is and errors.As, so the caller can
// ascertain the specific reason for the error by checking the underlying
// error.
type Error struct {
	Err         error
	Description string
}

// Error satisfies the error interface and prints human-readable errors.
func (e Error) Error() string {
	return e.Description
}

// Unwrap returns the underlying wrapped error.
func (e Error) Unwrap() error {
	return e.Err
}

// makeError creates an Error given a set of arguments.
func makeError(kind ErrorKind, desc string) Error {
	return Error{Err: kind, Description: desc}
}
