// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package cluster

// AssertError identifies an error that indicates an internal code consistency
// issue and should be treated as a critical and unrecoverable error.
type AssertError string

// Error returns the assertion error as a human-readable string and satisfies
// the error interface.
func (e AssertError) Error() string {
	return "assertion failed: " + string(e)
}

// ErrorKind identifies a kind of error.  It has full support for errors.Is and
// errors.As, so the caller can directly check against an error kind when
// determining the reason for an error.
type ErrorKind string

// These constants are used to identify a specific ErrorKind.
const (
	// ErrNotDirectory indicates the output path exists but is not a
	// directory.
	ErrNotDirectory = ErrorKind("ErrNotDirectory")

	// ErrOutputExists indicates the output directory already contains
	// index files and overwriting them was not requested.
	ErrOutputExists = ErrorKind("ErrOutputExists")

	// ErrCreateDirectory indicates the output directory could not be
	// created.
	ErrCreateDirectory = ErrorKind("ErrCreateDirectory")

	// ErrRemoveExisting indicates an existing index file could not be
	// removed before overwriting it.
	ErrRemoveExisting = ErrorKind("ErrRemoveExisting")

	// ErrWriteIndex indicates an index file could not be written.
	ErrWriteIndex = ErrorKind("ErrWriteIndex")

	// ErrCorruptIndex indicates the files of a persisted index are missing,
	// malformed, or inconsistent with each other.
	ErrCorruptIndex = ErrorKind("ErrCorruptIndex")

	// ErrIndexClosed indicates an operation was attempted on an index that
	// was already closed.
	ErrIndexClosed = ErrorKind("ErrIndexClosed")
)

// Error satisfies the error interface and prints human-readable errors.
func (e ErrorKind) Error() string {
	return string(e)
}

// Error identifies an error related to creating or reading a cluster index.
// It has full support for errors.Is and errors.As, so the caller can
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
