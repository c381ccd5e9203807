package scm

import "errors"

// Sentinel errors returned by scm operations.
//
// Callers should use [errors.Is] to classify errors. Operations may wrap
// these with additional context.
var (
	// ErrInvalidInput indicates invalid arguments were provided.
	//
	// Common causes: empty path, zero-size allocation, nil region.
	// This is a programming error.
	ErrInvalidInput = errors.New("scm: invalid input")

	// ErrNotRegular indicates the backing path is not a regular file.
	//
	// The region never creates or resizes its backing file; provision it
	// first with the size you need.
	ErrNotRegular = errors.New("scm: not a regular file")

	// ErrMapPlacement indicates the kernel could not map the file at the
	// fixed virtual address the format requires.
	//
	// Usually something else in the process already occupies the address
	// range. The mapping is mandatory; there is no fallback placement.
	ErrMapPlacement = errors.New("scm: fixed mapping placement failed")

	// ErrCorrupt indicates the region header is inconsistent with the
	// backing file (utilized beyond the file size), or the file is too
	// small to hold the header and the first size prefix (16 bytes).
	//
	// Recovery: reopen with truncate, losing the stored data.
	ErrCorrupt = errors.New("scm: corrupt")

	// ErrFull indicates the allocation would exceed the region size.
	//
	// Freed space is never reused (bump allocation). Recovery: provision
	// a larger backing file and rebuild.
	ErrFull = errors.New("scm: full")

	// ErrBusy indicates another region is already mapped in this process,
	// or another process holds the lock file.
	ErrBusy = errors.New("scm: busy")

	// ErrClosed indicates the region has already been closed.
	//
	// This is a programming error.
	ErrClosed = errors.New("scm: closed")
)
