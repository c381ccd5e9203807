package wordindex

import "errors"

// Sentinel errors returned by wordindex operations.
//
// Allocation failures surface the scm package's sentinels ([scm.ErrFull]
// in particular) unchanged, so callers can classify them with errors.Is.
var (
	// ErrNotFound indicates a delete of a word that is not indexed.
	//
	// The index is unchanged.
	ErrNotFound = errors.New("wordindex: not found")

	// ErrInvalidInput indicates an empty word was supplied.
	//
	// This is a programming error.
	ErrInvalidInput = errors.New("wordindex: invalid input")

	// ErrClosed indicates the index has already been closed.
	//
	// This is a programming error.
	ErrClosed = errors.New("wordindex: closed")
)
