// Package wordindex maintains a persistent, ordered index of words and
// their occurrence counts.
//
// The index is a self-balancing (AVL) binary search tree whose nodes and
// key strings live entirely inside a [scm] region — a file mapped at a
// fixed virtual address. Absolute pointers stored in tree nodes stay
// valid across process restarts, so reopening the backing file
// resurrects the whole tree in place.
//
// # Basic Usage
//
//	ix, err := wordindex.Open("words.scm", false)
//	if err != nil {
//	    // handle scm.ErrBusy / scm.ErrMapPlacement etc.
//	}
//	defer ix.Close()
//
//	err = ix.Insert("apple")
//	n := ix.Count("apple")
//	ix.Walk(func(word string, count uint64) { ... })
//
// # Concurrency
//
// An Index is single-owner: one goroutine, one process. See the scm
// package for the locking that enforces this across processes.
//
// [scm]: github.com/calvinalkan/wordvault/pkg/scm
package wordindex
