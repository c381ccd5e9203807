// Package scm provides a file-backed memory region mapped at a fixed
// virtual address, with a malloc-shaped bump allocator on top.
//
// Because every run maps the backing file at the same address, absolute
// pointers stored inside the region stay valid across process restarts.
// Data structures built entirely from scm allocations therefore survive
// process death in place: reopening the file resurrects them with no
// parse or load step.
//
// # Basic Usage
//
//	r, err := scm.Open("words.scm", false)
//	if err != nil {
//	    // handle [ErrBusy]/[ErrMapPlacement] etc.
//	}
//	defer r.Close()
//
//	p, err := r.Alloc(64)
//	s, err := r.Strdup("hello")
//
// # Allocation Model
//
// Alloc is a bump allocator: each request advances a high-water mark that
// is itself persisted in the region header. Free is a logical no-op;
// space is never reclaimed. Every allocation carries an 8-byte size
// prefix so a future reclaiming allocator could recover block sizes.
//
// # Concurrency
//
// A Region is owned by a single goroutine in a single process. At most
// one Region may be open per process (the fixed mapping address is a
// process-wide resource), and an advisory lock file excludes other
// processes for the life of the handle. Concurrent use of one Region is
// not supported.
//
// # Durability
//
// The mapping is flushed to the backing file on Close. The on-disk image
// between mutations is not guaranteed consistent; only a cleanly closed
// region is a valid reopen source.
package scm
