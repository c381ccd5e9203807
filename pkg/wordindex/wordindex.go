package wordindex

import (
	"fmt"

	"github.com/calvinalkan/wordvault/pkg/scm"
)

// Index is a handle to an open word index.
//
// An Index is not safe for concurrent use. Obtain one with [Open] and
// release it with [Index.Close].
type Index struct {
	region *scm.Region
	state  *state
}

// Open opens the word index backed by the scm region at path.
//
// If the region already holds data (a prior run closed cleanly), the
// existing tree is adopted in place via the state block at the region's
// base address. Otherwise a fresh, zeroed state block is allocated; being
// the region's first allocation, it is guaranteed to land at the base
// address where future opens will look for it.
//
// Possible errors: everything [scm.Open] returns, plus [scm.ErrCorrupt]
// when the region is non-empty but too small to hold a state block.
func Open(path string, truncate bool) (*Index, error) {
	region, err := scm.Open(path, truncate)
	if err != nil {
		return nil, err
	}

	ix := &Index{region: region}

	if u := region.Utilized(); u > 0 {
		if u < stateSize+8 {
			_ = region.Close()

			return nil, fmt.Errorf("region utilized %d cannot hold a state block: %w", u, scm.ErrCorrupt)
		}

		ix.state = (*state)(region.Base())

		return ix, nil
	}

	p, err := region.Alloc(stateSize)
	if err != nil {
		_ = region.Close()

		return nil, fmt.Errorf("allocating state block: %w", err)
	}

	st := (*state)(p)
	*st = state{} // region memory is not zeroed
	ix.state = st

	return ix, nil
}

// Insert adds one occurrence of word to the index.
//
// A novel word allocates a node and a key copy from the region; a repeat
// only bumps counters. On allocation failure the index is unchanged and
// the error satisfies errors.Is(err, [scm.ErrFull]).
//
// Possible errors: [ErrClosed], [ErrInvalidInput] (empty word), scm
// allocation errors.
func (ix *Index) Insert(word string) error {
	if ix == nil || ix.state == nil {
		return ErrClosed
	}

	if word == "" {
		return fmt.Errorf("empty word: %w", ErrInvalidInput)
	}

	root, err := ix.insertNode(ix.state.root, word)
	if err != nil {
		return fmt.Errorf("insert %q: %w", word, err)
	}

	ix.state.root = root

	return nil
}

// Count returns the number of times word has been inserted, or 0 if it
// is absent (or the index is closed).
func (ix *Index) Count(word string) uint64 {
	if ix == nil || ix.state == nil {
		return 0
	}

	addr := ix.state.root
	for addr != 0 {
		n := nodeAt(addr)

		cmp := compareKey(word, n.item)
		if cmp == 0 {
			return n.count
		}

		if cmp < 0 {
			addr = n.left
		} else {
			addr = n.right
		}
	}

	return 0
}

// Delete removes word from the index entirely, regardless of its current
// count: the items total drops by the word's whole count and unique by
// one. The node's space is not reclaimed.
//
// Possible errors: [ErrClosed], [ErrInvalidInput] (empty word),
// [ErrNotFound] (index unchanged).
func (ix *Index) Delete(word string) error {
	if ix == nil || ix.state == nil {
		return ErrClosed
	}

	if word == "" {
		return fmt.Errorf("empty word: %w", ErrInvalidInput)
	}

	count := ix.Count(word)
	if count == 0 {
		return fmt.Errorf("%q: %w", word, ErrNotFound)
	}

	ix.state.root = ix.deleteNode(ix.state.root, word)
	ix.state.items -= count
	ix.state.unique--

	return nil
}

// Walk visits every indexed word in strictly ascending byte-lexicographic
// order. The word strings passed to fn are copies the callback may
// retain; fn must not mutate the index.
func (ix *Index) Walk(fn func(word string, count uint64)) {
	if ix == nil || ix.state == nil {
		return
	}

	walkNodes(ix.state.root, fn)
}

// Items returns the total number of insertions (the sum of all counts).
func (ix *Index) Items() uint64 {
	if ix == nil || ix.state == nil {
		return 0
	}

	return ix.state.items
}

// Unique returns the number of distinct words indexed.
func (ix *Index) Unique() uint64 {
	if ix == nil || ix.state == nil {
		return 0
	}

	return ix.state.unique
}

// Utilized reports the bytes consumed in the underlying region.
func (ix *Index) Utilized() uint64 {
	if ix == nil {
		return 0
	}

	return ix.region.Utilized()
}

// Capacity reports the bytes still available in the underlying region.
func (ix *Index) Capacity() uint64 {
	if ix == nil {
		return 0
	}

	return ix.region.Capacity()
}

// Close flushes and releases the underlying region.
//
// Close is idempotent and safe on nil.
func (ix *Index) Close() error {
	if ix == nil || ix.state == nil {
		return nil
	}

	ix.state = nil

	return ix.region.Close()
}
