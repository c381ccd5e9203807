package wordindex

import (
	"fmt"
	"strings"
)

// Test hooks into the in-region tree representation.

// RootWord returns the key at the tree root, or "" when the tree is
// empty.
func RootWord(ix *Index) string {
	if ix == nil || ix.state == nil || ix.state.root == 0 {
		return ""
	}

	return keyString(nodeAt(ix.state.root).item)
}

// CheckInvariants verifies the structural laws of the tree: the depth
// law (empty = -1), the AVL balance bound, strict in-order key ordering,
// and the count laws against the state block.
func CheckInvariants(ix *Index) error {
	if ix == nil || ix.state == nil {
		return nil
	}

	var (
		prev  string
		seen  bool
		nodes uint64
		items uint64
	)

	var check func(addr uintptr) (int64, error)

	check = func(addr uintptr) (int64, error) {
		if addr == 0 {
			return -1, nil
		}

		n := nodeAt(addr)

		ld, err := check(n.left)
		if err != nil {
			return 0, err
		}

		word := keyString(n.item)
		if seen && strings.Compare(prev, word) >= 0 {
			return 0, fmt.Errorf("order violated: %q before %q", prev, word)
		}

		prev, seen = word, true
		nodes++
		items += n.count

		if n.count == 0 {
			return 0, fmt.Errorf("%q has zero count", word)
		}

		rd, err := check(n.right)
		if err != nil {
			return 0, err
		}

		want := ld
		if rd > ld {
			want = rd
		}

		want++

		if n.depth != want {
			return 0, fmt.Errorf("%q depth %d, want %d", word, n.depth, want)
		}

		if diff := ld - rd; diff > 1 || diff < -1 {
			return 0, fmt.Errorf("%q unbalanced: left %d right %d", word, ld, rd)
		}

		return n.depth, nil
	}

	_, err := check(ix.state.root)
	if err != nil {
		return err
	}

	if nodes != ix.state.unique {
		return fmt.Errorf("unique %d, counted %d nodes", ix.state.unique, nodes)
	}

	if items != ix.state.items {
		return fmt.Errorf("items %d, counted %d", ix.state.items, items)
	}

	if (ix.state.unique == 0) != (ix.state.root == 0) {
		return fmt.Errorf("unique %d with root %#x", ix.state.unique, ix.state.root)
	}

	return nil
}
