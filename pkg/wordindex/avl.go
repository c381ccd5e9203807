package wordindex

import (
	"unsafe"
)

// Rotations. Each is a local pointer rewire plus two depth updates; none
// allocates or touches the state counters.

func rotateRight(addr uintptr) uintptr {
	n := nodeAt(addr)
	rootAddr := n.left
	root := nodeAt(rootAddr)

	n.left = root.right
	root.right = addr

	n.depth = combinedDepth(n.left, n.right)
	root.depth = combinedDepth(root.left, root.right)

	return rootAddr
}

func rotateLeft(addr uintptr) uintptr {
	n := nodeAt(addr)
	rootAddr := n.right
	root := nodeAt(rootAddr)

	n.right = root.left
	root.left = addr

	n.depth = combinedDepth(n.left, n.right)
	root.depth = combinedDepth(root.left, root.right)

	return rootAddr
}

func rotateLeftRight(addr uintptr) uintptr {
	n := nodeAt(addr)
	n.left = rotateLeft(n.left)

	return rotateRight(addr)
}

func rotateRightLeft(addr uintptr) uintptr {
	n := nodeAt(addr)
	n.right = rotateRight(n.right)

	return rotateLeft(addr)
}

// insertNode inserts word into the subtree at addr and returns the new
// subtree root.
//
// On allocation failure the subtree is returned unchanged: the new node
// and its key are both allocated before any link is written, so a failed
// insert can never leave a dangling child pointer. (The node allocation
// itself may leak if the key copy fails; bump allocation is monotonic
// and the block is simply never referenced.)
func (ix *Index) insertNode(addr uintptr, word string) (uintptr, error) {
	if addr == 0 {
		p, err := ix.region.Alloc(nodeSize)
		if err != nil {
			return 0, err
		}

		n := (*node)(p)
		*n = node{} // region memory is not zeroed

		item, err := ix.region.Strdup(word)
		if err != nil {
			return 0, err
		}

		n.item = uintptr(item)
		n.count = 1
		n.depth = 0

		ix.state.items++
		ix.state.unique++

		return uintptr(p), nil
	}

	n := nodeAt(addr)

	switch cmp := compareKey(word, n.item); {
	case cmp == 0:
		n.count++
		ix.state.items++

		return addr, nil

	case cmp < 0:
		child, err := ix.insertNode(n.left, word)
		if err != nil {
			return addr, err
		}

		n.left = child

	default:
		child, err := ix.insertNode(n.right, word)
		if err != nil {
			return addr, err
		}

		n.right = child
	}

	n.depth = combinedDepth(n.left, n.right)

	// Canonical four-case fixup: the balance sign picks the heavy side,
	// the inserted key's position relative to that child picks single vs
	// double rotation.
	switch bf := balanceOf(n); {
	case bf > 1:
		if compareKey(word, nodeAt(n.left).item) < 0 {
			return rotateRight(addr), nil
		}

		return rotateLeftRight(addr), nil

	case bf < -1:
		if compareKey(word, nodeAt(n.right).item) > 0 {
			return rotateLeft(addr), nil
		}

		return rotateRightLeft(addr), nil
	}

	return addr, nil
}

// minNodeAddr returns the leftmost node of the non-empty subtree at addr.
func minNodeAddr(addr uintptr) uintptr {
	for nodeAt(addr).left != 0 {
		addr = nodeAt(addr).left
	}

	return addr
}

// deleteNode removes word from the subtree at addr and returns the new
// subtree root. The caller has already established that word exists.
func (ix *Index) deleteNode(addr uintptr, word string) uintptr {
	if addr == 0 {
		return 0
	}

	n := nodeAt(addr)

	switch cmp := compareKey(word, n.item); {
	case cmp < 0:
		n.left = ix.deleteNode(n.left, word)

	case cmp > 0:
		n.right = ix.deleteNode(n.right, word)

	default:
		if n.left == 0 || n.right == 0 {
			// Zero or one child: splice the child in place. The freed
			// node and key are logical frees only; the aliased successor
			// key from the two-children case below stays valid because
			// scm never reclaims.
			child := n.left
			if child == 0 {
				child = n.right
			}

			ix.region.Free(unsafe.Pointer(n.item))
			ix.region.Free(unsafe.Pointer(addr)) //nolint:govet // fixed-address region

			return child
		}

		// Two children: take over the in-order successor's payload, then
		// remove the successor from the right subtree by key.
		succ := nodeAt(minNodeAddr(n.right))
		succWord := keyString(succ.item)

		n.item = succ.item
		n.count = succ.count
		n.right = ix.deleteNode(n.right, succWord)
	}

	n.depth = combinedDepth(n.left, n.right)

	// Fixup on ascent: the balance sign picks the heavy side, the inner
	// child's balance picks single vs double rotation.
	switch bf := balanceOf(n); {
	case bf > 1:
		if balanceOf(nodeAt(n.left)) >= 0 {
			return rotateRight(addr)
		}

		return rotateLeftRight(addr)

	case bf < -1:
		if balanceOf(nodeAt(n.right)) <= 0 {
			return rotateLeft(addr)
		}

		return rotateRightLeft(addr)
	}

	return addr
}

// walkNodes visits the subtree at addr in ascending key order.
func walkNodes(addr uintptr, fn func(word string, count uint64)) {
	if addr == 0 {
		return
	}

	n := nodeAt(addr)
	walkNodes(n.left, fn)
	fn(keyString(n.item), n.count)
	walkNodes(n.right, fn)
}
