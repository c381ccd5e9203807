package wordindex

import (
	"unsafe"
)

// In-region records. Both live exclusively inside the scm region, so
// cross-record references are absolute addresses stored as integers —
// stable across runs because the region maps at a fixed address, and
// invisible to the garbage collector, which must not scan file-backed
// memory.
//
// All fields are host-native; the scm package refuses big-endian hosts.

// node is one tree node: a key string address, its occurrence count, the
// subtree height, and two child addresses (0 = empty).
type node struct {
	depth int64
	count uint64
	item  uintptr // NUL-terminated key bytes in-region
	left  uintptr // *node in-region
	right uintptr // *node in-region
}

// state is the root record anchoring the tree. It is the region's first
// allocation, so it is always found at scm's base address.
type state struct {
	items  uint64
	unique uint64
	root   uintptr // *node in-region
}

const (
	nodeSize  = uint64(unsafe.Sizeof(node{}))
	stateSize = uint64(unsafe.Sizeof(state{}))
)

// nodeAt translates an in-region address to a node, 0 to nil.
func nodeAt(addr uintptr) *node {
	if addr == 0 {
		return nil
	}

	return (*node)(unsafe.Pointer(addr)) //nolint:govet // fixed-address region
}

// subtreeDepth returns the height of the subtree at addr; an empty
// subtree contributes -1.
func subtreeDepth(addr uintptr) int64 {
	if addr == 0 {
		return -1
	}

	return nodeAt(addr).depth
}

// combinedDepth returns the height of a node with the given subtrees.
func combinedDepth(left, right uintptr) int64 {
	l, r := subtreeDepth(left), subtreeDepth(right)
	if l > r {
		return l + 1
	}

	return r + 1
}

// balanceOf returns left height minus right height.
func balanceOf(n *node) int64 {
	return subtreeDepth(n.left) - subtreeDepth(n.right)
}

// compareKey compares word against the NUL-terminated in-region string at
// item, with strcmp semantics over unsigned bytes: a strict prefix sorts
// first.
func compareKey(word string, item uintptr) int {
	for i := 0; i < len(word); i++ {
		b := *(*byte)(unsafe.Pointer(item + uintptr(i))) //nolint:govet // fixed-address region
		if b == 0 {
			return 1 // item is a strict prefix of word
		}

		if word[i] != b {
			if word[i] < b {
				return -1
			}

			return 1
		}
	}

	if *(*byte)(unsafe.Pointer(item + uintptr(len(word)))) != 0 { //nolint:govet // fixed-address region
		return -1 // word is a strict prefix of item
	}

	return 0
}

// keyString copies the NUL-terminated in-region string at item out into
// a regular Go string.
func keyString(item uintptr) string {
	n := 0
	for *(*byte)(unsafe.Pointer(item + uintptr(n))) != 0 { //nolint:govet // fixed-address region
		n++
	}

	return string(unsafe.Slice((*byte)(unsafe.Pointer(item)), n)) //nolint:govet // fixed-address region
}
