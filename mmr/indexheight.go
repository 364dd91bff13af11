package mmr

import (
	"math"
	"math/bits"
)

// The height scan works on the binary encoding of 1 based positions.
// Interpreted that way, the positions on the left most branch of any perfect
// tree are 'all ones', and the height of a node is the count of those ones
// less one. To find the height of an arbitrary position we repeatedly jump
// left, by the size of the largest perfect tree preceding the position,
// until we land on an all ones position.
//
// See:
// * https://github.com/mimblewimble/grin/blob/0ff6763ee64e5a14e70ddd4642b99789a1648a32/core/src/core/pmmr.rs#L606
// * https://github.com/proofchains/python-proofmarshal/blob/master/proofmarshal/mmr.py#L18

// IndexHeight returns the tree height of the node with MMR index i. Leaves
// are height 0. This function is the basis for the entire implementation.
func IndexHeight(i uint64) uint64 {
	// the encoding works on 1 based positions only
	return PosHeight(i + 1)
}

// PosHeight is the height scan for a 1 based position.
func PosHeight(pos uint64) uint64 {
	for !AllOnes(pos) {
		pos = JumpLeftPerfect(pos)
	}
	return BitLength64(pos) - 1
}

// JumpLeftPerfect moves pos left by the size of the largest perfect tree
// preceding it, landing on the node at the same height in the tree to the
// left.
//
// So given,
//
//	3            15
//	           /    \
//	          /      \
//	         /        \
//	2       7          14
//	      /   \       /   \
//	1    3     6    10     13      18
//	    / \  /  \   / \   /  \    /  \
//	0  1   2 4   5 8   9 11   12 16   17
//
// JumpLeftPerfect(13) is 6, because the perfect tree preceding 13 has 7
// nodes. JumpLeftPerfect(6) is then 3, which is all ones, and bit length 2
// gives height 1.
//
// Note that pos is the 1 based position, not the 0 based index.
func JumpLeftPerfect(pos uint64) uint64 {
	mostSignificantBit := uint64(1) << (BitLength64(pos) - 1)
	return pos - (mostSignificantBit - 1)
}

// IndexHeightLinear computes the height of index i by iteratively stripping
// the largest perfect peak that fits under the remaining position. It
// mirrors the typical construction diagrams directly and exists to cross
// check IndexHeight in tests; prefer IndexHeight everywhere else.
func IndexHeightLinear(i uint64) uint64 {
	if i == 0 {
		return 0
	}
	pos := i
	peakSize := uint64(math.MaxUint64) >> bits.LeadingZeros64(pos)
	for peakSize > 0 {
		if pos >= peakSize {
			pos -= peakSize
		}
		peakSize >>= 1
	}
	return pos
}

// JumpRightSibling moves from pos to the next sibling at the same height.
// The result is only meaningful when such a sibling exists; the burden of
// knowing that is on the caller.
func JumpRightSibling(pos uint64) uint64 {
	return pos + (1 << (PosHeight(pos) + 1)) - 1
}

// LeftChild returns the position of the left child of parent pos, and false
// if pos is a leaf.
func LeftChild(pos uint64) (uint64, bool) {
	height := PosHeight(pos)
	if height == 0 {
		return 0, false
	}
	return pos - (1 << height), true
}

// SiblingOffset returns the distance between siblings at the given height
// index. A left sibling is found at i - SiblingOffset(g) from a right
// sibling at i, and vice versa.
func SiblingOffset(heightIndex uint64) uint64 {
	// (1 << height) - 1 for a 1 based height; our height index is 0 based so
	// the shift starts at 2.
	return (2 << heightIndex) - 1
}

// ParentOffset returns the distance from a left child at the given height
// index to its parent.
func ParentOffset(heightIndex uint64) uint64 {
	return 2 << heightIndex
}
