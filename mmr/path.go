package mmr

import "fmt"

// PathStep is one step of the branch from a node up to its local peak. Each
// step names the sibling the running hash must be combined with, and which
// operand it is.
type PathStep struct {
	// Sibling is the MMR index of the witness node for this step.
	Sibling uint64
	// SiblingOnLeft is true when the sibling is the left operand of the
	// parent hash, ie when the proven node is the right child.
	SiblingOnLeft bool
}

// InclusionPath returns the family branch for node i in an mmr of the given
// size: the ordered steps from i up to, and excluding, the peak of the
// mountain containing i, together with that peak's index.
//
// For the index tree below with mmrSize 26, InclusionPath(26, 15) yields
// steps [{16 false}, {20 false}] and local peak 21: the running hash for 15
// is combined to the left of the value at 16, then to the left of the value
// at 20, reproducing the value at 21.
//
//	3              14
//	             /    \
//	            /      \
//	           /        \
//	          /          \
//	2        6            13           21
//	       /   \        /    \
//	1     2     5      9     12     17     20     24
//	     / \   / \    / \   /  \   /  \
//	0   0   1 3   4  7   8 10  11 15  16 18  19 22  23   25
//
// The walk relies only on index arithmetic, so it is equally usable by the
// store backed proof generator and by a verifier holding nothing but the
// proof.
func InclusionPath(mmrSize uint64, i uint64) ([]PathStep, uint64, error) {
	if i >= mmrSize {
		return nil, 0, fmt.Errorf("%w: index %d, size %d", ErrIndexOutOfRange, i, mmrSize)
	}
	if Peaks(mmrSize) == nil {
		return nil, 0, fmt.Errorf("%w: %d", ErrInvalidSize, mmrSize)
	}

	var path []PathStep
	g := IndexHeight(i) // interior nodes have branches too

	for {
		// If the next index is higher in the tree, it is the parent and i is
		// its right child. The witness is the left sibling, behind i, and is
		// always in range.
		if IndexHeight(i+1) > g {
			iSibling := i - SiblingOffset(g)
			path = append(path, PathStep{Sibling: iSibling, SiblingOnLeft: true})
			// the parent of a right child is stored immediately after it
			i++
		} else {
			iSibling := i + SiblingOffset(g)
			if iSibling >= mmrSize {
				// the right sibling sub tree does not exist yet, so i is the
				// peak of its mountain
				return path, i, nil
			}
			path = append(path, PathStep{Sibling: iSibling, SiblingOnLeft: false})
			// the parent of a left child follows its right sibling
			i += ParentOffset(g)
		}
		g++
	}
}
