package mmr

import (
	"math"
	"math/bits"
)

// Peaks returns the MMR indices of the mountain peaks for the given mmr
// size. The peaks are completely determined by the size; if the size is not
// one a sequence of appends can produce, nil is returned.
//
// The result is in ascending index order. The highest peak has the lowest
// index and is listed first, because the 'little' down range peaks can only
// appear to the right of the first perfect peak, and so on recursively.
//
// So given the example below, which has size 11, the peaks are [6, 9, 10]
//
//	2        6
//	       /   \
//	1     2     5      9
//	     / \   / \    / \
//	0   0   1 3   4  7   8 10
func Peaks(mmrSize uint64) []uint64 {
	if mmrSize == 0 {
		return nil
	}

	// Starting with the largest perfect tree that fits, consume perfect
	// trees left to right. Any nodes left over after the unit tree mean the
	// size has siblings without a parent, which no append sequence creates.
	peakSize := uint64(math.MaxUint64) >> bits.LeadingZeros64(mmrSize)
	nodesLeft := mmrSize
	prevPeak := uint64(0)
	var peaks []uint64

	for peakSize > 0 {
		if nodesLeft >= peakSize {
			prevPeak += peakSize
			nodesLeft -= peakSize
			// record the 0 based index
			peaks = append(peaks, prevPeak-1)
		}
		peakSize >>= 1
	}

	if nodesLeft > 0 {
		return nil
	}
	return peaks
}

// PeaksBitmap returns a bit mask where each set bit corresponds to a peak
// and the bit's position is that peak's height. Because of the binary nature
// of the tree, the value is also the leaf count.
//
// For the size 11 mmr above, PeaksBitmap(11) is 0b110: peaks at heights 1
// and 2, and 6 leaves.
//
// If mmrSize is invalid, the map is for the largest valid size below it.
func PeaksBitmap(mmrSize uint64) uint64 {
	if mmrSize == 0 {
		return 0
	}
	pos := mmrSize
	peakSize := uint64(math.MaxUint64) >> bits.LeadingZeros64(mmrSize)
	peakMap := uint64(0)
	for peakSize > 0 {
		peakMap <<= 1
		if pos >= peakSize {
			pos -= peakSize
			peakMap |= 1
		}
		peakSize >>= 1
	}
	return peakMap
}

// LeafCount returns the number of leaves in the largest mmr whose size is <=
// the supplied size.
//
// This can safely be used to obtain the leaf count only when mmrSize is
// known to be valid. If in any doubt, do
//
//	LeafCount(FirstMMRSize(i))
func LeafCount(mmrSize uint64) uint64 {
	return PeaksBitmap(mmrSize)
}

// FirstMMRSize returns the smallest valid mmr size containing the node index
// i. Valid sizes are not continuous - appending a leaf also back fills the
// parents it completes - so for the indices 0..7 the results are
//
//	[1, 3, 3, 4, 7, 7, 7, 8]
func FirstMMRSize(mmrIndex uint64) uint64 {
	i := mmrIndex
	h0 := IndexHeight(i)
	h1 := IndexHeight(i + 1)
	for h0 < h1 {
		i++
		h0 = h1
		h1 = IndexHeight(i + 1)
	}
	return i + 1
}

// MMRIndex returns the node index at which leaf leafIndex is stored, where
// leaves are numbered consecutively ignoring interior nodes.
func MMRIndex(leafIndex uint64) uint64 {
	sum := uint64(0)
	for leafIndex > 0 {
		h := bits.Len64(leafIndex)
		sum += (1 << h) - 1
		leafIndex -= 1 << (h - 1)
	}
	return sum
}

// LeafIndex returns the leaf ordinal for the leaf stored at node index i.
// The result is meaningless if i is not a leaf index.
func LeafIndex(mmrIndex uint64) uint64 {
	return LeafCount(FirstMMRSize(mmrIndex)) - 1
}
