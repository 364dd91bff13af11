package mmr

import "math/bits"

// BitLength64 returns the number of bits required to represent num.
func BitLength64(num uint64) uint64 {
	return uint64(bits.Len64(num))
}

// Log2Uint64 efficiently computes log base 2 of num
func Log2Uint64(num uint64) uint64 {
	return uint64(bits.Len64(num) - 1)
}

// AllOnes is true when every bit of num up to its most significant set bit
// is set. The 1 based positions on the left most branch of any perfect tree
// have this property.
func AllOnes(num uint64) bool {
	return (1<<bits.OnesCount64(num) - 1) == num
}
