package mmr

import (
	"bytes"
	"fmt"
	"math"
)

// MMR is the accumulator engine. It combines the position arithmetic with an
// injected Hasher and NodeStore to append leaves, compute roots and generate
// inclusion proofs.
//
// The only engine state is the monotonically increasing size; every
// successful Append leaves the structure immediately consistent, and roots
// and proofs for all prior sizes remain reproducible forever.
//
// An MMR is not internally synchronized. Concurrent readers against a stable
// size are safe by construction (nothing written is ever mutated), but the
// caller must serialize appends: two appends racing on the same size would
// corrupt the forest shape.
type MMR struct {
	store  NodeStore
	hasher Hasher
	size   uint64
}

// New returns an engine over the provided store and hasher, restoring the
// size from the store. A non empty store whose length is not a valid mmr
// size - for example one truncated mid back fill - is rejected with
// ErrCorruptedStore.
func New(store NodeStore, hasher Hasher) (*MMR, error) {
	size := store.Len()
	if size > 0 && Peaks(size) == nil {
		return nil, fmt.Errorf("%w: %d is not a valid mmr size", ErrCorruptedStore, size)
	}
	return &MMR{store: store, hasher: hasher, size: size}, nil
}

// Size returns the total node count, leaves and interior nodes both.
func (m *MMR) Size() uint64 {
	return m.size
}

// LeafCount returns the number of leaves appended so far.
func (m *MMR) LeafCount() uint64 {
	return LeafCount(m.size)
}

func (m *MMR) IsEmpty() bool {
	return m.size == 0
}

// Append hashes the payload as a leaf, adds it, and back fills the interior
// nodes the new leaf completes. The index assigned to the leaf is returned,
// not the index of the last node written.
func (m *MMR) Append(payload []byte) (uint64, error) {
	return m.AddHashedLeaf(m.hasher.HashLeaf(payload))
}

// AddHashedLeaf is Append for callers which have already leaf hashed their
// payload.
func (m *MMR) AddHashedLeaf(hashedLeaf []byte) (uint64, error) {

	// A single append writes at most one node per bit of the index, so this
	// guard is sufficient to keep every computed offset in range.
	if m.size >= math.MaxUint64-64 {
		return 0, ErrCapacityExceeded
	}

	iLeaf, err := m.store.Append(hashedLeaf)
	if err != nil {
		return 0, err
	}
	if iLeaf != m.size {
		return 0, fmt.Errorf("%w: store appended at %d, expected %d", ErrCorruptedStore, iLeaf, m.size)
	}

	// Back fill the new mountains. For any node just written at i, if the
	// height of i+1 is greater, then i completed a sibling pair and the
	// parent is due at i+1. Each back filled parent is itself the node just
	// written, so the one check carries the whole climb no matter how many
	// peaks merge.
	//
	//	 2  <- appending leaf 1 completes the pair, so 2 is written too
	//	/ \
	//	0  1
	i := iLeaf
	height := uint64(0)
	for IndexHeight(i+1) > height {

		iLeft := i + 1 - ParentOffset(height)
		iRight := i // by construction the right child is always the last write

		left, err := m.store.Get(iLeft)
		if err != nil {
			return 0, err
		}
		right, err := m.store.Get(iRight)
		if err != nil {
			return 0, err
		}

		if i, err = m.store.Append(m.hasher.HashNode(left, right)); err != nil {
			return 0, err
		}
		height++
	}

	m.size = i + 1
	return iLeaf, nil
}

// Root returns the single root commitment for the current size: the peak
// values bagged together, lowest (most recent) peak first. ErrEmptyMMR when
// nothing has been appended.
func (m *MMR) Root() ([]byte, error) {
	return m.RootAtSize(m.size)
}

// RootAtSize returns the root as it was when the mmr had the given size.
// Because nothing is ever rewritten, any valid historic size remains
// recomputable; this is what lets old proofs be checked after the log has
// grown.
func (m *MMR) RootAtSize(mmrSize uint64) ([]byte, error) {
	if mmrSize == 0 {
		return nil, ErrEmptyMMR
	}
	if mmrSize > m.size {
		return nil, fmt.Errorf("%w: size %d exceeds current size %d", ErrIndexOutOfRange, mmrSize, m.size)
	}
	peaks, err := m.PeakHashes(mmrSize)
	if err != nil {
		return nil, err
	}
	return bagPeaks(m.hasher, peaks), nil
}

// PeakHashes returns the peak values for the given size, highest peak first.
func (m *MMR) PeakHashes(mmrSize uint64) ([][]byte, error) {
	peaks := Peaks(mmrSize)
	if peaks == nil {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, mmrSize)
	}
	hashes := make([][]byte, 0, len(peaks))
	for _, iPeak := range peaks {
		value, err := m.store.Get(iPeak)
		if err != nil {
			return nil, err
		}
		hashes = append(hashes, value)
	}
	return hashes, nil
}

// GenProof builds the inclusion proof for the leaf at index i against the
// current size. Interior indices are refused with ErrNotLeaf - the proof
// format commits to a leaf payload, not a node value.
func (m *MMR) GenProof(i uint64) (*Proof, error) {
	return m.GenProofAtSize(i, m.size)
}

// GenProofAtSize builds the inclusion proof for the leaf at index i as the
// mmr stood when it had the given size. Because nothing is ever rewritten,
// any historic size can serve; such proofs verify against RootAtSize for the
// same size, which is how proofs are produced for a previously pinned
// checkpoint without replaying the log.
func (m *MMR) GenProofAtSize(i uint64, mmrSize uint64) (*Proof, error) {
	if mmrSize > m.size {
		return nil, fmt.Errorf("%w: size %d exceeds current size %d", ErrIndexOutOfRange, mmrSize, m.size)
	}
	if i >= mmrSize {
		return nil, fmt.Errorf("%w: index %d, size %d", ErrIndexOutOfRange, i, mmrSize)
	}
	if IndexHeight(i) != 0 {
		return nil, fmt.Errorf("%w: %d", ErrNotLeaf, i)
	}

	steps, iPeak, err := InclusionPath(mmrSize, i)
	if err != nil {
		return nil, err
	}

	path := make([]ProofStep, 0, len(steps))
	for _, step := range steps {
		value, err := m.store.Get(step.Sibling)
		if err != nil {
			return nil, err
		}
		path = append(path, ProofStep{SiblingOnLeft: step.SiblingOnLeft, Sibling: value})
	}

	// the other peaks, in peak order, with the slot for i's mountain omitted
	var peakHashes [][]byte
	for _, p := range Peaks(mmrSize) {
		if p == iPeak {
			continue
		}
		value, err := m.store.Get(p)
		if err != nil {
			return nil, err
		}
		peakHashes = append(peakHashes, value)
	}

	return &Proof{
		MMRSize:    mmrSize,
		LeafIndex:  i,
		Path:       path,
		PeakHashes: peakHashes,
	}, nil
}

// Validate recomputes every interior node from its children and compares
// with the stored value, returning false and a described mismatch on the
// first disagreement.
func (m *MMR) Validate() (bool, error) {
	for i := uint64(0); i < m.size; i++ {
		height := IndexHeight(i)
		if height == 0 {
			continue
		}

		iLeft := i - ParentOffset(height-1)
		iRight := i - 1

		left, err := m.store.Get(iLeft)
		if err != nil {
			return false, err
		}
		right, err := m.store.Get(iRight)
		if err != nil {
			return false, err
		}
		stored, err := m.store.Get(i)
		if err != nil {
			return false, err
		}
		if want := m.hasher.HashNode(left, right); !bytes.Equal(stored, want) {
			return false, fmt.Errorf("%w: node %d does not match its children", ErrCorruptedStore, i)
		}
	}
	return true, nil
}

// bagPeaks folds the peak values into the root, right to left: the lowest,
// most recently created peak seeds the accumulator and each higher peak is
// hashed in as the left operand. This ordering is part of the accumulator's
// identity; bagging the same peaks left to right produces a different root.
func bagPeaks(hasher Hasher, peakHashes [][]byte) []byte {
	root := peakHashes[len(peakHashes)-1]
	for i := len(peakHashes) - 2; i >= 0; i-- {
		root = hasher.HashNode(peakHashes[i], root)
	}
	return root
}
