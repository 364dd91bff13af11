package mmr

import "errors"

var (
	// ErrNotFound is returned by a NodeStore when the requested index has
	// not been written.
	ErrNotFound = errors.New("mmr: value not found")

	// ErrEmptyMMR is returned for root or proof requests against size 0,
	// where no commitment is defined.
	ErrEmptyMMR = errors.New("mmr: empty mmr")

	// ErrIndexOutOfRange is returned when a node index >= the mmr size is
	// passed to an operation defined only for written nodes.
	ErrIndexOutOfRange = errors.New("mmr: index out of range")

	// ErrNotLeaf is returned when an interior node index is passed to an
	// operation defined only for leaves.
	ErrNotLeaf = errors.New("mmr: index does not identify a leaf")

	// ErrInvalidSize is returned for sizes that no sequence of appends can
	// produce, eg a size which leaves siblings without a parent.
	ErrInvalidSize = errors.New("mmr: invalid mmr size")

	// ErrMalformedProof is returned when a proof is structurally
	// inconsistent with its stated index and size. It is distinct from a
	// negative verification result, which is not an error.
	ErrMalformedProof = errors.New("mmr: malformed proof")

	// ErrCapacityExceeded is returned when an append would exhaust the
	// position space. This is fatal, not retryable.
	ErrCapacityExceeded = errors.New("mmr: position space exhausted")

	// ErrCorruptedStore is returned when a backing store disagrees with the
	// structure implied by its own length.
	ErrCorruptedStore = errors.New("mmr: corrupted store")
)
