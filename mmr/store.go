package mmr

// NodeStore is the backing storage contract for node values. It is a flat,
// append only, index addressed sequence of digests.
//
// Implementations must never reorder or mutate previously written values;
// everything above relies on positions being immutable once assigned. Get
// for an unwritten index fails with an error wrapping ErrNotFound. Append is
// strictly sequential and returns the index assigned to the value.
type NodeStore interface {
	Get(i uint64) ([]byte, error)
	Append(value []byte) (uint64, error)
	Len() uint64
}
