package mmr

import (
	"fmt"
	"slices"
)

// MemoryStore is the reference NodeStore: an in-memory sequence of digests.
// Useful for verifiers that replay a log, and for tests.
type MemoryStore struct {
	nodes [][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(value []byte) (uint64, error) {
	i := uint64(len(s.nodes))
	s.nodes = append(s.nodes, slices.Clone(value))
	return i, nil
}

func (s *MemoryStore) Get(i uint64) ([]byte, error) {
	if i >= uint64(len(s.nodes)) {
		return nil, fmt.Errorf("%w: index %d", ErrNotFound, i)
	}
	// copy, so a caller can not reach back and mutate history
	return slices.Clone(s.nodes[i]), nil
}

func (s *MemoryStore) Len() uint64 {
	return uint64(len(s.nodes))
}
