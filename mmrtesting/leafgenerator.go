// Package mmrtesting provides deterministic test data for the packages that
// build on the mmr core.
package mmrtesting

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/paritytech/arber/mmr"
)

// LeafGenerator produces leaf payloads that look like real log entries while
// being fully reproducible from the seed. Two generators with the same seed
// yield identical sequences, which is what lets tests assert on roots and
// proofs across packages.
type LeafGenerator struct {
	rng *rand.Rand
}

func NewLeafGenerator(seed int64) *LeafGenerator {
	return &LeafGenerator{rng: rand.New(rand.NewSource(seed))}
}

// Next returns the next payload: a uuid identified entry with a small random
// body, in the shape of the event records these logs typically carry.
func (g *LeafGenerator) Next() []byte {
	id, err := uuid.NewRandomFromReader(g.rng)
	if err != nil {
		// rand.Rand.Read never fails
		panic(err)
	}
	return fmt.Appendf(nil, "events/%s/%08x", id, g.rng.Uint32())
}

// Leaves returns the next n payloads.
func (g *LeafGenerator) Leaves(n int) [][]byte {
	leaves := make([][]byte, 0, n)
	for i := 0; i < n; i++ {
		leaves = append(leaves, g.Next())
	}
	return leaves
}

// PopulateMMR appends n generated leaves to a fresh in-memory mmr and returns
// the engine together with the payloads, so callers can prove and verify
// against known content.
func PopulateMMR(t *testing.T, hasher mmr.Hasher, seed int64, n int) (*mmr.MMR, [][]byte) {
	t.Helper()

	m, err := mmr.New(mmr.NewMemoryStore(), hasher)
	require.NoError(t, err)

	leaves := NewLeafGenerator(seed).Leaves(n)
	for _, payload := range leaves {
		_, err := m.Append(payload)
		require.NoError(t, err)
	}
	return m, leaves
}
