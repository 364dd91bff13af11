package mmr

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testDb is a map backed NodeStore which additionally allows tests to tamper
// with written values. The mmr itself never overwrites anything.
type testDb struct {
	store map[uint64][]byte
	next  uint64
}

func newTestDb() *testDb {
	return &testDb{store: make(map[uint64][]byte)}
}

func (db *testDb) Append(value []byte) (uint64, error) {
	i := db.next
	db.store[i] = bytes.Clone(value)
	db.next++
	return i, nil
}

func (db *testDb) Get(i uint64) ([]byte, error) {
	if value, ok := db.store[i]; ok {
		return bytes.Clone(value), nil
	}
	return nil, fmt.Errorf("%w: index %d", ErrNotFound, i)
}

func (db *testDb) Len() uint64 {
	return db.next
}

// put overwrites a value, for corruption tests only
func (db *testDb) put(i uint64, value []byte) {
	db.store[i] = value
}

func newTestMMR(t *testing.T) *MMR {
	t.Helper()
	m, err := New(NewMemoryStore(), NewBlake2b())
	require.NoError(t, err)
	return m
}

func TestAppendEmpty(t *testing.T) {
	m := newTestMMR(t)

	assert.True(t, m.IsEmpty())
	assert.Equal(t, uint64(0), m.Size())

	_, err := m.Root()
	assert.ErrorIs(t, err, ErrEmptyMMR)
	_, err = m.GenProof(0)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	i, err := m.Append([]byte("first"))
	require.NoError(t, err)
	assert.Equal(t, uint64(0), i)
	assert.Equal(t, uint64(1), m.Size())
	assert.Equal(t, []uint64{0}, Peaks(m.Size()))
}

func TestAppendSizes(t *testing.T) {
	tests := []struct {
		name     string
		leaves   int
		wantSize uint64
	}{
		{"one leaf", 1, 1},
		{"two leaves merge into a peak", 2, 3},
		{"the third leaf does not create a peak", 3, 4},
		{"four leaves back fill two nodes", 4, 7},
		{"seven leaves", 7, 11},
		{"eight leaves complete a perfect tree", 8, 15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMMR(t)
			for k := 0; k < tt.leaves; k++ {
				i, err := m.Append([]byte{byte(k)})
				require.NoError(t, err)
				assert.Equal(t, MMRIndex(uint64(k)), i, "leaf index")
			}
			assert.Equal(t, tt.wantSize, m.Size())
			assert.Equal(t, uint64(tt.leaves), m.LeafCount())
		})
	}
}

// Three appends produce size 4, peaks [2, 3], and a root which is exactly
// the bag of those two peak values. Everything else builds on this shape, so
// it is pinned with explicit hash computations.
func TestThreeLeafScenario(t *testing.T) {
	hasher := NewBlake2b()
	store := NewMemoryStore()
	m, err := New(store, hasher)
	require.NoError(t, err)

	for _, payload := range []string{"a", "b", "c"} {
		_, err := m.Append([]byte(payload))
		require.NoError(t, err)
	}

	require.Equal(t, uint64(4), m.Size())
	require.Equal(t, []uint64{2, 3}, Peaks(4))

	v2, err := store.Get(2)
	require.NoError(t, err)
	v3, err := store.Get(3)
	require.NoError(t, err)

	// node 2 commits leaves "a" and "b"
	check := NewBlake2b()
	require.Equal(t, check.HashNode(check.HashLeaf([]byte("a")), check.HashLeaf([]byte("b"))), v2)
	// leaf "c" is the unpaired peak
	require.Equal(t, check.HashLeaf([]byte("c")), v3)

	root, err := m.Root()
	require.NoError(t, err)
	require.Equal(t, check.HashNode(v2, v3), root)

	proof, err := m.GenProof(0)
	require.NoError(t, err)
	require.Len(t, proof.Path, 1)
	assert.False(t, proof.Path[0].SiblingOnLeft)
	assert.Equal(t, check.HashLeaf([]byte("b")), proof.Path[0].Sibling)
	require.Len(t, proof.PeakHashes, 1)
	assert.Equal(t, v3, proof.PeakHashes[0])

	ok, err := proof.VerifyInclusion(hasher, []byte("a"), root)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDeterminism(t *testing.T) {
	a := newTestMMR(t)
	b := newTestMMR(t)

	for k := 0; k < 100; k++ {
		payload := []byte(fmt.Sprintf("payload %d", k))
		ia, err := a.Append(payload)
		require.NoError(t, err)
		ib, err := b.Append(payload)
		require.NoError(t, err)
		assert.Equal(t, ia, ib)
	}

	assert.Equal(t, a.Size(), b.Size())

	rootA, err := a.Root()
	require.NoError(t, err)
	rootB, err := b.Root()
	require.NoError(t, err)
	assert.Equal(t, rootA, rootB)

	for k := 0; k < 100; k++ {
		pa, err := a.GenProof(MMRIndex(uint64(k)))
		require.NoError(t, err)
		pb, err := b.GenProof(MMRIndex(uint64(k)))
		require.NoError(t, err)
		assert.Equal(t, pa, pb)
	}
}

func TestPowerOfTwoLeafCountsGiveASinglePeak(t *testing.T) {
	for k := 0; k < 8; k++ {
		m := newTestMMR(t)
		leaves := 1 << k
		for j := 0; j < leaves; j++ {
			_, err := m.Append([]byte{byte(j), byte(j >> 8)})
			require.NoError(t, err)
		}
		peaks := Peaks(m.Size())
		require.Len(t, peaks, 1, "2^%d leaves", k)

		// the root of a single peak mmr is that peak's value directly
		root, err := m.Root()
		require.NoError(t, err)
		hashes, err := m.PeakHashes(m.Size())
		require.NoError(t, err)
		assert.Equal(t, hashes[0], root)
	}
}

func TestAppendHeightsMatchIndexHeight(t *testing.T) {
	m := newTestMMR(t)
	for k := 0; k < 300; k++ {
		_, err := m.Append([]byte{byte(k)})
		require.NoError(t, err)

		// the forest shape after every append is exactly the one the size
		// dictates
		require.NotNil(t, Peaks(m.Size()), "size %d after %d appends", m.Size(), k+1)
	}
	for i := uint64(0); i < m.Size(); i++ {
		// heights assigned during construction agree with the pure scan
		assert.Equal(t, IndexHeightLinear(i), IndexHeight(i))
	}
}

func TestRootAtSizeIsStableUnderAppends(t *testing.T) {
	m := newTestMMR(t)

	var sizes []uint64
	var roots [][]byte
	for k := 0; k < 64; k++ {
		_, err := m.Append([]byte(fmt.Sprintf("leaf %d", k)))
		require.NoError(t, err)
		root, err := m.Root()
		require.NoError(t, err)
		sizes = append(sizes, m.Size())
		roots = append(roots, root)
	}

	// history is preserved: every earlier root is still reproducible
	for k, size := range sizes {
		root, err := m.RootAtSize(size)
		require.NoError(t, err)
		assert.Equal(t, roots[k], root, "root at size %d", size)
	}

	_, err := m.RootAtSize(m.Size() + 1)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = m.RootAtSize(0)
	assert.ErrorIs(t, err, ErrEmptyMMR)
}

// Readers against a stable size share the engine, and with it the hasher.
// Run under the race detector this catches any scratch state leaking between
// concurrent Root and GenProof calls; the value checks catch corrupt output.
func TestConcurrentReaders(t *testing.T) {
	hasher := NewBlake2b()
	m, err := New(NewMemoryStore(), hasher)
	require.NoError(t, err)
	for k := uint64(0); k < 100; k++ {
		_, err := m.Append([]byte(fmt.Sprintf("leaf %d", k)))
		require.NoError(t, err)
	}
	want, err := m.Root()
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i8 := 0; i8 < 8; i8++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for k := uint64(0); k < 20; k++ {
				root, err := m.Root()
				if err != nil {
					t.Error(err)
					return
				}
				if !bytes.Equal(root, want) {
					t.Errorf("concurrent root %x, want %x", root, want)
					return
				}

				proof, err := m.GenProof(MMRIndex(k))
				if err != nil {
					t.Error(err)
					return
				}
				ok, err := proof.VerifyInclusion(hasher, []byte(fmt.Sprintf("leaf %d", k)), want)
				if err != nil {
					t.Error(err)
					return
				}
				if !ok {
					t.Errorf("concurrent proof for leaf %d did not verify", k)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestGenProofRejectsInteriorNodes(t *testing.T) {
	m := newTestMMR(t)
	for k := 0; k < 4; k++ {
		_, err := m.Append([]byte{byte(k)})
		require.NoError(t, err)
	}
	// index 2 is the parent of leaves 0 and 1
	_, err := m.GenProof(2)
	assert.ErrorIs(t, err, ErrNotLeaf)
	_, err = m.GenProof(m.Size())
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestValidate(t *testing.T) {
	db := newTestDb()
	m, err := New(db, NewBlake2b())
	require.NoError(t, err)

	for k := 0; k < 16; k++ {
		_, err := m.Append([]byte{byte(k)})
		require.NoError(t, err)
	}

	ok, err := m.Validate()
	require.NoError(t, err)
	assert.True(t, ok)

	// corrupt an interior node behind the engine's back
	db.put(2, make([]byte, 32))
	ok, err = m.Validate()
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrCorruptedStore)
}

func TestNewRejectsInvalidStoreLength(t *testing.T) {
	db := newTestDb()
	// two leaves with no parent is not a state appends can leave behind
	_, err := db.Append(make([]byte, 32))
	require.NoError(t, err)
	_, err = db.Append(make([]byte, 32))
	require.NoError(t, err)

	_, err = New(db, NewBlake2b())
	assert.ErrorIs(t, err, ErrCorruptedStore)
}

func TestReopenedStoreResumesAppends(t *testing.T) {
	db := newTestDb()
	m, err := New(db, NewBlake2b())
	require.NoError(t, err)
	for k := 0; k < 5; k++ {
		_, err := m.Append([]byte{byte(k)})
		require.NoError(t, err)
	}
	rootBefore, err := m.Root()
	require.NoError(t, err)

	// a fresh engine over the same store carries on where the old one left off
	m2, err := New(db, NewBlake2b())
	require.NoError(t, err)
	assert.Equal(t, m.Size(), m2.Size())

	rootAfter, err := m2.Root()
	require.NoError(t, err)
	assert.Equal(t, rootBefore, rootAfter)

	i, err := m2.Append([]byte("five"))
	require.NoError(t, err)
	assert.Equal(t, MMRIndex(5), i)
}

func TestStoreFailurePropagates(t *testing.T) {
	m, err := New(&failingStore{failAfter: 2}, NewBlake2b())
	require.NoError(t, err)

	_, err = m.Append([]byte("a"))
	require.NoError(t, err)
	_, err = m.Append([]byte("b")) // the back fill read/append trips the failure
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

type failingStore struct {
	MemoryStore
	failAfter uint64
}

func (s *failingStore) Append(value []byte) (uint64, error) {
	if s.Len() >= s.failAfter {
		return 0, errors.New("disk full")
	}
	return s.MemoryStore.Append(value)
}
