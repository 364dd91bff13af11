package mmr

import (
	"crypto/sha256"
	"hash"

	"golang.org/x/crypto/blake2b"
)

// Domain separation prefixes. Leaf and interior hashing must be
// distinguishable, otherwise a crafted leaf that encodes like an interior
// node yields a classic second preimage forgery.
const (
	LeafPrefix byte = 0x00
	NodePrefix byte = 0x01
)

// Hasher is the hashing contract the engine and verifiers depend on. The
// two operations must behave as distinct functions with a common fixed
// output width.
//
// Note that the node hash input is exactly prefix || left || right; no
// position or height is mixed in. Implementations intended to interoperate
// must not vary this layout.
//
// The engine routes all of its read paths through the one hasher it was
// built with, so implementations must be safe for concurrent use.
type Hasher interface {
	// HashLeaf returns the node value for a leaf payload.
	HashLeaf(payload []byte) []byte
	// HashNode returns the node value for the parent of the two child
	// values, left being the child created first.
	HashNode(left, right []byte) []byte
	// Size returns the digest width in bytes.
	Size() int
}

// NodeHasher adapts any fixed width hash.Hash construction to the Hasher
// contract, applying the leaf/node domain prefixes. It holds the
// construction rather than an instance and hashes on fresh state every
// call, so one NodeHasher is safe for any number of concurrent readers.
type NodeHasher struct {
	newHash func() hash.Hash
	size    int
}

// NewHasher returns a NodeHasher over the provided construction.
func NewHasher(newHash func() hash.Hash) *NodeHasher {
	return &NodeHasher{newHash: newHash, size: newHash().Size()}
}

// NewBlake2b returns the reference Hasher, BLAKE2b-256.
func NewBlake2b() *NodeHasher {
	return NewHasher(func() hash.Hash {
		// New256 only errors for keyed use
		h, _ := blake2b.New256(nil)
		return h
	})
}

// NewSHA256 returns a SHA-256 backed Hasher.
func NewSHA256() *NodeHasher {
	return NewHasher(sha256.New)
}

func (n *NodeHasher) HashLeaf(payload []byte) []byte {
	h := n.newHash()
	h.Write([]byte{LeafPrefix})
	h.Write(payload)
	return h.Sum(nil)
}

func (n *NodeHasher) HashNode(left, right []byte) []byte {
	h := n.newHash()
	h.Write([]byte{NodePrefix})
	h.Write(left)
	h.Write(right)
	return h.Sum(nil)
}

func (n *NodeHasher) Size() int {
	return n.size
}
