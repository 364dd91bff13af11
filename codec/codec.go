// Package codec provides the deterministic CBOR wire encoding for proofs and
// checkpoint state.
//
// Encoding is canonical: the same value always serializes to the same bytes,
// which is what allows signed checkpoints and proof digests to be compared
// byte for byte. Struct fields are labelled with small integer keys rather
// than names to keep the wire format compact and renaming-proof.
package codec

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/paritytech/arber/mmr"
)

// Codec pairs a canonical encode mode with a strict decode mode. Construct it
// once and share it; the modes are immutable and safe for concurrent use.
type Codec struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

func New() (*Codec, error) {
	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		TimeTag:       cbor.EncTagNone,
		ShortestFloat: cbor.ShortestFloat16,
	}
	decOpts := cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyEnforcedAPF,
		IndefLength: cbor.IndefLengthForbidden,
	}

	enc, err := encOpts.EncMode()
	if err != nil {
		return nil, err
	}
	dec, err := decOpts.DecMode()
	if err != nil {
		return nil, err
	}
	return &Codec{enc: enc, dec: dec}, nil
}

// MarshalCBOR encodes any tagged value canonically. The checkpoint package
// uses this for state payloads.
func (c *Codec) MarshalCBOR(v any) ([]byte, error) {
	return c.enc.Marshal(v)
}

// UnmarshalInto decodes strictly into the provided value.
func (c *Codec) UnmarshalInto(data []byte, v any) error {
	return c.dec.Unmarshal(data, v)
}

type proofStepWire struct {
	SiblingOnLeft bool   `cbor:"1,keyasint"`
	Sibling       []byte `cbor:"2,keyasint"`
}

type proofWire struct {
	MMRSize    uint64          `cbor:"1,keyasint"`
	LeafIndex  uint64          `cbor:"2,keyasint"`
	Path       []proofStepWire `cbor:"3,keyasint"`
	PeakHashes [][]byte        `cbor:"4,keyasint"`
}

// MarshalProof encodes an inclusion proof.
func (c *Codec) MarshalProof(p *mmr.Proof) ([]byte, error) {
	w := proofWire{
		MMRSize:    p.MMRSize,
		LeafIndex:  p.LeafIndex,
		PeakHashes: p.PeakHashes,
	}
	if p.Path != nil {
		w.Path = make([]proofStepWire, 0, len(p.Path))
		for _, step := range p.Path {
			w.Path = append(w.Path, proofStepWire{SiblingOnLeft: step.SiblingOnLeft, Sibling: step.Sibling})
		}
	}
	return c.enc.Marshal(&w)
}

// UnmarshalProof decodes an inclusion proof and checks its structural
// consistency against the given digest width. Anything inconsistent, whether
// bad CBOR or a proof whose shape disagrees with its own stated index and
// size, is reported wrapping mmr.ErrMalformedProof so callers can distinguish
// garbage from an honest negative verification.
func (c *Codec) UnmarshalProof(data []byte, digestSize int) (*mmr.Proof, error) {
	var w proofWire
	if err := c.dec.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", mmr.ErrMalformedProof, err)
	}

	p := &mmr.Proof{
		MMRSize:    w.MMRSize,
		LeafIndex:  w.LeafIndex,
		PeakHashes: w.PeakHashes,
	}
	if w.Path != nil {
		p.Path = make([]mmr.ProofStep, 0, len(w.Path))
		for _, step := range w.Path {
			p.Path = append(p.Path, mmr.ProofStep{SiblingOnLeft: step.SiblingOnLeft, Sibling: step.Sibling})
		}
	}

	if err := p.CheckStructure(digestSize); err != nil {
		return nil, err
	}
	return p, nil
}
