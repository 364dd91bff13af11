package mmr

import "fmt"

// ProofStep is one sibling hash on the branch from the proven leaf to its
// local peak, together with the side it is hashed on.
type ProofStep struct {
	// SiblingOnLeft is true when Sibling is the left operand at this step.
	SiblingOnLeft bool
	// Sibling is the witness digest.
	Sibling []byte
}

// Proof is an inclusion proof for a single leaf. It carries everything a
// verifier holding only a root needs: the size the proof was generated at
// (peak enumeration depends on it), the leaf's index, the sided sibling
// branch to the local peak, and the values of the other peaks so the bagged
// root can be reproduced.
//
// The proof does not embed the leaf payload or its hash; the verifier
// supplies the payload independently.
//
// Proofs are stable under future appends: a proof generated at size S
// verifies against the root recomputed at S forever.
type Proof struct {
	MMRSize    uint64
	LeafIndex  uint64
	Path       []ProofStep
	PeakHashes [][]byte
}

// CheckStructure verifies the proof's internal consistency against its own
// stated index and size: the leaf index is a leaf and in range, the step
// count and recorded sides match the family branch the index arithmetic
// demands, the other peak count is exactly one less than the peak count for
// the size, and every digest has the width the hasher produces.
//
// A proof failing these checks is malformed, which callers must treat as
// distinct from an ordinary negative verification.
func (p *Proof) CheckStructure(digestSize int) error {
	if p.LeafIndex >= p.MMRSize {
		return fmt.Errorf("%w: leaf index %d not within size %d", ErrMalformedProof, p.LeafIndex, p.MMRSize)
	}
	peaks := Peaks(p.MMRSize)
	if peaks == nil {
		return fmt.Errorf("%w: %d is not a valid mmr size", ErrMalformedProof, p.MMRSize)
	}
	if IndexHeight(p.LeafIndex) != 0 {
		return fmt.Errorf("%w: index %d is not a leaf", ErrMalformedProof, p.LeafIndex)
	}

	steps, _, err := InclusionPath(p.MMRSize, p.LeafIndex)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedProof, err)
	}
	if len(steps) != len(p.Path) {
		return fmt.Errorf(
			"%w: %d path steps, index %d at size %d requires %d",
			ErrMalformedProof, len(p.Path), p.LeafIndex, p.MMRSize, len(steps))
	}
	for k, step := range p.Path {
		if step.SiblingOnLeft != steps[k].SiblingOnLeft {
			return fmt.Errorf("%w: step %d side disagrees with the stated position", ErrMalformedProof, k)
		}
		if len(step.Sibling) != digestSize {
			return fmt.Errorf("%w: step %d digest width %d, want %d", ErrMalformedProof, k, len(step.Sibling), digestSize)
		}
	}

	if len(p.PeakHashes) != len(peaks)-1 {
		return fmt.Errorf(
			"%w: %d peak values, size %d requires %d",
			ErrMalformedProof, len(p.PeakHashes), p.MMRSize, len(peaks)-1)
	}
	for k, peak := range p.PeakHashes {
		if len(peak) != digestSize {
			return fmt.Errorf("%w: peak %d digest width %d, want %d", ErrMalformedProof, k, len(peak), digestSize)
		}
	}
	return nil
}
