package mmr

import "bytes"

// VerifyInclusion checks that payload is the leaf at p.LeafIndex of the mmr
// whose size p.MMRSize and root commitment root are claimed.
//
// Only the position arithmetic and the hasher are used; no store access
// happens, which is what allows a party holding nothing but the root to
// check proofs.
//
// A structurally inconsistent proof returns an error wrapping
// ErrMalformedProof. A well formed proof that simply does not reproduce the
// root returns (false, nil) - verification failure is a result, not an
// error.
func (p *Proof) VerifyInclusion(hasher Hasher, payload []byte, root []byte) (bool, error) {
	if err := p.CheckStructure(hasher.Size()); err != nil {
		return false, err
	}

	// fold the branch up to the local peak value
	running := hasher.HashLeaf(payload)
	for _, step := range p.Path {
		if step.SiblingOnLeft {
			running = hasher.HashNode(step.Sibling, running)
		} else {
			running = hasher.HashNode(running, step.Sibling)
		}
	}

	// Re-bag with running substituted at its peak slot. The slot is implied
	// by the stated index and size, never by the proof data.
	peaks := Peaks(p.MMRSize)
	_, iPeak, err := InclusionPath(p.MMRSize, p.LeafIndex)
	if err != nil {
		return false, err // unreachable after CheckStructure
	}

	all := make([][]byte, 0, len(peaks))
	others := p.PeakHashes
	for _, q := range peaks {
		if q == iPeak {
			all = append(all, running)
			continue
		}
		all = append(all, others[0])
		others = others[1:]
	}

	return bytes.Equal(bagPeaks(hasher, all), root), nil
}
