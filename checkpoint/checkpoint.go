// Package checkpoint produces and verifies signed commitments to a log state.
//
// A checkpoint binds an (mmr size, root) pair under an ECDSA P-256 signature
// carried as a COSE Sign1 envelope. A relying party that pins a verified
// checkpoint can later check inclusion proofs against the pinned root without
// trusting the log operator, and because roots at historic sizes remain
// recomputable, old checkpoints stay checkable as the log grows.
package checkpoint

import (
	"crypto/ecdsa"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/veraison/go-cose"

	"github.com/paritytech/arber/codec"
	"github.com/paritytech/arber/mmr"
)

var ErrVerifyFailed = errors.New("checkpoint: signature verification failed")

// State is the signed payload. The integer keys are the wire contract; do
// not renumber.
type State struct {
	MMRSize uint64 `cbor:"1,keyasint"`
	Root    []byte `cbor:"2,keyasint"`
	// Timestamp is unix milliseconds at signing time. It allows the same
	// root to be re-signed and lets verifiers order checkpoints of equal
	// size.
	Timestamp int64 `cbor:"3,keyasint"`
}

// NewState captures the current size and root of the given mmr.
func NewState(m *mmr.MMR) (State, error) {
	root, err := m.Root()
	if err != nil {
		return State{}, err
	}
	return State{
		MMRSize:   m.Size(),
		Root:      root,
		Timestamp: time.Now().UnixMilli(),
	}, nil
}

// Signer signs checkpoint states with a fixed key. Safe for concurrent use.
type Signer struct {
	coseSigner cose.Signer
	codec      *codec.Codec
}

func NewSigner(key *ecdsa.PrivateKey, c *codec.Codec) (*Signer, error) {
	coseSigner, err := cose.NewSigner(cose.AlgorithmES256, key)
	if err != nil {
		return nil, err
	}
	return &Signer{coseSigner: coseSigner, codec: c}, nil
}

// Sign encodes the state canonically and wraps it in a COSE Sign1 envelope.
func (s *Signer) Sign(state State) ([]byte, error) {
	payload, err := s.codec.MarshalCBOR(state)
	if err != nil {
		return nil, err
	}

	msg := cose.NewSign1Message()
	msg.Headers.Protected.SetAlgorithm(cose.AlgorithmES256)
	msg.Payload = payload

	if err := msg.Sign(rand.Reader, nil, s.coseSigner); err != nil {
		return nil, err
	}
	return msg.MarshalCBOR()
}

// Verify checks the envelope signature against the public key and returns
// the attested state. A bad signature or a mangled envelope is reported
// wrapping ErrVerifyFailed; the state is only returned on success.
func Verify(signed []byte, pub *ecdsa.PublicKey, c *codec.Codec) (State, error) {
	var msg cose.Sign1Message
	if err := msg.UnmarshalCBOR(signed); err != nil {
		return State{}, fmt.Errorf("%w: %v", ErrVerifyFailed, err)
	}

	verifier, err := cose.NewVerifier(cose.AlgorithmES256, pub)
	if err != nil {
		return State{}, err
	}
	if err := msg.Verify(nil, verifier); err != nil {
		return State{}, fmt.Errorf("%w: %v", ErrVerifyFailed, err)
	}

	var state State
	if err := c.UnmarshalInto(msg.Payload, &state); err != nil {
		return State{}, fmt.Errorf("%w: payload: %v", ErrVerifyFailed, err)
	}
	return state, nil
}
