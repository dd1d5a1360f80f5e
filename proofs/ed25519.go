package proofs

import (
	"context"
	"crypto/ed25519"
	"fmt"

	"github.com/ruteri/unified-ledger/interfaces"
)

// Ed25519Verifier checks Ed25519 signatures over the proof digest.
type Ed25519Verifier struct{}

func (Ed25519Verifier) Scheme() interfaces.ProofScheme { return interfaces.SchemeEd25519 }

func (Ed25519Verifier) VerifyDigest(_ context.Context, proof interfaces.Proof, digest []byte) (bool, error) {
	if len(proof.Signature) != ed25519.SignatureSize {
		return false, fmt.Errorf("%w: ed25519 signature must be %d bytes", interfaces.ErrInvalidProof, ed25519.SignatureSize)
	}
	return ed25519.Verify(ed25519.PublicKey(proof.PublicKey), digest, proof.Signature), nil
}

// Ed25519Signer signs proofs with an Ed25519 key.
type Ed25519Signer struct {
	Key ed25519.PrivateKey
}

func (s Ed25519Signer) Scheme() interfaces.ProofScheme { return interfaces.SchemeEd25519 }

func (s Ed25519Signer) PublicKey() []byte {
	return []byte(s.Key.Public().(ed25519.PublicKey))
}

func (s Ed25519Signer) Sign(proof interfaces.Proof) (interfaces.Proof, error) {
	proof.Scheme = s.Scheme()
	proof.PublicKey = s.PublicKey()
	digest, err := ProofDigest(proof)
	if err != nil {
		return interfaces.Proof{}, err
	}
	proof.Signature = ed25519.Sign(s.Key, digest)
	return proof, nil
}

func (s Ed25519Signer) MarshalPrivateKey() []byte {
	return s.Key.Seed()
}
