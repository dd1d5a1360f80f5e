package proofs

import (
	"context"
	"fmt"

	"github.com/cloudflare/circl/sign/dilithium/mode3"
	"github.com/ruteri/unified-ledger/interfaces"
)

// Dilithium3Verifier checks post-quantum Dilithium mode 3 signatures.
type Dilithium3Verifier struct{}

func (Dilithium3Verifier) Scheme() interfaces.ProofScheme { return interfaces.SchemeDilithium3 }

func (Dilithium3Verifier) VerifyDigest(_ context.Context, proof interfaces.Proof, digest []byte) (bool, error) {
	var pk mode3.PublicKey
	if err := pk.UnmarshalBinary(proof.PublicKey); err != nil {
		return false, fmt.Errorf("%w: invalid dilithium3 public key: %v", interfaces.ErrInvalidProof, err)
	}
	if len(proof.Signature) != mode3.SignatureSize {
		return false, fmt.Errorf("%w: dilithium3 signature must be %d bytes", interfaces.ErrInvalidProof, mode3.SignatureSize)
	}
	return mode3.Verify(&pk, digest, proof.Signature), nil
}

// Dilithium3Signer signs proofs with a Dilithium mode 3 key.
type Dilithium3Signer struct {
	Key *mode3.PrivateKey
}

func (s Dilithium3Signer) Scheme() interfaces.ProofScheme { return interfaces.SchemeDilithium3 }

func (s Dilithium3Signer) PublicKey() []byte {
	pk, _ := s.Key.Public().(*mode3.PublicKey).MarshalBinary()
	return pk
}

func (s Dilithium3Signer) Sign(proof interfaces.Proof) (interfaces.Proof, error) {
	proof.Scheme = s.Scheme()
	proof.PublicKey = s.PublicKey()
	digest, err := ProofDigest(proof)
	if err != nil {
		return interfaces.Proof{}, err
	}
	sig := make([]byte, mode3.SignatureSize)
	mode3.SignTo(s.Key, digest, sig)
	proof.Signature = sig
	return proof, nil
}

func (s Dilithium3Signer) MarshalPrivateKey() []byte {
	sk, _ := s.Key.MarshalBinary()
	return sk
}
