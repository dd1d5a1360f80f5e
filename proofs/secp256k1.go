package proofs

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ruteri/unified-ledger/interfaces"
)

// Secp256k1Verifier checks Ethereum-style [R || S || V] signatures by recovering
// the signer and comparing its address with PublicKey.
type Secp256k1Verifier struct{}

func (Secp256k1Verifier) Scheme() interfaces.ProofScheme { return interfaces.SchemeSecp256k1 }

func (Secp256k1Verifier) VerifyDigest(_ context.Context, proof interfaces.Proof, digest []byte) (bool, error) {
	if len(digest) != 32 {
		return false, fmt.Errorf("%w: secp256k1 needs a 32-byte digest, %s gives %d", interfaces.ErrInvalidProof, proof.HashAlg, len(digest))
	}
	if len(proof.Signature) != crypto.SignatureLength {
		return false, fmt.Errorf("%w: secp256k1 signature must be %d bytes", interfaces.ErrInvalidProof, crypto.SignatureLength)
	}

	sig := bytes.Clone(proof.Signature)
	// accept legacy 27/28 recovery ids
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}

	pub, err := crypto.SigToPub(digest, sig)
	if err != nil {
		return false, nil
	}

	addr := crypto.PubkeyToAddress(*pub)
	return bytes.Equal(addr.Bytes(), proof.PublicKey), nil
}

// Secp256k1Signer signs proofs with an ECDSA secp256k1 key.
type Secp256k1Signer struct {
	Key *ecdsa.PrivateKey
}

func (s Secp256k1Signer) Scheme() interfaces.ProofScheme { return interfaces.SchemeSecp256k1 }

func (s Secp256k1Signer) PublicKey() []byte {
	return crypto.PubkeyToAddress(s.Key.PublicKey).Bytes()
}

func (s Secp256k1Signer) Sign(proof interfaces.Proof) (interfaces.Proof, error) {
	proof.Scheme = s.Scheme()
	proof.PublicKey = s.PublicKey()
	digest, err := ProofDigest(proof)
	if err != nil {
		return interfaces.Proof{}, err
	}
	if len(digest) != 32 {
		return interfaces.Proof{}, fmt.Errorf("%w: secp256k1 needs a 32-byte digest", interfaces.ErrInvalidArgument)
	}
	sig, err := crypto.Sign(digest, s.Key)
	if err != nil {
		return interfaces.Proof{}, fmt.Errorf("signing: %w", err)
	}
	proof.Signature = sig
	return proof, nil
}

func (s Secp256k1Signer) MarshalPrivateKey() []byte {
	return crypto.FromECDSA(s.Key)
}
