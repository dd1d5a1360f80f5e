package proofs

import (
	"crypto/ed25519"
	"fmt"
	"io"
	"time"

	"github.com/cloudflare/circl/sign/dilithium/mode3"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ruteri/unified-ledger/interfaces"
)

// Signer produces signed proofs for one scheme.
type Signer interface {
	Scheme() interfaces.ProofScheme
	PublicKey() []byte
	// Sign fills Scheme, PublicKey and Signature of proof.
	Sign(proof interfaces.Proof) (interfaces.Proof, error)
}

// KeyedSigner is a Signer whose private key can be exported.
type KeyedSigner interface {
	Signer
	MarshalPrivateKey() []byte
}

var (
	_ KeyedSigner = Secp256k1Signer{}
	_ KeyedSigner = Ed25519Signer{}
	_ KeyedSigner = Dilithium3Signer{}
	_ Signer      = (*TDXSigner)(nil)
)

// NewProof returns an unsigned proof about subject, issued now.
func NewProof(subject interfaces.ContentID, payload []byte, hashAlg interfaces.HashAlg) interfaces.Proof {
	if hashAlg == "" {
		hashAlg = interfaces.HashSHA256
	}
	return interfaces.Proof{
		HashAlg:  hashAlg,
		Subject:  subject,
		Payload:  payload,
		IssuedAt: time.Now().UTC().Truncate(time.Second),
	}
}

// GenerateSigner creates a fresh key for scheme. tdx-dcap keys live in hardware
// and cannot be generated.
func GenerateSigner(scheme interfaces.ProofScheme, rand io.Reader) (KeyedSigner, error) {
	switch scheme {
	case interfaces.SchemeSecp256k1:
		key, err := crypto.GenerateKey()
		if err != nil {
			return nil, err
		}
		return Secp256k1Signer{Key: key}, nil
	case interfaces.SchemeEd25519:
		_, key, err := ed25519.GenerateKey(rand)
		if err != nil {
			return nil, err
		}
		return Ed25519Signer{Key: key}, nil
	case interfaces.SchemeDilithium3:
		_, key, err := mode3.GenerateKey(rand)
		if err != nil {
			return nil, err
		}
		return Dilithium3Signer{Key: key}, nil
	default:
		return nil, fmt.Errorf("%w: cannot generate keys for %q", interfaces.ErrUnsupportedScheme, scheme)
	}
}

// ParseSigner restores a signer from the bytes returned by MarshalPrivateKey.
func ParseSigner(scheme interfaces.ProofScheme, privateKey []byte) (KeyedSigner, error) {
	switch scheme {
	case interfaces.SchemeSecp256k1:
		key, err := crypto.ToECDSA(privateKey)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", interfaces.ErrInvalidArgument, err)
		}
		return Secp256k1Signer{Key: key}, nil
	case interfaces.SchemeEd25519:
		if len(privateKey) != ed25519.SeedSize {
			return nil, fmt.Errorf("%w: ed25519 seed must be %d bytes", interfaces.ErrInvalidArgument, ed25519.SeedSize)
		}
		return Ed25519Signer{Key: ed25519.NewKeyFromSeed(privateKey)}, nil
	case interfaces.SchemeDilithium3:
		var key mode3.PrivateKey
		if err := key.UnmarshalBinary(privateKey); err != nil {
			return nil, fmt.Errorf("%w: %v", interfaces.ErrInvalidArgument, err)
		}
		return Dilithium3Signer{Key: &key}, nil
	default:
		return nil, fmt.Errorf("%w: no private key format for %q", interfaces.ErrUnsupportedScheme, scheme)
	}
}
