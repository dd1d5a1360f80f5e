package proofs

import (
	"crypto/sha256"
	"crypto/sha512"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ruteri/unified-ledger/interfaces"
	"golang.org/x/crypto/sha3"
)

// Digest hashes msg with alg.
func Digest(alg interfaces.HashAlg, msg []byte) ([]byte, error) {
	switch alg {
	case interfaces.HashSHA256:
		sum := sha256.Sum256(msg)
		return sum[:], nil
	case interfaces.HashSHA512:
		sum := sha512.Sum512(msg)
		return sum[:], nil
	case interfaces.HashSHA3_256:
		sum := sha3.Sum256(msg)
		return sum[:], nil
	case interfaces.HashKeccak256:
		return crypto.Keccak256(msg), nil
	default:
		return nil, fmt.Errorf("%w: unknown hash algorithm %q", interfaces.ErrInvalidProof, alg)
	}
}

// ProofDigest returns the digest a proof's signature is made over.
func ProofDigest(p interfaces.Proof) ([]byte, error) {
	return Digest(p.HashAlg, p.SignedMessage())
}
