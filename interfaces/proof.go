package interfaces

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"time"
)

// ProofScheme tags the cryptographic scheme a proof is checked with.
type ProofScheme string

const (
	// SchemeSecp256k1 is an Ethereum-style recoverable ECDSA signature.
	// PublicKey holds the 20-byte signer address.
	SchemeSecp256k1 ProofScheme = "secp256k1"
	// SchemeEd25519 is an Ed25519 signature. PublicKey holds the 32-byte key.
	SchemeEd25519 ProofScheme = "ed25519"
	// SchemeDilithium3 is a post-quantum Dilithium (mode 3) signature.
	SchemeDilithium3 ProofScheme = "dilithium3"
	// SchemeTDXDCAP is an Intel TDX quote whose report data binds the signed digest.
	SchemeTDXDCAP ProofScheme = "tdx-dcap"
)

// KnownSchemes lists every scheme the proof format defines.
var KnownSchemes = []ProofScheme{SchemeSecp256k1, SchemeEd25519, SchemeDilithium3, SchemeTDXDCAP}

// PublicKeySize is the required PublicKey length per scheme. For tdx-dcap the
// "key" is the expected 48-byte MRTD measurement of the attesting TD.
var PublicKeySize = map[ProofScheme]int{
	SchemeSecp256k1:  20,
	SchemeEd25519:    32,
	SchemeDilithium3: 1952,
	SchemeTDXDCAP:    48,
}

// HashAlg selects the digest applied to a proof's signed message.
type HashAlg string

const (
	HashSHA256    HashAlg = "sha256"
	HashSHA512    HashAlg = "sha512"
	HashSHA3_256  HashAlg = "sha3-256"
	HashKeccak256 HashAlg = "keccak256"
)

func (s ProofScheme) known() bool {
	for _, k := range KnownSchemes {
		if k == s {
			return true
		}
	}
	return false
}

func (h HashAlg) known() bool {
	switch h {
	case HashSHA256, HashSHA512, HashSHA3_256, HashKeccak256:
		return true
	}
	return false
}

// Proof is an attestation that Subject was vouched for under Scheme.
type Proof struct {
	Scheme    ProofScheme `json:"scheme"`
	HashAlg   HashAlg     `json:"hash_alg"`
	Subject   ContentID   `json:"subject"`
	Payload   []byte      `json:"payload,omitempty"`
	PublicKey []byte      `json:"public_key"`
	Signature []byte      `json:"signature"`
	IssuedAt  time.Time   `json:"issued_at"`
}

const signedMessageDomain = "ul-proof-v1"

// SignedMessage returns the bytes a proof's signature commits to (before hashing).
func (p Proof) SignedMessage() []byte {
	msg := make([]byte, 0, len(signedMessageDomain)+len(p.Scheme)+len(p.HashAlg)+2+32+8+len(p.Payload))
	msg = append(msg, signedMessageDomain...)
	msg = append(msg, p.Scheme...)
	msg = append(msg, 0)
	msg = append(msg, p.HashAlg...)
	msg = append(msg, 0)
	msg = append(msg, p.Subject[:]...)
	msg = binary.BigEndian.AppendUint64(msg, uint64(p.IssuedAt.Unix()))
	msg = append(msg, p.Payload...)
	return msg
}

// Validate checks the proof is well formed. It does not check the signature.
func (p Proof) Validate() error {
	if !p.Scheme.known() {
		return fmt.Errorf("%w: %q", ErrUnsupportedScheme, p.Scheme)
	}
	if !p.HashAlg.known() {
		return fmt.Errorf("%w: unknown hash algorithm %q", ErrInvalidProof, p.HashAlg)
	}
	if len(p.PublicKey) == 0 {
		return fmt.Errorf("%w: missing public key", ErrInvalidProof)
	}
	if want := PublicKeySize[p.Scheme]; len(p.PublicKey) != want {
		return fmt.Errorf("%w: %s public key must be %d bytes, got %d", ErrInvalidProof, p.Scheme, want, len(p.PublicKey))
	}
	if len(p.Signature) == 0 {
		return fmt.Errorf("%w: missing signature", ErrInvalidProof)
	}
	return nil
}

// ProofID identifies a stored proof. It is unrelated to the proof's Subject.
type ProofID [32]byte

// NewProofIDFromBytes creates a proof ID from exactly 32 bytes.
func NewProofIDFromBytes(source []byte) (ProofID, error) {
	id, err := NewContentIDFromBytes(source)
	return ProofID(id), err
}

// NewProofIDFromHex parses a 64 character hex string, with or without 0x prefix.
func NewProofIDFromHex(source string) (ProofID, error) {
	raw, err := decodeHex32(source)
	if err != nil {
		return ProofID{}, err
	}
	return ProofID(raw), nil
}

// ComputeProofID derives the content-addressed id of a proof from its canonical encoding.
func ComputeProofID(p Proof) ProofID {
	h := sha256.New()
	writeField := func(b []byte) {
		var n [4]byte
		binary.BigEndian.PutUint32(n[:], uint32(len(b)))
		h.Write(n[:])
		h.Write(b)
	}
	writeField(p.SignedMessage())
	writeField(p.PublicKey)
	writeField(p.Signature)

	var id ProofID
	copy(id[:], h.Sum(nil))
	return id
}

// String returns hex representation.
func (id ProofID) String() string {
	return hex.EncodeToString(id[:])
}

// Bytes returns raw 32-byte identifier.
func (id ProofID) Bytes() []byte {
	return id[:]
}

// MarshalText encodes the identifier as hex.
func (id ProofID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText decodes a hex identifier.
func (id *ProofID) UnmarshalText(text []byte) error {
	parsed, err := NewProofIDFromHex(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ProofVerifier checks proofs cryptographically.
type ProofVerifier interface {
	// Verify returns true for a valid proof and false for a well-formed proof whose
	// signature does not check out. Malformed proofs yield ErrInvalidProof and
	// unknown schemes ErrUnsupportedScheme.
	Verify(ctx context.Context, proof Proof) (bool, error)
}

// ProofStore persists and verifies Unified Ledger proofs independent of the backend.
type ProofStore interface {
	// Set stores proof under id, overwriting any existing proof.
	Set(ctx context.Context, id ProofID, proof Proof) error

	// Get returns the proof stored under id and true, or false when absent.
	Get(ctx context.Context, id ProofID) (Proof, bool, error)

	// Verify reports whether proof is cryptographically valid.
	Verify(ctx context.Context, proof Proof) (bool, error)
}
