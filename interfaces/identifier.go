package interfaces

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// ContentID is an opaque 32-byte content-addressed identifier.
// It is comparable and can be used directly as a map key.
type ContentID [32]byte

// NewContentIDFromBytes creates a content ID from exactly 32 bytes.
func NewContentIDFromBytes(source []byte) (ContentID, error) {
	if len(source) != 32 {
		return ContentID{}, fmt.Errorf("%w: content id must be 32 bytes, got %d", ErrInvalidArgument, len(source))
	}

	var id ContentID
	copy(id[:], source)
	return id, nil
}

// NewContentIDFromHex parses a 64 character hex string, with or without 0x prefix.
func NewContentIDFromHex(source string) (ContentID, error) {
	raw, err := decodeHex32(source)
	if err != nil {
		return ContentID{}, err
	}
	return ContentID(raw), nil
}

// NewContentIDFromCID extracts the digest of a sha2-256 CID.
func NewContentIDFromCID(c cid.Cid) (ContentID, error) {
	if !c.Defined() {
		return ContentID{}, fmt.Errorf("%w: undefined cid", ErrInvalidArgument)
	}
	decoded, err := multihash.Decode(c.Hash())
	if err != nil {
		return ContentID{}, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	if decoded.Code != multihash.SHA2_256 {
		return ContentID{}, fmt.Errorf("%w: cid multihash is %s, expected sha2-256", ErrInvalidArgument, multihash.Codes[decoded.Code])
	}
	return NewContentIDFromBytes(decoded.Digest)
}

// ComputeID calculates content ID from data.
func ComputeID(data []byte) ContentID {
	return ContentID(sha256.Sum256(data))
}

// String returns hex representation.
func (id ContentID) String() string {
	return hex.EncodeToString(id[:])
}

// Bytes returns raw 32-byte identifier.
func (id ContentID) Bytes() []byte {
	return id[:]
}

// Equal compares two content IDs.
func (id ContentID) Equal(other ContentID) bool {
	return id == other
}

// IsZero reports whether every byte is zero.
func (id ContentID) IsZero() bool {
	return id == ContentID{}
}

// CID wraps the identifier as a CIDv1 with raw codec and sha2-256 multihash.
func (id ContentID) CID() cid.Cid {
	mh, err := multihash.Encode(id[:], multihash.SHA2_256)
	if err != nil {
		// Encode only fails for unknown codes or mismatched lengths.
		return cid.Undef
	}
	return cid.NewCidV1(cid.Raw, mh)
}

// MarshalBinary returns the 32 raw bytes with no length prefix.
func (id ContentID) MarshalBinary() ([]byte, error) {
	return append([]byte(nil), id[:]...), nil
}

// UnmarshalBinary accepts exactly 32 bytes.
func (id *ContentID) UnmarshalBinary(data []byte) error {
	parsed, err := NewContentIDFromBytes(data)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// MarshalText encodes the identifier as hex.
func (id ContentID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText decodes a hex identifier.
func (id *ContentID) UnmarshalText(text []byte) error {
	parsed, err := NewContentIDFromHex(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func decodeHex32(source string) ([32]byte, error) {
	clean := strings.TrimPrefix(strings.TrimSpace(source), "0x")
	if len(clean) != 64 {
		return [32]byte{}, fmt.Errorf("%w: hex identifier must be 64 characters", ErrInvalidArgument)
	}

	raw, err := hex.DecodeString(clean)
	if err != nil {
		return [32]byte{}, fmt.Errorf("%w: invalid hex format: %v", ErrInvalidArgument, err)
	}

	var out [32]byte
	copy(out[:], raw)
	return out, nil
}
