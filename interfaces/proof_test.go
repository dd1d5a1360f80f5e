package interfaces

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProof() Proof {
	return Proof{
		Scheme:    SchemeEd25519,
		HashAlg:   HashSHA256,
		Subject:   ComputeID([]byte("subject")),
		Payload:   []byte("statement"),
		PublicKey: make([]byte, 32),
		Signature: []byte{1, 2, 3},
		IssuedAt:  time.Unix(1700000000, 0).UTC(),
	}
}

func TestProof_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p *Proof)
		wantErr error
	}{
		{name: "valid", mutate: func(p *Proof) {}},
		{name: "unknown scheme", mutate: func(p *Proof) { p.Scheme = "rsa" }, wantErr: ErrUnsupportedScheme},
		{name: "unknown hash", mutate: func(p *Proof) { p.HashAlg = "md5" }, wantErr: ErrInvalidProof},
		{name: "missing key", mutate: func(p *Proof) { p.PublicKey = nil }, wantErr: ErrInvalidProof},
		{name: "missing signature", mutate: func(p *Proof) { p.Signature = nil }, wantErr: ErrInvalidProof},
		{name: "short key", mutate: func(p *Proof) { p.PublicKey = make([]byte, 31) }, wantErr: ErrInvalidProof},
		{name: "address for secp256k1", mutate: func(p *Proof) { p.Scheme = SchemeSecp256k1; p.PublicKey = make([]byte, 20) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testProof()
			tt.mutate(&p)
			err := p.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestProof_SignedMessageCoversFields(t *testing.T) {
	base := testProof()
	msg := base.SignedMessage()

	variants := []func(p *Proof){
		func(p *Proof) { p.Scheme = SchemeSecp256k1 },
		func(p *Proof) { p.HashAlg = HashSHA512 },
		func(p *Proof) { p.Subject[0] ^= 0xff },
		func(p *Proof) { p.Payload = []byte("other") },
		func(p *Proof) { p.IssuedAt = p.IssuedAt.Add(time.Second) },
	}
	for i, mutate := range variants {
		p := testProof()
		mutate(&p)
		assert.NotEqual(t, msg, p.SignedMessage(), "variant %d", i)
	}

	// Key and signature are not part of what gets signed.
	p := testProof()
	p.Signature = []byte{9}
	assert.Equal(t, msg, p.SignedMessage())
}

func TestComputeProofID(t *testing.T) {
	a := testProof()
	b := testProof()
	assert.Equal(t, ComputeProofID(a), ComputeProofID(b))

	b.Signature = []byte{3, 2, 1}
	assert.NotEqual(t, ComputeProofID(a), ComputeProofID(b))
}

func TestProof_JSONRoundTrip(t *testing.T) {
	p := testProof()
	encoded, err := json.Marshal(p)
	require.NoError(t, err)

	var decoded Proof
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	assert.Equal(t, p.SignedMessage(), decoded.SignedMessage())
	assert.Equal(t, ComputeProofID(p), ComputeProofID(decoded))
}

func TestProofID_Hex(t *testing.T) {
	id := ComputeProofID(testProof())
	parsed, err := NewProofIDFromHex(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	_, err = NewProofIDFromBytes([]byte{1})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

type mapGetter map[string]string

func (m mapGetter) Get(_ context.Context, key string) (string, bool, error) {
	if key == "broken" {
		return "", false, ErrBackendUnavailable
	}
	v, ok := m[key]
	return v, ok, nil
}

func TestExistsViaGet(t *testing.T) {
	g := mapGetter{"present": "value"}

	ok, err := ExistsViaGet[string, string](context.Background(), g, "present")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ExistsViaGet[string, string](context.Background(), g, "absent")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = ExistsViaGet[string, string](context.Background(), g, "broken")
	assert.ErrorIs(t, err, ErrBackendUnavailable)
}

func TestOpError(t *testing.T) {
	err := NewOpError("fetch", "file-data", "abcd", ErrContentNotFound)
	assert.EqualError(t, err, "file-data fetch abcd: content not found")
	assert.True(t, IsNotFound(err))

	var opErr *OpError
	require.True(t, errors.As(fmt.Errorf("outer: %w", err), &opErr))
	assert.Equal(t, "fetch", opErr.Op)

	assert.NoError(t, NewOpError("fetch", "", "", nil))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(NewOpError("put", "s3", "", ErrBackendUnavailable)))
	assert.True(t, IsRetryable(fmt.Errorf("wrapped: %w", context.DeadlineExceeded)))
	assert.False(t, IsRetryable(ErrCorrupt))
	assert.False(t, IsRetryable(ErrInvalidProof))
	assert.False(t, IsRetryable(nil))
}

func TestStorageBackendLocation(t *testing.T) {
	loc, err := NewStorageBackendLocation("s3://key:secret@bucket/prefix?region=eu-west-1&public=yes")
	require.NoError(t, err)
	assert.Equal(t, "s3", loc.Scheme)
	assert.Equal(t, "bucket", loc.Host)
	assert.Equal(t, "/prefix", loc.Path)
	assert.Equal(t, "eu-west-1", loc.GetParam("region"))
	assert.True(t, loc.GetParamBool("public"))
	assert.NotEmpty(t, loc.Auth)

	_, err = NewStorageBackendLocation("ftp://host/path")
	assert.ErrorIs(t, err, ErrInvalidLocationURI)

	assert.Equal(t, "proofs", ProofNamespace.String())
	assert.Equal(t, "values", ValueNamespace.String())
	assert.False(t, Namespace(7).Valid())
}
