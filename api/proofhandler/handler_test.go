package proofhandler

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/ruteri/unified-ledger/api"
	"github.com/ruteri/unified-ledger/interfaces"
	"github.com/ruteri/unified-ledger/proofs"
	"github.com/ruteri/unified-ledger/proofstore"
	"github.com/ruteri/unified-ledger/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) Set(ctx context.Context, id interfaces.ProofID, proof interfaces.Proof) error {
	return m.Called(ctx, id, proof).Error(0)
}

func (m *MockStore) SetVerified(ctx context.Context, id interfaces.ProofID, proof interfaces.Proof) error {
	return m.Called(ctx, id, proof).Error(0)
}

func (m *MockStore) Get(ctx context.Context, id interfaces.ProofID) (interfaces.Proof, bool, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(interfaces.Proof), args.Bool(1), args.Error(2)
}

func (m *MockStore) GetVerified(ctx context.Context, id interfaces.ProofID) (interfaces.Proof, bool, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(interfaces.Proof), args.Bool(1), args.Error(2)
}

func (m *MockStore) Verify(ctx context.Context, proof interfaces.Proof) (bool, error) {
	args := m.Called(ctx, proof)
	return args.Bool(0), args.Error(1)
}

func setupRouter(store Store) *chi.Mux {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mux := chi.NewRouter()
	NewHandler(store, logger).RegisterRoutes(mux)
	return mux
}

func newRealStore() *proofstore.Store {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return proofstore.New(storage.NewMemoryStorage[interfaces.ProofID, interfaces.Proof](), proofstore.WithLogger(logger))
}

func signedProof(t *testing.T) interfaces.Proof {
	t.Helper()
	signer, err := proofs.GenerateSigner(interfaces.SchemeEd25519, rand.Reader)
	require.NoError(t, err)
	proof, err := signer.Sign(proofs.NewProof(interfaces.ComputeID([]byte("doc")), []byte("payload"), interfaces.HashSHA256))
	require.NoError(t, err)
	return proof
}

func proofBody(t *testing.T, p interfaces.Proof) io.Reader {
	t.Helper()
	body, err := json.Marshal(p)
	require.NoError(t, err)
	return bytes.NewReader(body)
}

func serve(mux http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestSetAndGet(t *testing.T) {
	mux := setupRouter(newRealStore())
	proof := signedProof(t)
	id := interfaces.ProofID{0xaa}

	w := serve(mux, httptest.NewRequest(http.MethodGet, "/api/proofs/"+id.String(), nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(mux, httptest.NewRequest(http.MethodPut, "/api/proofs/"+id.String(), proofBody(t, proof)))
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	for _, query := range []string{"", "?verify=true"} {
		w = serve(mux, httptest.NewRequest(http.MethodGet, "/api/proofs/"+id.String()+query, nil))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

		var got interfaces.Proof
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, interfaces.ComputeProofID(proof), interfaces.ComputeProofID(got))
	}
}

func TestSetWithVerify(t *testing.T) {
	mux := setupRouter(newRealStore())
	proof := signedProof(t)
	tampered := proof
	tampered.Payload = []byte("other")
	id := interfaces.ProofID{0xbb}

	w := serve(mux, httptest.NewRequest(http.MethodPut, "/api/proofs/"+id.String()+"?verify=true", proofBody(t, tampered)))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = serve(mux, httptest.NewRequest(http.MethodGet, "/api/proofs/"+id.String(), nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	// stored without verification, then rejected on a verified read
	w = serve(mux, httptest.NewRequest(http.MethodPut, "/api/proofs/"+id.String(), proofBody(t, tampered)))
	require.Equal(t, http.StatusNoContent, w.Code)
	w = serve(mux, httptest.NewRequest(http.MethodGet, "/api/proofs/"+id.String()+"?verify=1", nil))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestPutContentAddressed(t *testing.T) {
	mux := setupRouter(newRealStore())
	proof := signedProof(t)

	w := serve(mux, httptest.NewRequest(http.MethodPost, "/api/proofs?verify=true", proofBody(t, proof)))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp api.ProofIDResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, interfaces.ComputeProofID(proof), resp.ID)

	w = serve(mux, httptest.NewRequest(http.MethodGet, "/api/proofs/"+resp.ID.String(), nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestVerifyEndpoint(t *testing.T) {
	mux := setupRouter(newRealStore())
	proof := signedProof(t)

	tampered := proof
	tampered.Subject = interfaces.ComputeID([]byte("other doc"))

	unknown := proof
	unknown.Scheme = "rsa"

	shortKey := proof
	shortKey.PublicKey = shortKey.PublicKey[:10]

	tests := []struct {
		name      string
		proof     interfaces.Proof
		status    int
		wantValid bool
	}{
		{"valid", proof, http.StatusOK, true},
		{"tampered", tampered, http.StatusOK, false},
		{"unknown scheme", unknown, http.StatusBadRequest, false},
		{"malformed", shortKey, http.StatusUnprocessableEntity, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(mux, httptest.NewRequest(http.MethodPost, "/api/proofs/verify", proofBody(t, tt.proof)))
			require.Equal(t, tt.status, w.Code, w.Body.String())
			if tt.status != http.StatusOK {
				return
			}
			var resp api.VerifyResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantValid, resp.Valid)
		})
	}
}

func TestBadRequests(t *testing.T) {
	mux := setupRouter(new(MockStore))
	valid := interfaces.ProofID{1}.String()

	tests := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{"short id", http.MethodGet, "/api/proofs/abcd", ""},
		{"non-hex id", http.MethodPut, "/api/proofs/" + strings.Repeat("zz", 32), "{}"},
		{"bad verify flag", http.MethodGet, "/api/proofs/" + valid + "?verify=maybe", ""},
		{"bad json", http.MethodPut, "/api/proofs/" + valid, "{"},
		{"unknown field", http.MethodPost, "/api/proofs", `{"scheme":"ed25519","extra":1}`},
		{"verify bad json", http.MethodPost, "/api/proofs/verify", "not json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(mux, httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body)))
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}
}

func TestStoreErrorMapping(t *testing.T) {
	id := interfaces.ProofID{7}

	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"unavailable", interfaces.NewOpError("get", "s3-bucket", id.String(), interfaces.ErrBackendUnavailable), http.StatusServiceUnavailable},
		{"corrupt", interfaces.NewOpError("get", "file", id.String(), interfaces.ErrCorrupt), http.StatusInternalServerError},
		{"read only", interfaces.ErrReadOnly, http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(MockStore)
			store.On("Get", mock.Anything, id).Return(interfaces.Proof{}, false, tt.err)
			store.On("Set", mock.Anything, id, mock.Anything).Return(tt.err)
			mux := setupRouter(store)

			w := serve(mux, httptest.NewRequest(http.MethodGet, "/api/proofs/"+id.String(), nil))
			assert.Equal(t, tt.status, w.Code)

			w = serve(mux, httptest.NewRequest(http.MethodPut, "/api/proofs/"+id.String(), strings.NewReader(`{"scheme":"ed25519"}`)))
			assert.Equal(t, tt.status, w.Code)

			store.AssertExpectations(t)
		})
	}
}
