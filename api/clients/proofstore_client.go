package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/ruteri/unified-ledger/api"
	"github.com/ruteri/unified-ledger/interfaces"
)

// ProofStoreClient talks to a proof store server.
type ProofStoreClient struct {
	httpClient
}

var _ interfaces.ProofStore = (*ProofStoreClient)(nil)

// NewProofStoreClient creates a client for the server at serverAddr
// (e.g. "http://127.0.0.1:8080"). A nil client uses http.DefaultClient.
func NewProofStoreClient(serverAddr string, client *http.Client) *ProofStoreClient {
	return &ProofStoreClient{httpClient: newHTTPClient(serverAddr, client)}
}

// Set stores proof under id.
func (c *ProofStoreClient) Set(ctx context.Context, id interfaces.ProofID, proof interfaces.Proof) error {
	return c.set(ctx, id, proof, false)
}

// SetVerified stores proof under id, asking the server to reject it unless it verifies.
func (c *ProofStoreClient) SetVerified(ctx context.Context, id interfaces.ProofID, proof interfaces.Proof) error {
	return c.set(ctx, id, proof, true)
}

func (c *ProofStoreClient) set(ctx context.Context, id interfaces.ProofID, proof interfaces.Proof, verify bool) error {
	body, err := json.Marshal(proof)
	if err != nil {
		return fmt.Errorf("%w: could not encode proof: %v", interfaces.ErrInvalidArgument, err)
	}

	status, respBody, err := c.do(ctx, http.MethodPut, proofPath(id, verify), body, "application/json")
	if err != nil {
		return err
	}
	if status != http.StatusNoContent && status != http.StatusOK {
		return api.ErrorFromResponse(status, respBody)
	}
	return nil
}

// Put stores proof under its content address and returns the id assigned by the server.
func (c *ProofStoreClient) Put(ctx context.Context, proof interfaces.Proof) (interfaces.ProofID, error) {
	body, err := json.Marshal(proof)
	if err != nil {
		return interfaces.ProofID{}, fmt.Errorf("%w: could not encode proof: %v", interfaces.ErrInvalidArgument, err)
	}

	status, respBody, err := c.do(ctx, http.MethodPost, "/api/proofs", body, "application/json")
	if err != nil {
		return interfaces.ProofID{}, err
	}
	if status != http.StatusCreated {
		return interfaces.ProofID{}, api.ErrorFromResponse(status, respBody)
	}

	var resp api.ProofIDResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return interfaces.ProofID{}, fmt.Errorf("could not parse put response: %w", err)
	}
	return resp.ID, nil
}

// Get fetches the proof stored under id. A missing proof is (Proof{}, false, nil).
func (c *ProofStoreClient) Get(ctx context.Context, id interfaces.ProofID) (interfaces.Proof, bool, error) {
	return c.get(ctx, id, false)
}

// GetVerified fetches the proof under id and fails with ErrInvalidProof if it does not verify.
func (c *ProofStoreClient) GetVerified(ctx context.Context, id interfaces.ProofID) (interfaces.Proof, bool, error) {
	return c.get(ctx, id, true)
}

func (c *ProofStoreClient) get(ctx context.Context, id interfaces.ProofID, verify bool) (interfaces.Proof, bool, error) {
	status, respBody, err := c.do(ctx, http.MethodGet, proofPath(id, verify), nil, "")
	if err != nil {
		return interfaces.Proof{}, false, err
	}
	switch status {
	case http.StatusOK:
	case http.StatusNotFound:
		return interfaces.Proof{}, false, nil
	default:
		return interfaces.Proof{}, false, api.ErrorFromResponse(status, respBody)
	}

	var proof interfaces.Proof
	if err := json.Unmarshal(respBody, &proof); err != nil {
		return interfaces.Proof{}, false, fmt.Errorf("%w: could not parse proof: %v", interfaces.ErrCorrupt, err)
	}
	return proof, true, nil
}

// Verify asks the server to check proof.
func (c *ProofStoreClient) Verify(ctx context.Context, proof interfaces.Proof) (bool, error) {
	body, err := json.Marshal(proof)
	if err != nil {
		return false, fmt.Errorf("%w: could not encode proof: %v", interfaces.ErrInvalidArgument, err)
	}

	status, respBody, err := c.do(ctx, http.MethodPost, "/api/proofs/verify", body, "application/json")
	if err != nil {
		return false, err
	}
	if status != http.StatusOK {
		return false, api.ErrorFromResponse(status, respBody)
	}

	var resp api.VerifyResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return false, fmt.Errorf("could not parse verify response: %w", err)
	}
	return resp.Valid, nil
}

func proofPath(id interfaces.ProofID, verify bool) string {
	path := "/api/proofs/" + id.String()
	if verify {
		path += "?" + api.VerifyQueryParam + "=true"
	}
	return path
}
