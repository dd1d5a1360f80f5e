package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/ruteri/unified-ledger/api"
	"github.com/ruteri/unified-ledger/interfaces"
)

// KVClient is a remote interfaces.Storage of opaque byte values.
type KVClient struct {
	httpClient
}

var _ interfaces.Storage[interfaces.ContentID, []byte] = (*KVClient)(nil)

func NewKVClient(serverAddr string, client *http.Client) *KVClient {
	return &KVClient{httpClient: newHTTPClient(serverAddr, client)}
}

func (c *KVClient) Set(ctx context.Context, key interfaces.ContentID, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	status, body, err := c.do(ctx, http.MethodPut, "/api/kv/"+key.String(), value, "application/octet-stream")
	if err != nil {
		return err
	}
	if status != http.StatusNoContent && status != http.StatusOK {
		return api.ErrorFromResponse(status, body)
	}
	return nil
}

// Post stores value under the sha256 of its content and returns that key.
func (c *KVClient) Post(ctx context.Context, value []byte) (interfaces.ContentID, error) {
	status, body, err := c.do(ctx, http.MethodPost, "/api/kv", value, "application/octet-stream")
	if err != nil {
		return interfaces.ContentID{}, err
	}
	if status != http.StatusCreated {
		return interfaces.ContentID{}, api.ErrorFromResponse(status, body)
	}

	var resp api.KeyResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return interfaces.ContentID{}, fmt.Errorf("could not parse post response: %w", err)
	}
	return resp.Key, nil
}

func (c *KVClient) Get(ctx context.Context, key interfaces.ContentID) ([]byte, bool, error) {
	status, body, err := c.do(ctx, http.MethodGet, "/api/kv/"+key.String(), nil, "")
	if err != nil {
		return nil, false, err
	}
	switch status {
	case http.StatusOK:
		return body, true, nil
	case http.StatusNotFound:
		return nil, false, nil
	default:
		return nil, false, api.ErrorFromResponse(status, body)
	}
}

// Exists issues a HEAD request instead of fetching the value.
func (c *KVClient) Exists(ctx context.Context, key interfaces.ContentID) (bool, error) {
	status, _, err := c.do(ctx, http.MethodHead, "/api/kv/"+key.String(), nil, "")
	if err != nil {
		return false, err
	}
	switch status {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, api.ErrorFromResponse(status, nil)
	}
}

func (c *KVClient) Remove(ctx context.Context, key interfaces.ContentID) error {
	status, body, err := c.do(ctx, http.MethodDelete, "/api/kv/"+key.String(), nil, "")
	if err != nil {
		return err
	}
	if status != http.StatusNoContent && status != http.StatusOK {
		return api.ErrorFromResponse(status, body)
	}
	return nil
}
