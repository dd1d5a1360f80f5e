package clients

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ruteri/unified-ledger/interfaces"
)

type httpClient struct {
	serverAddr string
	client     *http.Client
}

func newHTTPClient(serverAddr string, client *http.Client) httpClient {
	if client == nil {
		client = http.DefaultClient
	}
	return httpClient{serverAddr: strings.TrimRight(serverAddr, "/"), client: client}
}

// do sends a request and returns the status and full body.
func (c httpClient) do(ctx context.Context, method, path string, body []byte, contentType string) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.serverAddr+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("could not initialize request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return 0, nil, ctx.Err()
		}
		return 0, nil, fmt.Errorf("%w: %s %s: %v", interfaces.ErrBackendUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: could not read response: %v", interfaces.ErrBackendUnavailable, err)
	}
	return resp.StatusCode, respBody, nil
}
