package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/ruteri/unified-ledger/interfaces"
)

// MaxBodyBytes bounds request bodies. Large enough for any tdx-dcap quote.
const MaxBodyBytes = 4 << 20

// VerifyQueryParam requests verification on proof reads and writes.
const VerifyQueryParam = "verify"

// ProofIDResponse is returned by content-addressed proof writes.
type ProofIDResponse struct {
	ID interfaces.ProofID `json:"id"`
}

// VerifyResponse is returned by the verify endpoint.
type VerifyResponse struct {
	Valid bool `json:"valid"`
}

// KeyResponse is returned by content-addressed value writes.
type KeyResponse struct {
	Key interfaces.ContentID `json:"key"`
}

// StatusForError maps the error taxonomy onto HTTP status codes.
func StatusForError(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, interfaces.ErrContentNotFound):
		return http.StatusNotFound
	case errors.Is(err, interfaces.ErrInvalidProof):
		return http.StatusUnprocessableEntity
	case errors.Is(err, interfaces.ErrInvalidArgument),
		errors.Is(err, interfaces.ErrUnsupportedScheme),
		errors.Is(err, interfaces.ErrInvalidLocationURI):
		return http.StatusBadRequest
	case errors.Is(err, interfaces.ErrReadOnly):
		return http.StatusMethodNotAllowed
	case errors.Is(err, interfaces.ErrBackendUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// ErrorFromResponse turns a non-success response back into a sentinel-wrapped error.
func ErrorFromResponse(status int, body []byte) error {
	msg := strings.TrimSpace(string(body))

	var sentinel error
	switch status {
	case http.StatusNotFound:
		sentinel = interfaces.ErrContentNotFound
	case http.StatusUnprocessableEntity:
		sentinel = interfaces.ErrInvalidProof
	case http.StatusBadRequest:
		sentinel = interfaces.ErrInvalidArgument
		if strings.Contains(msg, interfaces.ErrUnsupportedScheme.Error()) {
			sentinel = interfaces.ErrUnsupportedScheme
		}
	case http.StatusMethodNotAllowed:
		sentinel = interfaces.ErrReadOnly
	case http.StatusServiceUnavailable, http.StatusGatewayTimeout, http.StatusBadGateway:
		sentinel = interfaces.ErrBackendUnavailable
	default:
		return fmt.Errorf("server returned %d: %s", status, msg)
	}
	return fmt.Errorf("%w: server returned %d: %s", sentinel, status, msg)
}

// WriteError writes err as plain text with the mapped status.
func WriteError(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), StatusForError(err))
}
