package interfaces

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrContentNotFound is returned when requested content cannot be found in the storage backend.
	ErrContentNotFound = errors.New("content not found")

	// ErrBackendUnavailable is returned when a storage backend is not accessible.
	// This could be due to network issues, authentication failures, or service outages.
	ErrBackendUnavailable = errors.New("storage backend unavailable")

	// ErrInvalidLocationURI is returned when a storage location URI is malformed or unsupported.
	// URIs must follow the format: [scheme]://[auth@]host[:port][/path][?params]
	ErrInvalidLocationURI = errors.New("invalid storage location URI")

	// ErrInvalidArgument is returned for malformed identifiers, keys and values.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrCorrupt is returned when stored bytes cannot be decoded.
	ErrCorrupt = errors.New("stored data corrupt")

	// ErrInvalidProof is returned for malformed proofs, or proofs that failed
	// verification where a valid one was required.
	ErrInvalidProof = errors.New("invalid proof")

	// ErrUnsupportedScheme is returned when no verifier handles a proof scheme.
	ErrUnsupportedScheme = errors.New("unsupported proof scheme")

	// ErrReadOnly is returned by backends that cannot be written to.
	ErrReadOnly = errors.New("storage backend is read-only")
)

// OpError records a failed storage operation with enough context to diagnose it.
type OpError struct {
	Op      string // "fetch", "put", "delete", "set", "get", "remove", "verify"
	Backend string // backend name, empty for in-process stores
	Key     string // hex key when known
	Err     error
}

func (e *OpError) Error() string {
	msg := e.Op
	if e.Backend != "" {
		msg = e.Backend + " " + msg
	}
	if e.Key != "" {
		msg += " " + e.Key
	}
	return fmt.Sprintf("%s: %v", msg, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// NewOpError wraps err with operation context. A nil err yields nil.
func NewOpError(op, backend, key string, err error) error {
	if err == nil {
		return nil
	}
	return &OpError{Op: op, Backend: backend, Key: key, Err: err}
}

// IsNotFound reports whether err means the requested entry is absent.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrContentNotFound)
}

// IsRetryable reports whether err is transient. Corruption, invalid input and
// invalid proofs are fatal; unavailable backends and deadlines are not.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrBackendUnavailable) || errors.Is(err, context.DeadlineExceeded)
}
