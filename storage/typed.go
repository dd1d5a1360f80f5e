package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ruteri/unified-ledger/interfaces"
)

// Codec converts values to and from their stored byte form.
type Codec[V any] interface {
	Encode(v V) ([]byte, error)
	Decode(data []byte) (V, error)
}

// JSONCodec stores values as JSON.
type JSONCodec[V any] struct{}

func (JSONCodec[V]) Encode(v V) ([]byte, error) {
	return json.Marshal(v)
}

func (JSONCodec[V]) Decode(data []byte) (V, error) {
	var v V
	err := json.Unmarshal(data, &v)
	return v, err
}

// BytesCodec stores byte slices unchanged.
type BytesCodec struct{}

func (BytesCodec) Encode(v []byte) ([]byte, error) { return v, nil }

func (BytesCodec) Decode(data []byte) ([]byte, error) { return data, nil }

// BackendStorage implements interfaces.Storage for any 32-byte key type on top of
// a byte-level StorageBackend namespace.
type BackendStorage[K ~[32]byte, V any] struct {
	backend interfaces.StorageBackend
	ns      interfaces.Namespace
	codec   Codec[V]
	log     *slog.Logger
}

// NewBackendStorage creates a typed view of backend. A nil codec defaults to JSON.
func NewBackendStorage[K ~[32]byte, V any](backend interfaces.StorageBackend, ns interfaces.Namespace, codec Codec[V], log *slog.Logger) *BackendStorage[K, V] {
	if codec == nil {
		codec = JSONCodec[V]{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &BackendStorage[K, V]{
		backend: backend,
		ns:      ns,
		codec:   codec,
		log:     log,
	}
}

// Set encodes value and writes it under key.
func (s *BackendStorage[K, V]) Set(ctx context.Context, key K, value V) error {
	id := interfaces.ContentID(key)
	data, err := s.codec.Encode(value)
	if err != nil {
		return interfaces.NewOpError("set", s.backend.Name(), id.String(), fmt.Errorf("%w: %v", interfaces.ErrInvalidArgument, err))
	}
	if err := s.backend.Put(ctx, id, s.ns, data); err != nil {
		return interfaces.NewOpError("set", s.backend.Name(), id.String(), err)
	}
	return nil
}

// Get reads and decodes the value under key.
func (s *BackendStorage[K, V]) Get(ctx context.Context, key K) (V, bool, error) {
	var zero V
	id := interfaces.ContentID(key)

	data, err := s.backend.Fetch(ctx, id, s.ns)
	if errors.Is(err, interfaces.ErrContentNotFound) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, interfaces.NewOpError("get", s.backend.Name(), id.String(), err)
	}

	value, err := s.codec.Decode(data)
	if err != nil {
		s.log.Warn("Stored value could not be decoded",
			slog.String("backend", s.backend.Name()),
			slog.String("key", id.String()),
			"err", err)
		return zero, false, interfaces.NewOpError("get", s.backend.Name(), id.String(), fmt.Errorf("%w: %v", interfaces.ErrCorrupt, err))
	}
	return value, true, nil
}

// Exists uses the default Get-based check so corrupt entries surface as errors.
func (s *BackendStorage[K, V]) Exists(ctx context.Context, key K) (bool, error) {
	return interfaces.ExistsViaGet[K, V](ctx, s, key)
}

// Remove deletes the value under key.
func (s *BackendStorage[K, V]) Remove(ctx context.Context, key K) error {
	id := interfaces.ContentID(key)
	if err := s.backend.Delete(ctx, id, s.ns); err != nil {
		return interfaces.NewOpError("remove", s.backend.Name(), id.String(), err)
	}
	return nil
}

// Backend returns the underlying byte-level backend.
func (s *BackendStorage[K, V]) Backend() interfaces.StorageBackend {
	return s.backend
}
