package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/ruteri/unified-ledger/interfaces"
)

type memoryKey struct {
	ns interfaces.Namespace
	id interfaces.ContentID
}

// MemoryBackend keeps content in process memory. Intended for tests and
// single-process deployments; nothing survives a restart.
type MemoryBackend struct {
	mu   sync.RWMutex
	name string
	data map[memoryKey][]byte
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend(name string) *MemoryBackend {
	if name == "" {
		name = "default"
	}
	return &MemoryBackend{
		name: name,
		data: make(map[memoryKey][]byte),
	}
}

// Fetch returns a copy of the stored bytes.
func (b *MemoryBackend) Fetch(ctx context.Context, id interfaces.ContentID, ns interfaces.Namespace) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	data, ok := b.data[memoryKey{ns, id}]
	if !ok {
		return nil, interfaces.ErrContentNotFound
	}
	return append([]byte(nil), data...), nil
}

// Put stores a copy of data.
func (b *MemoryBackend) Put(ctx context.Context, id interfaces.ContentID, ns interfaces.Namespace, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.data[memoryKey{ns, id}] = append([]byte(nil), data...)
	return nil
}

// Delete removes the entry if present.
func (b *MemoryBackend) Delete(ctx context.Context, id interfaces.ContentID, ns interfaces.Namespace) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.data, memoryKey{ns, id})
	return nil
}

// Len returns the number of entries across namespaces.
func (b *MemoryBackend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.data)
}

// Available always returns true.
func (b *MemoryBackend) Available(ctx context.Context) bool {
	return true
}

// Name returns a unique identifier for this storage backend.
func (b *MemoryBackend) Name() string {
	return fmt.Sprintf("memory-%s", b.name)
}

// LocationURI returns the URI that identifies this storage backend.
func (b *MemoryBackend) LocationURI() string {
	return fmt.Sprintf("memory://%s", b.name)
}

// MemoryStorage is a map-backed interfaces.Storage. Values are held as-is, so
// callers storing reference types share them with the store.
type MemoryStorage[K comparable, V any] struct {
	mu     sync.RWMutex
	values map[K]V
}

// NewMemoryStorage creates an empty in-memory key/value store.
func NewMemoryStorage[K comparable, V any]() *MemoryStorage[K, V] {
	return &MemoryStorage[K, V]{values: make(map[K]V)}
}

func (s *MemoryStorage[K, V]) Set(ctx context.Context, key K, value V) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *MemoryStorage[K, V]) Get(ctx context.Context, key K) (V, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *MemoryStorage[K, V]) Exists(ctx context.Context, key K) (bool, error) {
	return interfaces.ExistsViaGet[K, V](ctx, s, key)
}

func (s *MemoryStorage[K, V]) Remove(ctx context.Context, key K) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}
