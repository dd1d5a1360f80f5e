// Package storagetest holds conformance suites that every storage backend and
// every Storage implementation in this module runs from its own tests.
package storagetest

import (
	"context"
	"testing"

	"github.com/ruteri/unified-ledger/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// NewBackend constructs a fresh, empty backend for a test.
// The returned backend MUST be isolated from other tests.
type NewBackend func(t *testing.T) interfaces.StorageBackend

// RunBackendConformance checks the byte-level StorageBackend contract.
func RunBackendConformance(t *testing.T, newBackend NewBackend) {
	t.Helper()
	ctx := context.Background()

	t.Run("PutFetchRoundTrip", func(t *testing.T) {
		b := newBackend(t)
		id := interfaces.ComputeID([]byte("round trip"))
		want := []byte("hello, ledger storage")

		require.NoError(t, b.Put(ctx, id, interfaces.ValueNamespace, want))

		got, err := b.Fetch(ctx, id, interfaces.ValueNamespace)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("PutOverwrites", func(t *testing.T) {
		b := newBackend(t)
		id := interfaces.ComputeID([]byte("overwrite"))

		require.NoError(t, b.Put(ctx, id, interfaces.ValueNamespace, []byte("v1")))
		require.NoError(t, b.Put(ctx, id, interfaces.ValueNamespace, []byte("v2")))

		got, err := b.Fetch(ctx, id, interfaces.ValueNamespace)
		require.NoError(t, err)
		assert.Equal(t, []byte("v2"), got)
	})

	t.Run("NamespacesAreSeparate", func(t *testing.T) {
		b := newBackend(t)
		id := interfaces.ComputeID([]byte("namespaced"))

		require.NoError(t, b.Put(ctx, id, interfaces.ProofNamespace, []byte("proof")))

		_, err := b.Fetch(ctx, id, interfaces.ValueNamespace)
		assert.ErrorIs(t, err, interfaces.ErrContentNotFound)

		got, err := b.Fetch(ctx, id, interfaces.ProofNamespace)
		require.NoError(t, err)
		assert.Equal(t, []byte("proof"), got)
	})

	t.Run("FetchMissing", func(t *testing.T) {
		b := newBackend(t)
		_, err := b.Fetch(ctx, interfaces.ComputeID([]byte("missing")), interfaces.ValueNamespace)
		assert.ErrorIs(t, err, interfaces.ErrContentNotFound)
	})

	t.Run("DeleteRemovesAndIsIdempotent", func(t *testing.T) {
		b := newBackend(t)
		id := interfaces.ComputeID([]byte("delete me"))

		require.NoError(t, b.Put(ctx, id, interfaces.ValueNamespace, []byte("x")))
		require.NoError(t, b.Delete(ctx, id, interfaces.ValueNamespace))

		_, err := b.Fetch(ctx, id, interfaces.ValueNamespace)
		assert.ErrorIs(t, err, interfaces.ErrContentNotFound)

		assert.NoError(t, b.Delete(ctx, id, interfaces.ValueNamespace))
	})

	t.Run("EmptyValue", func(t *testing.T) {
		b := newBackend(t)
		id := interfaces.ComputeID([]byte("empty"))

		require.NoError(t, b.Put(ctx, id, interfaces.ValueNamespace, []byte{}))
		got, err := b.Fetch(ctx, id, interfaces.ValueNamespace)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("Describes", func(t *testing.T) {
		b := newBackend(t)
		assert.True(t, b.Available(ctx))
		assert.NotEmpty(t, b.Name())
		assert.NotEmpty(t, b.LocationURI())
	})
}

// StorageCase supplies keys and values for RunStorageConformance.
// Key1 and Key2 must differ, as must Value1 and Value2.
type StorageCase[K comparable, V any] struct {
	New    func(t *testing.T) interfaces.Storage[K, V]
	Key1   K
	Key2   K
	Value1 V
	Value2 V
}

// RunStorageConformance checks the generic Storage contract.
func RunStorageConformance[K comparable, V any](t *testing.T, c StorageCase[K, V]) {
	t.Helper()
	ctx := context.Background()

	t.Run("SetThenGet", func(t *testing.T) {
		s := c.New(t)
		require.NoError(t, s.Set(ctx, c.Key1, c.Value1))

		got, ok, err := s.Get(ctx, c.Key1)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, c.Value1, got)
	})

	t.Run("GetAbsent", func(t *testing.T) {
		s := c.New(t)
		got, ok, err := s.Get(ctx, c.Key1)
		require.NoError(t, err)
		assert.False(t, ok)
		var zero V
		assert.Equal(t, zero, got)
	})

	t.Run("SetOverwrites", func(t *testing.T) {
		s := c.New(t)
		require.NoError(t, s.Set(ctx, c.Key1, c.Value1))
		require.NoError(t, s.Set(ctx, c.Key1, c.Value2))

		got, ok, err := s.Get(ctx, c.Key1)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, c.Value2, got)
	})

	t.Run("KeysAreIndependent", func(t *testing.T) {
		s := c.New(t)
		require.NoError(t, s.Set(ctx, c.Key1, c.Value1))

		ok, err := s.Exists(ctx, c.Key2)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("ExistsFollowsSetAndRemove", func(t *testing.T) {
		s := c.New(t)
		require.NoError(t, s.Set(ctx, c.Key1, c.Value1))

		ok, err := s.Exists(ctx, c.Key1)
		require.NoError(t, err)
		assert.True(t, ok)

		require.NoError(t, s.Remove(ctx, c.Key1))

		ok, err = s.Exists(ctx, c.Key1)
		require.NoError(t, err)
		assert.False(t, ok)

		_, ok, err = s.Get(ctx, c.Key1)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("RemoveAbsent", func(t *testing.T) {
		s := c.New(t)
		assert.NoError(t, s.Remove(ctx, c.Key2))
	})
}
