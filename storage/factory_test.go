package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/ruteri/unified-ledger/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustLocation(t *testing.T, uri string) interfaces.StorageBackendLocation {
	t.Helper()
	loc, err := interfaces.NewStorageBackendLocation(uri)
	require.NoError(t, err)
	return loc
}

func TestStorageBackendFactory_StorageBackendFor(t *testing.T) {
	dir := t.TempDir()
	factory := NewStorageBackendFactory(discardLogger())

	tests := []struct {
		name     string
		uri      string
		wantType interface{}
		wantName string
	}{
		{name: "memory", uri: "memory://cache", wantType: &MemoryBackend{}, wantName: "memory-cache"},
		{name: "file", uri: "file://" + filepath.Join(dir, "files"), wantType: &FileBackend{}, wantName: "file-files"},
		{name: "s3", uri: "s3://key:secret@bucket/prefix?region=eu-west-1", wantType: &S3Backend{}, wantName: "s3-bucket"},
		{name: "ipfs", uri: "ipfs://localhost:5001/?root=/ledger", wantType: &IPFSBackend{}, wantName: "ipfs-localhost-5001"},
		{name: "vault", uri: "vault://vault:8200/secret/ledger?tls=false&token=t", wantType: &VaultBackend{}, wantName: "vault-secret-ledger"},
		{name: "github", uri: "github://owner/repo?ref=main", wantType: &GitHubBackend{}, wantName: "github-owner-repo"},
		{name: "redis", uri: "redis://:pw@localhost:6379/1?prefix=test:", wantType: &RedisBackend{}, wantName: "redis-localhost:6379"},
		{name: "sqlite", uri: "sqlite://" + filepath.Join(dir, "db", "ledger.db"), wantType: &SQLiteBackend{}, wantName: "sqlite-ledger.db"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend, err := factory.StorageBackendFor(mustLocation(t, tt.uri))
			require.NoError(t, err)
			assert.IsType(t, tt.wantType, backend)
			assert.Equal(t, tt.wantName, backend.Name())
		})
	}
}

func TestStorageBackendFactory_InvalidLocations(t *testing.T) {
	factory := NewStorageBackendFactory(discardLogger())

	tests := []struct {
		name string
		uri  string
	}{
		{name: "github without repo", uri: "github://owner"},
		{name: "s3 without bucket", uri: "s3:///prefix"},
		{name: "mysql without database", uri: "mysql://user:pass@db:3306"},
		{name: "ipfs bad timeout", uri: "ipfs://localhost:5001/?timeout=soon"},
		{name: "redis bad option", uri: "redis://localhost:6379/0?bogus=1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := factory.StorageBackendFor(mustLocation(t, tt.uri))
			assert.ErrorIs(t, err, interfaces.ErrInvalidLocationURI)
		})
	}
}

func TestStorageBackendFactory_MemoryIsSharedByName(t *testing.T) {
	ctx := context.Background()
	factory := NewStorageBackendFactory(discardLogger())

	a, err := factory.StorageBackendFor(mustLocation(t, "memory://shared"))
	require.NoError(t, err)
	b, err := factory.StorageBackendFor(mustLocation(t, "memory://shared"))
	require.NoError(t, err)

	id := interfaces.ComputeID([]byte("x"))
	require.NoError(t, a.Put(ctx, id, interfaces.ValueNamespace, []byte("v")))
	data, err := b.Fetch(ctx, id, interfaces.ValueNamespace)
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), data)
}

func TestStorageBackendFactory_CreateMultiBackend(t *testing.T) {
	factory := NewStorageBackendFactory(discardLogger())

	single, err := factory.CreateMultiBackend([]interfaces.StorageBackendLocation{mustLocation(t, "memory://one")})
	require.NoError(t, err)
	assert.IsType(t, &MemoryBackend{}, single)

	multi, err := factory.CreateMultiBackend([]interfaces.StorageBackendLocation{
		mustLocation(t, "memory://one"),
		mustLocation(t, "github://owner"),
		mustLocation(t, "file://"+t.TempDir()),
	})
	require.NoError(t, err)
	require.IsType(t, &MultiStorageBackend{}, multi)
	assert.Len(t, multi.(*MultiStorageBackend).Backends(), 2)

	_, err = factory.CreateMultiBackend([]interfaces.StorageBackendLocation{mustLocation(t, "github://owner")})
	assert.ErrorIs(t, err, interfaces.ErrInvalidLocationURI)
}

func TestRedactURI(t *testing.T) {
	assert.Equal(t, "s3://key:%2A%2A%2A@bucket/p", redactURI("s3://key:secret@bucket/p"))
	assert.Equal(t, "vault://host/secret?token=%2A%2A%2A", redactURI("vault://host/secret?token=abc"))
	assert.Equal(t, "memory://x", redactURI("memory://x"))
}
