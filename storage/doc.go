// Package storage provides byte-level storage backends and the typed key/value
// stores built on top of them.
//
// Every backend implements interfaces.StorageBackend: entries are keyed by a
// 32-byte ContentID inside a Namespace, so proofs and generic values never collide
// even when they share a backend.
//
//   - MemoryBackend for tests and single-process deployments
//   - FileBackend for local disks, written through temp-file renames
//   - S3Backend for S3-compatible object storage
//   - IPFSBackend on the mutable file system of an IPFS node
//   - VaultBackend on a Vault KV v2 mount
//   - GitHubBackend, read-only, over a repository's contents
//   - RedisBackend, MySQLBackend and SQLiteBackend for database-backed deployments
//
// # Storage URI Format
//
// Storage backends are specified using URI format:
//
//	[scheme]://[auth@]host[:port][/path][?params]
//
// Supported URI schemes:
//
//   - memory://name
//   - file:///var/lib/ledger/
//   - s3://[key:secret@]bucket-name/prefix/?region=us-west-2&endpoint=http://minio:9000
//   - ipfs://localhost:5001/?root=/ul&timeout=30s
//   - vault://vault.example.com:8200/secret/ledger?token=...
//   - github://owner/repo?ref=main
//   - redis://:password@localhost:6379/0?prefix=ul:
//   - mysql://user:pass@db:3306/ledger
//   - sqlite:///var/lib/ledger/ledger.db
//
// Layouts per backend:
//
//	file     <dir>/<namespace>/<hex id>
//	s3       <prefix>/<namespace>/<hex id>
//	ipfs     <root>/<namespace>/<hex id>
//	vault    <mount>/data/<path>/<namespace>/<hex id>, field "content" (base64)
//	github   <namespace>/<hex id> at ref
//	redis    <prefix><namespace>:<hex id>
//	sql      table ul_entries (namespace, id, data, updated_at)
//
// # Redundancy
//
// StorageBackendFactory.CreateMultiBackend combines several locations into a
// MultiStorageBackend. Fetch tries members in order and returns the first hit.
// Put and Delete go to every writable member and fail with ErrBackendUnavailable
// unless all of them applied the change, including members that are down.
// Read-only members are skipped for writes.
//
// Locations can also be published in DNS as TXT records of the form
// "ul-storage=<uri>" and resolved with LocationResolver.
//
// # Typed storage
//
// BackendStorage adapts a backend namespace to interfaces.Storage for any key type
// whose underlying type is [32]byte, encoding values with a Codec (JSON by default).
// MemoryStorage is a map-backed interfaces.Storage for arbitrary comparable keys.
package storage
