// Package interfaces defines the core types and capabilities of the Unified Ledger
// proof store, separating contracts from their implementations.
//
// # Identifiers
//
//   - ContentID: opaque 32-byte content-addressed identifier, usable as a map key.
//     Its binary layout is the 32 raw bytes with no length prefix; its text layout
//     is lower-case hex.
//   - ProofID: 32-byte identifier of a stored proof, distinct from ContentID.
//
// # Capabilities
//
// ProofStore persists proofs and verifies them. Storage[K, V] is a generic
// key/value capability; ExistsViaGet supplies the default Exists in terms of Get.
// StorageBackend is the byte-level contract every persistence engine implements
// (file, S3, IPFS, Vault, GitHub, Redis, MySQL, SQLite, memory).
//
// # Errors
//
// Failures are reported with sentinel errors (ErrContentNotFound,
// ErrBackendUnavailable, ErrInvalidProof, ...) wrapped in *OpError for context.
// IsRetryable separates transient failures from fatal ones.
package interfaces
