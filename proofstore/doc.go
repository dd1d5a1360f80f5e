// Package proofstore implements interfaces.ProofStore on top of any
// interfaces.Storage[ProofID, Proof].
//
// The store is backend-agnostic: tests use storage.MemoryStorage, deployments use
// storage.BackendStorage over a (possibly multi-) StorageBackend. Verification is
// delegated to an interfaces.ProofVerifier, proofs.Verifier by default.
//
// Successful writes are announced to an EventPublisher. RabbitMQPublisher sends
// them to an AMQP exchange; publish failures never fail the write.
package proofstore
