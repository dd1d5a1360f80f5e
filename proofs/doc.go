// Package proofs verifies and produces Unified Ledger proofs.
//
// A proof commits to Proof.SignedMessage hashed with Proof.HashAlg. Each scheme
// has a SchemeVerifier; Verifier dispatches on Proof.Scheme and implements
// interfaces.ProofVerifier.
//
// Supported schemes:
//
//	secp256k1    65-byte [R||S||V] signature, PublicKey is the signer address
//	ed25519      64-byte signature, PublicKey is the 32-byte key
//	dilithium3   Dilithium mode 3 signature (cloudflare/circl)
//	tdx-dcap     TDX quote whose report data is the digest, PublicKey is the MRTD
//
// Signers exist for every scheme. The TDX signer needs a quote provider and is
// therefore only usable inside a TD.
package proofs
