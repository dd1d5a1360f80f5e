package proofs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ruteri/unified-ledger/interfaces"
)

// SchemeVerifier checks signatures of a single scheme. The proof has already
// passed Validate and digest is ProofDigest(proof).
type SchemeVerifier interface {
	Scheme() interfaces.ProofScheme
	VerifyDigest(ctx context.Context, proof interfaces.Proof, digest []byte) (bool, error)
}

// Verifier dispatches proofs to the SchemeVerifier registered for their scheme.
type Verifier struct {
	mu      sync.RWMutex
	schemes map[interfaces.ProofScheme]SchemeVerifier
	log     *slog.Logger
}

var _ interfaces.ProofVerifier = (*Verifier)(nil)

// NewVerifier creates a verifier with the given scheme verifiers registered.
func NewVerifier(log *slog.Logger, schemes ...SchemeVerifier) *Verifier {
	if log == nil {
		log = slog.Default()
	}
	v := &Verifier{
		schemes: make(map[interfaces.ProofScheme]SchemeVerifier),
		log:     log,
	}
	for _, s := range schemes {
		v.Register(s)
	}
	return v
}

// NewDefaultVerifier registers every built-in scheme.
func NewDefaultVerifier(log *slog.Logger) *Verifier {
	return NewVerifier(log,
		Secp256k1Verifier{},
		Ed25519Verifier{},
		Dilithium3Verifier{},
		NewTDXVerifier(),
	)
}

// Register adds or replaces the verifier for s.Scheme().
func (v *Verifier) Register(s SchemeVerifier) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.schemes[s.Scheme()] = s
}

// Schemes returns the registered schemes.
func (v *Verifier) Schemes() []interfaces.ProofScheme {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]interfaces.ProofScheme, 0, len(v.schemes))
	for _, s := range interfaces.KnownSchemes {
		if _, ok := v.schemes[s]; ok {
			out = append(out, s)
		}
	}
	return out
}

// Verify validates the proof shape, then checks its signature.
func (v *Verifier) Verify(ctx context.Context, proof interfaces.Proof) (bool, error) {
	if err := proof.Validate(); err != nil {
		return false, err
	}

	v.mu.RLock()
	sv, ok := v.schemes[proof.Scheme]
	v.mu.RUnlock()
	if !ok {
		return false, fmt.Errorf("%w: no verifier registered for %q", interfaces.ErrUnsupportedScheme, proof.Scheme)
	}

	digest, err := ProofDigest(proof)
	if err != nil {
		return false, err
	}

	valid, err := sv.VerifyDigest(ctx, proof, digest)
	if err != nil {
		return false, err
	}

	v.log.Debug("Verified proof",
		slog.String("scheme", string(proof.Scheme)),
		slog.String("subject", proof.Subject.String()),
		slog.Bool("valid", valid))

	return valid, nil
}
