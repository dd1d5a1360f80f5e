package proofstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ruteri/unified-ledger/interfaces"
	"github.com/ruteri/unified-ledger/metrics"
	"github.com/ruteri/unified-ledger/proofs"
)

// Store persists proofs and verifies them.
type Store struct {
	proofs      interfaces.Storage[interfaces.ProofID, interfaces.Proof]
	verifier    interfaces.ProofVerifier
	verifyOnSet bool
	publisher   EventPublisher
	metrics     *metrics.StoreMetrics
	log         *slog.Logger
}

var _ interfaces.ProofStore = (*Store)(nil)

type Option func(*Store)

// WithVerifier replaces the default proofs.Verifier.
func WithVerifier(v interfaces.ProofVerifier) Option {
	return func(s *Store) { s.verifier = v }
}

// WithVerifyOnSet makes Set reject proofs that do not verify.
func WithVerifyOnSet(enabled bool) Option {
	return func(s *Store) { s.verifyOnSet = enabled }
}

// WithPublisher sets the receiver of ProofStoredEvents.
func WithPublisher(p EventPublisher) Option {
	return func(s *Store) { s.publisher = p }
}

func WithLogger(log *slog.Logger) Option {
	return func(s *Store) { s.log = log }
}

func WithMetrics(m *metrics.StoreMetrics) Option {
	return func(s *Store) { s.metrics = m }
}

// New creates a proof store over proofStorage.
func New(proofStorage interfaces.Storage[interfaces.ProofID, interfaces.Proof], opts ...Option) *Store {
	s := &Store{proofs: proofStorage}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if s.verifier == nil {
		s.verifier = proofs.NewDefaultVerifier(s.log)
	}
	if s.publisher == nil {
		s.publisher = NopPublisher{}
	}
	return s
}

// VerifyOnSet reports whether Set verifies before storing.
func (s *Store) VerifyOnSet() bool {
	return s.verifyOnSet
}

// Set stores proof under id, overwriting any previous proof.
func (s *Store) Set(ctx context.Context, id interfaces.ProofID, proof interfaces.Proof) error {
	return s.set(ctx, id, proof, s.verifyOnSet)
}

// SetVerified stores proof under id only if it verifies, regardless of the
// store's verify-on-set setting.
func (s *Store) SetVerified(ctx context.Context, id interfaces.ProofID, proof interfaces.Proof) error {
	return s.set(ctx, id, proof, true)
}

func (s *Store) set(ctx context.Context, id interfaces.ProofID, proof interfaces.Proof, verify bool) (err error) {
	start := time.Now()
	defer func() { s.metrics.Observe("set", resultOf(err), start) }()

	if verify {
		if err := s.mustVerify(ctx, proof); err != nil {
			return interfaces.NewOpError("set", "", id.String(), err)
		}
	}

	if err := s.proofs.Set(ctx, id, proof); err != nil {
		s.log.Error("Failed to store proof", slog.String("id", id.String()), "err", err)
		return interfaces.NewOpError("set", "", id.String(), err)
	}

	s.log.Debug("Stored proof",
		slog.String("id", id.String()),
		slog.String("scheme", string(proof.Scheme)),
		slog.String("subject", proof.Subject.String()))

	event := ProofStoredEvent{
		ID:       id,
		Subject:  proof.Subject,
		Scheme:   proof.Scheme,
		StoredAt: time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log.Warn("Failed to publish proof event", slog.String("id", id.String()), "err", err)
	}

	return nil
}

// Put stores proof under its content-addressed id and returns that id.
func (s *Store) Put(ctx context.Context, proof interfaces.Proof) (interfaces.ProofID, error) {
	id := interfaces.ComputeProofID(proof)
	if err := s.Set(ctx, id, proof); err != nil {
		return interfaces.ProofID{}, err
	}
	return id, nil
}

// Get returns the proof stored under id. Absence is (Proof{}, false, nil).
func (s *Store) Get(ctx context.Context, id interfaces.ProofID) (proof interfaces.Proof, ok bool, err error) {
	start := time.Now()
	defer func() {
		result := resultOf(err)
		if err == nil && !ok {
			result = metrics.ResultNotFound
		}
		s.metrics.Observe("get", result, start)
	}()

	proof, ok, err = s.proofs.Get(ctx, id)
	if err != nil {
		return interfaces.Proof{}, false, interfaces.NewOpError("get", "", id.String(), err)
	}
	return proof, ok, nil
}

// GetVerified returns the stored proof only if it still verifies.
// A stored proof that fails verification yields ErrInvalidProof.
func (s *Store) GetVerified(ctx context.Context, id interfaces.ProofID) (interfaces.Proof, bool, error) {
	proof, ok, err := s.Get(ctx, id)
	if err != nil || !ok {
		return interfaces.Proof{}, ok, err
	}
	if err := s.mustVerify(ctx, proof); err != nil {
		return interfaces.Proof{}, false, interfaces.NewOpError("get", "", id.String(), err)
	}
	return proof, true, nil
}

// Remove deletes the proof stored under id. Removing an absent proof succeeds.
func (s *Store) Remove(ctx context.Context, id interfaces.ProofID) (err error) {
	start := time.Now()
	defer func() { s.metrics.Observe("remove", resultOf(err), start) }()

	if err := s.proofs.Remove(ctx, id); err != nil {
		return interfaces.NewOpError("remove", "", id.String(), err)
	}
	return nil
}

// Verify reports whether proof is cryptographically valid.
func (s *Store) Verify(ctx context.Context, proof interfaces.Proof) (valid bool, err error) {
	start := time.Now()
	defer func() {
		result := resultOf(err)
		if err == nil && !valid {
			result = metrics.ResultInvalid
		}
		s.metrics.Observe("verify", result, start)
	}()

	return s.verifier.Verify(ctx, proof)
}

func (s *Store) mustVerify(ctx context.Context, proof interfaces.Proof) error {
	valid, err := s.Verify(ctx, proof)
	if err != nil {
		return err
	}
	if !valid {
		return fmt.Errorf("%w: signature does not verify", interfaces.ErrInvalidProof)
	}
	return nil
}

func resultOf(err error) string {
	switch {
	case err == nil:
		return metrics.ResultOK
	case errors.Is(err, interfaces.ErrContentNotFound):
		return metrics.ResultNotFound
	case errors.Is(err, interfaces.ErrInvalidProof),
		errors.Is(err, interfaces.ErrUnsupportedScheme),
		errors.Is(err, interfaces.ErrInvalidArgument):
		return metrics.ResultInvalid
	default:
		return metrics.ResultError
	}
}
