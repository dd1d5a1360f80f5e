package proofstore

import (
	"context"
	"time"

	"github.com/ruteri/unified-ledger/interfaces"
)

// ProofStoredEvent announces a successful write.
type ProofStoredEvent struct {
	ID       interfaces.ProofID     `json:"id"`
	Subject  interfaces.ContentID   `json:"subject"`
	Scheme   interfaces.ProofScheme `json:"scheme"`
	StoredAt time.Time              `json:"stored_at"`
}

// EventPublisher receives ProofStoredEvents.
type EventPublisher interface {
	Publish(ctx context.Context, event ProofStoredEvent) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, ProofStoredEvent) error { return nil }
