package proofstore

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/ruteri/unified-ledger/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type fakeChannel struct {
	mu     sync.Mutex
	sent   []published
	err    error
	closed bool
}

func (c *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, published{exchange: exchange, key: key, msg: msg})
	return nil
}

func (c *fakeChannel) Close() error {
	c.closed = true
	return nil
}

func TestRabbitMQPublisher(t *testing.T) {
	ch := &fakeChannel{}
	p := newRabbitMQPublisherWithChannel(ch, "ul.proofs", "proof.stored")

	event := ProofStoredEvent{
		ID:       interfaces.ProofID{1, 2, 3},
		Subject:  interfaces.ComputeID([]byte("doc")),
		Scheme:   interfaces.SchemeEd25519,
		StoredAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	require.NoError(t, p.Publish(context.Background(), event))

	require.Len(t, ch.sent, 1)
	sent := ch.sent[0]
	assert.Equal(t, "ul.proofs", sent.exchange)
	assert.Equal(t, "proof.stored", sent.key)
	assert.Equal(t, "application/json", sent.msg.ContentType)
	assert.Equal(t, amqp.Persistent, sent.msg.DeliveryMode)
	assert.NotEmpty(t, sent.msg.MessageId)

	var body map[string]any
	require.NoError(t, json.Unmarshal(sent.msg.Body, &body))
	assert.Equal(t, event.ID.String(), body["id"])
	assert.Equal(t, event.Subject.String(), body["subject"])
	assert.Equal(t, "ed25519", body["scheme"])
	assert.Equal(t, "2026-01-02T03:04:05Z", body["stored_at"])

	require.NoError(t, p.Close())
	assert.True(t, ch.closed)
}

func TestRabbitMQPublisherConcurrent(t *testing.T) {
	ch := &fakeChannel{}
	p := newRabbitMQPublisherWithChannel(ch, "x", "k")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, p.Publish(context.Background(), ProofStoredEvent{ID: interfaces.ProofID{byte(i)}}))
		}(i)
	}
	wg.Wait()
	assert.Len(t, ch.sent, 20)
}

func TestRabbitMQPublisherError(t *testing.T) {
	brokerErr := errors.New("channel closed")
	p := newRabbitMQPublisherWithChannel(&fakeChannel{err: brokerErr}, "x", "k")
	assert.ErrorIs(t, p.Publish(context.Background(), ProofStoredEvent{}), brokerErr)
}

func TestRabbitMQConfig(t *testing.T) {
	_, err := NewRabbitMQPublisher(RabbitMQConfig{})
	assert.Error(t, err)

	cfg := RabbitMQConfig{URL: "amqp://localhost"}.withDefaults()
	assert.Equal(t, defaultExchange, cfg.Exchange)
	assert.Equal(t, amqp.ExchangeTopic, cfg.ExchangeType)
	assert.Equal(t, defaultRoutingKey, cfg.RoutingKey)

	cfg = RabbitMQConfig{Exchange: "custom", RoutingKey: "r"}.withDefaults()
	assert.Equal(t, "custom", cfg.Exchange)
	assert.Equal(t, "r", cfg.RoutingKey)
}
