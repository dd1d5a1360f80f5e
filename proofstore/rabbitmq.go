package proofstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// RabbitMQConfig describes where proof events are published.
type RabbitMQConfig struct {
	URL          string
	Exchange     string
	ExchangeType string
	RoutingKey   string
}

const (
	defaultExchange   = "ul.proofs"
	defaultRoutingKey = "proof.stored"
)

type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// RabbitMQPublisher publishes ProofStoredEvents as persistent JSON messages.
type RabbitMQPublisher struct {
	conn       *amqp.Connection
	exchange   string
	routingKey string

	// amqp channels are not safe for concurrent publishing
	mu sync.Mutex
	ch amqpChannel
}

var _ EventPublisher = (*RabbitMQPublisher)(nil)

// NewRabbitMQPublisher connects to RabbitMQ and declares a durable exchange.
func NewRabbitMQPublisher(cfg RabbitMQConfig) (*RabbitMQPublisher, error) {
	if cfg.URL == "" {
		return nil, errors.New("RabbitMQ URL must not be empty")
	}
	cfg = cfg.withDefaults()

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open RabbitMQ channel: %w", err)
	}
	if err := ch.ExchangeDeclare(cfg.Exchange, cfg.ExchangeType, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare RabbitMQ exchange: %w", err)
	}

	p := newRabbitMQPublisherWithChannel(ch, cfg.Exchange, cfg.RoutingKey)
	p.conn = conn
	return p, nil
}

func newRabbitMQPublisherWithChannel(ch amqpChannel, exchange, routingKey string) *RabbitMQPublisher {
	return &RabbitMQPublisher{ch: ch, exchange: exchange, routingKey: routingKey}
}

func (c RabbitMQConfig) withDefaults() RabbitMQConfig {
	if c.Exchange == "" {
		c.Exchange = defaultExchange
	}
	if c.ExchangeType == "" {
		c.ExchangeType = amqp.ExchangeTopic
	}
	if c.RoutingKey == "" {
		c.RoutingKey = defaultRoutingKey
	}
	return c
}

// Publish sends event to the configured exchange.
func (p *RabbitMQPublisher) Publish(ctx context.Context, event ProofStoredEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode proof event: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Type:         "proof.stored",
		Body:         body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ch.PublishWithContext(ctx, p.exchange, p.routingKey, false, false, msg); err != nil {
		return fmt.Errorf("failed to publish proof event: %w", err)
	}
	return nil
}

// Close releases the channel and connection.
func (p *RabbitMQPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	if p.ch != nil {
		errs = append(errs, p.ch.Close())
	}
	if p.conn != nil {
		errs = append(errs, p.conn.Close())
	}
	return errors.Join(errs...)
}
