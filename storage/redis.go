package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/ruteri/unified-ledger/interfaces"
)

const defaultRedisPrefix = "ul:"

// RedisBackend stores entries as plain Redis strings under <prefix><namespace>:<hex id>.
type RedisBackend struct {
	client      redis.UniversalClient
	prefix      string
	addr        string
	log         *slog.Logger
	locationURI string
}

// NewRedisBackend creates a Redis backend from parsed client options.
func NewRedisBackend(opts *redis.Options, prefix string, log *slog.Logger) *RedisBackend {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return newRedisBackendWithClient(redis.NewClient(opts), opts.Addr, opts.DB, prefix, log)
}

func newRedisBackendWithClient(client redis.UniversalClient, addr string, db int, prefix string, log *slog.Logger) *RedisBackend {
	if log == nil {
		log = slog.Default()
	}
	return &RedisBackend{
		client:      client,
		prefix:      prefix,
		addr:        addr,
		log:         log,
		locationURI: fmt.Sprintf("redis://%s/%d?prefix=%s", addr, db, prefix),
	}
}

// Fetch returns the value stored for id.
func (b *RedisBackend) Fetch(ctx context.Context, id interfaces.ContentID, ns interfaces.Namespace) ([]byte, error) {
	start := time.Now()
	key := b.wrapperKey(id, ns)

	data, err := b.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, interfaces.ErrContentNotFound
	}
	if err != nil {
		b.log.Error("Failed to read from Redis",
			slog.String("key", key),
			"err", err)
		return nil, fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}

	b.log.Debug("Fetched content from Redis",
		slog.String("key", key),
		slog.Int("size", len(data)),
		slog.Duration("duration", time.Since(start)))

	return data, nil
}

// Put sets the value for id without expiration.
func (b *RedisBackend) Put(ctx context.Context, id interfaces.ContentID, ns interfaces.Namespace, data []byte) error {
	if err := b.client.Set(ctx, b.wrapperKey(id, ns), data, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}
	return nil
}

// Delete removes the key for id, doing nothing if it doesn't exist.
func (b *RedisBackend) Delete(ctx context.Context, id interfaces.ContentID, ns interfaces.Namespace) error {
	if err := b.client.Del(ctx, b.wrapperKey(id, ns)).Err(); err != nil {
		return fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}
	return nil
}

// Available pings the Redis server.
func (b *RedisBackend) Available(ctx context.Context) bool {
	if err := b.client.Ping(ctx).Err(); err != nil {
		b.log.Debug("Redis backend unavailable", "err", err)
		return false
	}
	return true
}

// Name returns a unique identifier for this storage backend.
func (b *RedisBackend) Name() string {
	return fmt.Sprintf("redis-%s", b.addr)
}

// LocationURI returns the URI that identifies this storage backend.
func (b *RedisBackend) LocationURI() string {
	return b.locationURI
}

// Close releases the client connections.
func (b *RedisBackend) Close() error {
	return b.client.Close()
}

func (b *RedisBackend) wrapperKey(id interfaces.ContentID, ns interfaces.Namespace) string {
	return fmt.Sprintf("%s%s:%s", b.prefix, ns, id)
}
