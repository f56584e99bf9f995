package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/afresh/afresh-web/pkg/circuitbreaker"
)

const redisKeyPrefix = "afresh:session:"

type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	MaxRetries   int
	DialTimeout  time.Duration
}

// RedisBackend stores slots in Redis so several instances can share sessions.
type RedisBackend struct {
	client *redis.Client
	cb     *circuitbreaker.CircuitBreaker
}

// NewRedisBackend connects to Redis and verifies the connection.
func NewRedisBackend(ctx context.Context, cfg RedisConfig) (*RedisBackend, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.MinIdleConns > 0 {
		opts.MinIdleConns = cfg.MinIdleConns
	}
	if cfg.MaxRetries != 0 {
		opts.MaxRetries = cfg.MaxRetries
	}
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}

	b := newRedisBackend(redis.NewClient(opts))
	if err := b.Ping(ctx); err != nil {
		b.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return b, nil
}

func newRedisBackend(client *redis.Client) *RedisBackend {
	return &RedisBackend{
		client: client,
		cb: circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
			Name:        "redis-session",
			MaxFailures: 5,
			Timeout:     5 * time.Second,
			IsFailure: func(err error) bool {
				return !errors.Is(err, redis.Nil)
			},
		}),
	}
}

func (b *RedisBackend) Name() string {
	return "redis"
}

func (b *RedisBackend) Load(ctx context.Context, id string) ([]byte, error) {
	var data []byte
	err := b.cb.Execute(func() error {
		var err error
		data, err = b.client.Get(ctx, redisKeyPrefix+id).Bytes()
		return err
	})
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoSlot
	}
	if err != nil {
		return nil, fmt.Errorf("load slot: %w", err)
	}
	return data, nil
}

func (b *RedisBackend) Save(ctx context.Context, id string, data []byte, ttl time.Duration) error {
	err := b.cb.Execute(func() error {
		return b.client.Set(ctx, redisKeyPrefix+id, data, ttl).Err()
	})
	if err != nil {
		return fmt.Errorf("save slot: %w", err)
	}
	return nil
}

func (b *RedisBackend) Delete(ctx context.Context, id string) error {
	err := b.cb.Execute(func() error {
		return b.client.Del(ctx, redisKeyPrefix+id).Err()
	})
	if err != nil {
		return fmt.Errorf("delete slot: %w", err)
	}
	return nil
}

func (b *RedisBackend) Ping(ctx context.Context) error {
	return b.cb.Execute(func() error {
		return b.client.Ping(ctx).Err()
	})
}

func (b *RedisBackend) Close() error {
	return b.client.Close()
}
