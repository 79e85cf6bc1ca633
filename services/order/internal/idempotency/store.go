package idempotency

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	DefaultTTL = 24 * time.Hour
	pending    = "pending"
)

var ErrInFlight = errors.New("a request with this idempotency key is still in progress")

// Store remembers which order a client-supplied key produced.
//
// Reserve returns ("", nil) when the caller now owns the key, the stored result when the key was already
// completed, or ErrInFlight while another request holds it.
type Store interface {
	Reserve(ctx context.Context, scope, key string) (string, error)
	Complete(ctx context.Context, scope, key, result string) error
	Release(ctx context.Context, scope, key string) error
}

type RedisStore struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{Client: client, TTL: ttl}
}

func redisKey(scope, key string) string {
	return fmt.Sprintf("order-idempotency:%s:%s", scope, key)
}

func (s *RedisStore) Reserve(ctx context.Context, scope, key string) (string, error) {
	k := redisKey(scope, key)

	ok, err := s.Client.SetNX(ctx, k, pending, s.TTL).Result()
	if err != nil {
		return "", fmt.Errorf("idempotency reserve: %w", err)
	}
	if ok {
		return "", nil
	}

	v, err := s.Client.Get(ctx, k).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrInFlight
	}
	if err != nil {
		return "", fmt.Errorf("idempotency lookup: %w", err)
	}
	if v == pending {
		return "", ErrInFlight
	}
	return v, nil
}

func (s *RedisStore) Complete(ctx context.Context, scope, key, result string) error {
	return s.Client.Set(ctx, redisKey(scope, key), result, redis.KeepTTL).Err()
}

func (s *RedisStore) Release(ctx context.Context, scope, key string) error {
	return s.Client.Del(ctx, redisKey(scope, key)).Err()
}

// Memory is a process-local Store for tests and single-instance runs without Redis.
type Memory struct {
	mu   sync.Mutex
	keys map[string]string
}

func NewMemory() *Memory {
	return &Memory{keys: make(map[string]string)}
}

func (m *Memory) Reserve(_ context.Context, scope, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := redisKey(scope, key)
	v, ok := m.keys[k]
	switch {
	case !ok:
		m.keys[k] = pending
		return "", nil
	case v == pending:
		return "", ErrInFlight
	default:
		return v, nil
	}
}

func (m *Memory) Complete(_ context.Context, scope, key, result string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[redisKey(scope, key)] = result
	return nil
}

func (m *Memory) Release(_ context.Context, scope, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, redisKey(scope, key))
	return nil
}
