package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/Skotchmaster/bubba_express/services/cart/internal/models"
)

const DefaultTTL = 2 * time.Hour

// Store keeps one cart document per user. Load returns a fresh empty cart when none exists.
type Store interface {
	Load(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	Save(ctx context.Context, cart *models.Cart) error
	Delete(ctx context.Context, userID uuid.UUID) error
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

func key(userID uuid.UUID) string {
	return "cart:" + userID.String()
}

// Load reads the cart and pushes its expiry out, so an active session keeps its cart.
func (s *RedisStore) Load(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	k := key(userID)

	var get *redis.StringCmd
	_, err := s.Client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		get = p.Get(ctx, k)
		p.Expire(ctx, k, s.TTL)
		return nil
	})
	if errors.Is(err, redis.Nil) {
		return models.NewCart(userID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}

	var cart models.Cart
	if err := json.Unmarshal([]byte(get.Val()), &cart); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	return &cart, nil
}

func (s *RedisStore) Save(ctx context.Context, cart *models.Cart) error {
	cart.UpdatedAt = time.Now().UTC()
	b, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	return s.Client.Set(ctx, key(cart.UserID), b, s.TTL).Err()
}

func (s *RedisStore) Delete(ctx context.Context, userID uuid.UUID) error {
	return s.Client.Del(ctx, key(userID)).Err()
}

// Memory is a process-local Store. Carts are copied through JSON so callers never share slices.
type Memory struct {
	mu    sync.Mutex
	carts map[uuid.UUID][]byte
}

func NewMemory() *Memory {
	return &Memory{carts: make(map[uuid.UUID][]byte)}
}

func (m *Memory) Load(_ context.Context, userID uuid.UUID) (*models.Cart, error) {
	m.mu.Lock()
	b, ok := m.carts[userID]
	m.mu.Unlock()
	if !ok {
		return models.NewCart(userID), nil
	}
	var cart models.Cart
	if err := json.Unmarshal(b, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (m *Memory) Save(_ context.Context, cart *models.Cart) error {
	cart.UpdatedAt = time.Now().UTC()
	b, err := json.Marshal(cart)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts[cart.UserID] = b
	return nil
}

func (m *Memory) Delete(_ context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, userID)
	return nil
}
