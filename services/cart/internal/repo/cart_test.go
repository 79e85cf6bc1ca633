package repo

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/bubba_express/pkg/pricing"
	"github.com/Skotchmaster/bubba_express/services/cart/internal/models"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	user := uuid.New()

	empty, err := s.Load(ctx, user)
	require.NoError(t, err)
	assert.True(t, empty.Empty())
	assert.NotEqual(t, uuid.Nil, empty.ID)
	assert.Equal(t, user, empty.UserID)

	empty.Lines = append(empty.Lines, pricing.Line{
		ID:        uuid.New(),
		Product:   pricing.Product{ID: uuid.New(), Name: "Taro Milk Tea", Price: decimal.NewFromInt(70), Stock: 3},
		Quantity:  2,
		Toppings:  []pricing.Option{},
		UnitPrice: decimal.NewFromInt(70),
	})
	require.NoError(t, s.Save(ctx, empty))

	got, err := s.Load(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, empty.ID, got.ID)
	require.Len(t, got.Lines, 1)
	assert.Equal(t, 2, got.Lines[0].Quantity)
	assert.True(t, decimal.NewFromInt(70).Equal(got.Lines[0].UnitPrice))
	assert.False(t, got.UpdatedAt.IsZero())

	require.NoError(t, s.Delete(ctx, user))
	fresh, err := s.Load(ctx, user)
	require.NoError(t, err)
	assert.True(t, fresh.Empty())
	assert.NotEqual(t, empty.ID, fresh.ID, "a cleared cart gets a new id")
}

func TestMemory(t *testing.T) {
	t.Parallel()
	exerciseStore(t, NewMemory())
}

func TestMemory_CopiesOnSave(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	cart := models.NewCart(uuid.New())
	require.NoError(t, m.Save(context.Background(), cart))

	cart.Lines = append(cart.Lines, pricing.Line{ID: uuid.New(), Quantity: 1})
	got, err := m.Load(context.Background(), cart.UserID)
	require.NoError(t, err)
	assert.True(t, got.Empty())
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })

	s := NewRedisStore(client, time.Minute)
	exerciseStore(t, s)

	user := uuid.New()
	require.NoError(t, s.Save(context.Background(), models.NewCart(user)))
	ttl, err := client.TTL(context.Background(), "cart:"+user.String()).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 50*time.Second)
}
