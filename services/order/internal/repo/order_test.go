package repo

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/bubba_express/pkg/db/dbtest"
	"github.com/Skotchmaster/bubba_express/pkg/orderstatus"
	"github.com/Skotchmaster/bubba_express/pkg/pricing"
	"github.com/Skotchmaster/bubba_express/services/order/internal/models"
)

func newRepo(t *testing.T) *GormRepo {
	t.Helper()
	return &GormRepo{DB: dbtest.Open(t, &models.Order{}, &models.OrderLine{})}
}

func seedOrder(t *testing.T, r *GormRepo, userID uuid.UUID, status orderstatus.Status, total string) *models.Order {
	t.Helper()

	o := &models.Order{
		UserID:         userID,
		Status:         status,
		Subtotal:       decimal.RequireFromString(total),
		Total:          decimal.RequireFromString(total),
		PickupLocation: "barra",
		Lines: []models.OrderLine{
			{Position: 1, ProductID: uuid.New(), ProductName: "Taro", Quantity: 1, UnitPrice: decimal.NewFromInt(65), BasePrice: decimal.NewFromInt(55),
				Milk: &pricing.Option{ID: "almendra", Label: "Almendra", Delta: decimal.NewFromInt(10)}, Toppings: []pricing.Option{}},
			{Position: 0, ProductID: uuid.New(), ProductName: "Torta", Quantity: 2, UnitPrice: decimal.NewFromInt(40), BasePrice: decimal.NewFromInt(40), Toppings: []pricing.Option{}},
		},
	}
	require.NoError(t, r.CreateOrder(context.Background(), o))
	return o
}

func TestCreateAndGetOrder(t *testing.T) {
	t.Parallel()

	r := newRepo(t)
	o := seedOrder(t, r, uuid.New(), orderstatus.Confirmado, "145")

	got, err := r.GetOrder(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, orderstatus.Confirmado, got.Status)
	require.Len(t, got.Lines, 2)
	assert.Equal(t, "Torta", got.Lines[0].ProductName)
	require.NotNil(t, got.Lines[1].Milk)
	assert.Equal(t, "almendra", got.Lines[1].Milk.ID)
	assert.True(t, decimal.NewFromInt(10).Equal(got.Lines[1].Milk.Delta))
	assert.True(t, decimal.NewFromInt(145).Equal(got.Total))

	_, err = r.GetOrder(context.Background(), uuid.New())
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestListOrders_NewestFirst(t *testing.T) {
	t.Parallel()

	r := newRepo(t)
	user := uuid.New()
	first := seedOrder(t, r, user, orderstatus.Confirmado, "10")
	time.Sleep(5 * time.Millisecond)
	second := seedOrder(t, r, user, orderstatus.Listo, "20")
	seedOrder(t, r, uuid.New(), orderstatus.Confirmado, "30")

	total, orders, err := r.ListOrders(context.Background(), user, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, orders, 2)
	assert.Equal(t, second.ID, orders[0].ID)
	assert.Equal(t, first.ID, orders[1].ID)

	total, orders, err = r.ListAllOrders(context.Background(), orderstatus.Confirmado, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, orders, 2)

	total, _, err = r.ListAllOrders(context.Background(), "", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
}

func TestCompareAndSetStatus(t *testing.T) {
	t.Parallel()

	r := newRepo(t)
	o := seedOrder(t, r, uuid.New(), orderstatus.Confirmado, "10")
	ctx := context.Background()

	ok, err := r.CompareAndSetStatus(ctx, o.ID, orderstatus.Preparando, orderstatus.Listo)
	require.NoError(t, err)
	assert.False(t, ok, "stale source state must not apply")

	ok, err = r.CompareAndSetStatus(ctx, o.ID, orderstatus.Confirmado, orderstatus.Preparando)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.CompareAndSetStatus(ctx, uuid.New(), orderstatus.Confirmado, orderstatus.Preparando)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCompareAndSetStatus_ConcurrentSingleWinner(t *testing.T) {
	t.Parallel()

	r := newRepo(t)
	o := seedOrder(t, r, uuid.New(), orderstatus.Confirmado, "10")

	var wins atomic.Int32
	var wg sync.WaitGroup
	targets := []orderstatus.Status{orderstatus.Preparando, orderstatus.Cancelado, orderstatus.Preparando, orderstatus.Cancelado}
	for _, to := range targets {
		wg.Add(1)
		go func(to orderstatus.Status) {
			defer wg.Done()
			ok, err := r.CompareAndSetStatus(context.Background(), o.ID, orderstatus.Confirmado, to)
			assert.NoError(t, err)
			if ok {
				wins.Add(1)
			}
		}(to)
	}
	wg.Wait()

	assert.EqualValues(t, 1, wins.Load())
}

func TestRewardTotals_SkipsCancelled(t *testing.T) {
	t.Parallel()

	r := newRepo(t)
	user := uuid.New()
	seedOrder(t, r, user, orderstatus.Entregado, "151")
	seedOrder(t, r, user, orderstatus.Cancelado, "99")
	seedOrder(t, r, user, orderstatus.Confirmado, "47")

	totals, err := r.RewardTotals(context.Background(), user)
	require.NoError(t, err)
	require.Len(t, totals, 2)

	sum := decimal.Zero
	for _, v := range totals {
		sum = sum.Add(v)
	}
	assert.True(t, decimal.NewFromInt(198).Equal(sum))
}
