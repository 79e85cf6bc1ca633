package repo

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/bubba_express/pkg/db/dbtest"
	"github.com/Skotchmaster/bubba_express/services/catalog/internal/models"
)

func seeded(t *testing.T) (*GormRepo, []models.Product) {
	t.Helper()

	r := &GormRepo{DB: dbtest.Open(t, &models.Product{}, &models.StockReservation{})}
	products := []models.Product{
		{Name: "Taro Milk Tea", Description: "té de taro", Category: "Bubble Tea", Price: decimal.NewFromInt(70), Stock: 4},
		{Name: "Iced Americano", Description: "espresso doble", Category: "Café", Price: decimal.NewFromInt(55), Stock: 10, Popular: true},
		{Name: "Brown Sugar Boba", Description: "azúcar morena", Category: "Bubble Tea", Price: decimal.NewFromInt(75), Stock: 0, Popular: true},
	}
	require.NoError(t, r.CreateProducts(context.Background(), products))
	return r, products
}

func names(ps []models.Product) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.Name)
	}
	return out
}

func TestListProducts_Filters(t *testing.T) {
	t.Parallel()

	r, _ := seeded(t)

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{name: "everything sorted by name", filter: Filter{}, want: []string{"Brown Sugar Boba", "Iced Americano", "Taro Milk Tea"}},
		{name: "todo is everything", filter: Filter{Category: CategoryAll}, want: []string{"Brown Sugar Boba", "Iced Americano", "Taro Milk Tea"}},
		{name: "popular flag", filter: Filter{Category: CategoryPopular}, want: []string{"Brown Sugar Boba", "Iced Americano"}},
		{name: "category equality", filter: Filter{Category: "Bubble Tea"}, want: []string{"Brown Sugar Boba", "Taro Milk Tea"}},
		{name: "case-insensitive name", filter: Filter{Query: "TARO"}, want: []string{"Taro Milk Tea"}},
		{name: "category and query", filter: Filter{Category: "Café", Query: "boba"}, want: []string{}},
	}

	for _, tt := range tests {
		total, items, err := r.ListProducts(context.Background(), tt.filter, 0, 10)
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.want, names(items), tt.name)
		assert.EqualValues(t, len(tt.want), total, tt.name)
	}
}

func TestListProducts_Pagination(t *testing.T) {
	t.Parallel()

	r, _ := seeded(t)
	total, items, err := r.ListProducts(context.Background(), Filter{}, 2, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Equal(t, []string{"Taro Milk Tea"}, names(items))
}

func TestSearchLike(t *testing.T) {
	t.Parallel()

	r, _ := seeded(t)
	_, items, err := r.SearchLike(context.Background(), "espresso", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"Iced Americano"}, names(items))

	_, items, err = r.SearchLike(context.Background(), "bubble", 0, 10)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestAdjustStock_ClampsAtZero(t *testing.T) {
	t.Parallel()

	r, products := seeded(t)
	ctx := context.Background()
	id := products[0].ID

	require.NoError(t, r.AdjustStock(ctx, id, -3))
	p, err := r.GetProduct(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Stock)

	require.NoError(t, r.AdjustStock(ctx, id, -5))
	p, err = r.GetProduct(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 0, p.Stock)

	require.NoError(t, r.AdjustStock(ctx, id, 2))
	p, err = r.GetProduct(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 2, p.Stock)

	assert.ErrorIs(t, r.AdjustStock(ctx, uuid.New(), 1), gorm.ErrRecordNotFound)
}

func TestDeleteAndSetImage_Missing(t *testing.T) {
	t.Parallel()

	r, products := seeded(t)
	ctx := context.Background()

	assert.ErrorIs(t, r.DeleteProduct(ctx, uuid.New()), gorm.ErrRecordNotFound)
	assert.ErrorIs(t, r.SetImage(ctx, uuid.New(), "/x.png"), gorm.ErrRecordNotFound)

	require.NoError(t, r.DeleteProduct(ctx, products[1].ID))
	n, err := r.CountProducts(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}
