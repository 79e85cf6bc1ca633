package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/bubba_express/pkg/db/dbtest"
	"github.com/Skotchmaster/bubba_express/pkg/mykafka"
	"github.com/Skotchmaster/bubba_express/pkg/objectstore"
	"github.com/Skotchmaster/bubba_express/services/catalog/internal/models"
	"github.com/Skotchmaster/bubba_express/services/catalog/internal/repo"
	"github.com/Skotchmaster/bubba_express/services/catalog/internal/transport"
)

type fakeIndex struct {
	docs      map[uuid.UUID]models.Product
	searchErr error
}

func (f *fakeIndex) Put(_ context.Context, p *models.Product) error {
	f.docs[p.ID] = *p
	return nil
}

func (f *fakeIndex) Remove(_ context.Context, id uuid.UUID) error {
	delete(f.docs, id)
	return nil
}

func (f *fakeIndex) Search(_ context.Context, q string, _, _ int) (int64, []models.Product, error) {
	if f.searchErr != nil {
		return 0, nil, f.searchErr
	}
	var out []models.Product
	for _, p := range f.docs {
		if strings.Contains(strings.ToLower(p.Name), strings.ToLower(q)) {
			out = append(out, p)
		}
	}
	return int64(len(out)), out, nil
}

type env struct {
	svc    *CatalogService
	index  *fakeIndex
	events *mykafka.Recorder
	images *objectstore.Memory
}

func newEnv(t *testing.T) *env {
	t.Helper()
	idx := &fakeIndex{docs: map[uuid.UUID]models.Product{}}
	events := &mykafka.Recorder{}
	images := &objectstore.Memory{}
	return &env{
		svc: &CatalogService{
			Repo:     &repo.GormRepo{DB: dbtest.Open(t, &models.Product{}, &models.StockReservation{})},
			Index:    idx,
			Producer: events,
			Images:   images,
		},
		index:  idx,
		events: events,
		images: images,
	}
}

func (e *env) create(t *testing.T, name string, stock int) *models.Product {
	t.Helper()
	p, err := e.svc.CreateProduct(context.Background(), transport.CreateProductRequest{
		Name: name, Price: decimal.NewFromInt(70), Stock: stock,
	})
	require.NoError(t, err)
	return p
}

func lastEvent(t *testing.T, r *mykafka.Recorder) mykafka.ProductEvent {
	t.Helper()
	events := r.Events()
	require.NotEmpty(t, events)
	var ev mykafka.ProductEvent
	require.NoError(t, json.Unmarshal(events[len(events)-1].Value, &ev))
	return ev
}

func TestCreateProduct_Defaults(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	p := e.create(t, "  Taro Milk Tea ", 5)

	assert.Equal(t, "Taro Milk Tea", p.Name)
	assert.Equal(t, models.DefaultCategory, p.Category)
	assert.Equal(t, models.DefaultImage, p.Image)
	assert.Equal(t, models.DefaultRating, p.Rating)
	assert.Contains(t, e.index.docs, p.ID)

	ev := lastEvent(t, e.events)
	assert.Equal(t, mykafka.EventProductCreated, ev.Type)
	assert.Equal(t, p.ID, ev.ProductID)
	assert.Equal(t, 5, ev.Stock)
}

func TestCreateProduct_Validation(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	tests := []struct {
		name string
		req  transport.CreateProductRequest
	}{
		{name: "blank name", req: transport.CreateProductRequest{Name: "  ", Price: decimal.NewFromInt(1)}},
		{name: "negative price", req: transport.CreateProductRequest{Name: "x", Price: decimal.NewFromInt(-1)}},
		{name: "negative stock", req: transport.CreateProductRequest{Name: "x", Price: decimal.NewFromInt(1), Stock: -1}},
	}
	for _, tt := range tests {
		_, err := e.svc.CreateProduct(context.Background(), tt.req)
		assert.ErrorIs(t, err, ErrValidation, tt.name)
	}
	assert.Empty(t, e.events.Events())
}

func TestPatchProduct(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	ctx := context.Background()
	p := e.create(t, "Thai Tea", 3)

	price := decimal.RequireFromString("72.50")
	popular := true
	got, err := e.svc.PatchProduct(ctx, p.ID, transport.PatchProductRequest{Price: &price, Popular: &popular})
	require.NoError(t, err)
	assert.True(t, price.Equal(got.Price))
	assert.True(t, got.Popular)
	assert.Equal(t, "Thai Tea", got.Name)
	assert.Equal(t, mykafka.EventProductUpdated, lastEvent(t, e.events).Type)

	negative := -2
	_, err = e.svc.PatchProduct(ctx, p.ID, transport.PatchProductRequest{Stock: &negative})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = e.svc.PatchProduct(ctx, uuid.New(), transport.PatchProductRequest{Popular: &popular})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteProduct(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	ctx := context.Background()
	p := e.create(t, "Iced Americano", 3)

	require.NoError(t, e.svc.DeleteProduct(ctx, p.ID))
	assert.NotContains(t, e.index.docs, p.ID)
	assert.Equal(t, mykafka.EventProductDeleted, lastEvent(t, e.events).Type)

	_, err := e.svc.GetProduct(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, e.svc.DeleteProduct(ctx, p.ID), ErrNotFound)
}

func TestSearchProducts(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	ctx := context.Background()
	e.create(t, "Lavender Latte", 3)

	_, _, err := e.svc.SearchProducts(ctx, "   ", 0, 10)
	assert.ErrorIs(t, err, ErrValidation)

	total, items, err := e.svc.SearchProducts(ctx, "lavender", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, items, 1)

	e.index.searchErr = errors.New("cluster red")
	total, items, err = e.svc.SearchProducts(ctx, "latte", 0, 10)
	require.NoError(t, err, "falls back to the database")
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "Lavender Latte", items[0].Name)
}

func TestUploadImage(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	ctx := context.Background()
	p := e.create(t, "Strawberry Cloud", 3)

	got, err := e.svc.UploadImage(ctx, p.ID, "image/png", strings.NewReader("png-bytes"), 9)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got.Image, "/images/products/"))
	assert.True(t, strings.HasSuffix(got.Image, ".png"))
	assert.Len(t, e.images.Objects, 1)

	_, err = e.svc.UploadImage(ctx, p.ID, "application/pdf", strings.NewReader("pdf"), 3)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = e.svc.UploadImage(ctx, uuid.New(), "image/png", strings.NewReader("png"), 3)
	assert.ErrorIs(t, err, ErrNotFound)
}

func orderMessage(t *testing.T, ev mykafka.OrderEvent) kafka.Message {
	t.Helper()
	b, err := json.Marshal(ev)
	require.NoError(t, err)
	return kafka.Message{Key: []byte(ev.OrderID.String()), Value: b}
}

func TestHandleOrderEvent_ReservesAndReleases(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	ctx := context.Background()
	taro := e.create(t, "Taro Milk Tea", 5)
	boba := e.create(t, "Brown Sugar Boba", 1)

	items := []mykafka.OrderItem{
		{ProductID: taro.ID, Quantity: 1},
		{ProductID: boba.ID, Quantity: 3},
		{ProductID: taro.ID, Quantity: 1},
		{ProductID: uuid.New(), Quantity: 1},
	}
	orderID := uuid.New()
	created := orderMessage(t, mykafka.OrderEvent{Type: mykafka.EventOrderCreated, OrderID: orderID, Items: items})

	stock := func(id uuid.UUID) int {
		p, err := e.svc.GetProduct(ctx, id)
		require.NoError(t, err)
		return p.Stock
	}

	require.NoError(t, e.svc.HandleOrderEvent(ctx, created))
	assert.Equal(t, 3, stock(taro.ID))
	assert.Equal(t, 0, stock(boba.ID), "only one boba was there to reserve")

	require.NoError(t, e.svc.HandleOrderEvent(ctx, created))
	assert.Equal(t, 3, stock(taro.ID), "redelivered order_created reserves nothing")

	require.NoError(t, e.svc.HandleOrderEvent(ctx, orderMessage(t, mykafka.OrderEvent{
		Type: mykafka.EventOrderStatusChanged, OrderID: orderID, OldStatus: "confirmado", NewStatus: "preparando", Items: items,
	})))
	assert.Equal(t, 3, stock(taro.ID), "non-cancel transitions leave stock alone")

	cancelled := orderMessage(t, mykafka.OrderEvent{
		Type: mykafka.EventOrderStatusChanged, OrderID: orderID, OldStatus: "preparando", NewStatus: "cancelado", Items: items,
	})
	require.NoError(t, e.svc.HandleOrderEvent(ctx, cancelled))
	assert.Equal(t, 5, stock(taro.ID))
	assert.Equal(t, 1, stock(boba.ID), "cancel gives back what was reserved, not what was ordered")

	require.NoError(t, e.svc.HandleOrderEvent(ctx, cancelled))
	assert.Equal(t, 5, stock(taro.ID))
	assert.Equal(t, 1, stock(boba.ID))

	assert.Error(t, e.svc.HandleOrderEvent(ctx, kafka.Message{Value: []byte("{")}))
	assert.ErrorIs(t, e.svc.HandleOrderEvent(ctx, orderMessage(t, mykafka.OrderEvent{Type: mykafka.EventOrderCreated})), ErrValidation)
}

func TestAdjustStock_Restock(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	ctx := context.Background()
	p := e.create(t, "Matcha Latte", 2)

	got, err := e.svc.AdjustStock(ctx, p.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, 12, got.Stock)
	assert.Equal(t, 12, e.index.docs[p.ID].Stock)

	got, err = e.svc.AdjustStock(ctx, p.ID, -20)
	require.NoError(t, err)
	assert.Zero(t, got.Stock)

	_, err = e.svc.AdjustStock(ctx, p.ID, 0)
	assert.ErrorIs(t, err, ErrValidation)
	_, err = e.svc.AdjustStock(ctx, uuid.New(), 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSeedDefaultMenu(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	ctx := context.Background()

	n, err := e.svc.SeedDefaultMenu(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, n)
	assert.Len(t, e.index.docs, 10)

	n, err = e.svc.SeedDefaultMenu(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	total, popular, err := e.svc.ListProducts(ctx, repo.Filter{Category: repo.CategoryPopular}, 0, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 6, total)
	for _, p := range popular {
		assert.True(t, p.Popular)
	}
}
