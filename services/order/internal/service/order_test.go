package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/bubba_express/pkg/catalogclient"
	"github.com/Skotchmaster/bubba_express/pkg/db/dbtest"
	"github.com/Skotchmaster/bubba_express/pkg/mykafka"
	"github.com/Skotchmaster/bubba_express/pkg/orderstatus"
	"github.com/Skotchmaster/bubba_express/pkg/pricing"
	"github.com/Skotchmaster/bubba_express/services/order/internal/idempotency"
	"github.com/Skotchmaster/bubba_express/services/order/internal/live"
	"github.com/Skotchmaster/bubba_express/services/order/internal/models"
	"github.com/Skotchmaster/bubba_express/services/order/internal/repo"
	"github.com/Skotchmaster/bubba_express/services/order/internal/transport"
)

var (
	taroID    = uuid.MustParse("0b9b0c61-6f3c-4a0e-9a7a-0000000000a1")
	tortaID   = uuid.MustParse("0b9b0c61-6f3c-4a0e-9a7a-0000000000a2")
	soldOutID = uuid.MustParse("0b9b0c61-6f3c-4a0e-9a7a-0000000000a3")
)

type testEnv struct {
	svc    *OrderService
	events *mykafka.Recorder
	hub    *live.Hub
	idem   *idempotency.Memory
	repo   *repo.GormRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	r := &repo.GormRepo{DB: dbtest.Open(t, &models.Order{}, &models.OrderLine{})}
	events := &mykafka.Recorder{}
	hub := live.NewHub(8)
	idem := idempotency.NewMemory()

	catalog := catalogclient.Static{
		taroID:    {ID: taroID, Name: "Taro", Category: "Frappé", Price: decimal.NewFromInt(65), Stock: 5},
		tortaID:   {ID: tortaID, Name: "Torta de jamón", Category: "Comida", Price: decimal.NewFromInt(40), Stock: 3},
		soldOutID: {ID: soldOutID, Name: "Chai", Category: "Frappé", Price: decimal.NewFromInt(60), Stock: 0},
	}

	return &testEnv{
		svc: &OrderService{
			Repo:           r,
			Catalog:        catalog,
			Idempotency:    idem,
			Producer:       events,
			Notifier:       live.Local{Hub: hub},
			PickupLocation: "Barra",
		},
		events: events,
		hub:    hub,
		idem:   idem,
		repo:   r,
	}
}

func customer() Requester {
	return Requester{UserID: uuid.New(), Email: "ana@example.com", Role: "user"}
}

func staff() Requester {
	return Requester{UserID: uuid.New(), Email: "barra@bubba.mx", Role: "admin"}
}

func basicOrder() transport.CreateOrderRequest {
	return transport.CreateOrderRequest{Lines: []transport.CreateOrderLine{
		{ProductID: taroID, Quantity: 1, MilkID: "almendra", ToppingIDs: []string{"explosiva"}},
		{ProductID: tortaID, Quantity: 2, MilkID: "almendra"},
	}}
}

func TestCreateOrder_PricesAndConfirms(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	req := customer()

	sub := env.hub.Subscribe(live.Filter{UserID: req.UserID})
	defer sub.Close()

	order, replayed, err := env.svc.CreateOrder(ctx, req, basicOrder(), "")
	require.NoError(t, err)
	assert.False(t, replayed)

	assert.Equal(t, orderstatus.Confirmado, order.Status)
	assert.Equal(t, "Barra", order.PickupLocation)
	assert.Equal(t, "ana@example.com", order.UserEmail)
	require.Len(t, order.Lines, 2)
	assert.True(t, decimal.NewFromInt(85).Equal(order.Lines[0].UnitPrice), "65 + almendra 10 + explosiva 10")
	assert.True(t, decimal.NewFromInt(40).Equal(order.Lines[1].UnitPrice), "food ignores customization")
	assert.Nil(t, order.Lines[1].Milk)
	assert.True(t, decimal.NewFromInt(165).Equal(order.Subtotal))
	assert.True(t, decimal.NewFromInt(26).Equal(order.Tax))
	assert.True(t, decimal.NewFromInt(191).Equal(order.Total))

	stored, err := env.repo.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(191).Equal(stored.Total))

	got := <-sub.C
	assert.Equal(t, order.ID, got.ID)

	events := env.events.Events()
	require.Len(t, events, 1)
	assert.Equal(t, mykafka.TopicOrderEvents, events[0].Topic)
	var ev mykafka.OrderEvent
	require.NoError(t, json.Unmarshal(events[0].Value, &ev))
	assert.Equal(t, mykafka.EventOrderCreated, ev.Type)
	assert.Equal(t, "confirmado", ev.NewStatus)
	assert.Len(t, ev.Items, 2)
}

func TestCreateOrder_MergesIdenticalLines(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	in := transport.CreateOrderRequest{Lines: []transport.CreateOrderLine{
		{ProductID: taroID, Quantity: 1, ToppingIDs: []string{"chamoy", "explosiva"}},
		{ProductID: taroID, Quantity: 2, ToppingIDs: []string{"explosiva", "chamoy"}},
	}}

	order, _, err := env.svc.CreateOrder(context.Background(), customer(), in, "")
	require.NoError(t, err)
	require.Len(t, order.Lines, 1)
	assert.Equal(t, 3, order.Lines[0].Quantity)
}

func TestCreateOrder_Rejections(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	tests := []struct {
		name string
		in   transport.CreateOrderRequest
		want error
	}{
		{name: "empty cart", in: transport.CreateOrderRequest{}, want: ErrValidation},
		{name: "zero quantity", in: transport.CreateOrderRequest{Lines: []transport.CreateOrderLine{{ProductID: taroID}}}, want: ErrValidation},
		{name: "missing product id", in: transport.CreateOrderRequest{Lines: []transport.CreateOrderLine{{Quantity: 1}}}, want: ErrValidation},
		{name: "unknown product", in: transport.CreateOrderRequest{Lines: []transport.CreateOrderLine{{ProductID: uuid.New(), Quantity: 1}}}, want: ErrValidation},
		{name: "unknown milk", in: transport.CreateOrderRequest{Lines: []transport.CreateOrderLine{{ProductID: taroID, Quantity: 1, MilkID: "avena"}}}, want: ErrValidation},
		{name: "sold out", in: transport.CreateOrderRequest{Lines: []transport.CreateOrderLine{{ProductID: soldOutID, Quantity: 1}}}, want: ErrConflict},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			order, _, err := env.svc.CreateOrder(context.Background(), customer(), tt.in, "")
			assert.Nil(t, order)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Empty(t, env.events.Events())
}

func TestCreateOrder_Idempotent(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	req := customer()

	first, replayed, err := env.svc.CreateOrder(ctx, req, basicOrder(), "cart-1")
	require.NoError(t, err)
	assert.False(t, replayed)

	second, replayed, err := env.svc.CreateOrder(ctx, req, basicOrder(), "cart-1")
	require.NoError(t, err)
	assert.True(t, replayed)
	assert.Equal(t, first.ID, second.ID)

	total, _, err := env.repo.ListOrders(ctx, req.UserID, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, env.events.Events(), 1)
}

func TestCreateOrder_FailureReleasesKey(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	req := customer()

	_, _, err := env.svc.CreateOrder(ctx, req, transport.CreateOrderRequest{Lines: []transport.CreateOrderLine{{ProductID: soldOutID, Quantity: 1}}}, "cart-2")
	require.ErrorIs(t, err, ErrConflict)

	order, replayed, err := env.svc.CreateOrder(ctx, req, basicOrder(), "cart-2")
	require.NoError(t, err)
	assert.False(t, replayed)
	assert.NotNil(t, order)
}

func TestCreateOrder_InFlightKeyConflicts(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	req := customer()
	_, err := env.idem.Reserve(context.Background(), req.UserID.String(), "cart-3")
	require.NoError(t, err)

	_, _, err = env.svc.CreateOrder(context.Background(), req, basicOrder(), "cart-3")
	assert.ErrorIs(t, err, ErrConflict)
}

func TestGetOrder_Visibility(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	owner := customer()

	order, _, err := env.svc.CreateOrder(ctx, owner, basicOrder(), "")
	require.NoError(t, err)

	_, err = env.svc.GetOrder(ctx, owner, order.ID)
	assert.NoError(t, err)
	_, err = env.svc.GetOrder(ctx, staff(), order.ID)
	assert.NoError(t, err)
	_, err = env.svc.GetOrder(ctx, customer(), order.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = env.svc.GetOrder(ctx, owner, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTransition_StaffHappyPath(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	order, _, err := env.svc.CreateOrder(ctx, customer(), basicOrder(), "")
	require.NoError(t, err)

	for _, next := range []orderstatus.Status{orderstatus.Preparando, orderstatus.Listo, orderstatus.Entregado} {
		got, err := env.svc.Transition(ctx, staff(), order.ID, next.String(), "")
		require.NoError(t, err, next)
		assert.Equal(t, next, got.Status)
	}

	_, err = env.svc.Transition(ctx, staff(), order.ID, "cancelado", "entregado")
	assert.ErrorIs(t, err, ErrConflict, "terminal orders stay terminal")

	events := env.events.Events()
	require.Len(t, events, 4)
	var last mykafka.OrderEvent
	require.NoError(t, json.Unmarshal(events[3].Value, &last))
	assert.Equal(t, mykafka.EventOrderStatusChanged, last.Type)
	assert.Equal(t, "listo", last.OldStatus)
	assert.Equal(t, "entregado", last.NewStatus)
}

func TestTransition_Rejections(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	order, _, err := env.svc.CreateOrder(ctx, customer(), basicOrder(), "")
	require.NoError(t, err)

	tests := []struct {
		name     string
		req      Requester
		to       string
		expected string
		want     error
	}{
		{name: "customer", req: customer(), to: "preparando", want: ErrForbidden},
		{name: "unknown status", req: staff(), to: "enviado", want: ErrValidation},
		{name: "back to initial", req: staff(), to: "confirmado", want: ErrValidation},
		{name: "skip a step", req: staff(), to: "listo", want: ErrConflict},
		{name: "stale expected state", req: staff(), to: "listo", expected: "preparando", want: ErrConflict},
		{name: "illegal expected edge", req: staff(), to: "entregado", expected: "confirmado", want: ErrConflict},
	}

	for _, tt := range tests {
		_, err := env.svc.Transition(ctx, tt.req, order.ID, tt.to, tt.expected)
		assert.ErrorIs(t, err, tt.want, tt.name)
	}

	_, err = env.svc.Transition(ctx, staff(), uuid.New(), "preparando", "")
	assert.ErrorIs(t, err, ErrNotFound)

	current, err := env.repo.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, orderstatus.Confirmado, current.Status, "rejected transitions apply nothing")
}

func TestTransition_CancelNeedsTheStateStaffSaw(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	order, _, err := env.svc.CreateOrder(ctx, customer(), basicOrder(), "")
	require.NoError(t, err)

	_, err = env.svc.Transition(ctx, staff(), order.ID, "cancelado", "")
	require.ErrorIs(t, err, ErrValidation, "cancelado has two sources")

	// the order moves on after staff looked at it
	_, err = env.svc.Transition(ctx, staff(), order.ID, "preparando", "")
	require.NoError(t, err)

	_, err = env.svc.Transition(ctx, staff(), order.ID, "cancelado", "confirmado")
	require.ErrorIs(t, err, ErrConflict)

	got, err := env.svc.GetOrder(ctx, staff(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, orderstatus.Preparando, got.Status, "nothing was cancelled behind the caller's back")
}

func TestTransition_ConcurrentSingleWinner(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	order, _, err := env.svc.CreateOrder(ctx, customer(), basicOrder(), "")
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i, to := range []string{"preparando", "cancelado"} {
		wg.Add(1)
		go func(i int, to string) {
			defer wg.Done()
			_, results[i] = env.svc.Transition(ctx, staff(), order.ID, to, "confirmado")
		}(i, to)
	}
	wg.Wait()

	var ok, conflicts int
	for _, err := range results {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrConflict):
			conflicts++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, conflicts)
}

func TestCancelOrder(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	owner := customer()

	order, _, err := env.svc.CreateOrder(ctx, owner, basicOrder(), "")
	require.NoError(t, err)

	_, err = env.svc.CancelOrder(ctx, customer(), order.ID)
	assert.ErrorIs(t, err, ErrNotFound, "other customers cannot see the order")

	got, err := env.svc.CancelOrder(ctx, owner, order.ID)
	require.NoError(t, err)
	assert.Equal(t, orderstatus.Cancelado, got.Status)

	_, err = env.svc.CancelOrder(ctx, owner, order.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	events := env.events.Events()
	require.Len(t, events, 2)
	var ev mykafka.OrderEvent
	require.NoError(t, json.Unmarshal(events[1].Value, &ev))
	assert.Equal(t, "confirmado", ev.OldStatus)
	assert.Equal(t, "cancelado", ev.NewStatus)
	assert.Len(t, ev.Items, 2)
}

func TestCancelOrder_OnlyFromConfirmado(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	owner := customer()

	order, _, err := env.svc.CreateOrder(ctx, owner, basicOrder(), "")
	require.NoError(t, err)
	_, err = env.svc.Transition(ctx, staff(), order.ID, "preparando", "")
	require.NoError(t, err)

	_, err = env.svc.CancelOrder(ctx, owner, order.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	got, err := env.svc.Transition(ctx, staff(), order.ID, "cancelado", "preparando")
	require.NoError(t, err, "staff may still cancel while preparing")
	assert.Equal(t, orderstatus.Cancelado, got.Status)
}

func TestListAllOrders_StaffOnly(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	_, _, err := env.svc.CreateOrder(ctx, customer(), basicOrder(), "")
	require.NoError(t, err)

	_, _, err = env.svc.ListAllOrders(ctx, customer(), "", 0, 10)
	assert.ErrorIs(t, err, ErrForbidden)

	_, _, err = env.svc.ListAllOrders(ctx, staff(), "perdido", 0, 10)
	assert.ErrorIs(t, err, ErrValidation)

	total, orders, err := env.svc.ListAllOrders(ctx, staff(), "confirmado", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, orders, 1)
}

func TestRewards(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	owner := customer()

	kept, _, err := env.svc.CreateOrder(ctx, owner, basicOrder(), "")
	require.NoError(t, err)
	cancelled, _, err := env.svc.CreateOrder(ctx, owner, basicOrder(), "")
	require.NoError(t, err)
	_, err = env.svc.CancelOrder(ctx, owner, cancelled.ID)
	require.NoError(t, err)

	single := transport.CreateOrderRequest{Lines: []transport.CreateOrderLine{{ProductID: tortaID, Quantity: 1}}}
	small, _, err := env.svc.CreateOrder(ctx, owner, single, "")
	require.NoError(t, err)

	res, err := env.svc.Rewards(ctx, owner.UserID)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Orders)
	assert.Equal(t, pricing.PointsEarned(kept.Total)+pricing.PointsEarned(small.Total), res.Points)
	assert.True(t, kept.Total.Add(small.Total).Equal(res.TotalSpent))
	assert.True(t, decimal.NewFromInt(119).Equal(res.AverageOrder), "(191 + 46) / 2 = 118.5 rounds up")
	assert.Equal(t, int64(19+4), res.Points, "the cancelled order earns nothing")

	empty, err := env.svc.Rewards(ctx, uuid.New())
	require.NoError(t, err)
	assert.Zero(t, empty.Points)
	assert.True(t, empty.AverageOrder.IsZero())
}
