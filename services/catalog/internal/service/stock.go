package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/Skotchmaster/bubba_express/pkg/logging"
	"github.com/Skotchmaster/bubba_express/pkg/mykafka"
	"github.com/Skotchmaster/bubba_express/pkg/orderstatus"
)

// HandleOrderEvent keeps stock in step with orders: a new order reserves its items,
// a cancelled one gives back exactly what it reserved. Other events are ignored.
func (s *CatalogService) HandleOrderEvent(ctx context.Context, msg kafka.Message) error {
	var ev mykafka.OrderEvent
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		return fmt.Errorf("decode order event: %w", err)
	}
	if ev.OrderID == uuid.Nil {
		return fmt.Errorf("%w: order event without order id", ErrValidation)
	}

	l := logging.FromContext(ctx).With("order_id", ev.OrderID, "event", ev.Type)

	switch {
	case ev.Type == mykafka.EventOrderCreated:
		s.reserve(ctx, l, ev)
	case ev.Type == mykafka.EventOrderStatusChanged && ev.NewStatus == orderstatus.Cancelado.String():
		released, err := s.Repo.ReleaseStock(ctx, ev.OrderID)
		if err != nil {
			return fmt.Errorf("release stock: %w", err)
		}
		for _, r := range released {
			l.Info("stock_released", "product_id", r.ProductID, "quantity", r.Quantity)
		}
	}
	return nil
}

func (s *CatalogService) reserve(ctx context.Context, l *slog.Logger, ev mykafka.OrderEvent) {
	// one order can hold the same product on several lines
	wanted := map[uuid.UUID]int{}
	order := []uuid.UUID{}
	for _, item := range ev.Items {
		if _, ok := wanted[item.ProductID]; !ok {
			order = append(order, item.ProductID)
		}
		wanted[item.ProductID] += item.Quantity
	}

	for _, id := range order {
		qty := wanted[id]
		taken, fresh, err := s.Repo.ReserveStock(ctx, ev.OrderID, id, qty)
		switch {
		case err != nil:
			l.Warn("stock_reserve_error", "product_id", id, "quantity", qty, "error", notFound(err, id))
		case !fresh:
			l.Info("stock_already_reserved", "product_id", id, "quantity", taken)
		case taken < qty:
			l.Warn("stock_short", "product_id", id, "wanted", qty, "reserved", taken)
		}
	}
}
