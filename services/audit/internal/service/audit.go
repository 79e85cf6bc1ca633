package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/Skotchmaster/bubba_express/pkg/logging"
	"github.com/Skotchmaster/bubba_express/pkg/mykafka"
	"github.com/Skotchmaster/bubba_express/services/audit/internal/models"
)

var ErrValidation = errors.New("validation")

const (
	DefaultLimit = 50
	MaxLimit     = 200
)

type Store interface {
	Create(ctx context.Context, a *models.OrderStatusAudit) error
	ListByOrderID(ctx context.Context, orderID string, limit int) ([]models.OrderStatusAudit, error)
}

type AuditService struct {
	Store Store
}

// HandleOrderEvent records every order lifecycle event. Unknown event types are skipped.
func (s *AuditService) HandleOrderEvent(ctx context.Context, msg kafka.Message) error {
	var ev mykafka.OrderEvent
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		return fmt.Errorf("decode order event: %w", err)
	}
	if ev.Type != mykafka.EventOrderCreated && ev.Type != mykafka.EventOrderStatusChanged {
		return nil
	}
	if ev.OrderID == uuid.Nil {
		return fmt.Errorf("%w: order event without order id", ErrValidation)
	}

	entry := &models.OrderStatusAudit{
		OrderID:   ev.OrderID.String(),
		EventType: ev.Type,
		OldStatus: ev.OldStatus,
		NewStatus: ev.NewStatus,
		Actor:     ev.Actor,
		UserID:    ev.UserID.String(),
		Total:     ev.Total.StringFixed(2),
		Timestamp: ev.OccurredAt.UTC(),
	}
	if err := s.Store.Create(ctx, entry); err != nil {
		return err
	}

	logging.FromContext(ctx).Debug("order_audit_recorded", "order_id", entry.OrderID, "event", ev.Type, "new_status", ev.NewStatus)
	return nil
}

func (s *AuditService) History(ctx context.Context, orderID uuid.UUID, limit int) ([]models.OrderStatusAudit, error) {
	if orderID == uuid.Nil {
		return nil, fmt.Errorf("%w: order id required", ErrValidation)
	}
	switch {
	case limit <= 0:
		limit = DefaultLimit
	case limit > MaxLimit:
		limit = MaxLimit
	}
	return s.Store.ListByOrderID(ctx, orderID.String(), limit)
}
