package mykafka

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	TopicOrderEvents   = "order_events"
	TopicProductEvents = "product_events"
	TopicUserEvents    = "user_events"
)

const (
	EventOrderCreated       = "order_created"
	EventOrderStatusChanged = "order_status_changed"

	EventProductCreated = "product_created"
	EventProductUpdated = "product_updated"
	EventProductDeleted = "product_deleted"

	EventUserRegistered = "user_registered"
)

type OrderItem struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

// OrderEvent is published on every order lifecycle change, keyed by order id.
type OrderEvent struct {
	Type       string          `json:"type"`
	OrderID    uuid.UUID       `json:"order_id"`
	UserID     uuid.UUID       `json:"user_id"`
	OldStatus  string          `json:"old_status,omitempty"`
	NewStatus  string          `json:"new_status"`
	Actor      string          `json:"actor,omitempty"`
	Total      decimal.Decimal `json:"total"`
	Items      []OrderItem     `json:"items,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

type ProductEvent struct {
	Type       string          `json:"type"`
	ProductID  uuid.UUID       `json:"product_id"`
	Name       string          `json:"name,omitempty"`
	Category   string          `json:"category,omitempty"`
	Price      decimal.Decimal `json:"price"`
	Stock      int             `json:"stock"`
	OccurredAt time.Time       `json:"occurred_at"`
}

type UserEvent struct {
	Type       string    `json:"type"`
	UserID     uuid.UUID `json:"user_id"`
	Email      string    `json:"email"`
	OccurredAt time.Time `json:"occurred_at"`
}
