package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrderStatusAudit is one lifecycle event of an order as it was published.
type OrderStatusAudit struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrderID   string             `bson:"order_id"      json:"order_id"`
	EventType string             `bson:"event_type"    json:"event_type"`
	OldStatus string             `bson:"old_status"    json:"old_status,omitempty"`
	NewStatus string             `bson:"new_status"    json:"new_status"`
	Actor     string             `bson:"actor"         json:"actor,omitempty"`
	UserID    string             `bson:"user_id"       json:"user_id"`
	Total     string             `bson:"total"         json:"total"`
	Timestamp time.Time          `bson:"timestamp"     json:"timestamp"`
}
