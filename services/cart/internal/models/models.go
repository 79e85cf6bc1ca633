package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/bubba_express/pkg/pricing"
)

// Cart is the per-user session cart. ID changes whenever the contents change or the
// cart is emptied, so it doubles as the idempotency key of the order it turns into.
type Cart struct {
	ID        uuid.UUID      `json:"id"`
	UserID    uuid.UUID      `json:"user_id"`
	Lines     []pricing.Line `json:"lines"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func NewCart(userID uuid.UUID) *Cart {
	return &Cart{ID: uuid.New(), UserID: userID, Lines: []pricing.Line{}}
}

func (c *Cart) Empty() bool {
	return len(c.Lines) == 0
}

// Changed gives the cart a new ID. A retried checkout of changed contents must not
// replay the order placed for the old ones.
func (c *Cart) Changed() {
	c.ID = uuid.New()
}
