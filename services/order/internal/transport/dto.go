package transport

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/bubba_express/pkg/orderstatus"
	"github.com/Skotchmaster/bubba_express/pkg/pricing"
	"github.com/Skotchmaster/bubba_express/services/order/internal/models"
)

type CreateOrderLine struct {
	ProductID  uuid.UUID `json:"product_id"`
	Quantity   int       `json:"quantity"`
	MilkID     string    `json:"milk_id"`
	ToppingIDs []string  `json:"topping_ids"`
	Comment    string    `json:"comment"`
}

type CreateOrderRequest struct {
	Lines []CreateOrderLine `json:"lines"`
}

type UpdateStatusRequest struct {
	Status         string `json:"status"`
	ExpectedStatus string `json:"expected_status"`
}

type LineResponse struct {
	ID          uuid.UUID        `json:"id"`
	ProductID   uuid.UUID        `json:"product_id"`
	ProductName string           `json:"product_name"`
	Category    string           `json:"category"`
	Image       string           `json:"image,omitempty"`
	Milk        *pricing.Option  `json:"milk,omitempty"`
	Toppings    []pricing.Option `json:"toppings"`
	Comment     string           `json:"comment,omitempty"`
	Quantity    int              `json:"quantity"`
	UnitPrice   decimal.Decimal  `json:"unit_price"`
	LineTotal   decimal.Decimal  `json:"line_total"`
}

type OrderResponse struct {
	ID                 uuid.UUID       `json:"id"`
	UserID             uuid.UUID       `json:"user_id"`
	UserEmail          string          `json:"user_email,omitempty"`
	Status             string          `json:"status"`
	Step               int             `json:"step"`
	Lines              []LineResponse  `json:"lines"`
	Subtotal           decimal.Decimal `json:"subtotal"`
	Tax                decimal.Decimal `json:"tax"`
	Total              decimal.Decimal `json:"total"`
	PointsEarned       int64           `json:"points_earned"`
	PickupLocation     string          `json:"pickup_location"`
	AllowedTransitions []string        `json:"allowed_transitions"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

type RewardsResponse struct {
	Points       int64           `json:"points"`
	Orders       int             `json:"orders"`
	TotalSpent   decimal.Decimal `json:"total_spent"`
	AverageOrder decimal.Decimal `json:"average_order"`
}

// FromOrder renders an order for one requester; allowed transitions depend on who is asking.
func FromOrder(o *models.Order, actor orderstatus.Actor, requesterID uuid.UUID) OrderResponse {
	lines := make([]LineResponse, 0, len(o.Lines))
	for _, l := range o.Lines {
		tops := l.Toppings
		if tops == nil {
			tops = []pricing.Option{}
		}
		lines = append(lines, LineResponse{
			ID:          l.ID,
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			Category:    l.Category,
			Image:       l.Image,
			Milk:        l.Milk,
			Toppings:    tops,
			Comment:     l.Comment,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			LineTotal:   l.LineTotal(),
		})
	}

	next := orderstatus.Next(o.Status, actor, o.UserID == requesterID)
	allowed := make([]string, 0, len(next))
	for _, s := range next {
		allowed = append(allowed, s.String())
	}

	return OrderResponse{
		ID:                 o.ID,
		UserID:             o.UserID,
		UserEmail:          o.UserEmail,
		Status:             o.Status.String(),
		Step:               o.Status.Step(),
		Lines:              lines,
		Subtotal:           o.Subtotal,
		Tax:                o.Tax,
		Total:              o.Total,
		PointsEarned:       pricing.PointsEarned(o.Total),
		PickupLocation:     o.PickupLocation,
		AllowedTransitions: allowed,
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
	}
}

func FromOrders(orders []models.Order, actor orderstatus.Actor, requesterID uuid.UUID) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, FromOrder(&orders[i], actor, requesterID))
	}
	return out
}
