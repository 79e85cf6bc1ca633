package transport

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/bubba_express/pkg/pricing"
	"github.com/Skotchmaster/bubba_express/services/cart/internal/models"
)

type AddLineRequest struct {
	ProductID  uuid.UUID `json:"product_id"`
	Quantity   int       `json:"quantity"`
	MilkID     string    `json:"milk_id"`
	ToppingIDs []string  `json:"topping_ids"`
	Comment    string    `json:"comment"`
}

type UpdateQuantityRequest struct {
	Delta int `json:"delta"`
}

type LineResponse struct {
	ID        uuid.UUID        `json:"id"`
	Product   pricing.Product  `json:"product"`
	Milk      *pricing.Option  `json:"milk,omitempty"`
	Toppings  []pricing.Option `json:"toppings"`
	Comment   string           `json:"comment,omitempty"`
	Quantity  int              `json:"quantity"`
	UnitPrice decimal.Decimal  `json:"unit_price"`
	LineTotal decimal.Decimal  `json:"line_total"`
}

type CartResponse struct {
	ID        uuid.UUID       `json:"id"`
	Lines     []LineResponse  `json:"lines"`
	Items     int             `json:"items"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Tax       decimal.Decimal `json:"tax"`
	Total     decimal.Decimal `json:"total"`
	Points    int64           `json:"points"`
	UpdatedAt time.Time       `json:"updated_at,omitempty"`
}

func FromLine(l pricing.Line) LineResponse {
	tops := l.Toppings
	if tops == nil {
		tops = []pricing.Option{}
	}
	return LineResponse{
		ID:        l.ID,
		Product:   l.Product,
		Milk:      l.Milk,
		Toppings:  tops,
		Comment:   l.Comment,
		Quantity:  l.Quantity,
		UnitPrice: l.UnitPrice,
		LineTotal: l.LineTotal(),
	}
}

// FromCart renders the cart with totals recomputed from its lines.
func FromCart(c *models.Cart) CartResponse {
	totals := pricing.ComputeTotals(c.Lines)
	lines := make([]LineResponse, 0, len(c.Lines))
	items := 0
	for _, l := range c.Lines {
		lines = append(lines, FromLine(l))
		items += l.Quantity
	}
	return CartResponse{
		ID:        c.ID,
		Lines:     lines,
		Items:     items,
		Subtotal:  totals.Subtotal,
		Tax:       totals.Tax,
		Total:     totals.Total,
		Points:    totals.Points,
		UpdatedAt: c.UpdatedAt,
	}
}
