package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Skotchmaster/bubba_express/pkg/orderstatus"
	"github.com/Skotchmaster/bubba_express/pkg/pricing"
)

type Order struct {
	ID             uuid.UUID          `gorm:"type:uuid;primaryKey"                         json:"id"`
	UserID         uuid.UUID          `gorm:"type:uuid;index;not null"                     json:"user_id"`
	UserEmail      string             `gorm:"not null;default:''"                          json:"user_email"`
	Status         orderstatus.Status `gorm:"type:varchar(16);index;not null"              json:"status"`
	Subtotal       decimal.Decimal    `gorm:"type:numeric(10,2);not null"                  json:"subtotal"`
	Tax            decimal.Decimal    `gorm:"type:numeric(10,2);not null"                  json:"tax"`
	Total          decimal.Decimal    `gorm:"type:numeric(10,2);not null"                  json:"total"`
	PickupLocation string             `gorm:"not null"                                     json:"pickup_location"`
	Lines          []OrderLine        `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"lines"`
	CreatedAt      time.Time          `gorm:"index;not null"                               json:"created_at"`
	UpdatedAt      time.Time          `gorm:"not null"                                     json:"updated_at"`
}

// OrderLine is a frozen cart line. Options are embedded by value so later catalog edits never reprice history.
type OrderLine struct {
	ID          uuid.UUID        `gorm:"type:uuid;primaryKey"         json:"id"`
	OrderID     uuid.UUID        `gorm:"type:uuid;index;not null"     json:"order_id"`
	Position    int              `gorm:"not null"                     json:"position"`
	ProductID   uuid.UUID        `gorm:"type:uuid;not null"           json:"product_id"`
	ProductName string           `gorm:"not null"                     json:"product_name"`
	Category    string           `gorm:"not null;default:''"          json:"category"`
	Image       string           `gorm:"not null;default:''"          json:"image"`
	BasePrice   decimal.Decimal  `gorm:"type:numeric(10,2);not null"  json:"base_price"`
	Milk        *pricing.Option  `gorm:"serializer:json;type:text"    json:"milk,omitempty"`
	Toppings    []pricing.Option `gorm:"serializer:json;type:text"    json:"toppings"`
	Comment     string           `gorm:"not null;default:''"          json:"comment,omitempty"`
	Quantity    int              `gorm:"not null;check:quantity > 0"  json:"quantity"`
	UnitPrice   decimal.Decimal  `gorm:"type:numeric(10,2);not null"  json:"unit_price"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

func (l *OrderLine) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

func (l OrderLine) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// LinesFromCart freezes priced cart lines in their display order.
func LinesFromCart(lines []pricing.Line) []OrderLine {
	out := make([]OrderLine, 0, len(lines))
	for i, l := range lines {
		tops := l.Toppings
		if tops == nil {
			tops = []pricing.Option{}
		}
		out = append(out, OrderLine{
			Position:    i,
			ProductID:   l.Product.ID,
			ProductName: l.Product.Name,
			Category:    l.Product.Category,
			Image:       l.Product.Image,
			BasePrice:   l.Product.Price,
			Milk:        l.Milk,
			Toppings:    tops,
			Comment:     l.Comment,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
		})
	}
	return out
}
