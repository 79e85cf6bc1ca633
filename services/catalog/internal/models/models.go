package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	DefaultCategory = "General"
	DefaultImage    = "🧋"
	DefaultRating   = 4.8
)

type Product struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"              json:"id"`
	Name        string          `gorm:"not null;index"                    json:"name"`
	Description string          `gorm:"not null"                          json:"description"`
	Price       decimal.Decimal `gorm:"type:numeric(10,2);not null"       json:"price"`
	Category    string          `gorm:"not null;index"                    json:"category"`
	Popular     bool            `gorm:"not null"                          json:"popular"`
	Image       string          `gorm:"not null"                          json:"image"`
	Calories    *int            `                                         json:"calories,omitempty"`
	Rating      float64         `gorm:"not null"                          json:"rating"`
	Stock       int             `gorm:"not null;check:stock >= 0"         json:"stock"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (p *Product) Available() bool {
	return p.Stock > 0
}

// StockReservation is what an order actually took from a product's stock.
// Quantity can be lower than what was ordered when stock ran out.
type StockReservation struct {
	OrderID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProductID uuid.UUID `gorm:"type:uuid;primaryKey"`
	Quantity  int       `gorm:"not null"`
	Released  bool      `gorm:"not null;default:false"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
