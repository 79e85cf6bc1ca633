package transport

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/bubba_express/pkg/pricing"
	"github.com/Skotchmaster/bubba_express/services/catalog/internal/models"
)

type CreateProductRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Popular     bool            `json:"popular"`
	Image       string          `json:"image"`
	Calories    *int            `json:"calories"`
	Rating      *float64        `json:"rating"`
	Stock       int             `json:"stock"`
}

type PatchProductRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Category    *string          `json:"category"`
	Popular     *bool            `json:"popular"`
	Image       *string          `json:"image"`
	Calories    *int             `json:"calories"`
	Rating      *float64         `json:"rating"`
	Stock       *int             `json:"stock"`
}

type ProductResponse struct {
	ID           uuid.UUID       `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price"`
	Category     string          `json:"category"`
	Popular      bool            `json:"popular"`
	Image        string          `json:"image"`
	Calories     *int            `json:"calories,omitempty"`
	Rating       float64         `json:"rating"`
	Stock        int             `json:"stock"`
	Available    bool            `json:"available"`
	Customizable bool            `json:"customizable"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

type OptionsResponse struct {
	Milks    []pricing.Option `json:"milks"`
	Toppings []pricing.Option `json:"toppings"`
}

func FromProduct(p *models.Product) ProductResponse {
	return ProductResponse{
		ID:           p.ID,
		Name:         p.Name,
		Description:  p.Description,
		Price:        p.Price,
		Category:     p.Category,
		Popular:      p.Popular,
		Image:        p.Image,
		Calories:     p.Calories,
		Rating:       p.Rating,
		Stock:        p.Stock,
		Available:    p.Available(),
		Customizable: !pricing.IsFood(pricing.Product{Name: p.Name, Category: p.Category}),
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func FromProducts(ps []models.Product) []ProductResponse {
	out := make([]ProductResponse, 0, len(ps))
	for i := range ps {
		out = append(out, FromProduct(&ps[i]))
	}
	return out
}

type AdjustStockRequest struct {
	Delta int `json:"delta"`
}
