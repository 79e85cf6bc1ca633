package service

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/bubba_express/services/catalog/internal/models"
)

func calories(n int) *int { return &n }

var defaultMenu = []models.Product{
	{Name: "Bubble Tea Clásico", Description: "Té negro con perlas de tapioca y leche cremosa", Price: decimal.NewFromInt(65), Category: "Bubble Tea", Image: "🧋", Popular: true, Rating: 4.8, Calories: calories(280), Stock: 50},
	{Name: "Matcha Latte Premium", Description: "Matcha japonés orgánico con leche de almendra", Price: decimal.NewFromInt(75), Category: "Especiales", Image: "🍵", Popular: true, Rating: 4.9, Calories: calories(220), Stock: 45},
	{Name: "Taro Milk Tea", Description: "Cremoso té de taro con boba y toque de vainilla", Price: decimal.NewFromInt(70), Category: "Bubble Tea", Image: "🧋", Rating: 4.7, Calories: calories(300), Stock: 40},
	{Name: "Café Frappé Caramelo", Description: "Café helado con caramelo belga y crema batida", Price: decimal.NewFromInt(68), Category: "Café", Image: "☕", Popular: true, Rating: 4.6, Calories: calories(340), Stock: 55},
	{Name: "Thai Tea Especial", Description: "Té tailandés tradicional con leche condensada", Price: decimal.NewFromInt(72), Category: "Especiales", Image: "🥤", Rating: 4.8, Calories: calories(310), Stock: 38},
	{Name: "Strawberry Cloud", Description: "Smoothie de fresa natural con crema batida", Price: decimal.NewFromInt(78), Category: "Smoothies", Image: "🍓", Popular: true, Rating: 4.9, Calories: calories(250), Stock: 42},
	{Name: "Mango Passion Blast", Description: "Mango, maracuyá tropical y hielo frappe", Price: decimal.NewFromInt(80), Category: "Smoothies", Image: "🥭", Rating: 4.7, Calories: calories(270), Stock: 35},
	{Name: "Brown Sugar Boba", Description: "Leche fresca con jarabe artesanal de azúcar morena", Price: decimal.NewFromInt(75), Category: "Bubble Tea", Image: "🧋", Popular: true, Rating: 4.9, Calories: calories(320), Stock: 48},
	{Name: "Iced Americano", Description: "Espresso doble intenso con hielo", Price: decimal.NewFromInt(55), Category: "Café", Image: "☕", Rating: 4.5, Calories: calories(15), Stock: 60},
	{Name: "Lavender Latte", Description: "Latte aromático con jarabe de lavanda francesa", Price: decimal.NewFromInt(72), Category: "Especiales", Image: "☕", Popular: true, Rating: 4.8, Calories: calories(240), Stock: 30},
}

// SeedDefaultMenu fills an empty catalog with the house menu and reports how many products it added.
func (s *CatalogService) SeedDefaultMenu(ctx context.Context) (int, error) {
	n, err := s.Repo.CountProducts(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}

	menu := make([]models.Product, len(defaultMenu))
	copy(menu, defaultMenu)
	if err := s.Repo.CreateProducts(ctx, menu); err != nil {
		return 0, err
	}
	for i := range menu {
		s.reindex(ctx, &menu[i])
	}
	return len(menu), nil
}
