package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Option is a milk or topping choice. It is copied into every line that selects it,
// so an order keeps the delta that was in effect when it was placed.
type Option struct {
	ID    string          `json:"id"`
	Label string          `json:"label"`
	Delta decimal.Decimal `json:"delta"`
}

var milks = []Option{
	{ID: "entera", Label: "Entera", Delta: decimal.Zero},
	{ID: "deslactosada", Label: "Deslactosada", Delta: decimal.NewFromInt(2)},
	{ID: "light", Label: "Light", Delta: decimal.NewFromInt(2)},
	{ID: "almendra", Label: "Almendra", Delta: decimal.NewFromInt(10)},
}

var toppings = []Option{
	{ID: "tapioca-extra", Label: "Tapioca extra", Delta: decimal.NewFromInt(8)},
	{ID: "explosiva", Label: "Explosiva", Delta: decimal.NewFromInt(10)},
	{ID: "chamoy", Label: "Chamoy", Delta: decimal.NewFromInt(8)},
	{ID: "combinacion", Label: "Combinación", Delta: decimal.NewFromInt(10)},
}

var foodKeywords = []string{"torta", "baguette", "comida", "lasa", "banderilla", "elote", "dori", "dorie", "vaso"}

func Milks() []Option {
	return append([]Option(nil), milks...)
}

func Toppings() []Option {
	return append([]Option(nil), toppings...)
}

func Milk(id string) (Option, bool) {
	return find(milks, id)
}

func Topping(id string) (Option, bool) {
	return find(toppings, id)
}

func find(opts []Option, id string) (Option, bool) {
	for _, o := range opts {
		if o.ID == id {
			return o, true
		}
	}
	return Option{}, false
}

// IsFood reports whether the product is a food item. Food items take no milk or toppings.
func IsFood(p Product) bool {
	cat := strings.ToLower(p.Category)
	name := strings.ToLower(p.Name)
	for _, k := range foodKeywords {
		if strings.Contains(cat, k) || strings.Contains(name, k) {
			return true
		}
	}
	return false
}
