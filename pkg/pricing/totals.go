package pricing

import "github.com/shopspring/decimal"

var (
	taxRate     = decimal.RequireFromString("0.16")
	pointsEvery = decimal.NewFromInt(10)
)

type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
	Points   int64           `json:"points"`
}

func ComputeTotals(lines []Line) Totals {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.LineTotal())
	}
	tax := Tax(subtotal)
	total := subtotal.Add(tax)
	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    total,
		Points:   PointsEarned(total),
	}
}

// Tax is 16% of subtotal rounded half away from zero to whole pesos.
func Tax(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.IsNegative() {
		return decimal.Zero
	}
	return subtotal.Mul(taxRate).Round(0)
}

// PointsEarned is one loyalty point per full 10 pesos of the order total.
func PointsEarned(total decimal.Decimal) int64 {
	if total.IsNegative() {
		return 0
	}
	return total.Div(pointsEvery).Floor().IntPart()
}
