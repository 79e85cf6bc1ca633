package pricing

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be greater than zero")
	ErrOutOfStock      = errors.New("product is out of stock")
	ErrInvalidPrice    = errors.New("product price must not be negative")
	ErrUnknownOption   = errors.New("unknown customization option")
	ErrLineNotFound    = errors.New("cart line not found")
)

// Product is the catalog entry as seen at the moment it was put in the cart.
type Product struct {
	ID       uuid.UUID       `json:"id"`
	Name     string          `json:"name"`
	Category string          `json:"category"`
	Image    string          `json:"image,omitempty"`
	Price    decimal.Decimal `json:"price"`
	Stock    int             `json:"stock"`
}

type Selection struct {
	MilkID     string   `json:"milk_id,omitempty"`
	ToppingIDs []string `json:"topping_ids,omitempty"`
	Comment    string   `json:"comment,omitempty"`
}

type Line struct {
	ID        uuid.UUID       `json:"id"`
	Product   Product         `json:"product"`
	Quantity  int             `json:"quantity"`
	Milk      *Option         `json:"milk,omitempty"`
	Toppings  []Option        `json:"toppings"`
	Comment   string          `json:"comment,omitempty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// LineTotal is UnitPrice * Quantity.
func (l Line) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Customize resolves a selection against the fixed option catalogs.
// Toppings come back sorted by id with duplicates removed.
func Customize(p Product, sel Selection) (*Option, []Option, error) {
	if IsFood(p) {
		return nil, []Option{}, nil
	}

	var milk *Option
	if sel.MilkID != "" {
		m, ok := Milk(sel.MilkID)
		if !ok {
			return nil, nil, fmt.Errorf("%w: milk %q", ErrUnknownOption, sel.MilkID)
		}
		milk = &m
	}

	seen := make(map[string]struct{}, len(sel.ToppingIDs))
	tops := make([]Option, 0, len(sel.ToppingIDs))
	for _, id := range sel.ToppingIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		t, ok := Topping(id)
		if !ok {
			return nil, nil, fmt.Errorf("%w: topping %q", ErrUnknownOption, id)
		}
		seen[id] = struct{}{}
		tops = append(tops, t)
	}
	sort.Slice(tops, func(i, j int) bool { return tops[i].ID < tops[j].ID })

	return milk, tops, nil
}

func UnitPrice(p Product, milk *Option, tops []Option) decimal.Decimal {
	if IsFood(p) {
		return p.Price
	}
	price := p.Price
	if milk != nil {
		price = price.Add(milk.Delta)
	}
	for _, t := range tops {
		price = price.Add(t.Delta)
	}
	return price
}

// AddLine returns a copy of lines with qty units of p added. A line with the same product,
// milk and topping set absorbs the quantity; anything else becomes a new line.
func AddLine(lines []Line, p Product, sel Selection, qty int) ([]Line, *Line, error) {
	if qty <= 0 {
		return nil, nil, ErrInvalidQuantity
	}
	if p.Price.IsNegative() {
		return nil, nil, ErrInvalidPrice
	}
	if p.Stock <= 0 {
		return nil, nil, fmt.Errorf("%w: %s", ErrOutOfStock, p.Name)
	}

	milk, tops, err := Customize(p, sel)
	if err != nil {
		return nil, nil, err
	}

	out := append([]Line(nil), lines...)
	key := lineKey(p.ID, milk, tops)
	comment := strings.TrimSpace(sel.Comment)

	for i := range out {
		if lineKey(out[i].Product.ID, out[i].Milk, out[i].Toppings) != key {
			continue
		}
		out[i].Quantity += qty
		out[i].Comment = mergeComment(out[i].Comment, comment)
		l := out[i]
		return out, &l, nil
	}

	l := Line{
		ID:        uuid.New(),
		Product:   p,
		Quantity:  qty,
		Milk:      milk,
		Toppings:  tops,
		Comment:   comment,
		UnitPrice: UnitPrice(p, milk, tops),
	}
	out = append(out, l)
	return out, &l, nil
}

// UpdateQuantity moves a line's quantity by delta, never below 1.
func UpdateQuantity(lines []Line, lineID uuid.UUID, delta int) ([]Line, error) {
	out := append([]Line(nil), lines...)
	for i := range out {
		if out[i].ID != lineID {
			continue
		}
		out[i].Quantity = max(1, out[i].Quantity+delta)
		return out, nil
	}
	return nil, ErrLineNotFound
}

func RemoveLine(lines []Line, lineID uuid.UUID) []Line {
	out := make([]Line, 0, len(lines))
	for _, l := range lines {
		if l.ID != lineID {
			out = append(out, l)
		}
	}
	return out
}

func lineKey(productID uuid.UUID, milk *Option, tops []Option) string {
	var b strings.Builder
	b.WriteString(productID.String())
	b.WriteByte('|')
	if milk != nil {
		b.WriteString(milk.ID)
	}
	ids := make([]string, 0, len(tops))
	for _, t := range tops {
		ids = append(ids, t.ID)
	}
	sort.Strings(ids)
	b.WriteByte('|')
	b.WriteString(strings.Join(ids, ","))
	return b.String()
}

func mergeComment(existing, incoming string) string {
	switch {
	case incoming == "" || incoming == existing:
		return existing
	case existing == "":
		return incoming
	default:
		return existing + "; " + incoming
	}
}
