package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Skotchmaster/bubba_express/pkg/catalogclient"
	"github.com/Skotchmaster/bubba_express/pkg/logging"
	"github.com/Skotchmaster/bubba_express/pkg/orderclient"
	"github.com/Skotchmaster/bubba_express/pkg/pricing"
	"github.com/Skotchmaster/bubba_express/services/cart/internal/models"
	"github.com/Skotchmaster/bubba_express/services/cart/internal/repo"
	"github.com/Skotchmaster/bubba_express/services/cart/internal/transport"
)

var (
	ErrValidation = errors.New("validation") // 400
	ErrNotFound   = errors.New("not found")  // 404
	ErrConflict   = errors.New("conflict")   // 409
	ErrUpstream   = errors.New("upstream")   // 502
)

type CartService struct {
	Store   repo.Store
	Catalog catalogclient.ProductSource
	Orders  orderclient.Creator
}

func (s *CartService) GetCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	return s.Store.Load(ctx, userID)
}

// AddLine prices the product as the catalog has it now and merges it into the cart.
func (s *CartService) AddLine(ctx context.Context, userID uuid.UUID, in transport.AddLineRequest) (*models.Cart, *pricing.Line, error) {
	if in.ProductID == uuid.Nil {
		return nil, nil, fmt.Errorf("%w: product_id required", ErrValidation)
	}
	qty := in.Quantity
	if qty == 0 {
		qty = 1
	}

	p, err := s.Catalog.GetProduct(ctx, in.ProductID)
	if err != nil {
		if errors.Is(err, catalogclient.ErrNotFound) {
			return nil, nil, fmt.Errorf("%w: product %s", ErrNotFound, in.ProductID)
		}
		return nil, nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	cart, err := s.Store.Load(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	lines, line, err := pricing.AddLine(cart.Lines, p, pricing.Selection{
		MilkID:     in.MilkID,
		ToppingIDs: in.ToppingIDs,
		Comment:    in.Comment,
	}, qty)
	switch {
	case errors.Is(err, pricing.ErrOutOfStock):
		return nil, nil, fmt.Errorf("%w: %v", ErrConflict, err)
	case err != nil:
		return nil, nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	cart.Lines = lines
	cart.Changed()
	if err := s.Store.Save(ctx, cart); err != nil {
		return nil, nil, err
	}
	return cart, line, nil
}

func (s *CartService) UpdateQuantity(ctx context.Context, userID, lineID uuid.UUID, delta int) (*models.Cart, error) {
	if delta == 0 {
		return nil, fmt.Errorf("%w: delta must not be zero", ErrValidation)
	}

	cart, err := s.Store.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	lines, err := pricing.UpdateQuantity(cart.Lines, lineID, delta)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}

	cart.Lines = lines
	cart.Changed()
	if err := s.Store.Save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// RemoveLine drops a line. Removing a line that is not there leaves the cart as it was.
func (s *CartService) RemoveLine(ctx context.Context, userID, lineID uuid.UUID) (*models.Cart, error) {
	cart, err := s.Store.Load(ctx, userID)
	if err != nil {
		return nil, err
	}

	lines := pricing.RemoveLine(cart.Lines, lineID)
	if len(lines) == len(cart.Lines) {
		return cart, nil
	}
	cart.Lines = lines
	cart.Changed()
	if err := s.Store.Save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *CartService) Clear(ctx context.Context, userID uuid.UUID) error {
	return s.Store.Delete(ctx, userID)
}

// Checkout turns the cart into an order on behalf of the caller. The cart id is the
// idempotency key, so a retried checkout returns the order the first attempt created.
// The cart is kept on failure and cleared only once the order exists.
func (s *CartService) Checkout(ctx context.Context, userID uuid.UUID, accessToken string) (*orderclient.Order, error) {
	cart, err := s.Store.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cart.Empty() {
		return nil, fmt.Errorf("%w: cart is empty", ErrValidation)
	}

	req := orderclient.CreateOrderRequest{Lines: make([]orderclient.LineRequest, 0, len(cart.Lines))}
	for _, l := range cart.Lines {
		lr := orderclient.LineRequest{
			ProductID: l.Product.ID,
			Quantity:  l.Quantity,
			Comment:   l.Comment,
		}
		if l.Milk != nil {
			lr.MilkID = l.Milk.ID
		}
		for _, t := range l.Toppings {
			lr.ToppingIDs = append(lr.ToppingIDs, t.ID)
		}
		req.Lines = append(req.Lines, lr)
	}

	order, err := s.Orders.CreateOrder(ctx, accessToken, cart.ID.String(), req)
	switch {
	case errors.Is(err, orderclient.ErrRejected):
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	case errors.Is(err, orderclient.ErrConflict):
		return nil, fmt.Errorf("%w: %v", ErrConflict, err)
	case err != nil:
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	if err := s.Store.Delete(ctx, userID); err != nil {
		logging.FromContext(ctx).Warn("cart_clear_after_checkout_error", "order_id", order.ID, "error", err)
	}
	return order, nil
}
