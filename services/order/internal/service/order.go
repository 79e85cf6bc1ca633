package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Skotchmaster/bubba_express/pkg/catalogclient"
	"github.com/Skotchmaster/bubba_express/pkg/logging"
	"github.com/Skotchmaster/bubba_express/pkg/mykafka"
	"github.com/Skotchmaster/bubba_express/pkg/orderstatus"
	"github.com/Skotchmaster/bubba_express/pkg/pricing"
	"github.com/Skotchmaster/bubba_express/services/order/internal/idempotency"
	"github.com/Skotchmaster/bubba_express/services/order/internal/models"
	"github.com/Skotchmaster/bubba_express/services/order/internal/transport"
)

var (
	ErrValidation = errors.New("validation") // 400
	ErrForbidden  = errors.New("forbidden")  // 403
	ErrNotFound   = errors.New("not found")  // 404
	ErrConflict   = errors.New("conflict")   // 409
	ErrUpstream   = errors.New("upstream")   // 502
)

const DefaultPickupLocation = "Universidad De La Salle Bajío - Cafetería El Rincon de la Bubba (Frente a Santander)"

type Repository interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListOrders(ctx context.Context, userID uuid.UUID, offset, limit int) (int64, []models.Order, error)
	ListAllOrders(ctx context.Context, status orderstatus.Status, offset, limit int) (int64, []models.Order, error)
	CompareAndSetStatus(ctx context.Context, id uuid.UUID, from, to orderstatus.Status) (bool, error)
	RewardTotals(ctx context.Context, userID uuid.UUID) ([]decimal.Decimal, error)
}

// ChangeNotifier is told about every committed order change so live subscribers can be updated.
type ChangeNotifier interface {
	OrderChanged(ctx context.Context, o *models.Order)
}

// Requester is the authenticated caller as the auth middleware describes it.
type Requester struct {
	UserID uuid.UUID
	Email  string
	Role   string
}

func (r Requester) Actor() orderstatus.Actor {
	return orderstatus.ActorForRole(r.Role)
}

type OrderService struct {
	Repo           Repository
	Catalog        catalogclient.ProductSource
	Idempotency    idempotency.Store
	Producer       mykafka.EventPublisher
	Notifier       ChangeNotifier
	PickupLocation string
}

// CreateOrder prices the submitted lines against the current catalog and stores a confirmed order.
// The bool result is true when an earlier order was replayed for the same idempotency key.
func (s *OrderService) CreateOrder(ctx context.Context, req Requester, in transport.CreateOrderRequest, idemKey string) (*models.Order, bool, error) {
	if len(in.Lines) == 0 {
		return nil, false, fmt.Errorf("%w: cart is empty", ErrValidation)
	}
	for _, l := range in.Lines {
		if l.ProductID == uuid.Nil {
			return nil, false, fmt.Errorf("%w: product_id required", ErrValidation)
		}
		if l.Quantity < 1 {
			return nil, false, fmt.Errorf("%w: quantity must be > 0", ErrValidation)
		}
	}

	scope := req.UserID.String()
	if idemKey != "" && s.Idempotency != nil {
		prev, err := s.Idempotency.Reserve(ctx, scope, idemKey)
		switch {
		case errors.Is(err, idempotency.ErrInFlight):
			return nil, false, fmt.Errorf("%w: order with this key is being created", ErrConflict)
		case err != nil:
			return nil, false, err
		case prev != "":
			order, err := s.replay(ctx, req, prev)
			return order, err == nil, err
		}
	}

	order, err := s.createOrder(ctx, req, in)
	if idemKey != "" && s.Idempotency != nil {
		if err != nil {
			if rErr := s.Idempotency.Release(ctx, scope, idemKey); rErr != nil {
				logging.FromContext(ctx).Warn("idempotency_release_error", "error", rErr)
			}
			return nil, false, err
		}
		if cErr := s.Idempotency.Complete(ctx, scope, idemKey, order.ID.String()); cErr != nil {
			logging.FromContext(ctx).Warn("idempotency_complete_error", "order_id", order.ID, "error", cErr)
		}
	}
	if err != nil {
		return nil, false, err
	}

	s.publish(ctx, mykafka.EventOrderCreated, order, "", req)
	s.notify(ctx, order)
	return order, false, nil
}

func (s *OrderService) replay(ctx context.Context, req Requester, prevID string) (*models.Order, error) {
	id, err := uuid.Parse(prevID)
	if err != nil {
		return nil, fmt.Errorf("stored idempotency result %q: %w", prevID, err)
	}
	return s.GetOrder(ctx, req, id)
}

func (s *OrderService) createOrder(ctx context.Context, req Requester, in transport.CreateOrderRequest) (*models.Order, error) {
	var lines []pricing.Line
	for _, l := range in.Lines {
		p, err := s.Catalog.GetProduct(ctx, l.ProductID)
		if err != nil {
			if errors.Is(err, catalogclient.ErrNotFound) {
				return nil, fmt.Errorf("%w: product %s not available", ErrValidation, l.ProductID)
			}
			return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
		}

		lines, _, err = pricing.AddLine(lines, p, pricing.Selection{
			MilkID:     l.MilkID,
			ToppingIDs: l.ToppingIDs,
			Comment:    l.Comment,
		}, l.Quantity)
		if err != nil {
			switch {
			case errors.Is(err, pricing.ErrOutOfStock):
				return nil, fmt.Errorf("%w: %v", ErrConflict, err)
			default:
				return nil, fmt.Errorf("%w: %v", ErrValidation, err)
			}
		}
	}

	totals := pricing.ComputeTotals(lines)
	location := s.PickupLocation
	if location == "" {
		location = DefaultPickupLocation
	}

	order := &models.Order{
		UserID:         req.UserID,
		UserEmail:      req.Email,
		Status:         orderstatus.Initial,
		Subtotal:       totals.Subtotal,
		Tax:            totals.Tax,
		Total:          totals.Total,
		PickupLocation: location,
		Lines:          models.LinesFromCart(lines),
	}
	if err := s.Repo.CreateOrder(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// GetOrder hides other customers' orders behind ErrNotFound.
func (s *OrderService) GetOrder(ctx context.Context, req Requester, id uuid.UUID) (*models.Order, error) {
	order, err := s.Repo.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order %s", ErrNotFound, id)
		}
		return nil, err
	}
	if req.Actor() != orderstatus.Staff && order.UserID != req.UserID {
		return nil, fmt.Errorf("%w: order %s", ErrNotFound, id)
	}
	return order, nil
}

func (s *OrderService) ListMyOrders(ctx context.Context, userID uuid.UUID, offset, limit int) (int64, []models.Order, error) {
	return s.Repo.ListOrders(ctx, userID, offset, limit)
}

func (s *OrderService) ListAllOrders(ctx context.Context, req Requester, status string, offset, limit int) (int64, []models.Order, error) {
	if req.Actor() != orderstatus.Staff {
		return 0, nil, fmt.Errorf("%w: staff only", ErrForbidden)
	}
	var st orderstatus.Status
	if status != "" {
		parsed, err := orderstatus.Parse(status)
		if err != nil {
			return 0, nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		st = parsed
	}
	return s.Repo.ListAllOrders(ctx, st, offset, limit)
}

// Transition is the staff path through the lifecycle. The write is a compare-and-set on the
// source state, so a concurrent change makes it fail with ErrConflict instead of overwriting.
// A target reachable from more than one state needs expected, the state the caller saw.
func (s *OrderService) Transition(ctx context.Context, req Requester, id uuid.UUID, to, expected string) (*models.Order, error) {
	if req.Actor() != orderstatus.Staff {
		return nil, fmt.Errorf("%w: staff only", ErrForbidden)
	}

	target, err := orderstatus.Parse(to)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	sources := orderstatus.Sources(target, orderstatus.Staff)
	if expected != "" {
		from, err := orderstatus.Parse(expected)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		if err := orderstatus.Validate(from, target, orderstatus.Staff, false); err != nil {
			return nil, translate(err)
		}
		sources = []orderstatus.Status{from}
	}
	switch {
	case len(sources) == 0:
		return nil, fmt.Errorf("%w: no transition leads to %s", ErrValidation, target)
	case len(sources) > 1:
		return nil, fmt.Errorf("%w: expected_status required, %s can be reached from %v", ErrValidation, target, sources)
	}

	var applied orderstatus.Status
	from := sources[0]
	ok, err := s.Repo.CompareAndSetStatus(ctx, id, from, target)
	if err != nil {
		return nil, err
	}
	if ok {
		applied = from
	}

	if applied == "" {
		return nil, s.explainRejected(ctx, id)
	}
	return s.afterTransition(ctx, id, applied, req)
}

// CancelOrder is the customer path: only the owner, only from confirmado.
func (s *OrderService) CancelOrder(ctx context.Context, req Requester, id uuid.UUID) (*models.Order, error) {
	order, err := s.Repo.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order %s", ErrNotFound, id)
		}
		return nil, err
	}
	if order.UserID != req.UserID {
		return nil, fmt.Errorf("%w: order %s", ErrNotFound, id)
	}

	if err := orderstatus.Validate(order.Status, orderstatus.Cancelado, orderstatus.Customer, true); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrForbidden, err)
	}

	ok, err := s.Repo.CompareAndSetStatus(ctx, id, orderstatus.Confirmado, orderstatus.Cancelado)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, s.explainRejected(ctx, id)
	}
	return s.afterTransition(ctx, id, orderstatus.Confirmado, req)
}

func (s *OrderService) explainRejected(ctx context.Context, id uuid.UUID) error {
	current, err := s.Repo.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: order %s", ErrNotFound, id)
		}
		return err
	}
	return fmt.Errorf("%w: order is %s", ErrConflict, current.Status)
}

func (s *OrderService) afterTransition(ctx context.Context, id uuid.UUID, from orderstatus.Status, req Requester) (*models.Order, error) {
	order, err := s.Repo.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, mykafka.EventOrderStatusChanged, order, from, req)
	s.notify(ctx, order)
	return order, nil
}

// Rewards sums loyalty points over every order that was not cancelled.
// The average is in whole pesos, halves rounded up.
func (s *OrderService) Rewards(ctx context.Context, userID uuid.UUID) (*transport.RewardsResponse, error) {
	totals, err := s.Repo.RewardTotals(ctx, userID)
	if err != nil {
		return nil, err
	}

	res := &transport.RewardsResponse{
		Orders:       len(totals),
		TotalSpent:   decimal.Zero,
		AverageOrder: decimal.Zero,
	}
	for _, t := range totals {
		res.Points += pricing.PointsEarned(t)
		res.TotalSpent = res.TotalSpent.Add(t)
	}
	if res.Orders > 0 {
		res.AverageOrder = res.TotalSpent.Div(decimal.NewFromInt(int64(res.Orders))).Round(0)
	}
	return res, nil
}

func translate(err error) error {
	switch {
	case errors.Is(err, orderstatus.ErrForbidden):
		return fmt.Errorf("%w: %v", ErrForbidden, err)
	case errors.Is(err, orderstatus.ErrUnknownStatus):
		return fmt.Errorf("%w: %v", ErrValidation, err)
	case errors.Is(err, orderstatus.ErrTerminal), errors.Is(err, orderstatus.ErrIllegalTransition):
		return fmt.Errorf("%w: %v", ErrConflict, err)
	default:
		return err
	}
}

func (s *OrderService) publish(ctx context.Context, eventType string, o *models.Order, from orderstatus.Status, req Requester) {
	if s.Producer == nil {
		return
	}
	items := make([]mykafka.OrderItem, 0, len(o.Lines))
	for _, l := range o.Lines {
		items = append(items, mykafka.OrderItem{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	ev := mykafka.OrderEvent{
		Type:       eventType,
		OrderID:    o.ID,
		UserID:     o.UserID,
		OldStatus:  from.String(),
		NewStatus:  o.Status.String(),
		Actor:      string(req.Actor()) + ":" + req.UserID.String(),
		Total:      o.Total,
		Items:      items,
		OccurredAt: time.Now().UTC(),
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.Producer.PublishEvent(pubCtx, mykafka.TopicOrderEvents, o.ID.String(), ev); err != nil {
		logging.FromContext(ctx).Error("order_event_publish_error", "type", eventType, "order_id", o.ID, "error", err)
	}
}

func (s *OrderService) notify(ctx context.Context, o *models.Order) {
	if s.Notifier != nil {
		s.Notifier.OrderChanged(ctx, o)
	}
}
