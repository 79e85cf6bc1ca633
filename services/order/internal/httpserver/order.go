package httpserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/bubba_express/pkg/logging"
	"github.com/Skotchmaster/bubba_express/pkg/util"
	"github.com/Skotchmaster/bubba_express/services/order/internal/service"
	"github.com/Skotchmaster/bubba_express/services/order/internal/transport"
)

const idempotencyHeader = "Idempotency-Key"

type OrderHTTP struct {
	Svc *service.OrderService
}

func requester(c echo.Context) (service.Requester, error) {
	s, _ := c.Get("user_id").(string)
	id, err := uuid.Parse(s)
	if err != nil || id == uuid.Nil {
		return service.Requester{}, errors.New("unauthorized")
	}
	role, _ := c.Get("role").(string)
	email, _ := c.Get("email").(string)
	return service.Requester{UserID: id, Email: email, Role: role}, nil
}

// fail logs err under event and converts it into the matching HTTP error.
func fail(l *slog.Logger, event string, err error) error {
	status, msg := http.StatusInternalServerError, "internal error"
	switch {
	case errors.Is(err, service.ErrValidation):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrForbidden):
		status, msg = http.StatusForbidden, err.Error()
	case errors.Is(err, service.ErrNotFound):
		status, msg = http.StatusNotFound, "order not found"
	case errors.Is(err, service.ErrConflict):
		status, msg = http.StatusConflict, err.Error()
	case errors.Is(err, service.ErrUpstream):
		status, msg = http.StatusBadGateway, "catalog unavailable"
	}

	if status >= 500 {
		l.Error(event, "status", status, "error", err)
	} else {
		l.Warn(event, "status", status, "reason", msg, "error", err)
	}
	return echo.NewHTTPError(status, msg)
}

func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "id is not a uuid")
	}
	return id, nil
}

func (h *OrderHTTP) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.create")

	req, err := requester(c)
	if err != nil {
		l.Warn("create_order_error", "status", 401, "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var in transport.CreateOrderRequest
	if err := c.Bind(&in); err != nil {
		l.Warn("create_order_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	key := strings.TrimSpace(c.Request().Header.Get(idempotencyHeader))
	order, replayed, err := h.Svc.CreateOrder(ctx, req, in, key)
	if err != nil {
		return fail(l, "create_order_error", err)
	}

	res := transport.FromOrder(order, req.Actor(), req.UserID)
	if replayed {
		l.Info("create_order_replayed", "order_id", order.ID)
		return c.JSON(http.StatusOK, res)
	}
	l.Info("create_order_success", "order_id", order.ID, "total", order.Total.String())
	return c.JSON(http.StatusCreated, res)
}

func (h *OrderHTTP) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get")

	req, err := requester(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	id, err := parseID(c)
	if err != nil {
		l.Warn("get_order_error", "status", 400, "reason", "id is not a uuid")
		return err
	}

	order, err := h.Svc.GetOrder(ctx, req, id)
	if err != nil {
		return fail(l, "get_order_error", err)
	}
	return c.JSON(http.StatusOK, transport.FromOrder(order, req.Actor(), req.UserID))
}

func (h *OrderHTTP) ListMyOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list_mine")

	req, err := requester(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	offset, limit := util.ParsePage(c.QueryParam("page"), c.QueryParam("size"))

	total, orders, err := h.Svc.ListMyOrders(ctx, req.UserID, offset, limit)
	if err != nil {
		return fail(l, "list_orders_error", err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": transport.FromOrders(orders, req.Actor(), req.UserID),
		"meta": util.Meta(page, limit, offset, total),
	})
}

func (h *OrderHTTP) ListAllOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list_all")

	req, err := requester(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	offset, limit := util.ParsePage(c.QueryParam("page"), c.QueryParam("size"))

	total, orders, err := h.Svc.ListAllOrders(ctx, req, c.QueryParam("status"), offset, limit)
	if err != nil {
		return fail(l, "list_all_orders_error", err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": transport.FromOrders(orders, req.Actor(), req.UserID),
		"meta": util.Meta(page, limit, offset, total),
	})
}

func (h *OrderHTTP) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.update_status")

	req, err := requester(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	id, err := parseID(c)
	if err != nil {
		l.Warn("update_status_error", "status", 400, "reason", "id is not a uuid")
		return err
	}

	var in transport.UpdateStatusRequest
	if err := c.Bind(&in); err != nil || in.Status == "" {
		l.Warn("update_status_error", "status", 400, "reason", "status required", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "status required")
	}

	order, err := h.Svc.Transition(ctx, req, id, in.Status, in.ExpectedStatus)
	if err != nil {
		return fail(l, "update_status_error", err)
	}

	l.Info("update_status_success", "order_id", order.ID, "status", order.Status.String())
	return c.JSON(http.StatusOK, transport.FromOrder(order, req.Actor(), req.UserID))
}

func (h *OrderHTTP) CancelOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.cancel")

	req, err := requester(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	id, err := parseID(c)
	if err != nil {
		l.Warn("cancel_order_error", "status", 400, "reason", "id is not a uuid")
		return err
	}

	order, err := h.Svc.CancelOrder(ctx, req, id)
	if err != nil {
		return fail(l, "cancel_order_error", err)
	}

	l.Info("cancel_order_success", "order_id", order.ID)
	return c.JSON(http.StatusOK, transport.FromOrder(order, req.Actor(), req.UserID))
}

func (h *OrderHTTP) Rewards(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.rewards")

	req, err := requester(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	res, err := h.Svc.Rewards(ctx, req.UserID)
	if err != nil {
		return fail(l, "rewards_error", err)
	}
	return c.JSON(http.StatusOK, res)
}
