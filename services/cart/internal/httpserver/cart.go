package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/bubba_express/pkg/logging"
	"github.com/Skotchmaster/bubba_express/services/cart/internal/service"
	"github.com/Skotchmaster/bubba_express/services/cart/internal/transport"
)

type CartHTTP struct {
	Svc *service.CartService
}

func userID(c echo.Context) (uuid.UUID, error) {
	s, _ := c.Get("user_id").(string)
	id, err := uuid.Parse(s)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, errors.New("unauthorized")
	}
	return id, nil
}

func fail(l *slog.Logger, event string, err error) error {
	status, msg := http.StatusInternalServerError, "internal error"
	switch {
	case errors.Is(err, service.ErrValidation):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrNotFound):
		status, msg = http.StatusNotFound, err.Error()
	case errors.Is(err, service.ErrConflict):
		status, msg = http.StatusConflict, err.Error()
	case errors.Is(err, service.ErrUpstream):
		status, msg = http.StatusBadGateway, "upstream unavailable"
	}

	if status >= 500 {
		l.Error(event, "status", status, "error", err)
	} else {
		l.Warn(event, "status", status, "reason", msg, "error", err)
	}
	return echo.NewHTTPError(status, msg)
}

func unauthorized(l *slog.Logger, event string, err error) error {
	l.Warn(event, "status", 401, "error", err)
	return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
}

func lineID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "id is not a uuid")
	}
	return id, nil
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get")

	uid, err := userID(c)
	if err != nil {
		return unauthorized(l, "get_cart_error", err)
	}

	cart, err := h.Svc.GetCart(ctx, uid)
	if err != nil {
		return fail(l, "get_cart_error", err)
	}
	return c.JSON(http.StatusOK, transport.FromCart(cart))
}

func (h *CartHTTP) AddLine(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add_line")

	uid, err := userID(c)
	if err != nil {
		return unauthorized(l, "add_line_error", err)
	}

	var in transport.AddLineRequest
	if err := c.Bind(&in); err != nil {
		l.Warn("add_line_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	cart, line, err := h.Svc.AddLine(ctx, uid, in)
	if err != nil {
		return fail(l, "add_line_error", err)
	}

	l.Info("cart_line_added", "user_id", uid, "line_id", line.ID, "product_id", line.Product.ID, "quantity", line.Quantity)
	return c.JSON(http.StatusCreated, transport.FromCart(cart))
}

func (h *CartHTTP) UpdateQuantity(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.update_quantity")

	uid, err := userID(c)
	if err != nil {
		return unauthorized(l, "update_quantity_error", err)
	}
	id, err := lineID(c)
	if err != nil {
		return err
	}

	var in transport.UpdateQuantityRequest
	if err := c.Bind(&in); err != nil {
		l.Warn("update_quantity_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	cart, err := h.Svc.UpdateQuantity(ctx, uid, id, in.Delta)
	if err != nil {
		return fail(l, "update_quantity_error", err)
	}
	return c.JSON(http.StatusOK, transport.FromCart(cart))
}

func (h *CartHTTP) RemoveLine(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove_line")

	uid, err := userID(c)
	if err != nil {
		return unauthorized(l, "remove_line_error", err)
	}
	id, err := lineID(c)
	if err != nil {
		return err
	}

	cart, err := h.Svc.RemoveLine(ctx, uid, id)
	if err != nil {
		return fail(l, "remove_line_error", err)
	}
	return c.JSON(http.StatusOK, transport.FromCart(cart))
}

func (h *CartHTTP) Clear(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.clear")

	uid, err := userID(c)
	if err != nil {
		return unauthorized(l, "clear_cart_error", err)
	}
	if err := h.Svc.Clear(ctx, uid); err != nil {
		return fail(l, "clear_cart_error", err)
	}

	l.Info("cart_cleared", "user_id", uid)
	return c.NoContent(http.StatusNoContent)
}

func (h *CartHTTP) Checkout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.checkout")

	uid, err := userID(c)
	if err != nil {
		return unauthorized(l, "checkout_error", err)
	}
	token, _ := c.Get("access_token").(string)

	order, err := h.Svc.Checkout(ctx, uid, token)
	if err != nil {
		return fail(l, "checkout_error", err)
	}

	l.Info("cart_checked_out", "user_id", uid, "order_id", order.ID, "total", order.Total)
	return c.JSON(http.StatusCreated, order)
}
