package httpserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/bubba_express/pkg/logging"
	"github.com/Skotchmaster/bubba_express/pkg/util"
	"github.com/Skotchmaster/bubba_express/services/order/internal/live"
	"github.com/Skotchmaster/bubba_express/services/order/internal/models"
	"github.com/Skotchmaster/bubba_express/services/order/internal/service"
	"github.com/Skotchmaster/bubba_express/services/order/internal/transport"
)

const keepAlive = 15 * time.Second

// StreamHTTP serves order snapshots as server-sent events.
type StreamHTTP struct {
	Svc       *service.OrderService
	Hub       *live.Hub
	KeepAlive time.Duration
}

func (h *StreamHTTP) StreamOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.stream_one")

	req, err := requester(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}

	sub := h.Hub.Subscribe(live.Filter{OrderID: id})
	defer sub.Close()

	order, err := h.Svc.GetOrder(ctx, req, id)
	if err != nil {
		return fail(l, "stream_order_error", err)
	}
	return h.serve(c, req, sub, transport.FromOrder(order, req.Actor(), req.UserID))
}

func (h *StreamHTTP) StreamMine(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.stream_mine")

	req, err := requester(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	sub := h.Hub.Subscribe(live.Filter{UserID: req.UserID})
	defer sub.Close()

	_, orders, err := h.Svc.ListMyOrders(ctx, req.UserID, 0, util.MaxPageSize)
	if err != nil {
		return fail(l, "stream_mine_error", err)
	}
	return h.serve(c, req, sub, transport.FromOrders(orders, req.Actor(), req.UserID))
}

func (h *StreamHTTP) StreamAll(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.stream_all")

	req, err := requester(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	sub := h.Hub.Subscribe(live.Filter{})
	defer sub.Close()

	_, orders, err := h.Svc.ListAllOrders(ctx, req, "", 0, util.MaxPageSize)
	if err != nil {
		return fail(l, "stream_all_error", err)
	}
	return h.serve(c, req, sub, transport.FromOrders(orders, req.Actor(), req.UserID))
}

// serve writes the snapshot and then relays hub updates until the client goes away
// or the hub drops the subscription.
func (h *StreamHTTP) serve(c echo.Context, req service.Requester, sub *live.Subscription, snapshot any) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx)

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.Header().Set("X-Accel-Buffering", "no")
	res.WriteHeader(http.StatusOK)

	if err := writeEvent(res, "snapshot", snapshot); err != nil {
		return nil
	}

	interval := h.KeepAlive
	if interval <= 0 {
		interval = keepAlive
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case o, ok := <-sub.C:
			if !ok {
				l.Info("stream_dropped", "reason", "subscriber too slow")
				return nil
			}
			if err := writeEvent(res, "order", render(&o, req)); err != nil {
				return nil
			}
		case <-ticker.C:
			if _, err := fmt.Fprint(res, ": ping\n\n"); err != nil {
				return nil
			}
			res.Flush()
		}
	}
}

func render(o *models.Order, req service.Requester) transport.OrderResponse {
	return transport.FromOrder(o, req.Actor(), req.UserID)
}

func writeEvent(res *echo.Response, event string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(res, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	res.Flush()
	return nil
}
