package httpserver

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/bubba_express/pkg/logging"
	"github.com/Skotchmaster/bubba_express/pkg/util"
	"github.com/Skotchmaster/bubba_express/services/audit/internal/service"
)

type AuditHTTP struct {
	Svc *service.AuditService
}

func (h *AuditHTTP) OrderHistory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "audit.order_history")

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		l.Warn("order_history_error", "status", 400, "reason", "id is not a uuid", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id is not a uuid")
	}

	limit := util.ParseIntDefault(c.QueryParam("limit"), service.DefaultLimit)
	history, err := h.Svc.History(ctx, id, limit)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			l.Warn("order_history_error", "status", 400, "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		l.Error("order_history_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, echo.Map{"data": history})
}
