package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	middleware "github.com/Skotchmaster/bubba_express/pkg/middleware/auth"
)

type Deps struct {
	AuditHandler *AuditHTTP
	JWTSecret    []byte
	AuthClient   middleware.Refresher
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	authMW := middleware.NewAutoRefreshMiddleware(d.JWTSecret, d.AuthClient)

	audit := e.Group("/audit", authMW.RequireAdmin)
	audit.GET("/orders/:id", d.AuditHandler.OrderHistory)
}
