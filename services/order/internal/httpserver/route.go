package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	middleware "github.com/Skotchmaster/bubba_express/pkg/middleware/auth"
)

type Deps struct {
	OrderHandler  *OrderHTTP
	StreamHandler *StreamHTTP
	JWTSecret     []byte
	AuthClient    middleware.Refresher
	// Ready reports whether live updates reach this instance. Nil means always ready.
	Ready func() bool
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil && !d.Ready() {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"message": "live feed is not listening"})
		}
		return c.NoContent(http.StatusOK)
	})

	authMW := middleware.NewAutoRefreshMiddleware(d.JWTSecret, d.AuthClient)

	orders := e.Group("/orders", authMW.RequireAuth)
	orders.POST("", d.OrderHandler.CreateOrder)
	orders.GET("", d.OrderHandler.ListMyOrders)
	orders.GET("/rewards", d.OrderHandler.Rewards)
	orders.GET("/stream", d.StreamHandler.StreamMine)
	orders.GET("/:id", d.OrderHandler.GetOrder)
	orders.GET("/:id/stream", d.StreamHandler.StreamOrder)
	orders.POST("/:id/cancel", d.OrderHandler.CancelOrder)

	admin := e.Group("/orders", authMW.RequireAdmin)
	admin.GET("/admin", d.OrderHandler.ListAllOrders)
	admin.GET("/admin/stream", d.StreamHandler.StreamAll)
	admin.PATCH("/:id/status", d.OrderHandler.UpdateStatus)
}
