package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	middleware "github.com/Skotchmaster/bubba_express/pkg/middleware/auth"
)

type Deps struct {
	CartHandler *CartHTTP
	JWTSecret   []byte
	AuthClient  middleware.Refresher
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	authMW := middleware.NewAutoRefreshMiddleware(d.JWTSecret, d.AuthClient)

	cart := e.Group("/cart", authMW.RequireAuth)
	cart.GET("", d.CartHandler.GetCart)
	cart.DELETE("", d.CartHandler.Clear)
	cart.POST("/lines", d.CartHandler.AddLine)
	cart.PATCH("/lines/:id", d.CartHandler.UpdateQuantity)
	cart.DELETE("/lines/:id", d.CartHandler.RemoveLine)
	cart.POST("/checkout", d.CartHandler.Checkout)
}
