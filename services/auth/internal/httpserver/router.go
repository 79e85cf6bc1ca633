package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	middleware "github.com/Skotchmaster/bubba_express/pkg/middleware/auth"
)

type Deps struct {
	AuthHandler *AuthHTTP
	JWTSecret   []byte
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	// The auth service is the refresher itself, so expired access tokens are just rejected here.
	authMW := middleware.NewAutoRefreshMiddleware(d.JWTSecret, nil)

	g := e.Group("/auth")
	g.POST("/register", d.AuthHandler.Register)
	g.POST("/login", d.AuthHandler.Login)
	g.POST("/refresh", d.AuthHandler.Refresh)
	g.POST("/logout", d.AuthHandler.LogOut)

	me := g.Group("/me", authMW.RequireAuth)
	me.GET("", d.AuthHandler.Me)
	me.PATCH("", d.AuthHandler.UpdateMe)
	me.POST("/password", d.AuthHandler.ChangePassword)
	me.POST("/photo", d.AuthHandler.UploadPhoto)
}
