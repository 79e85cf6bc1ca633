package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	middleware "github.com/Skotchmaster/bubba_express/pkg/middleware/auth"
)

type Deps struct {
	CatalogHandler *CatalogHTTP
	JWTSecret      []byte
	AuthClient     middleware.Refresher
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	authMW := middleware.NewAutoRefreshMiddleware(d.JWTSecret, d.AuthClient)

	e.GET("/catalog/options", d.CatalogHandler.GetOptions)

	products := e.Group("/catalog/products")
	products.GET("/search", d.CatalogHandler.SearchProducts)
	products.GET("", d.CatalogHandler.GetProducts)
	products.GET("/:id", d.CatalogHandler.GetProduct)

	admin := products.Group("", authMW.RequireAdmin)
	admin.POST("", d.CatalogHandler.CreateProduct)
	admin.PATCH("/:id", d.CatalogHandler.PatchProduct)
	admin.DELETE("/:id", d.CatalogHandler.DeleteProduct)
	admin.POST("/:id/image", d.CatalogHandler.UploadImage)
	admin.POST("/:id/stock", d.CatalogHandler.AdjustStock)
}
