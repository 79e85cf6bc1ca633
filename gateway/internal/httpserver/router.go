package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/bubba_express/gateway/internal/middleware"
	"github.com/Skotchmaster/bubba_express/pkg/middleware/csrf"
)

type Deps struct {
	AuthURL    string
	CartURL    string
	CatalogURL string
	OrderURL   string
	// AuditURL may be empty, then /api/v1/audit is not routed.
	AuditURL string

	JWTSecret []byte
	CSRF      csrf.Config

	RateLimitRPS   int
	RateLimitBurst int

	Logger    *slog.Logger
	Transport http.RoundTripper
}

// PublicPaths are reachable without a CSRF token.
var PublicPaths = []string{
	"/health/live",
	"/health/ready",
	"/api/v1/auth/login",
	"/api/v1/auth/register",
	"/api/v1/auth/refresh",
}

func Register(e *echo.Echo, d *Deps) error {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	transport := d.Transport
	if transport == nil {
		transport = newTransport()
	}

	for _, m := range middleware.Common(logger) {
		e.Use(m)
	}
	e.Use(middleware.RateLimit(d.RateLimitRPS, d.RateLimitBurst))
	e.Use(csrf.Middleware(d.CSRF))

	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	// The auth service serves /auth/... itself.
	authProxy, err := newProxy(d.AuthURL, "/api/v1", transport)
	if err != nil {
		return err
	}
	catalogProxy, err := newProxy(d.CatalogURL, "/api/v1", transport)
	if err != nil {
		return err
	}
	cartProxy, err := newProxy(d.CartURL, "/api/v1", transport)
	if err != nil {
		return err
	}
	orderProxy, err := newProxy(d.OrderURL, "/api/v1", transport)
	if err != nil {
		return err
	}

	e.Any("/api/v1/auth/*", authProxy)
	e.Match([]string{http.MethodGet, http.MethodHead}, "/api/v1/catalog/*", catalogProxy)

	api := e.Group("/api/v1")
	api.Use(middleware.Screen(d.JWTSecret))

	api.Match([]string{http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete}, "/catalog/*", catalogProxy)
	api.Any("/cart", cartProxy)
	api.Any("/cart/*", cartProxy)
	api.Any("/orders", orderProxy)
	api.Any("/orders/*", orderProxy)

	if d.AuditURL != "" {
		auditProxy, err := newProxy(d.AuditURL, "/api/v1", transport)
		if err != nil {
			return err
		}
		api.Any("/audit/*", auditProxy)
	} else {
		logger.Warn("audit_route_disabled", "reason", "AUDIT_URL is empty")
	}

	return nil
}
