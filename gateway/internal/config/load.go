package config

import (
	"os"

	"github.com/Skotchmaster/bubba_express/pkg/config"
)

type ServiceConfig struct {
	config.Config

	CartHTTPURL  string
	AuditHTTPURL string

	// RateLimitRPS and RateLimitBurst size the per-IP token bucket.
	RateLimitRPS   int
	RateLimitBurst int

	CookieSecure bool
}

func Load() ServiceConfig {
	cfg := config.Load()

	config.MustNonEmptyBytes(cfg.JWTAccessSecret, "JWT_SECRET")
	config.MustNonEmpty(cfg.AuthHTTPURL, "AUTH_URL")
	config.MustNonEmpty(cfg.CatalogHTTPURL, "CATALOG_URL")
	config.MustNonEmpty(cfg.OrderHTTPURL, "ORDER_URL")

	cartURL := os.Getenv("CART_URL")
	config.MustNonEmpty(cartURL, "CART_URL")

	if cfg.ServiceName == "" {
		cfg.ServiceName = "gateway"
	}

	return ServiceConfig{
		Config:         cfg,
		CartHTTPURL:    cartURL,
		AuditHTTPURL:   os.Getenv("AUDIT_URL"),
		RateLimitRPS:   config.EnvIntDefault("RATE_LIMIT_RPS", 20),
		RateLimitBurst: config.EnvIntDefault("RATE_LIMIT_BURST", 40),
		CookieSecure:   config.EnvBoolDefault("COOKIE_SECURE", false),
	}
}
