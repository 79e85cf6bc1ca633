package config

import (
	"time"

	"github.com/Skotchmaster/bubba_express/pkg/config"
	"github.com/Skotchmaster/bubba_express/services/cart/internal/repo"
)

type ServiceConfig struct {
	config.Config

	// CartTTL is how long an untouched cart survives in Redis.
	CartTTL time.Duration
}

func Load() ServiceConfig {
	cfg := config.Load()

	config.MustNonEmptyBytes(cfg.JWTAccessSecret, "JWT_SECRET")
	config.MustNonEmpty(cfg.AuthHTTPURL, "AUTH_URL")
	config.MustNonEmpty(cfg.CatalogHTTPURL, "CATALOG_URL")
	config.MustNonEmpty(cfg.OrderHTTPURL, "ORDER_URL")

	if cfg.ServiceName == "" {
		cfg.ServiceName = "cart"
	}

	return ServiceConfig{
		Config:  cfg,
		CartTTL: config.EnvDurationDefault("CART_TTL", repo.DefaultTTL),
	}
}
