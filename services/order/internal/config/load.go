package config

import (
	"time"

	"github.com/Skotchmaster/bubba_express/pkg/config"
	"github.com/Skotchmaster/bubba_express/services/order/internal/idempotency"
	"github.com/Skotchmaster/bubba_express/services/order/internal/live"
	"github.com/Skotchmaster/bubba_express/services/order/internal/service"
)

type ServiceConfig struct {
	config.Config

	PickupLocation string
	IdempotencyTTL time.Duration
	LiveBuffer     int
	// LiveFeed turns on cross-instance fan-out through LISTEN/NOTIFY.
	LiveFeed bool
}

func Load() ServiceConfig {
	cfg := config.Load()

	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	config.MustNonEmptyBytes(cfg.JWTAccessSecret, "JWT_SECRET")
	config.MustNonEmpty(cfg.AuthHTTPURL, "AUTH_URL")
	config.MustNonEmpty(cfg.CatalogHTTPURL, "CATALOG_URL")

	if cfg.ServiceName == "" {
		cfg.ServiceName = "order"
	}

	return ServiceConfig{
		Config:         cfg,
		PickupLocation: config.EnvDefault("PICKUP_LOCATION", service.DefaultPickupLocation),
		IdempotencyTTL: config.EnvDurationDefault("IDEMPOTENCY_TTL", idempotency.DefaultTTL),
		LiveBuffer:     config.EnvIntDefault("LIVE_BUFFER", live.DefaultBuffer),
		LiveFeed:       config.EnvBoolDefault("LIVE_PG_FEED", true),
	}
}
