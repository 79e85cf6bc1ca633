package config

import "github.com/Skotchmaster/bubba_express/pkg/config"

type ServiceConfig struct {
	config.Config

	SeedMenu bool
}

func Load() ServiceConfig {
	cfg := config.Load()

	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	config.MustNonEmptyBytes(cfg.JWTAccessSecret, "JWT_SECRET")
	config.MustNonEmpty(cfg.AuthHTTPURL, "AUTH_URL")

	if cfg.ServiceName == "" {
		cfg.ServiceName = "catalog"
	}
	if cfg.KafkaGroupID == "" {
		cfg.KafkaGroupID = "catalog-stock"
	}

	return ServiceConfig{
		Config:   cfg,
		SeedMenu: config.EnvBoolDefault("SEED_MENU", false),
	}
}
