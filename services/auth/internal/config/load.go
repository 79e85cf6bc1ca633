package config

import (
	"os"
	"time"

	"github.com/Skotchmaster/bubba_express/pkg/config"
	"github.com/Skotchmaster/bubba_express/services/auth/internal/service"
)

type ServiceConfig struct {
	config.Config

	AdminEmails []string
	AccessTTL   time.Duration
	RefreshTTL  time.Duration
}

func Load() ServiceConfig {
	cfg := config.Load()

	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	config.MustNonEmptyBytes(cfg.JWTAccessSecret, "JWT_SECRET")
	config.MustNonEmptyBytes(cfg.JWTRefreshSecret, "JWT_REFRESH_SECRET")

	if cfg.ServiceName == "" {
		cfg.ServiceName = "auth"
	}

	return ServiceConfig{
		Config:      cfg,
		AdminEmails: config.CSV(os.Getenv("ADMIN_EMAILS")),
		AccessTTL:   config.EnvDurationDefault("ACCESS_TTL", service.DefaultAccessTTL),
		RefreshTTL:  config.EnvDurationDefault("REFRESH_TTL", service.DefaultRefreshTTL),
	}
}
