package config

import (
	"github.com/Skotchmaster/bubba_express/pkg/config"
)

func Load() config.Config {
	cfg := config.Load()

	config.MustNonEmptyBytes(cfg.JWTAccessSecret, "JWT_SECRET")
	config.MustNonEmpty(cfg.AuthHTTPURL, "AUTH_URL")
	config.MustNonEmpty(cfg.MongoURI, "MONGO_URI")
	config.MustNonEmptyList(cfg.KafkaBrokers, "KAFKA_BROKERS")

	if cfg.ServiceName == "" {
		cfg.ServiceName = "audit"
	}
	if cfg.KafkaGroupID == "" {
		cfg.KafkaGroupID = "order-audit"
	}
	return cfg
}
