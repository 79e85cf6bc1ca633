package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Skotchmaster/bubba_express/services/cart/internal/repo"
)

func TestLoad(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("AUTH_URL", "http://auth:8080")
	t.Setenv("CATALOG_URL", "http://catalog:8080")
	t.Setenv("ORDER_URL", "http://order:8080")
	t.Setenv("SERVICE_NAME", "")
	t.Setenv("CART_TTL", "")

	cfg := Load()
	assert.Equal(t, "cart", cfg.ServiceName)
	assert.Equal(t, repo.DefaultTTL, cfg.CartTTL)

	t.Setenv("CART_TTL", "30m")
	assert.Equal(t, 30*time.Minute, Load().CartTTL)
}
