package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCSV(t *testing.T) {
	t.Parallel()

	assert.Nil(t, CSV(""))
	assert.Equal(t, []string{"a:9092", "b:9092"}, CSV(" a:9092 , ,b:9092"))
}

func TestEnvDefaults(t *testing.T) {
	t.Setenv("BUBBA_TEST_INT", "42")
	t.Setenv("BUBBA_TEST_BAD_INT", "x")
	t.Setenv("BUBBA_TEST_BOOL", "true")
	t.Setenv("BUBBA_TEST_DURATION", "90s")
	t.Setenv("BUBBA_TEST_STR", "value")

	assert.Equal(t, 42, EnvIntDefault("BUBBA_TEST_INT", 1))
	assert.Equal(t, 1, EnvIntDefault("BUBBA_TEST_BAD_INT", 1))
	assert.Equal(t, 7, EnvIntDefault("BUBBA_TEST_MISSING", 7))
	assert.True(t, EnvBoolDefault("BUBBA_TEST_BOOL", false))
	assert.False(t, EnvBoolDefault("BUBBA_TEST_MISSING", false))
	assert.Equal(t, 90*time.Second, EnvDurationDefault("BUBBA_TEST_DURATION", time.Minute))
	assert.Equal(t, time.Minute, EnvDurationDefault("BUBBA_TEST_MISSING", time.Minute))
	assert.Equal(t, "value", EnvDefault("BUBBA_TEST_STR", "def"))
	assert.Equal(t, "def", EnvDefault("BUBBA_TEST_MISSING", "def"))
}

func TestLoad(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg := Load()
	assert.Equal(t, ":9090", cfg.Addr())
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, []byte("s3cret"), cfg.JWTAccessSecret)
	assert.Equal(t, "products", cfg.ESIndex)
}
