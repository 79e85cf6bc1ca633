package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ServiceName string
	LogLevel    string

	ServerPort int

	DatabaseURL string

	JWTAccessSecret  []byte
	JWTRefreshSecret []byte

	AuthHTTPURL    string
	CatalogHTTPURL string
	OrderHTTPURL   string

	KafkaBrokers []string
	KafkaGroupID string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	ESURL      string
	ESUser     string
	ESPassword string
	ESIndex    string

	MongoURI      string
	MongoDatabase string

	ObjectStore ObjectStoreConfig
}

type ObjectStoreConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	PublicURL string
}

func Load() Config {
	return Config{
		ServiceName: EnvDefault("SERVICE_NAME", ""),
		LogLevel:    EnvDefault("LOG_LEVEL", "info"),

		ServerPort: EnvIntDefault("SERVER_PORT", 8080),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		JWTAccessSecret:  []byte(os.Getenv("JWT_SECRET")),
		JWTRefreshSecret: []byte(os.Getenv("JWT_REFRESH_SECRET")),

		AuthHTTPURL:    os.Getenv("AUTH_URL"),
		CatalogHTTPURL: os.Getenv("CATALOG_URL"),
		OrderHTTPURL:   os.Getenv("ORDER_URL"),

		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),
		KafkaGroupID: os.Getenv("KAFKA_GROUP_ID"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       EnvIntDefault("REDIS_DB", 0),

		ESURL:      os.Getenv("ES_URL"),
		ESUser:     os.Getenv("ES_USER"),
		ESPassword: os.Getenv("ES_PASSWORD"),
		ESIndex:    EnvDefault("ES_INDEX", "products"),

		MongoURI:      os.Getenv("MONGO_URI"),
		MongoDatabase: EnvDefault("MONGO_DATABASE", "bubba"),

		ObjectStore: ObjectStoreConfig{
			Endpoint:  os.Getenv("OBJECT_STORE_ENDPOINT"),
			AccessKey: os.Getenv("OBJECT_STORE_ACCESS_KEY"),
			SecretKey: os.Getenv("OBJECT_STORE_SECRET_KEY"),
			Bucket:    EnvDefault("OBJECT_STORE_BUCKET", "images"),
			UseSSL:    EnvBoolDefault("OBJECT_STORE_USE_SSL", false),
			PublicURL: os.Getenv("OBJECT_STORE_PUBLIC_URL"),
		},
	}
}

func (c Config) Addr() string {
	return ":" + strconv.Itoa(c.ServerPort)
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func EnvBoolDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func EnvDurationDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
