package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/bubba_express/pkg/authclient"
	"github.com/Skotchmaster/bubba_express/pkg/catalogclient"
	"github.com/Skotchmaster/bubba_express/pkg/logging"
	loggingmw "github.com/Skotchmaster/bubba_express/pkg/middleware/logging"
	"github.com/Skotchmaster/bubba_express/pkg/orderclient"

	cartcfg "github.com/Skotchmaster/bubba_express/services/cart/internal/config"
	"github.com/Skotchmaster/bubba_express/services/cart/internal/httpserver"
	"github.com/Skotchmaster/bubba_express/services/cart/internal/repo"
	"github.com/Skotchmaster/bubba_express/services/cart/internal/service"
)

func main() {
	if err := godotenv.Load("services/cart/.env"); err != nil {
		log.Printf("warning: could not load .env: %v", err)
	}

	cfg := cartcfg.Load()

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	var store repo.Store = repo.NewMemory()
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		pingCtx, pingCancel := context.WithTimeout(context.Background(), 3*time.Second)
		err := rdb.Ping(pingCtx).Err()
		pingCancel()
		if err != nil {
			log.Fatalf("redis ping: %v", err)
		}
		store = repo.NewRedisStore(rdb, cfg.CartTTL)
	} else {
		logger.Warn("redis_disabled", "reason", "REDIS_ADDR is empty, carts live in process memory")
	}

	svc := &service.CartService{
		Store:   store,
		Catalog: catalogclient.NewClient(cfg.CatalogHTTPURL),
		Orders:  orderclient.NewClient(cfg.OrderHTTPURL),
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.CORS())

	httpserver.Register(e, &httpserver.Deps{
		CartHandler: &httpserver.CartHTTP{Svc: svc},
		JWTSecret:   cfg.JWTAccessSecret,
		AuthClient:  authclient.NewClient(cfg.AuthHTTPURL),
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("cart_listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = srv.Shutdown(shutdownCtx)

	if rdb != nil {
		_ = rdb.Close()
	}

	log.Println("cart stopped")
}
