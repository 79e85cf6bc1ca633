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

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	gwcfg "github.com/Skotchmaster/bubba_express/gateway/internal/config"
	"github.com/Skotchmaster/bubba_express/gateway/internal/httpserver"
	"github.com/Skotchmaster/bubba_express/pkg/logging"
	"github.com/Skotchmaster/bubba_express/pkg/middleware/csrf"
)

func main() {
	if err := godotenv.Load("gateway/.env"); err != nil {
		log.Printf("warning: could not load .env: %v", err)
	}

	cfg := gwcfg.Load()

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	csrfCfg := csrf.DefaultConfig()
	csrfCfg.Secure = cfg.CookieSecure
	csrfCfg.SkipPaths = httpserver.PublicPaths

	e := echo.New()
	e.HideBanner = true

	if err := httpserver.Register(e, &httpserver.Deps{
		AuthURL:        cfg.AuthHTTPURL,
		CatalogURL:     cfg.CatalogHTTPURL,
		CartURL:        cfg.CartHTTPURL,
		OrderURL:       cfg.OrderHTTPURL,
		AuditURL:       cfg.AuditHTTPURL,
		JWTSecret:      cfg.JWTAccessSecret,
		CSRF:           csrfCfg,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		Logger:         logger,
	}); err != nil {
		log.Fatal(err)
	}

	// No WriteTimeout: order streams stay open.
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("gateway_listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("shutdown: %v", err)
	}
	log.Println("gateway stopped")
}
