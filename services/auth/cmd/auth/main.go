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
	echomw "github.com/labstack/echo/v4/middleware"

	pkgdb "github.com/Skotchmaster/bubba_express/pkg/db"
	"github.com/Skotchmaster/bubba_express/pkg/logging"
	loggingmw "github.com/Skotchmaster/bubba_express/pkg/middleware/logging"
	"github.com/Skotchmaster/bubba_express/pkg/mykafka"
	"github.com/Skotchmaster/bubba_express/pkg/objectstore"

	authcfg "github.com/Skotchmaster/bubba_express/services/auth/internal/config"
	"github.com/Skotchmaster/bubba_express/services/auth/internal/httpserver"
	"github.com/Skotchmaster/bubba_express/services/auth/internal/models"
	"github.com/Skotchmaster/bubba_express/services/auth/internal/repo"
	"github.com/Skotchmaster/bubba_express/services/auth/internal/service"
)

func main() {
	if err := godotenv.Load("services/auth/.env"); err != nil {
		log.Printf("warning: could not load .env: %v", err)
	}

	cfg := authcfg.Load()

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := pkgdb.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.RefreshToken{}); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	svc := &service.AuthService{
		Repo:          &repo.GormRepo{DB: db},
		JWTSecret:     cfg.JWTAccessSecret,
		RefreshSecret: cfg.JWTRefreshSecret,
		AdminEmails:   service.AdminSet(cfg.AdminEmails),
		Producer:      mykafka.Noop{},
		AccessTTL:     cfg.AccessTTL,
		RefreshTTL:    cfg.RefreshTTL,
	}

	if len(cfg.KafkaBrokers) > 0 {
		producer, err := mykafka.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			log.Fatalf("kafka producer: %v", err)
		}
		defer producer.Close()
		svc.Producer = producer
	} else {
		logger.Warn("kafka_disabled", "reason", "KAFKA_BROKERS is empty")
	}

	if cfg.ObjectStore.Endpoint != "" {
		store, err := objectstore.New(ctx, cfg.ObjectStore)
		if err != nil {
			log.Fatalf("object store: %v", err)
		}
		svc.Photos = store
	} else {
		logger.Warn("photo_uploads_disabled", "reason", "OBJECT_STORE_ENDPOINT is empty")
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.CORS())

	httpserver.Register(e, &httpserver.Deps{
		AuthHandler: &httpserver.AuthHTTP{Svc: svc},
		JWTSecret:   cfg.JWTAccessSecret,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}

	go func() {
		logger.Info("auth_listening", "addr", srv.Addr)
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
	pkgdb.Close(db)

	log.Println("auth stopped")
}
