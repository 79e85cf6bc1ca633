package main

import (
	"context"
	"errors"
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
	pkgdb "github.com/Skotchmaster/bubba_express/pkg/db"
	"github.com/Skotchmaster/bubba_express/pkg/logging"
	loggingmw "github.com/Skotchmaster/bubba_express/pkg/middleware/logging"
	"github.com/Skotchmaster/bubba_express/pkg/mykafka"

	ordercfg "github.com/Skotchmaster/bubba_express/services/order/internal/config"
	"github.com/Skotchmaster/bubba_express/services/order/internal/httpserver"
	"github.com/Skotchmaster/bubba_express/services/order/internal/idempotency"
	"github.com/Skotchmaster/bubba_express/services/order/internal/live"
	"github.com/Skotchmaster/bubba_express/services/order/internal/models"
	"github.com/Skotchmaster/bubba_express/services/order/internal/repo"
	"github.com/Skotchmaster/bubba_express/services/order/internal/service"
)

func main() {
	if err := godotenv.Load("services/order/.env"); err != nil {
		log.Printf("warning: could not load .env: %v", err)
	}

	cfg := ordercfg.Load()

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := pkgdb.Open(ctx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	if err := db.AutoMigrate(&models.Order{}, &models.OrderLine{}); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	var idem idempotency.Store = idempotency.NewMemory()
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		pingCtx, pingCancel := context.WithTimeout(context.Background(), 3*time.Second)
		err := rdb.Ping(pingCtx).Err()
		pingCancel()
		if err != nil {
			log.Fatalf("redis ping: %v", err)
		}
		idem = idempotency.NewRedisStore(rdb, cfg.IdempotencyTTL)
	} else {
		logger.Warn("redis_disabled", "reason", "REDIS_ADDR is empty, idempotency keys are process local")
	}

	var producer mykafka.EventPublisher = mykafka.Noop{}
	if len(cfg.KafkaBrokers) > 0 {
		p, err := mykafka.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			log.Fatalf("kafka producer: %v", err)
		}
		defer p.Close()
		producer = p
	} else {
		logger.Warn("kafka_disabled", "reason", "KAFKA_BROKERS is empty")
	}

	orderRepo := &repo.GormRepo{DB: db}
	hub := live.NewHub(cfg.LiveBuffer)

	runCtx, stopRun := context.WithCancel(context.Background())
	defer stopRun()

	var notifier service.ChangeNotifier = live.Local{Hub: hub}
	var ready func() bool
	if cfg.LiveFeed {
		// a stopped feed publishes locally and turns /health/ready red
		feed := &live.PGFeed{DB: db, DSN: cfg.DatabaseURL, Hub: hub, Loader: orderRepo, Log: logger}
		notifier = feed
		ready = feed.Listening
		go func() {
			if err := feed.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("live_feed_stopped", "error", err)
			}
		}()
	}

	svc := &service.OrderService{
		Repo:           orderRepo,
		Catalog:        catalogclient.NewClient(cfg.CatalogHTTPURL),
		Idempotency:    idem,
		Producer:       producer,
		Notifier:       notifier,
		PickupLocation: cfg.PickupLocation,
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.CORS())

	httpserver.Register(e, &httpserver.Deps{
		OrderHandler:  &httpserver.OrderHTTP{Svc: svc},
		StreamHandler: &httpserver.StreamHTTP{Svc: svc, Hub: hub},
		JWTSecret:     cfg.JWTAccessSecret,
		AuthClient:    authclient.NewClient(cfg.AuthHTTPURL),
		Ready:         ready,
	})

	// WriteTimeout stays zero: event streams are long-lived responses.
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("order_listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	stopRun()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = srv.Shutdown(shutdownCtx)

	if rdb != nil {
		_ = rdb.Close()
	}
	pkgdb.Close(db)

	log.Println("order stopped")
}
