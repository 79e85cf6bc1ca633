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

	"github.com/Skotchmaster/bubba_express/pkg/authclient"
	"github.com/Skotchmaster/bubba_express/pkg/logging"
	loggingmw "github.com/Skotchmaster/bubba_express/pkg/middleware/logging"
	"github.com/Skotchmaster/bubba_express/pkg/mykafka"

	auditcfg "github.com/Skotchmaster/bubba_express/services/audit/internal/config"
	"github.com/Skotchmaster/bubba_express/services/audit/internal/httpserver"
	"github.com/Skotchmaster/bubba_express/services/audit/internal/service"
	"github.com/Skotchmaster/bubba_express/services/audit/internal/store"
)

func main() {
	if err := godotenv.Load("services/audit/.env"); err != nil {
		log.Printf("warning: could not load .env: %v", err)
	}

	cfg := auditcfg.Load()

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	storage, err := store.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		cancel()
		log.Fatalf("mongodb: %v", err)
	}
	if err := storage.CreateIndexes(ctx); err != nil {
		cancel()
		log.Fatalf("mongodb indexes: %v", err)
	}
	cancel()

	svc := &service.AuditService{Store: store.NewAuditRepository(storage.Database())}

	runCtx, stopRun := context.WithCancel(context.Background())
	defer stopRun()

	consumer := mykafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaGroupID, mykafka.TopicOrderEvents, logger)
	defer consumer.Close()
	go func() {
		if err := consumer.Run(logging.IntoContext(runCtx, logger), svc.HandleOrderEvent); err != nil {
			logger.Error("audit_consumer_stopped", "error", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.CORS())

	httpserver.Register(e, &httpserver.Deps{
		AuditHandler: &httpserver.AuditHTTP{Svc: svc},
		JWTSecret:    cfg.JWTAccessSecret,
		AuthClient:   authclient.NewClient(cfg.AuthHTTPURL),
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}

	go func() {
		logger.Info("audit_listening", "addr", srv.Addr)
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
	_ = storage.Close(shutdownCtx)

	log.Println("audit stopped")
}
