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
	pkgdb "github.com/Skotchmaster/bubba_express/pkg/db"
	"github.com/Skotchmaster/bubba_express/pkg/logging"
	loggingmw "github.com/Skotchmaster/bubba_express/pkg/middleware/logging"
	"github.com/Skotchmaster/bubba_express/pkg/mykafka"
	"github.com/Skotchmaster/bubba_express/pkg/objectstore"

	catalogcfg "github.com/Skotchmaster/bubba_express/services/catalog/internal/config"
	"github.com/Skotchmaster/bubba_express/services/catalog/internal/httpserver"
	"github.com/Skotchmaster/bubba_express/services/catalog/internal/models"
	"github.com/Skotchmaster/bubba_express/services/catalog/internal/repo"
	"github.com/Skotchmaster/bubba_express/services/catalog/internal/search"
	"github.com/Skotchmaster/bubba_express/services/catalog/internal/service"
)

func main() {
	if err := godotenv.Load("services/catalog/.env"); err != nil {
		log.Printf("warning: could not load .env: %v", err)
	}

	cfg := catalogcfg.Load()

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := pkgdb.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	if err := db.AutoMigrate(&models.Product{}, &models.StockReservation{}); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	svc := &service.CatalogService{
		Repo:     &repo.GormRepo{DB: db},
		Producer: mykafka.Noop{},
	}

	if cfg.ESURL != "" {
		client, err := search.NewClient(cfg.ESURL, cfg.ESUser, cfg.ESPassword)
		if err != nil {
			log.Fatalf("elasticsearch: %v", err)
		}
		idx := &search.ES{Client: client, Index: cfg.ESIndex}
		if err := idx.EnsureIndex(ctx); err != nil {
			log.Fatalf("elasticsearch index: %v", err)
		}
		svc.Index = idx
	} else {
		logger.Warn("search_index_disabled", "reason", "ES_URL is empty, search uses the database")
	}

	if cfg.ObjectStore.Endpoint != "" {
		store, err := objectstore.New(ctx, cfg.ObjectStore)
		if err != nil {
			log.Fatalf("object store: %v", err)
		}
		svc.Images = store
	} else {
		logger.Warn("image_uploads_disabled", "reason", "OBJECT_STORE_ENDPOINT is empty")
	}

	runCtx, stopRun := context.WithCancel(context.Background())
	defer stopRun()

	if len(cfg.KafkaBrokers) > 0 {
		producer, err := mykafka.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			log.Fatalf("kafka producer: %v", err)
		}
		defer producer.Close()
		svc.Producer = producer

		consumer := mykafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaGroupID, mykafka.TopicOrderEvents, logger)
		defer consumer.Close()
		go func() {
			if err := consumer.Run(logging.IntoContext(runCtx, logger), svc.HandleOrderEvent); err != nil {
				logger.Error("stock_consumer_stopped", "error", err)
			}
		}()
	} else {
		logger.Warn("kafka_disabled", "reason", "KAFKA_BROKERS is empty, stock is not reserved by orders")
	}

	if cfg.SeedMenu {
		n, err := svc.SeedDefaultMenu(ctx)
		if err != nil {
			log.Fatalf("seed menu: %v", err)
		}
		logger.Info("menu_seeded", "products", n)
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.CORS())

	httpserver.Register(e, &httpserver.Deps{
		CatalogHandler: &httpserver.CatalogHTTP{Svc: svc},
		JWTSecret:      cfg.JWTAccessSecret,
		AuthClient:     authclient.NewClient(cfg.AuthHTTPURL),
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}

	go func() {
		logger.Info("catalog_listening", "addr", srv.Addr)
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
	pkgdb.Close(db)

	log.Println("catalog stopped")
}
