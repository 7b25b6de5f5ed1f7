package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/italoogomes/motoflash/internal/core"
	"github.com/italoogomes/motoflash/internal/dispatch"
	"github.com/italoogomes/motoflash/internal/domain"
	"github.com/italoogomes/motoflash/internal/infrastructure/cache"
	"github.com/italoogomes/motoflash/internal/infrastructure/config"
	"github.com/italoogomes/motoflash/internal/infrastructure/database"
	"github.com/italoogomes/motoflash/internal/infrastructure/events"
	"github.com/italoogomes/motoflash/internal/routing"
	"github.com/italoogomes/motoflash/internal/store/memory"
	httptransport "github.com/italoogomes/motoflash/internal/transport/http"
	"github.com/italoogomes/motoflash/pkg/logger"
)

func main() {
	memMode := flag.Bool("memory", false, "run against the in-memory Store instead of Postgres/Redis/Kafka")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		fmt.Println("no .env file found, using system environment variables")
	}

	cfg := config.Load()
	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	log.Info("starting dispatchd")

	var (
		store    domain.Store
		geoCache *cache.Cache
		pub      *events.Publisher
	)

	if *memMode {
		log.Info("running in -memory mode: no Postgres/Redis/Kafka connections made")
		store = memory.New()
	} else {
		db, err := database.NewConnection(cfg.Database.URL)
		if err != nil {
			log.Fatalf("failed to connect to database: %v", err)
		}
		store = database.New(db)
		log.Info("connected to database")

		geoCache, err = cache.New(cfg.Redis.URL, "dispatchd")
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		log.Info("connected to redis")

		pub = events.New(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	}

	routingClient := routing.NewHTTPClient(cfg.Routing.BaseURL, cfg.Routing.APIKey, log)
	dispatcher := dispatch.New(store, routingClient, log)
	dispatcher.Events = pub

	orderService := core.NewOrderService(store, pub, log)
	courierService := core.NewCourierService(store, pub, log)
	dispatchService := core.NewDispatchService(store, dispatcher)

	router := httptransport.NewRouter(httptransport.Services{
		Orders:   orderService,
		Couriers: courierService,
		Dispatch: dispatchService,
		Geocoder: httptransport.NewCachedGeocoder(geoCache),
		Store:    store,
	}, log)

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Infof("server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Errorf("forced shutdown: %v", err)
	} else {
		log.Info("shutdown complete")
	}
}
