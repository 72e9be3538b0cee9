package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/bakehouse-labs/bakehouse-backend/api/routes"
	"github.com/bakehouse-labs/bakehouse-backend/internal/availability"
	"github.com/bakehouse-labs/bakehouse-backend/internal/branches"
	"github.com/bakehouse-labs/bakehouse-backend/internal/catalog"
	"github.com/bakehouse-labs/bakehouse-backend/internal/inventory"
	"github.com/bakehouse-labs/bakehouse-backend/internal/orders"
	"github.com/bakehouse-labs/bakehouse-backend/internal/promos"
	"github.com/bakehouse-labs/bakehouse-backend/internal/shipping"
	"github.com/bakehouse-labs/bakehouse-backend/pkg/config"
	"github.com/bakehouse-labs/bakehouse-backend/pkg/db"
	"github.com/bakehouse-labs/bakehouse-backend/pkg/logger"
	"github.com/bakehouse-labs/bakehouse-backend/pkg/maps"
	"github.com/bakehouse-labs/bakehouse-backend/pkg/metrics"
	"github.com/bakehouse-labs/bakehouse-backend/pkg/migrate"
	"github.com/bakehouse-labs/bakehouse-backend/pkg/outbox"
	"github.com/bakehouse-labs/bakehouse-backend/pkg/redis"
)

const shutdownGrace = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	svcs, scheduler, err := buildServices(cfg, logg, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to wire services", err)
		os.Exit(1)
	}

	if err := scheduler.Start(context.Background()); err != nil {
		logg.Error(context.Background(), "failed to start ordering window scheduler", err)
		os.Exit(1)
	}
	defer scheduler.Stop()

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, svcs),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(ctx, "shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
			os.Exit(1)
		}
	}

	logg.Info(ctx, "api server shutting down gracefully")
}

func buildServices(cfg *config.Config, logg *logger.Logger, dbClient *db.Client) (routes.Services, availability.Service, error) {
	gormDB := dbClient.DB()

	branchRepo := branches.NewRepository(gormDB)
	branchSvc, err := branches.NewService(branchRepo)
	if err != nil {
		return routes.Services{}, nil, err
	}

	catalogSvc, err := catalog.NewService(catalog.NewRepository(gormDB))
	if err != nil {
		return routes.Services{}, nil, err
	}

	inventoryRepo := inventory.NewRepository(gormDB)
	ledger, err := inventory.NewService(inventoryRepo, branchRepo, cfg.Pricing.LowStockThreshold)
	if err != nil {
		return routes.Services{}, nil, err
	}

	shippingSvc, err := shipping.NewService(shipping.TiersFromConfig(cfg.Shipping))
	if err != nil {
		return routes.Services{}, nil, err
	}

	promoSvc, err := promos.NewService(promos.NewRepository(gormDB))
	if err != nil {
		return routes.Services{}, nil, err
	}

	scheduler, err := availability.NewScheduler(availability.NewRepository(gormDB), logg, 0)
	if err != nil {
		return routes.Services{}, nil, err
	}

	deps := orders.Deps{
		Tx:       dbClient,
		Repo:     orders.NewRepository(gormDB),
		Catalog:  catalogSvc,
		Branches: branchSvc,
		Ledger:   ledger,
		Stock:    inventoryRepo,
		Shipping: shippingSvc,
		Promos:   promoSvc,
		Gate:     scheduler,
		Outbox:   outbox.NewService(outbox.NewRepository(gormDB), logg),
		Metrics:  metrics.NewCheckoutMetrics(prometheus.DefaultRegisterer),
		Logger:   logg,
		TaxBps:   cfg.Pricing.TaxBps,
	}

	if cfg.GoogleMaps.APIKey != "" {
		geocoder, err := maps.NewClient(cfg.GoogleMaps.APIKey)
		if err != nil {
			return routes.Services{}, nil, err
		}
		deps.Geocoder = geocoder
	}

	orderSvc, err := orders.NewService(deps)
	if err != nil {
		return routes.Services{}, nil, err
	}

	return routes.Services{
		Orders:       orderSvc,
		Branches:     branchSvc,
		Promos:       promoSvc,
		Availability: scheduler,
	}, scheduler, nil
}
