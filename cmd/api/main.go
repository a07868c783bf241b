package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/toolcrib/toolcrib-backend/api/routes"
	"github.com/toolcrib/toolcrib-backend/internal/borrowers"
	"github.com/toolcrib/toolcrib-backend/internal/catalog"
	"github.com/toolcrib/toolcrib-backend/internal/clock"
	"github.com/toolcrib/toolcrib-backend/internal/lending"
	"github.com/toolcrib/toolcrib-backend/internal/reports"
	"github.com/toolcrib/toolcrib-backend/pkg/config"
	"github.com/toolcrib/toolcrib-backend/pkg/db"
	"github.com/toolcrib/toolcrib-backend/pkg/logger"
	"github.com/toolcrib/toolcrib-backend/pkg/metrics"
	"github.com/toolcrib/toolcrib-backend/pkg/migrate"
	"github.com/toolcrib/toolcrib-backend/pkg/redis"
)

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

	itemsRepo := catalog.NewRepository(dbClient.DB())
	borrowerRepo := borrowers.NewRepository(dbClient.DB())

	catalogSvc, err := catalog.NewService(itemsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	borrowerSvc, err := borrowers.NewService(borrowerRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create borrower service", err)
		os.Exit(1)
	}

	lendingMetrics := metrics.NewLendingMetrics(prometheus.DefaultRegisterer)
	engine, err := lending.NewEngine(lending.EngineParams{
		Tx:        dbClient,
		Items:     itemsRepo,
		Borrowers: borrowerRepo,
		History:   lending.NewHistoryRepository(dbClient.DB()),
		Active:    lending.NewActiveRepository(dbClient.DB()),
		Clock:     clock.NewSystem(),
		Metrics:   lendingMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create lending engine", err)
		os.Exit(1)
	}

	reportsSvc, err := reports.NewService(dbClient.DB(), clock.NewSystem(), cfg.Reports.HistoryMaxLimit)
	if err != nil {
		logg.Error(context.Background(), "failed to create reports service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:    cfg,
			Logger:    logg,
			DB:        dbClient,
			Redis:     redisClient,
			Catalog:   catalogSvc,
			Borrowers: borrowerSvc,
			Lending:   engine,
			Reports:   reportsSvc,
			Gatherer:  prometheus.DefaultGatherer,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
