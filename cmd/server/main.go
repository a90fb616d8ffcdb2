package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"marketingops/internal/delivery"
	"marketingops/internal/domain"
	"marketingops/internal/infrastructure"
	"marketingops/internal/usecase"
	"marketingops/pkg/config"
	"marketingops/pkg/logger"
	"marketingops/pkg/metrics"

	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level)
	log.WithFields(map[string]any{
		"port":        cfg.Server.Port,
		"store":       cfg.Storage.Backend,
		"ai_provider": cfg.AI.Provider,
	}).Info("Starting server")

	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("Server stopped")
	}
}

func run(cfg *config.Config, log *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	store, closeStore, err := openStore(ctx, cfg, log, m)
	if err != nil {
		return err
	}
	defer closeStore()

	cache, closeCache, err := openCache(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeCache()

	generator, err := openGenerator(ctx, cfg, log, m)
	if err != nil {
		return err
	}

	var exportClient domain.ExportClient
	if cfg.Export.SinkURL != "" {
		exportClient = infrastructure.NewSinkClient(cfg.Export.SinkURL, cfg.Export.SinkSecret, cfg.Export.RequestTimeout, cfg.Export.RateLimitPerSecond, log, m)
	} else {
		log.Warn("SINK_URL not set, export disabled")
	}

	dashboards := usecase.NewDashboardService(store, cache, exportClient, log, m)
	platforms := usecase.NewPlatformService(store, log, m)
	handlers := delivery.NewHTTPHandlers(delivery.Services{
		CRM:        usecase.NewCRMService(store, cache, log, m),
		Campaigns:  usecase.NewCampaignService(store, cache, log, m),
		Goals:      usecase.NewGoalService(store, cache, log, m),
		Platforms:  platforms,
		Dashboards: dashboards,
		Reports:    usecase.NewReportService(dashboards, platforms, generator, log, m).WithTimeout(cfg.AI.RequestTimeout),
	}, store.Backend(), log)

	router := delivery.NewHTTPRouter(handlers, log, m, cfg.Server.RequestTimeout).SetupRoutes()

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", server.Addr).Info("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	log.Info("Server stopped")
	return nil
}

func openStore(ctx context.Context, cfg *config.Config, log *logger.Logger, m *metrics.Metrics) (*infrastructure.DocumentStore, func(), error) {
	switch cfg.Storage.Backend {
	case "sqlite":
		db, err := infrastructure.OpenSQLite(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		log.WithField("path", cfg.Storage.SQLitePath).Info("Using SQLite store")
		return infrastructure.NewSQLiteStore(db, log, m), closeDB(db, log), nil
	case "dynamodb":
		client, err := infrastructure.NewDynamoClient(ctx, cfg.Storage.DynamoRegion, cfg.Storage.DynamoProfile)
		if err != nil {
			return nil, nil, err
		}
		log.WithField("table", cfg.Storage.DynamoTable).Info("Using DynamoDB store")
		return infrastructure.NewDynamoStore(client, cfg.Storage.DynamoTable, log, m), func() {}, nil
	default:
		log.Info("Using in-memory store")
		return infrastructure.NewMemoryStore(log, m), func() {}, nil
	}
}

func closeDB(db *sql.DB, log *logger.Logger) func() {
	return func() {
		if err := db.Close(); err != nil {
			log.WithError(err).Warn("Failed to close database")
		}
	}
}

func openCache(ctx context.Context, cfg *config.Config, log *logger.Logger) (domain.RollupCache, func(), error) {
	if cfg.Cache.RedisAddr == "" {
		return infrastructure.NoopCache{}, func() {}, nil
	}
	client, err := infrastructure.NewRedisClient(ctx, cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB)
	if err != nil {
		return nil, nil, err
	}
	log.WithField("addr", cfg.Cache.RedisAddr).Info("Using Redis rollup cache")
	return infrastructure.NewRedisCache(client, "marketingops", cfg.Cache.TTL, log), closeRedis(client, log), nil
}

func closeRedis(client *redis.Client, log *logger.Logger) func() {
	return func() {
		if err := client.Close(); err != nil {
			log.WithError(err).Warn("Failed to close Redis client")
		}
	}
}

func openGenerator(ctx context.Context, cfg *config.Config, log *logger.Logger, m *metrics.Metrics) (domain.ReportGenerator, error) {
	switch cfg.AI.Provider {
	case "bedrock":
		client, err := infrastructure.NewBedrockClient(ctx, cfg.AI.Region)
		if err != nil {
			return nil, err
		}
		return infrastructure.NewBedrockReports(client, cfg.AI.Model, cfg.AI.RequestsPerMinute, log, m), nil
	case "gemini":
		return infrastructure.NewGeminiReports(ctx, cfg.AI.APIKey, cfg.AI.Model, cfg.AI.RequestsPerMinute, log, m)
	default:
		log.Info("Report generation disabled")
		return nil, nil
	}
}
