package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver for migrations
	"go.uber.org/zap"

	"github.com/huskyplan/catalog-engine/pkg/config"
	"github.com/huskyplan/catalog-engine/pkg/database"
	"github.com/huskyplan/catalog-engine/pkg/feed"
	"github.com/huskyplan/catalog-engine/pkg/handlers"
	"github.com/huskyplan/catalog-engine/pkg/logging"
	"github.com/huskyplan/catalog-engine/pkg/middleware"
	"github.com/huskyplan/catalog-engine/pkg/repositories"
	"github.com/huskyplan/catalog-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	logger.Info("Configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("version", cfg.Version),
		zap.String("database", cfg.Database.Database),
		zap.String("feed_url", cfg.Feed.SourceURL),
		zap.String("campus", cfg.Feed.Campus),
		zap.Duration("import_interval", cfg.Feed.Interval()))

	// Shutdown context: cancelled on SIGINT/SIGTERM. The scheduler stops at
	// the next suspension point; an open reconciliation transaction either
	// commits or rolls back through pgx before the pool closes.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := runMigrations(cfg, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	logger.Info("Connecting to database",
		zap.String("url", logging.SanitizeConnectionString(cfg.Database.URL())))

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.URL(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	catalogRepo := repositories.NewCatalogRepository(db)
	feedClient := feed.NewClient(cfg.Feed.SourceURL, cfg.Feed.RequestTimeout(), logger)
	importService := services.NewImportService(feedClient, catalogRepo, cfg.Feed.Campus, logger)
	catalogService := services.NewCatalogService(catalogRepo, logger)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewCatalogHandler(catalogService, logger).RegisterRoutes(mux)
	handlers.NewImportHandler(importService, logger).RegisterRoutes(mux)

	go importService.RunScheduler(ctx, cfg.Feed.Interval())

	server := &http.Server{
		Addr:              cfg.BindAddr + ":" + cfg.Port,
		Handler:           middleware.RequestLogger(logger)(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting catalog-engine", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "local" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// runMigrations applies pending schema migrations over a short-lived
// database/sql connection (golang-migrate's driver interface).
func runMigrations(cfg *config.Config, logger *zap.Logger) error {
	sqlDB, err := sql.Open("pgx", cfg.Database.URL())
	if err != nil {
		return err
	}
	defer sqlDB.Close() //nolint:errcheck

	return database.RunMigrations(sqlDB, cfg.MigrationsPath, logger)
}
