package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/diewo77/go-storefront/internal/config"
	"github.com/diewo77/go-storefront/internal/db"
	"github.com/diewo77/go-storefront/internal/logging"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	migrateOnlyFlag = flag.Bool("migrate-only", false, "Run DB migrations and exit")
	seedOnlyFlag    = flag.Bool("seed-only", false, "Run DB seed and exit")
)

func main() {
	flag.Parse()

	// Load environment variables from .env file
	_ = godotenv.Load()

	cfg := *config.Load()
	logger := logging.Must(cfg.App.Dev)
	defer func() { _ = logger.Sync() }()

	dbConn, err := db.Connect(cfg.Database, logger)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}

	if *migrateOnlyFlag {
		if err := migrate(cfg, dbConn); err != nil {
			logger.Fatal("migration failed", zap.Error(err))
		}
		logger.Info("migrations completed successfully")
		return
	}
	if *seedOnlyFlag {
		if err := db.Seed(dbConn); err != nil {
			logger.Fatal("seeding failed", zap.Error(err))
		}
		logger.Info("seeding completed successfully")
		return
	}

	if err := migrate(cfg, dbConn); err != nil {
		logger.Fatal("migration failed", zap.Error(err))
	}
	if cfg.App.Seed {
		if err := db.Seed(dbConn); err != nil {
			logger.Fatal("seeding failed", zap.Error(err))
		}
	}

	app, err := NewApp(context.Background(), cfg, dbConn, logger)
	if err != nil {
		logger.Fatal("failed to build application", zap.Error(err))
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      app,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		logger.Info("server starting",
			zap.String("port", cfg.Server.Port),
			zap.Bool("dev", cfg.App.Dev),
			zap.String("db_driver", cfg.Database.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("error during shutdown", zap.Error(err))
	}
	app.Shutdown()
	logger.Info("server stopped gracefully")
}

// migrate applies the versioned SQL migrations on postgres when MIGRATIONS=1,
// and the model auto-migration otherwise.
func migrate(cfg config.Config, dbConn *gorm.DB) error {
	if cfg.App.Migrations && cfg.Database.Driver == "postgres" {
		return db.MigrateSQL(cfg.Database.URL())
	}
	return db.Migrate(dbConn)
}
