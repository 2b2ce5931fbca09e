package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/localnerve/homespace/internal/cache"
	"github.com/localnerve/homespace/internal/config"
	"github.com/localnerve/homespace/internal/database"
	"github.com/localnerve/homespace/internal/logging"
	"github.com/localnerve/homespace/internal/server"
	"github.com/localnerve/homespace/internal/services"
	"go.uber.org/zap"
)

// @title homespace API
// @version 1.0.0
// @description Dashboard spaces, widgets and link previews
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url https://github.com/localnerve/homespace
// @contact.email info@localnerve.com

// @license.name AGPL-3.0
// @license.url https://www.gnu.org/licenses/agpl-3.0.html

// @host localhost:3000
// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	// Connect to database
	db, err := database.Connect(cfg, logger)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer database.Close(db)

	// Run auto-migrations
	if err := database.AutoMigrate(db); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Preview cache (optional)
	previewCache, err := cache.New(cfg, logger)
	if err != nil {
		logger.Fatal("failed to open preview cache", zap.Error(err))
	}
	if previewCache != nil {
		defer previewCache.Close()
		if bc, ok := previewCache.(*cache.BadgerCache); ok {
			go bc.RunGC(ctx, 10*time.Minute)
		}
		logger.Info("preview cache enabled", zap.String("cache", previewCache.Name()), zap.Duration("ttl", cfg.PreviewTTL))
	}

	app := server.New(server.Deps{
		Config:  cfg,
		DB:      db,
		Cache:   previewCache,
		Fetcher: services.NewHTTPFetcher(cfg, logger),
		Logger:  logger,
		Metrics: fiberprometheus.New("homespace"),
	})

	if cfg.AuthorizerEnabled() {
		logger.Info("authorizer will be initialized on first session request", zap.String("url", cfg.AuthzURL))
	}

	// Graceful shutdown
	go func() {
		<-ctx.Done()
		logger.Info("gracefully shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.Warn("shutdown incomplete", zap.Error(err))
		}
	}()

	// Start server
	logger.Info("starting server", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
	if err := app.Listen(":" + cfg.Port); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}

	logger.Info("server stopped")
}
