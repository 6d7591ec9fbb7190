package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"catalog/internal/config"
	"catalog/internal/database"
	"catalog/internal/logger"
	"catalog/internal/repositories"
	"catalog/internal/services"
	"catalog/pkg/rabbitmq"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zlog, err := logger.New(cfg.AppEnv)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zlog.Sync() //nolint:errcheck

	if err := run(cfg, zlog); err != nil {
		zlog.Fatal("Server stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, zlog *zap.Logger) error {
	ctx := context.Background()

	// --- Storage ---
	repo, closeStore, err := openRepository(ctx, cfg, zlog)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			zlog.Warn("Failed to close storage", zap.Error(err))
		}
	}()
	if err := repo.EnsureIndexes(ctx); err != nil {
		return err
	}

	// --- Events ---
	var events services.EventPublisher = services.NoopPublisher{}
	if cfg.RabbitMQURL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL, Queue: cfg.RabbitMQQueue})
		if err != nil {
			return err
		}
		defer mqClient.Close()
		events = mqClient
		zlog.Info("Publishing product events", zap.String("queue", cfg.RabbitMQQueue))
	}

	// --- Services ---
	productService := services.NewProductService(repo, events, zlog, services.ProductServiceOptions{
		MaxPageSize: cfg.MaxPageSize,
	})
	authService := services.NewAuthService(services.AuthConfig{
		Username:     cfg.AdminUsername,
		PasswordHash: cfg.AdminPassHash,
		JWTSecret:    cfg.JWTSecret,
		TokenTTL:     cfg.TokenTTL,
	})

	app := NewApp(cfg, productService, authService, zlog)

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	listenErr := make(chan error, 1)
	go func() {
		zlog.Info("Starting server", zap.String("port", cfg.AppPort), zap.String("storage", cfg.StorageDriver))
		listenErr <- app.Listen(cfg.AppPort)
	}()

	select {
	case err := <-listenErr:
		return fmt.Errorf("server failed: %w", err)
	case <-quit:
	}

	zlog.Info("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		zlog.Warn("Error during Fiber shutdown", zap.Error(err))
	}
	zlog.Info("Server gracefully stopped")
	return nil
}

// openRepository connects the configured store and returns its closer.
func openRepository(ctx context.Context, cfg *config.Config, zlog *zap.Logger) (repositories.ProductRepository, func() error, error) {
	switch cfg.StorageDriver {
	case config.DriverMongo:
		db, err := database.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDatabase, zlog)
		if err != nil {
			return nil, nil, err
		}
		return repositories.NewMongoProductRepository(db), func() error { return database.DisconnectMongo(db) }, nil
	case config.DriverPostgres, config.DriverSQLite:
		db, err := database.OpenGORM(cfg.StorageDriver, cfg.DatabaseDSN, cfg.IsProduction())
		if err != nil {
			return nil, nil, err
		}
		return repositories.NewGORMProductRepository(db), func() error { return database.CloseGORM(db) }, nil
	case config.DriverMemory:
		zlog.Warn("Using in-memory storage; data is lost on restart")
		return repositories.NewMemoryProductRepository(), func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}
