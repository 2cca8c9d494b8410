package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"simple-banking/bank"
	"simple-banking/cardnum"
	"simple-banking/config"
	"simple-banking/handler"
	"simple-banking/storage"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// Setup signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	// Initialize storage
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to initialize store", zap.String("backend", cfg.StoreBackend), zap.Error(err))
	}
	defer closeStore()
	logger.Info("store ready", zap.String("backend", cfg.StoreBackend))

	gen := cardnum.NewGenerator(store, cardnum.WithMaxAttempts(cfg.MaxGenAttempt))
	svc := bank.New(store, gen, logger)
	sessions := handler.NewSessions(cfg.JWTSecret, cfg.SessionTTL)

	// Create and start server
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler.NewRouter(svc, sessions, cfg.CORSOrigins, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("starting server", zap.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("ListenAndServe error", zap.Error(err))
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	logger.Info("shutting down server")

	// Create a context for shutdown with a timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
		return
	}

	logger.Info("server gracefully stopped")
}

func newLogger(level string) (*zap.Logger, error) {
	if level == "debug" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// openStore connects the configured backend and returns a function releasing it.
func openStore(ctx context.Context, cfg config.Config) (storage.Store, func(), error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		s, err := storage.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case config.BackendRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPass,
			DB:       cfg.RedisDB,
		})
		s, err := storage.NewRedisStore(ctx, rdb, storage.WithMaxRetries(cfg.RedisRetries))
		if err != nil {
			_ = rdb.Close()
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	case config.BackendMemory:
		return storage.NewMemoryStore(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
