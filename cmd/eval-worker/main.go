package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aescanero/dago-adapters/pkg/llm"
	"github.com/aescanero/dago-libs/pkg/ports"
	"github.com/aescanero/dago-node-eval/internal/config"
	"github.com/aescanero/dago-node-eval/internal/eval"
	"github.com/aescanero/dago-node-eval/internal/worker"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Version is set at build time
	Version = "dev"
	// BuildTime is set at build time
	BuildTime = "unknown"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("eval worker failed", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

// run wires the worker and blocks until ctx is cancelled
func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	logger.Info("starting eval worker",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("worker_id", cfg.WorkerID),
		zap.String("config", cfg.String()),
	)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error("failed to close redis connection", zap.Error(err))
		}
	}()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
	}

	factory, err := eval.NewFactory(cfg, newLLMClient(cfg, logger), logger)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := worker.NewMetrics(registry)
	worker.WatchCache(registry, factory)

	processor := worker.NewProcessor(
		factory,
		worker.NewRedisStateStore(redisClient, logger),
		cfg.EvalTimeout,
		metrics,
		logger,
	)

	w := worker.NewWorker(cfg, redisClient, processor, logger)
	if err := w.Start(); err != nil {
		return err
	}

	healthServer := worker.NewHealthServer(cfg.HealthPort, redisClient, factory, registry, logger)
	if err := healthServer.Start(); err != nil {
		return err
	}

	logger.Info("eval worker running",
		zap.Strings("engine_sources", cfg.EngineSources),
		zap.Int("health_port", cfg.HealthPort),
	)
	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := healthServer.Stop(shutdownCtx); err != nil {
		logger.Error("failed to stop health server", zap.Error(err))
	}
	if err := w.Stop(shutdownCtx); err != nil {
		logger.Error("failed to stop worker", zap.Error(err))
	}

	logger.Info("eval worker stopped", zap.Int("cached_evaluators", factory.Len()))
	return nil
}

// newLogger builds a JSON production logger at the given level
func newLogger(level string) (*zap.Logger, error) {
	zapLevel, err := zapcore.ParseLevel(level)
	if err != nil {
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)
	cfg.OutputPaths = []string{"stdout"}
	return cfg.Build()
}

// newLLMClient returns nil when no API key is set or the client cannot be
// built, which leaves the llm engine unregistered
func newLLMClient(cfg *config.Config, logger *zap.Logger) ports.LLMClient {
	if cfg.LLMAPIKey == "" {
		logger.Warn("llm api key not provided (llm engine will not be available)")
		return nil
	}

	client, err := llm.NewClient(&llm.Config{
		Provider: cfg.LLMProvider,
		APIKey:   cfg.LLMAPIKey,
		Logger:   logger.Named("llm"),
	})
	if err != nil {
		logger.Warn("failed to initialize llm client (llm engine will not be available)", zap.Error(err))
		return nil
	}

	logger.Info("llm client initialized",
		zap.String("provider", cfg.LLMProvider),
		zap.String("model", cfg.LLMModel),
	)
	return client
}
