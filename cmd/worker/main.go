package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"greetcard/internal/config"
	"greetcard/internal/database"
	"greetcard/internal/logging"
	"greetcard/internal/metrics"
	"greetcard/internal/storage"
	"greetcard/internal/tasks"
	"greetcard/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, closer := logging.New(cfg.Log, "worker")
	defer closer.Close()

	db, err := database.InitDatabase(cfg.Database, logger)
	if err != nil {
		logger.Error("init database", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("database connection ready for worker")

	storageClient, err := storage.NewClient(cfg.MinIO, logger)
	if err != nil {
		logger.Error("init storage client", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("storage client ready", slog.String("bucket", cfg.MinIO.Bucket))

	redisAddr := cfg.Redis.Addr()
	redisClient := redis.NewClient(&redis.Options{Addr: redisAddr})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error("close redis client failed", slog.Any("error", err))
		}
	}()

	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		logger.Error("ping redis", slog.Any("error", err))
		os.Exit(1)
	}

	server := asynq.NewServer(asynq.RedisClientOpt{Addr: redisAddr}, asynq.Config{
		Concurrency: cfg.Worker.Concurrency,
		Logger:      newAsynqLogger(logger),
	})

	previewHandler := worker.NewPreviewTaskHandler(
		db,
		storageClient,
		redisClient,
		worker.NewRodRenderer(logger),
		logger,
		cfg.Worker.FrontendBaseURL,
		cfg.API.PublicBaseURL,
	)

	mux := asynq.NewServeMux()
	mux.Use(metrics.AsynqMetricsMiddleware())
	mux.Handle(tasks.TypeCardPreview, previewHandler)

	logger.Info("worker service started",
		slog.String("redis_addr", redisAddr),
		slog.Int("concurrency", cfg.Worker.Concurrency),
		slog.Bool("builtin_template", cfg.Worker.FrontendBaseURL == ""),
	)
	if err := server.Run(mux); err != nil {
		logger.Error("worker server stopped", slog.Any("error", err))
	}
}
