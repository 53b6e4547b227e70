package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"

	"greetcard/internal/api"
	"greetcard/internal/auth"
	"greetcard/internal/config"
	"greetcard/internal/database"
	"greetcard/internal/locale"
	"greetcard/internal/logging"
	"greetcard/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, closer := logging.New(cfg.Log, "api")
	defer closer.Close()
	if logging.ParseLevel(cfg.Log.Level) > slog.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}

	logger.Info("api bootstrapping",
		slog.String("db_host", cfg.Database.Host),
		slog.Int("db_port", cfg.Database.Port),
		slog.String("db_name", cfg.Database.Name),
	)

	db, err := database.InitDatabase(cfg.Database, logger)
	if err != nil {
		fatal(logger, "init database", err)
	}
	if err := database.Migrate(db); err != nil {
		fatal(logger, "auto migrate", err)
	}
	logger.Info("database migrated")

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr()})
	defer redisClient.Close()
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		fatal(logger, "ping redis", err)
	}

	taskClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.Redis.Addr()})
	defer taskClient.Close()

	storageClient, err := storage.NewClient(cfg.MinIO, logger)
	if err != nil {
		fatal(logger, "init storage client", err)
	}
	logger.Info("storage client ready", slog.String("bucket", cfg.MinIO.Bucket))

	tokens, err := auth.NewTokenService(cfg.Tokens.EditTokenSecret, cfg.Tokens.EditTokenTTL)
	if err != nil {
		fatal(logger, "init token service", err)
	}

	resolver, err := locale.NewResolver(cfg.Locale.DefaultLanguage)
	if err != nil {
		fatal(logger, "init locale resolver", err)
	}

	router := api.NewRouter(cfg.API, logger)
	api.RegisterRoutes(router, api.Deps{
		DB:      db,
		Tasks:   taskClient,
		Tokens:  tokens,
		Redis:   redisClient,
		Storage: storageClient,
		Scanner: api.NewClamdScanner(cfg.Clamd.Addr),
		Locale:  resolver,
		Logger:  logger,
		API:     cfg.API,
	})

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.API.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Edit-Token", "X-Card-Passcode", "X-Correlation-ID"},
		ExposedHeaders:   []string{"X-Correlation-ID", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           600,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.API.Port),
		Handler:           corsHandler.Handler(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("api listening", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal(logger, "api server stopped", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("api shutdown", slog.Any("error", err))
	}
	logger.Info("api stopped")
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, slog.Any("error", err))
	os.Exit(1)
}
