package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mkarlsen/tradescribe/internal/ai/llm"
	"github.com/mkarlsen/tradescribe/internal/api"
	"github.com/mkarlsen/tradescribe/internal/api/handlers"
	"github.com/mkarlsen/tradescribe/internal/config"
	"github.com/mkarlsen/tradescribe/internal/database"
	"github.com/mkarlsen/tradescribe/internal/importer"
	"github.com/mkarlsen/tradescribe/internal/logging"
	"github.com/mkarlsen/tradescribe/internal/marketdata"
	"github.com/mkarlsen/tradescribe/internal/middleware"
	"github.com/mkarlsen/tradescribe/internal/observability"
	"github.com/mkarlsen/tradescribe/internal/services"
)

const serviceVersion = "1.0.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "tradescribe failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := observability.InitSentry(cfg.Sentry, serviceVersion, cfg.Environment); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize Sentry: %v\n", err)
	}
	defer observability.Flush(context.Background())

	logger, err := logging.NewLogger(cfg.LogLevel, cfg.Environment)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()

	db, err := database.NewPostgresConnection(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	defer db.Close()

	redisClient, err := database.NewRedisConnection(cfg.Redis, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	defer redisClient.Close()

	// The LLM client is optional; without one the suggestion service
	// falls back to heuristic grouping.
	var llmClient llm.Client
	if cfg.AI.APIKey != "" {
		llmClient, err = llm.NewClient(llm.Provider(cfg.AI.Provider), llm.ClientConfig{
			APIKey:      cfg.AI.APIKey,
			BaseURL:     cfg.AI.BaseURL,
			Model:       cfg.AI.Model,
			HTTPTimeout: cfg.AI.Timeout,
		})
		if err != nil {
			return fmt.Errorf("failed to create llm client: %w", err)
		}
		defer func() { _ = llmClient.Close() }()
	} else {
		logger.Warn("AI_API_KEY not set, link suggestions use heuristic grouping only")
	}

	sessionStore := services.NewSessionStore(redisClient, cfg.Session.TTL, logger)
	sessions := handlers.NewSessionManager(sessionStore, logger)
	suggester := services.NewSuggestionService(llmClient, logger)
	confirmer := services.NewConfirmService(db.Pool, logger)
	quotes := marketdata.NewService(cfg.MarketData.ServiceURL, redisClient, logger)

	importHandler := handlers.NewImportHandler(
		sessions, importer.NewParser(logger), suggester, confirmer, logger)
	healthHandler := handlers.NewHealthHandler(db, redisClient, serviceVersion)
	marketDataHandler := handlers.NewMarketDataHandler(quotes)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Logger())
	if cfg.Sentry.Enabled && cfg.Sentry.DSN != "" {
		router.Use(middleware.Telemetry())
	}
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	limiter := middleware.NewRateLimiter(middleware.DefaultRateLimitConfig(), redisClient.Client, logger)

	api.SetupRoutes(router, api.Deps{
		Import:     importHandler,
		Health:     healthHandler,
		MarketData: marketDataHandler,
		JWTSecret:  cfg.Auth.JWTSecret,
		Limiter:    limiter,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("server listening",
			zap.Int("port", cfg.Server.Port),
			zap.String("environment", cfg.Environment),
			zap.String("version", serviceVersion))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}

	logger.Info("server exited gracefully")
	return nil
}
