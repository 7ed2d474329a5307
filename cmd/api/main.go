package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	_ "github.com/joho/godotenv/autoload"
	"github.com/redis/go-redis/v9"

	"github.com/pageza/recipeforge/backend/config"
	"github.com/pageza/recipeforge/backend/internal/api"
	"github.com/pageza/recipeforge/backend/internal/database"
	"github.com/pageza/recipeforge/backend/internal/logger"
	"github.com/pageza/recipeforge/backend/internal/middleware"
	"github.com/pageza/recipeforge/backend/internal/router"
	"github.com/pageza/recipeforge/backend/internal/server"
	"github.com/pageza/recipeforge/backend/internal/service"
	"github.com/pageza/recipeforge/backend/internal/telemetry"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	gin.SetMode(cfg.Environment.GinMode())

	ctx := context.Background()
	shutdownTracing := telemetry.Init(ctx, cfg, log)

	db, err := database.Open(cfg, log)
	if err != nil {
		log.Fatal("Failed to connect to database", "error", err)
	}
	if err := database.RunMigrations(db, cfg.MigrationsDir, log); err != nil {
		log.Fatal("Failed to run migrations", "error", err)
	}

	var redisClient *redis.Client
	if cfg.RedisEnabled() {
		redisClient, err = database.NewRedisClient(cfg, log)
		if err != nil {
			log.Warn("Redis unavailable, rate limits and drafts disabled", "error", err)
			redisClient = nil
		}
	}

	producerOpts := []service.ProducerOption{service.WithAttempts(cfg.PipelineMaxAttempts)}
	if cfg.S3BucketName != "" {
		s3cfg, err := config.NewS3Config(ctx, cfg)
		if err != nil {
			log.Warn("Failure archive disabled", "error", err)
		} else {
			producerOpts = append(producerOpts, service.WithArchiver(service.NewS3Archiver(s3cfg.Client, s3cfg.BucketName)))
			log.Info("Archiving pipeline failures", "bucket", s3cfg.BucketName)
		}
	}

	var producer *service.RecipeProducer
	if llm, err := service.NewLLMService(cfg); err != nil {
		log.Warn("LLM not configured, text-based creation disabled", "error", err)
	} else {
		producer = service.NewRecipeProducer(llm, log, producerOpts...)
	}

	authService := service.NewAuthService(db, cfg.JWTSecret, cfg.JWTTTL)
	recipeService := service.NewRecipeService(db, producer, service.NewEmbeddingService(), log)

	var drafts service.DraftStore
	if redisClient != nil {
		drafts = service.NewRedisDraftStore(redisClient)
	}
	limiter := middleware.NewRecipeCreationRateLimiter(redisClient, cfg.RecipeCreationPerHour)

	checks := map[string]api.Pinger{
		"database": func(ctx context.Context) error { return database.HealthCheck(ctx, db) },
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	engine := router.SetupRouter(router.Handlers{
		Auth:    api.NewAuthHandler(authService, cfg.JWTTTL, cfg.Environment.IsProduction(), log),
		Recipes: api.NewRecipeHandler(recipeService, drafts, log),
		LLM:     api.NewLLMHandler(drafts, limiter, log),
		Health:  api.NewHealthHandler(checks),
	}, router.Options{
		AllowedOrigins:  cfg.AllowedOrigins,
		Tracing:         cfg.OTelEnabled,
		Validator:       authService,
		CreationLimiter: limiter,
		Log:             log,
	})

	srv := server.New(cfg, engine, log)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil {
			log.Fatal("Server error", "error", err)
		}
	case sig := <-quit:
		log.Info("Received signal", "signal", sig.String())
	}

	log.Info("Shutting down server...")
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server shutdown error", "error", err)
	}
	if err := shutdownTracing(ctx); err != nil {
		log.Warn("Tracer shutdown error", "error", err)
	}
	if redisClient != nil {
		redisClient.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	log.Info("Server stopped")
}
