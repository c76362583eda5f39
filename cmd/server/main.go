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
	"github.com/rabbitmq/amqp091-go"
	redis "github.com/redis/go-redis/v9"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"

	"portfolio-server/internal/config"
	"portfolio-server/internal/database"
	"portfolio-server/internal/handler"
	"portfolio-server/internal/interfaces"
	"portfolio-server/internal/messaging"
	appmiddleware "portfolio-server/internal/middleware"
	"portfolio-server/internal/ratelimit"
	"portfolio-server/internal/service"
	"portfolio-server/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig(".env")
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.LogLevel,
		Encoding: "json",
	})
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer zapLogger.Sync()

	zap.ReplaceGlobals(zapLogger)
	zap.L().Info("Configuration loaded", zap.String("env", cfg.Env))

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// --- External connections ---
	pgPool, err := database.NewPool(ctx, cfg.DatabaseDSN())
	if err != nil {
		zap.L().Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer pgPool.Close()

	if err := database.ApplyMigrations(pgPool); err != nil {
		zap.L().Fatal("Failed to apply migrations", zap.Error(err))
	}

	var limiterStore ratelimit.Store
	switch cfg.RateLimitBackend {
	case "redis":
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			zap.L().Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		limiterStore = ratelimit.NewRedisStore(redisClient, "ratelimit")
		zap.L().Info("Rate limiting backed by Redis", zap.String("addr", cfg.RedisAddr))
	default:
		limiterStore = ratelimit.NewMemoryStore()
		zap.L().Info("Rate limiting backed by in-process memory")
	}

	var publisher interfaces.PromptEventPublisher = messaging.NoopPromptPublisher{}
	if cfg.RabbitMQURL != "" {
		mqConn, err := amqp091.Dial(cfg.RabbitMQURL)
		if err != nil {
			zap.L().Fatal("Failed to connect to RabbitMQ", zap.Error(err))
		}
		defer mqConn.Close()

		mqPublisher, err := messaging.NewRabbitMQPromptPublisher(mqConn)
		if err != nil {
			zap.L().Fatal("Failed to create prompt event publisher", zap.Error(err))
		}
		defer mqPublisher.Close()
		publisher = mqPublisher
		zap.L().Info("Connected to RabbitMQ")
	}

	resume, err := os.ReadFile(cfg.ResumePath)
	if err != nil {
		zap.L().Warn("Resume file not found, AI context will be empty",
			zap.String("path", cfg.ResumePath), zap.Error(err))
	}

	// --- Dependency injection ---
	versionRepo := database.NewPgPromptVersionRepository(pgPool)
	postRepo := database.NewPgBlogPostRepository(pgPool, zapLogger)

	authSvc := service.NewAuthService(cfg.AdminPasswordHash, cfg.JWTSecret, cfg.SessionTTL, zapLogger)
	promptSvc := service.NewPromptService(versionRepo, publisher, cfg.OpenAIModel, zapLogger)
	aiClient := service.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, zapLogger)
	assistantSvc := service.NewAssistantService(promptSvc, postRepo, aiClient, string(resume), cfg.GetBlogCategories(), zapLogger)
	workbenchSvc := service.NewWorkbenchService(promptSvc, aiClient, cfg.OpenAIModel, string(resume), zapLogger)

	if err := promptSvc.SeedDefaults(ctx); err != nil {
		zap.L().Fatal("Failed to seed default prompts", zap.Error(err))
	}

	adminHandler := handler.NewAdminHandler(authSvc, promptSvc, cfg.SessionTTL, cfg.Env == "production", zapLogger)
	workbenchHandler := handler.NewWorkbenchHandler(workbenchSvc, zapLogger)
	publicHandler := handler.NewPublicHandler(assistantSvc, postRepo, zapLogger)

	// --- HTTP server ---
	gin.SetMode(gin.ReleaseMode)
	if cfg.Env == "development" {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.RedirectTrailingSlash = true
	router.Use(appmiddleware.ZapLoggingMiddleware(zapLogger))
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	if origins := cfg.GetAllowedOrigins(); len(origins) > 0 {
		corsConfig.AllowOrigins = origins
	} else {
		corsConfig.AllowOrigins = []string{"http://localhost:3000"}
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	corsConfig.AllowCredentials = true
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	handler.RegisterRoutes(router, adminHandler, workbenchHandler, publicHandler, authSvc, limiterStore, zapLogger)

	// Prometheus middleware goes last so route names are already registered.
	p := ginprometheus.NewPrometheus("gin")
	p.Use(router)

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	zap.L().Info("Starting HTTP server", zap.String("port", cfg.ServerPort))
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zap.L().Fatal("HTTP server listen error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zap.L().Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("HTTP server forced to shutdown", zap.Error(err))
	}

	zap.L().Info("Server exiting")
}
