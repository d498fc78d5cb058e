package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"

	"github.com/stwalsh4118/bluesky/api/internal/access"
	"github.com/stwalsh4118/bluesky/api/internal/authz"
	"github.com/stwalsh4118/bluesky/api/internal/config"
	"github.com/stwalsh4118/bluesky/api/internal/database"
	apierrors "github.com/stwalsh4118/bluesky/api/internal/errors"
	"github.com/stwalsh4118/bluesky/api/internal/handlers"
	"github.com/stwalsh4118/bluesky/api/internal/logger"
	"github.com/stwalsh4118/bluesky/api/internal/middleware"
	"github.com/stwalsh4118/bluesky/api/internal/repository"
	"github.com/stwalsh4118/bluesky/api/internal/services"
	"github.com/stwalsh4118/bluesky/api/internal/telemetry"
)

const (
	shutdownTimeout = 30 * time.Second
)

func main() {
	// Load configuration from environment variables
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	log := logger.New(cfg.Server.Env)
	log.Info("Starting Bluesky API", map[string]interface{}{
		"version":     handlers.APIVersion,
		"environment": cfg.Server.Env,
		"port":        cfg.Server.Port,
	})

	ctx := context.Background()

	shutdownTracing, err := telemetry.InitTracing(ctx, cfg.Tracing, cfg.Server.Env, os.Stdout, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", err, nil)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Error("Failed to flush traces", err, nil)
		}
	}()

	// Create database connection pool
	db, err := database.NewPostgresPool(ctx, cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", err, map[string]interface{}{
			"host": cfg.Database.Host,
			"port": cfg.Database.Port,
			"name": cfg.Database.Name,
		})
	}
	defer db.Close()

	log.Info("Database connection established", map[string]interface{}{
		"host":     cfg.Database.Host,
		"port":     cfg.Database.Port,
		"database": cfg.Database.Name,
		"pool_min": cfg.Database.PoolMin,
		"pool_max": cfg.Database.PoolMax,
	})

	if cfg.Database.AutoMigrate {
		if err := db.Migrate(ctx); err != nil {
			log.Fatal("Failed to migrate database", err, nil)
		}
		log.Info("Database schema migrated", nil)
	}

	enforcer, err := authz.New(cfg.Authz.PolicyPath)
	if err != nil {
		log.Fatal("Failed to load authorization policy", err, map[string]interface{}{
			"policy_path": cfg.Authz.PolicyPath,
		})
	}

	// Setup Gin router
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	metrics := middleware.NewMetrics(nil)

	// Add middleware in order: RequestID -> Tracing -> Logger -> Recovery -> CORS -> Metrics
	router.Use(middleware.RequestID())
	if cfg.Tracing.Enabled {
		router.Use(middleware.Tracing(cfg.Tracing.ServiceName))
	}
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS(cfg.CORS.Origins))
	router.Use(metrics.Middleware())

	// Register health check routes
	healthHandler := handlers.NewHealthHandler(db, cfg.Server.Env)
	router.GET("/health", healthHandler.Health)
	router.GET("/health/ready", healthHandler.Ready)
	router.GET("/metrics", metrics.Handler())

	// Initialize repository and service layers
	orgRepo := repository.NewOrganizationRepository(db)
	inventoryService := services.NewInventoryService(repository.NewInventoryRepository(db), log)
	columnService := services.NewColumnService(
		repository.NewColumnRepository(db),
		repository.NewColumnMappingRepository(db),
		repository.NewColumnListSettingRepository(db),
		orgRepo,
		log,
	)

	guard := access.Guard(access.NewJWTVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer), orgRepo, enforcer)

	// Register API v2 routes
	v2 := router.Group("/api/v2")
	if cfg.RateLimit.Enabled {
		limit, err := rateLimit(cfg.RateLimit, log)
		if err != nil {
			log.Fatal("Failed to configure rate limiting", err, nil)
		}
		v2.Use(limit)
	}
	v2.GET("/info", healthHandler.Info)
	handlers.RegisterRoutes(v2,
		handlers.NewInventoryHandler(inventoryService),
		handlers.NewColumnHandler(columnService),
		handlers.Guard(guard),
	)

	// Create HTTP server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server listening", map[string]interface{}{
			"port": cfg.Server.Port,
			"addr": srv.Addr,
		})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start", err, nil)
		}
	}()

	// Wait for interrupt signal (SIGINT or SIGTERM)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// Graceful shutdown
	log.Info("Shutting down server...", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", err, map[string]interface{}{
			"timeout": shutdownTimeout.String(),
		})
	}

	log.Info("Server exited", nil)
}

func rateLimit(cfg config.RateLimitConfig, log *logger.Logger) (gin.HandlerFunc, error) {
	rate, err := limiter.NewRateFromFormatted(cfg.Rate)
	if err != nil {
		return nil, err
	}

	store, err := middleware.NewRateLimitStore(cfg.RedisURL)
	if err != nil {
		return nil, err
	}

	backend := "memory"
	if cfg.RedisURL != "" {
		backend = "redis"
	}
	log.Info("Rate limiting enabled", map[string]interface{}{
		"rate":  cfg.Rate,
		"store": backend,
	})

	return middleware.RateLimit(store, rate, log, func(c *gin.Context) {
		apierrors.TooManyRequests(c, "Rate limit exceeded")
	}), nil
}
