package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/SAP-F-2025/exam-desk/internal/commands"
	"github.com/SAP-F-2025/exam-desk/internal/config"
	"github.com/SAP-F-2025/exam-desk/internal/engine"
	"github.com/SAP-F-2025/exam-desk/internal/events"
	"github.com/SAP-F-2025/exam-desk/internal/handlers"
	"github.com/SAP-F-2025/exam-desk/internal/repositories"
	"github.com/SAP-F-2025/exam-desk/internal/repositories/memory"
	"github.com/SAP-F-2025/exam-desk/internal/repositories/postgres"
	"github.com/SAP-F-2025/exam-desk/internal/services"
	"github.com/SAP-F-2025/exam-desk/internal/utils"
	"github.com/SAP-F-2025/exam-desk/internal/validator"
	"github.com/SAP-F-2025/exam-desk/pkg"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	slogLogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	logger := utils.NewSlogLogger(slogLogger)

	// Initialize Redis (if configured)
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = pkg.NewRedisClient(cfg)
		if err != nil {
			log.Printf("Warning: Failed to initialize Redis: %v", err)
		}
	}

	// Initialize repositories; memory:// keeps everything in process
	var repoManager repositories.RepositoryManager
	if strings.HasPrefix(cfg.DatabaseURL, "memory://") {
		repoManager = memory.NewManager(memory.New())
		logger.Warn("Using in-memory store, data is lost on exit")
	} else {
		db, err := pkg.InitDatabase(cfg)
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		repoManager = postgres.NewRepositoryManager(postgres.RepositoryConfig{
			DB:          db,
			RedisClient: redisClient,
		})
	}
	if err := repoManager.Initialize(); err != nil {
		log.Fatalf("Failed to initialize repositories: %v", err)
	}
	repo := repoManager.GetRepository()

	// Initialize event bus
	var bus *events.Bus
	if len(cfg.Events.KafkaBrokers) > 0 {
		bus, err = events.NewKafkaBus(cfg.Events.KafkaBrokers, cfg.Events.ConsumerGroup, slogLogger)
		if err != nil {
			log.Fatalf("Failed to initialize event bus: %v", err)
		}
	} else {
		bus = events.NewGoChannelBus(slogLogger)
	}

	// Initialize analysis engine
	sidecar := engine.NewSidecar(cfg.Engine.Path, cfg.Engine.Timeout, slogLogger)
	var solver engine.Solver = sidecar
	if cfg.Engine.Solver == "gemini" {
		solver = engine.NewGeminiSolver(cfg.Engine.GeminiModel, slogLogger)
	}

	// Initialize validator
	validator := validator.New()

	// Initialize services
	serviceManager := services.NewServiceManager(services.Dependencies{
		Repo:      repo,
		Engine:    sidecar,
		Solver:    solver,
		Publisher: bus,
		Logger:    slogLogger,
		Validator: validator,
	}, services.ServiceManagerConfig{
		StaticDir:      cfg.Storage.StaticDir,
		SettingsSecret: cfg.SettingsSecret,
	})
	if err := serviceManager.Initialize(context.Background()); err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}

	// Initialize handlers
	dispatcher := commands.NewDispatcher(serviceManager, validator, slogLogger)
	handlerManager := handlers.NewHandlerManager(serviceManager, dispatcher, bus, repo, validator, logger, handlers.RouterConfig{
		StaticDir: cfg.Storage.StaticDir,
		UploadDir: cfg.Storage.UploadDir,
	})

	// Setup Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Setup middleware
	handlers.SetupMiddleware(router, logger)

	// Setup routes
	handlerManager.SetupRoutes(router)

	// Create HTTP server
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Starting server", "port", cfg.Port, "environment", cfg.Environment, "solver", cfg.Engine.Solver)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	// Shutdown services; running analyses publish their last events here
	if err := serviceManager.Shutdown(ctx); err != nil {
		log.Printf("Failed to shutdown services: %v", err)
	}

	if err := bus.Close(); err != nil {
		log.Printf("Failed to close event bus: %v", err)
	}

	if err := repoManager.Shutdown(ctx); err != nil {
		log.Printf("Failed to close repositories: %v", err)
	}

	// Close Redis connection
	if redisClient != nil {
		redisClient.Close()
	}

	logger.Info("Server exited")
}
