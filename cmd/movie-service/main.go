package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/umanagarjuna/go-movie-aggregator/internal/movie/cache"
	"github.com/umanagarjuna/go-movie-aggregator/internal/movie/client"
	"github.com/umanagarjuna/go-movie-aggregator/internal/movie/config"
	"github.com/umanagarjuna/go-movie-aggregator/internal/movie/domain"
	"github.com/umanagarjuna/go-movie-aggregator/internal/movie/events"
	"github.com/umanagarjuna/go-movie-aggregator/internal/movie/handler"
	"github.com/umanagarjuna/go-movie-aggregator/internal/movie/metrics"
	"github.com/umanagarjuna/go-movie-aggregator/internal/movie/repository"
	"github.com/umanagarjuna/go-movie-aggregator/internal/movie/service"
	"github.com/umanagarjuna/go-movie-aggregator/pkg/validator"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	// Initialize cache store
	store, err := initStore(context.Background(), cfg)
	if err != nil {
		logger.Fatal("Failed to initialize cache store",
			zap.String("backend", cfg.Cache.Backend), zap.Error(err))
	}
	defer store.Close()

	// Initialize Kafka publisher
	publisher, err := initPublisher(cfg.Kafka)
	if err != nil {
		logger.Fatal("Failed to initialize event publisher", zap.Error(err))
	}
	defer publisher.Close()

	// Initialize upstream clients
	omdb := client.NewOMDbClient(cfg.Upstream.OMDbURL, cfg.Upstream.OMDbAPIKey, cfg.Upstream.Timeout)
	omdb.SearchPages = cfg.Upstream.SearchPages
	countries := client.NewRestCountriesClient(cfg.Upstream.CountriesURL, cfg.Upstream.Timeout)

	metricsCollector := metrics.NewInMemoryMetrics()
	pageValidator := validator.NewDefaultValidator(cfg.Service.DefaultPageLimit, cfg.Service.MaxPageLimit)

	// Initialize service
	movieService := service.NewMovieService(
		store,
		omdb,
		countries,
		publisher,
		logger,
		metricsCollector,
		service.Config{
			Workers: cfg.Service.Workers,
		},
	)

	errChan := make(chan error, 2)

	// Start HTTP server
	httpHandler := handler.NewHTTPHandler(movieService, pageValidator, metricsCollector, logger)
	srv := &http.Server{
		Addr:    cfg.Server.HTTPPort,
		Handler: setupHTTPRouter(httpHandler),
	}
	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Start gRPC server
	grpcServer := grpc.NewServer()
	handler.RegisterMovieServiceServer(grpcServer, handler.NewGRPCHandler(movieService, pageValidator, logger))
	go func() {
		lis, err := net.Listen("tcp", cfg.Server.GRPCPort)
		if err != nil {
			errChan <- fmt.Errorf("failed to listen: %w", err)
			return
		}

		logger.Info("Starting gRPC server", zap.String("port", cfg.Server.GRPCPort))
		if err := grpcServer.Serve(lis); err != nil {
			errChan <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		logger.Error("Server error", zap.Error(err))
	case sig := <-sigChan:
		logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("HTTP server shutdown failed", zap.Error(err))
	}
	grpcServer.GracefulStop()

	logger.Info("Server stopped")
}

func initStore(ctx context.Context, cfg *config.Config) (domain.CacheStore, error) {
	switch cfg.Cache.Backend {
	case config.BackendRedis:
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			_ = redisClient.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return cache.NewRedisStore(redisClient), nil
	case config.BackendPostgres:
		db, err := repository.Open(ctx, repository.Options{
			Driver: repository.DriverPostgres,
			DSN:    cfg.Database.DSN(),
		})
		if err != nil {
			return nil, err
		}
		return repository.NewSQLStore(db), nil
	case config.BackendSQLite:
		db, err := repository.Open(ctx, repository.Options{
			Driver: repository.DriverSQLite,
			DSN:    repository.SQLiteDSN(cfg.Database.Path),
		})
		if err != nil {
			return nil, err
		}
		return repository.NewSQLStore(db), nil
	default:
		return cache.NewMemoryStore(), nil
	}
}

func initPublisher(cfg config.KafkaConfig) (domain.EventPublisher, error) {
	if !cfg.Enabled {
		return events.NoopPublisher{}, nil
	}
	publisher, err := events.NewEventPublisher(cfg.Brokers)
	if err != nil {
		return nil, err
	}
	return publisher, nil
}

func setupHTTPRouter(handler *handler.HTTPHandler) *gin.Engine {
	router := gin.Default()

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	// Register routes
	handler.RegisterRoutes(router)

	return router
}
