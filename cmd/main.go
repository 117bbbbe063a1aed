package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"marketplace-catalog-service/internal/api"
	"marketplace-catalog-service/internal/config"
	"marketplace-catalog-service/internal/domain"
	"marketplace-catalog-service/internal/logging"
	"marketplace-catalog-service/internal/store"
)

const (
	defaultAppName  = "MarketplaceCatalogService"
	shutdownTimeout = 30 * time.Second
)

// healthCheck reports whether a dependency is reachable.
type healthCheck func(ctx context.Context) error

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("INFO: No .env file found or failed to load, relying on system environment")
	}

	// --- Configuration Loading ---
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: Error loading configuration: %v", err)
	}

	logger, err := logging.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		log.Fatalf("FATAL: Error building logger: %v", err)
	}
	logger = logger.With(zap.String("service", defaultAppName))

	err = run(cfg, logger)
	if err != nil {
		logger.Error("Service stopped with error", zap.Error(err))
	} else {
		logger.Info("Service shutdown sequence finished")
	}
	_ = logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Store ---
	catalogStore, checks, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := catalogStore.Close(); err != nil {
			logger.Warn("Error closing store", zap.Error(err))
		}
	}()

	// --- Initialize API Handlers ---
	httpAPIHandler := api.NewHTTPHandler(catalogStore, catalogStore, logger.Named("http"))
	grpcAPIHandler := api.NewGRPCHandler(catalogStore, logger.Named("grpc"))

	// --- Setup HTTP Server ---
	httpRouter := chi.NewRouter()
	setupBaseMiddleware(httpRouter, logger)
	registerHealthCheck(httpRouter, logger, checks)
	httpAPIHandler.RegisterRoutes(httpRouter)

	httpServer := &http.Server{
		Addr:         ":" + cfg.HttpServer.Port,
		Handler:      httpRouter,
		ReadTimeout:  cfg.HttpServer.TimeoutRead,
		WriteTimeout: cfg.HttpServer.TimeoutWrite,
		IdleTimeout:  cfg.HttpServer.TimeoutIdle,
	}

	// --- Setup gRPC Server ---
	grpcServer := setupGRPCServer(logger, grpcAPIHandler, cfg.GrpcServer.Reflection)
	grpcListener, err := net.Listen("tcp", ":"+cfg.GrpcServer.Port)
	if err != nil {
		return fmt.Errorf("failed to listen for gRPC on port %s: %w", cfg.GrpcServer.Port, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("HTTP server listening", zap.String("port", cfg.HttpServer.Port))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server ListenAndServe error: %w", err)
		}
		logger.Info("HTTP server has stopped")
		return nil
	})
	g.Go(func() error {
		logger.Info("gRPC server listening", zap.String("port", cfg.GrpcServer.Port))
		if err := grpcServer.Serve(grpcListener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("gRPC server Serve error: %w", err)
		}
		logger.Info("gRPC server has stopped")
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdown(logger, httpServer, grpcServer)
		return nil
	})
	return g.Wait()
}

// openStore builds the configured catalog store and the health checks for its dependencies.
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (store.Store, map[string]healthCheck, error) {
	checks := make(map[string]healthCheck)
	var catalogStore store.Store

	switch cfg.Catalog.Source {
	case config.SourcePostgres:
		db, err := sql.Open("postgres", cfg.Postgres.DSN())
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize database connection: %w", err)
		}
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := db.PingContext(pingCtx); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("failed to ping database: %w", err)
		}
		pg := store.NewPostgresStore(db)
		checks["database"] = pg.Ping
		catalogStore = pg
		logger.Info("Database connection established", zap.String("host", cfg.Postgres.Host), zap.String("dbname", cfg.Postgres.DBName))
	default:
		products, err := seedProducts(cfg.Catalog.SeedFile)
		if err != nil {
			return nil, nil, err
		}
		catalogStore = store.NewMemoryStore(products)
		logger.Info("Using in-memory catalog", zap.Int("products", len(products)), zap.String("seed_file", cfg.Catalog.SeedFile))
	}

	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		catalogStore = store.NewCachedStore(catalogStore, client, cfg.Redis.TTL, logger.Named("cache"))
		logger.Info("Catalog cache enabled", zap.String("addr", cfg.Redis.Addr), zap.Duration("ttl", cfg.Redis.TTL))
	}
	return catalogStore, checks, nil
}

func seedProducts(path string) ([]domain.Product, error) {
	if path == "" {
		return store.SampleCatalog(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog seed file: %w", err)
	}
	defer f.Close()
	products, err := store.LoadCatalog(f)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog seed file %s: %w", path, err)
	}
	return products, nil
}

func setupBaseMiddleware(router *chi.Mux, logger *zap.Logger) {
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(logging.RequestLogger(logger.Named("access")))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second)) // Default timeout for requests
}

func registerHealthCheck(router chi.Router, logger *zap.Logger, checks map[string]healthCheck) {
	healthPath := "/api/v1/healthz"
	router.Get(healthPath, func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		overall := "healthy"
		deps := make(map[string]string, len(checks))
		for name, check := range checks {
			deps[name] = "healthy"
			if err := check(ctx); err != nil {
				deps[name] = "unhealthy"
				overall = "degraded"
				logger.Warn("Health check failed", zap.String("dependency", name), zap.Error(err))
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK) // Always 200, but payload indicates detailed status
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status":       overall,
			"serviceName":  defaultAppName,
			"timestamp":    time.Now().UTC().Format(time.RFC3339),
			"dependencies": deps,
		})
	})
}

func setupGRPCServer(logger *zap.Logger, grpcAPIHandler *api.GRPCHandler, withReflection bool) *grpc.Server {
	s := grpc.NewServer(grpc.ChainUnaryInterceptor(logging.UnaryServerInterceptor(logger.Named("grpc"))))

	grpcAPIHandler.Register(s)
	grpc_health_v1.RegisterHealthServer(s, health.NewServer())
	if withReflection {
		reflection.Register(s)
	}
	logger.Info("gRPC services registered", zap.Bool("reflection", withReflection))
	return s
}

func shutdown(logger *zap.Logger, httpServer *http.Server, grpcServer *grpc.Server) {
	logger.Info("Starting graceful shutdown")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	stoppedGrpc := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(stoppedGrpc)
	}()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP server graceful shutdown failed", zap.Error(err))
	}

	select {
	case <-stoppedGrpc:
		logger.Info("gRPC server gracefully shut down")
	case <-shutdownCtx.Done():
		logger.Warn("gRPC server graceful shutdown timed out, forcing stop", zap.Error(shutdownCtx.Err()))
		grpcServer.Stop()
	}
}
