package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/boddenberg/comissoes-bfa/internal/config"
	"github.com/boddenberg/comissoes-bfa/internal/handler"
	"github.com/boddenberg/comissoes-bfa/internal/infra/cache"
	"github.com/boddenberg/comissoes-bfa/internal/infra/events"
	"github.com/boddenberg/comissoes-bfa/internal/infra/gateway"
	"github.com/boddenberg/comissoes-bfa/internal/infra/observability"
	"github.com/boddenberg/comissoes-bfa/internal/infra/postgres"
	"github.com/boddenberg/comissoes-bfa/internal/infra/resilience"
	"github.com/boddenberg/comissoes-bfa/internal/infra/session"
	"github.com/boddenberg/comissoes-bfa/internal/port"
	"github.com/boddenberg/comissoes-bfa/internal/service"
)

func main() {
	// --- Load .env file (for local development) ---
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "reading .env: %v\n", err)
	}

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("data_backend", cfg.DataBackend),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Duration("jwt_access_ttl", cfg.JWTAccessTTL),
		zap.Bool("redis_sessions", cfg.RedisURL != ""),
		zap.Bool("sale_events", cfg.AMQPURL != ""),
	)

	ctx := context.Background()

	// --- Tracing ---
	if cfg.OTLPEndpoint != "" {
		shutdown, err := observability.InitTracer(ctx, cfg.OTLPEndpoint, "comissoes-bfa")
		if err != nil {
			logger.Fatal("failed to init tracer", zap.Error(err))
		}
		defer shutdown(context.Background())
	}

	// --- Metrics ---
	metrics := observability.NewMetrics()

	var (
		checkers []handler.HealthChecker
		closers  []io.Closer
	)

	// --- Data backend ---
	var backend port.DataBackend
	switch cfg.DataBackend {
	case config.BackendPostgres:
		store, err := postgres.Open(cfg.DatabaseURL, logger)
		if err != nil {
			logger.Fatal("failed to open postgres", zap.Error(err))
		}
		if cfg.BootstrapAdminEmail != "" {
			if err := store.EnsureAdmin(ctx, cfg.BootstrapAdminName, cfg.BootstrapAdminEmail, cfg.BootstrapAdminPassword); err != nil {
				logger.Fatal("failed to bootstrap admin", zap.Error(err))
			}
		}
		logger.Info("using postgres as data backend")
		backend = store
		checkers = append(checkers, store)
		closers = append(closers, store)
	default:
		httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
		gw := gateway.NewClient(httpClient, cfg.GatewayURL, resilience.Config{
			MaxRetries:     cfg.MaxRetries,
			InitialBackoff: cfg.InitialBackoff,
			MaxConcurrency: cfg.MaxConcurrency,
		}, metrics, logger)
		logger.Info("using remote API as data backend", zap.String("gateway_url", cfg.GatewayURL))
		backend = gw
		checkers = append(checkers, gw)
	}

	// --- Sessions ---
	var sessions port.SessionStore
	if cfg.RedisURL != "" {
		rs, err := session.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal("failed to connect to redis", zap.Error(err))
		}
		sessions = rs
		checkers = append(checkers, rs)
		closers = append(closers, rs)
	} else {
		logger.Warn("REDIS_URL not set, sessions are kept in memory")
		ms := session.NewMemory(cfg.JWTAccessTTL)
		sessions = ms
		closers = append(closers, ms)
	}

	// --- Events ---
	var publisher port.EventPublisher = events.Nop{}
	if cfg.AMQPURL != "" {
		p, err := events.NewAMQP(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Fatal("failed to connect to rabbitmq", zap.Error(err))
		}
		publisher = p
		checkers = append(checkers, p)
		closers = append(closers, p)
	}

	// --- Services ---
	snapshotCache := cache.New[any](cfg.CacheTTL)
	defer snapshotCache.Close()

	stores := service.NewEntityStores(backend, backend, backend, snapshotCache, metrics, logger)
	svcs := handler.Services{
		Auth:        service.NewAuthService(backend, sessions, cfg.JWTSecret, cfg.JWTAccessTTL, logger),
		Commissions: service.NewCommissionService(stores, metrics, logger),
		Catalog:     service.NewCatalogService(backend, stores, publisher, metrics, logger).WithSessions(sessions),
	}

	// --- Router ---
	router := handler.NewRouter(svcs, handler.Options{
		CORSOrigins: cfg.CORSOrigins,
		Checkers:    checkers,
	}, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced shutdown", zap.Error(err))
	}

	for _, c := range closers {
		if err := c.Close(); err != nil {
			logger.Warn("closing dependency", zap.Error(err))
		}
	}

	logger.Info("server stopped")
}
