package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"brew-reviews/internal/config"
	"brew-reviews/internal/database"
	"brew-reviews/internal/engine"
	"brew-reviews/internal/engine/actors"
	"brew-reviews/internal/feedback"
	"brew-reviews/internal/handlers"
	"brew-reviews/internal/logger"
	"brew-reviews/internal/middleware"
	"brew-reviews/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

const (
	serviceName     = "brew-reviews"
	shutdownTimeout = 15 * time.Second
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(serviceName, cfg.LogLevel, cfg.LogFormat)
	if cfg.UsesDefaultSecret() {
		log.Warn("JWT_SECRET is not set, using the development default")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// app is the assembled service: storage, actors and HTTP router.
type app struct {
	handler http.Handler
	system  *actor.ActorSystem
	engine  *engine.Engine
	store   database.DocumentStore
	redis   *redis.Client
	log     *slog.Logger
}

func newApp(ctx context.Context, cfg *config.Config, log *slog.Logger) (*app, error) {
	store, err := openStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	a := &app{store: store, log: log}

	var cache feedback.LocatorCache
	if cfg.Redis.Addr != "" {
		client, err := database.NewRedisClient(ctx, database.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			// The cache is an optimisation; run without it.
			log.Warn("redis unavailable, product locator cache disabled", slog.String("error", err.Error()))
		} else {
			a.redis = client
			cache = database.NewRedisLocatorCache(client, cfg.Redis.LocatorTTL, log)
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := utils.NewMetricsCollector(reg)

	services := feedback.New(store, feedback.Options{
		ProductCollections: cfg.Reviews.ProductCollections,
		FallbackCollection: cfg.Reviews.FallbackCollection,
		RequirePurchase:    cfg.Reviews.RequirePurchase,
		LocatorCache:       cache,
		Metrics:            metrics,
		Logger:             log,
	})

	a.system = actor.NewActorSystem()
	a.engine = engine.NewEngine(a.system, actors.Deps{
		Services:         services,
		Metrics:          metrics,
		Logger:           log,
		OperationTimeout: cfg.Server.RequestTimeout,
	})

	server := handlers.NewServer(a.system, a.engine, metrics, log, cfg.Server.RequestTimeout)
	routes := handlers.RouterConfig{
		JWTSecret:      cfg.Auth.JWTSecret,
		AllowedOrigins: cfg.AllowedOrigins,
	}
	if cfg.Server.MetricsEnabled {
		routes.HTTPMetrics = middleware.NewHTTPMetrics(reg, serviceName)
		routes.Gatherer = reg
	}
	a.handler = server.Routes(routes)
	return a, nil
}

// openStore connects the configured DocumentStore backend.
func openStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (database.DocumentStore, error) {
	switch cfg.Database.Type {
	case config.DatabaseMongo:
		mongo, err := database.NewMongoDB(ctx, cfg.Database.URI, cfg.Database.Name, log)
		if err != nil {
			return nil, err
		}
		indexCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := mongo.EnsureIndexes(indexCtx, cfg.Reviews.ProductCollections); err != nil {
			_ = mongo.Close(ctx)
			return nil, fmt.Errorf("failed to ensure indexes: %w", err)
		}
		return mongo, nil
	case config.DatabaseFirestore:
		return database.NewFirestore(ctx, cfg.Database.FirestoreProject, cfg.Database.FirestoreCredentials, log)
	case config.DatabaseMemory:
		log.Warn("using the in-memory document store, data is lost on exit")
		return database.NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unsupported DB_TYPE %q", cfg.Database.Type)
}

// close stops the actors first so no message is mid-flight when storage closes.
func (a *app) close(ctx context.Context) {
	a.engine.Stop(a.system)
	a.system.Shutdown()
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Warn("failed to close redis", slog.String("error", err.Error()))
		}
	}
	if err := a.store.Close(ctx); err != nil {
		a.log.Warn("failed to close document store", slog.String("error", err.Error()))
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Address(),
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.Server.RequestTimeout + 10*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("starting server",
			slog.String("addr", srv.Addr),
			slog.String("db_type", cfg.Database.Type),
			slog.Any("product_collections", cfg.Reviews.ProductCollections),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		a.close(context.Background())
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err = srv.Shutdown(shutdownCtx)
	a.close(shutdownCtx)
	return err
}
