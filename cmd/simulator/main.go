package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"brew-reviews/internal/config"
	"brew-reviews/internal/database"
	"brew-reviews/internal/logger"
	"brew-reviews/simulator"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

func main() {
	seed := flag.Bool("seed", false, "write simulated products and orders into the configured store before running")
	flag.Parse()

	_ = godotenv.Load()
	var simCfg simulator.SimConfig
	if err := env.Parse(&simCfg); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse simulator configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New("brew-reviews-simulator", os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *seed {
		if err := seedStore(ctx, simCfg, log); err != nil {
			log.Error("seeding failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, simCfg.SimulationTime)
	defer cancel()

	sim := simulator.NewSimulator(simCfg, log)
	if err := sim.Run(ctx); err != nil {
		log.Error("simulation failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	m := sim.GetMetrics()
	log.Info("simulation completed",
		slog.Int("users", m.TotalUsers),
		slog.Int("active_users", m.ActiveUsers),
		slog.Int("reviews", m.TotalReviews),
		slog.Int("comments", m.TotalComments),
		slog.Int("reactions", m.TotalReactions),
		slog.Int("reads", m.TotalReads),
		slog.Int("rejected", m.RejectedCount),
		slog.Int("errors", m.ErrorCount),
		slog.Float64("requests_per_second", m.RequestsPerSecond),
		slog.Duration("average_latency", m.AverageLatency),
	)
}

// seedStore connects to the engine's own store, using the engine configuration.
func seedStore(ctx context.Context, simCfg simulator.SimConfig, log *slog.Logger) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	var store database.DocumentStore
	switch cfg.Database.Type {
	case config.DatabaseMongo:
		store, err = database.NewMongoDB(ctx, cfg.Database.URI, cfg.Database.Name, log)
	case config.DatabaseFirestore:
		store, err = database.NewFirestore(ctx, cfg.Database.FirestoreProject, cfg.Database.FirestoreCredentials, log)
	default:
		return fmt.Errorf("cannot seed DB_TYPE %q from another process", cfg.Database.Type)
	}
	if err != nil {
		return err
	}
	defer store.Close(ctx)

	return simulator.SeedCatalog(ctx, store, cfg.Reviews.ProductCollections[0], simCfg, log)
}
