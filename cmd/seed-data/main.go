package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/Adrieliyo/risk-advisor-backend/common/database"
	"github.com/Adrieliyo/risk-advisor-backend/common/logger"
	"github.com/Adrieliyo/risk-advisor-backend/internal/config"
	"github.com/Adrieliyo/risk-advisor-backend/internal/repository"

	"go.uber.org/zap"
)

// Wipes every table and loads sample data. Run after apply-migration.
func main() {
	seedFlag := flag.Int64("seed", time.Now().UnixNano(), "random seed")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.NewLogger(cfg.Log.Level, "console", "seed-data")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatal("Cannot connect to database", zap.Error(err))
	}
	defer database.Close(db)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	log.Info("Clearing existing data")
	if _, err := db.ExecContext(ctx, `TRUNCATE alerts, sensor_readings, trips, drivers`); err != nil {
		log.Fatal("Failed to clear tables", zap.Error(err))
	}

	repo := repository.NewPostgresStore(db, log)
	sum, err := seed(ctx, repo, cfg.Thresholds, rand.New(rand.NewSource(*seedFlag)), time.Now().UTC())
	if err != nil {
		log.Fatal("Seed failed", zap.Error(err))
	}
	log.Info("Seed completed",
		zap.Int("drivers", sum.Drivers),
		zap.Int("trips", sum.Trips),
		zap.Int("readings", sum.Readings),
		zap.Int("alerts", sum.Alerts),
	)
}
