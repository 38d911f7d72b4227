package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/Adrieliyo/risk-advisor-backend/common/database"
	"github.com/Adrieliyo/risk-advisor-backend/common/logger"
	"github.com/Adrieliyo/risk-advisor-backend/internal/config"
	"github.com/Adrieliyo/risk-advisor-backend/migrations"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

// Usage: apply-migration [up|down|status|version]
func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [up|down|status|version]\n", os.Args[0])
	}
	flag.Parse()
	command := "up"
	if flag.NArg() > 0 {
		command = flag.Arg(0)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.NewLogger(cfg.Log.Level, "console", "apply-migration")
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

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		log.Fatal("Failed to set goose dialect", zap.Error(err))
	}

	log.Info("Running migrations",
		zap.String("command", command),
		zap.String("database", cfg.Database.Database),
	)

	switch command {
	case "up":
		err = goose.Up(db, ".")
	case "down":
		err = goose.Down(db, ".")
	case "status":
		err = goose.Status(db, ".")
	case "version":
		err = goose.Version(db, ".")
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatal("Migration failed", zap.String("command", command), zap.Error(err))
	}
	log.Info("Migration completed", zap.String("command", command))
}
