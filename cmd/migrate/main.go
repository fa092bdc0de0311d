package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"pantry-hub/internal/config"
	"pantry-hub/internal/database"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

func main() {
	_ = godotenv.Load()

	cmd := flag.String("cmd", "up", "migration command: up|down|status|version|redo|reset|up-to|down-to")
	url := flag.String("url", os.Getenv("DATABASE_URL"), "connection string; defaults to the DB_* settings")
	flag.Parse()

	if err := run(*cmd, *url, flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd, url string, args []string) error {
	ctx := context.Background()

	pool, logger, err := connect(ctx, url)
	if err != nil {
		return err
	}
	defer pool.Close()

	return database.Migrate(ctx, pool, cmd, logger, args...)
}

// connect opens a pool from url when given. Otherwise the full application
// config is loaded, which also validates the auth settings.
func connect(ctx context.Context, url string) (*pgxpool.Pool, zerolog.Logger, error) {
	if url != "" {
		logger := config.NewLogger(config.LoggerConfig{Level: "info", Format: "console"})
		pool, err := database.NewPoolFromURL(ctx, url, database.PoolSettings{MaxConns: 2}, logger)
		if err != nil {
			return nil, logger, fmt.Errorf("failed to initialize database: %w", err)
		}
		return pool, logger, nil
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := config.NewLogger(cfg.Logger)

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return nil, logger, fmt.Errorf("failed to initialize database: %w", err)
	}
	return pool, logger, nil
}
