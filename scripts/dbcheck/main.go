package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"pantry-hub/internal/config"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
)

// dbcheck verifies that the configured database is reachable and reports
// the applied migration version.
func main() {
	_ = godotenv.Load()

	url := flag.String("url", os.Getenv("DATABASE_URL"), "connection string; defaults to the DB_* settings")
	list := flag.Bool("list", false, "list the databases on the server")
	flag.Parse()

	connString := *url
	if connString == "" {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Unable to load configuration: %v\n", err)
			os.Exit(1)
		}
		connString = cfg.Database.ConnectionString()
	}

	ctx := context.Background()
	conn, err := pgx.Connect(ctx, connString)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close(ctx)

	var dbName string
	if err := conn.QueryRow(ctx, "SELECT current_database()").Scan(&dbName); err != nil {
		fmt.Fprintf(os.Stderr, "QueryRow failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Successfully connected to database: %s\n", dbName)

	var version int64
	err = conn.QueryRow(ctx, "SELECT COALESCE(MAX(version_id), 0) FROM goose_db_version WHERE is_applied").Scan(&version)
	if err != nil {
		fmt.Println("Migrations: not applied (run cmd/migrate)")
	} else {
		fmt.Printf("Migrations: version %d\n", version)
	}

	if !*list {
		return
	}

	rows, err := conn.Query(ctx, "SELECT datname FROM pg_database WHERE datistemplate = false")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Query failed: %v\n", err)
		os.Exit(1)
	}
	defer rows.Close()

	fmt.Println("\nAvailable databases:")
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			fmt.Fprintf(os.Stderr, "Scan failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("  - %s\n", name)
	}
}
