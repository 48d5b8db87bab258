// dbtool prepares a climate database for local development. The API server
// opens the database read-only and never runs these steps itself.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"surfsup/internal/config"
	"surfsup/internal/migrate"

	_ "github.com/mattn/go-sqlite3"
)

const usage = `usage: %s <command>
  migrate     apply pending schema migrations
  seed <dir>  load hawaii_stations.csv and hawaii_measurements.csv from dir
`

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, usage, os.Args[0])
		os.Exit(1)
	}

	dbPath := os.Getenv("SQLITE_PATH")
	if dbPath == "" {
		dbPath = "Resources/hawaii.sqlite"
	}
	dbPath = filepath.Clean(dbPath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := open(ctx, dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "db open: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := conn.Close(); closeErr != nil {
			slog.Error("db close", "err", closeErr)
		}
	}()

	if err := runCommand(ctx, conn, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", os.Args[1], err)
		os.Exit(1)
	}
}

func runCommand(ctx context.Context, conn *sql.DB, args []string) error {
	switch args[0] {
	case "migrate":
		if err := migrate.Run(ctx, conn); err != nil {
			return err
		}
		fmt.Println("migrations applied")
	case "seed":
		if len(args) < 2 {
			return fmt.Errorf("missing data directory")
		}
		if err := migrate.Run(ctx, conn); err != nil {
			return err
		}
		if err := migrate.SeedDir(ctx, conn, args[1]); err != nil {
			return err
		}
		fmt.Println("seed data loaded")
	default:
		return fmt.Errorf("unknown command")
	}
	return nil
}

func open(ctx context.Context, dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", buildDSN(dbPath))
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}

	return db, nil
}

func buildDSN(dbPath string) string {
	params := []string{
		"_foreign_keys=on",
		"_busy_timeout=5000",
		"_journal_mode=WAL",
	}

	if strings.HasPrefix(dbPath, "file:") {
		sep := "?"
		if strings.Contains(dbPath, "?") {
			sep = "&"
		}
		return dbPath + sep + strings.Join(params, "&")
	}

	return fmt.Sprintf("file:%s?%s", dbPath, strings.Join(params, "&"))
}
