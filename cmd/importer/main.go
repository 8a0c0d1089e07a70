// Command importer loads an activity CSV export into Postgres from the
// command line, bypassing the HTTP API. Useful for backfills and for
// seeding local databases.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/siteboard/internal/config"
	"example.com/siteboard/internal/importer"
	persistence "example.com/siteboard/internal/persistence/postgres"
)

func main() {
	inputPath := flag.String("input", "", "Path to activity CSV export")
	databaseURL := flag.String("database-url", "", "Postgres URL (defaults to POSTGRES_URL)")
	verbose := flag.Bool("verbose", false, "Print per-row results")
	flag.Parse()

	if *inputPath == "" {
		fmt.Fprintln(os.Stderr, "usage: importer --input export.csv [--database-url postgres://...]")
		os.Exit(2)
	}

	url := *databaseURL
	if url == "" {
		url = config.Load().PostgresURL
	}

	data, err := os.ReadFile(*inputPath)
	if err != nil {
		log.Fatalf("read input: %v", err)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		log.Fatalf("connect to postgres: %v", err)
	}
	defer pool.Close()

	repo := persistence.NewRepository(pool)
	if err := repo.EnsureSchema(ctx); err != nil {
		log.Fatalf("ensure schema: %v", err)
	}

	imp := importer.New(repo, importer.WithEventSink(repo))
	report := imp.Run(ctx, string(data))

	if !*verbose {
		report.Rows = nil
	}
	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		log.Fatalf("encode report: %v", err)
	}
	fmt.Println(string(out))

	if !report.Success {
		os.Exit(1)
	}
}
