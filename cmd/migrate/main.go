package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"pesticide-analytics/internal/config"
	"pesticide-analytics/internal/datasource"
	"pesticide-analytics/migrations"
	"pesticide-analytics/pkg/database"
	"pesticide-analytics/pkg/logging"
	"pesticide-analytics/pkg/metrics"
)

func main() {
	direction := flag.String("direction", "up", "Migration direction: up or down")
	driver := flag.String("driver", config.DriverPostgres, "Database driver: postgres or sqlite")
	path := flag.String("path", "data/pesticides.db", "SQLite file when -driver=sqlite")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewStructuredLogger("pesticide-migrate", "1.0.0", logging.ParseLevel(cfg.Logging.Level))
	logger.SetFormat(logging.FormatConsole)
	metricsCollector := metrics.NewCollector("pesticide_migrate", prometheus.NewRegistry())

	var db *database.DB
	switch *driver {
	case config.DriverPostgres:
		db, err = database.NewPostgresDB(datasource.PostgresConfig(cfg.Database), logger, metricsCollector)
	case config.DriverSQLite:
		db, err = database.NewSQLiteDB(*path, logger, metricsCollector)
	default:
		err = fmt.Errorf("unknown driver %q", *driver)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	fmt.Println("Connected to database successfully")

	applied, err := migrations.Apply(context.Background(), db, migrations.Direction(*direction))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to execute migration: %v\n", err)
		os.Exit(1)
	}

	for _, name := range applied {
		fmt.Printf("Applied migration: %s\n", name)
	}
	fmt.Println("Migration completed successfully")
}
