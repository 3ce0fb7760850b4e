package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"pesticide-analytics/internal/config"
	"pesticide-analytics/internal/datasource"
	"pesticide-analytics/internal/repository"
	"pesticide-analytics/internal/services"
	"pesticide-analytics/migrations"
	"pesticide-analytics/pkg/database"
	"pesticide-analytics/pkg/logging"
	"pesticide-analytics/pkg/metrics"
)

const version = "1.0.0"

func main() {
	batchSize := flag.Int("batch-size", 1000, "Number of records to write in each transaction")
	target := flag.String("target", config.DriverSQLite, "Target store: sqlite or postgres")
	targetPath := flag.String("target-path", "data/pesticides.db", "SQLite file when -target=sqlite")
	table := flag.String("table", repository.DefaultTable, "Target table name")
	migrate := flag.Bool("migrate", true, "Apply schema migrations before writing")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewStructuredLogger("pesticide-ingester", version, logging.ParseLevel(cfg.Logging.Level))
	logger.SetFormat(logging.Format(cfg.Logging.Format))

	ctx := context.Background()
	logger.Info(ctx, "[INGESTER_START] Starting pesticide data ingestion", logging.Fields{
		"version":       version,
		"source_driver": cfg.Source.Driver,
		"target":        *target,
		"table":         *table,
		"batch_size":    *batchSize,
	})

	metricsCollector := metrics.NewCollector("pesticide_ingester", prometheus.DefaultRegisterer)

	var db *database.DB
	switch *target {
	case config.DriverSQLite:
		db, err = database.NewSQLiteDB(*targetPath, logger, metricsCollector)
	case config.DriverPostgres:
		db, err = database.NewPostgresDB(datasource.PostgresConfig(cfg.Database), logger, metricsCollector)
	default:
		err = fmt.Errorf("unknown target %q", *target)
	}
	if err != nil {
		logger.Fatal(ctx, "[INGESTER_ERROR] Failed to open target database", logging.Fields{"target": *target}, err)
	}
	defer db.Close()

	if *migrate {
		applied, err := migrations.Apply(ctx, db, migrations.Up)
		if err != nil {
			logger.Fatal(ctx, "[INGESTER_ERROR] Migration failed", logging.Fields{}, err)
		}
		logger.Info(ctx, "[INGESTER_MIGRATED] Schema ready", logging.Fields{"scripts": applied})
	}

	repo, err := repository.NewPesticideRepository(db, *table, logger, metricsCollector)
	if err != nil {
		logger.Fatal(ctx, "[INGESTER_ERROR] Invalid target table", logging.Fields{"table": *table}, err)
	}

	ingestionService := services.NewIngestionService(repo, logger, metricsCollector)

	// Invalid rows are counted rather than aborting the run.
	src, closeSource, err := datasource.Open(ctx, cfg, logger, metricsCollector, datasource.Options{OnReject: ingestionService.Reject})
	if err != nil {
		logger.Fatal(ctx, "[INGESTER_ERROR] Failed to open source", logging.Fields{"driver": cfg.Source.Driver}, err)
	}
	defer closeSource()

	result, err := ingestionService.Ingest(ctx, src, *batchSize)
	if err != nil {
		logger.Fatal(ctx, "[INGESTION_ERROR] Ingestion failed", logging.Fields{}, err)
	}

	stored, err := repo.CountObservations(ctx)
	if err != nil {
		logger.Error(ctx, "[INGESTER_ERROR] Failed to count stored rows", logging.Fields{}, err)
	}

	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("INGESTION COMPLETE")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Total Records:      %d\n", result.TotalRecords)
	fmt.Printf("Successful Records: %d\n", result.SuccessfulRecords)
	fmt.Printf("Failed Records:     %d\n", result.FailedRecords)
	fmt.Printf("Batches:            %d\n", result.Batches)
	fmt.Printf("Rows In Table:      %d\n", stored)
	fmt.Printf("Duration:           %v\n", result.Duration)

	if len(result.Errors) > 0 {
		fmt.Printf("\nErrors (%d):\n", len(result.Errors))
		for i, errMsg := range result.Errors {
			if i < 10 {
				fmt.Printf("  - %s\n", errMsg)
			}
		}
		if len(result.Errors) > 10 {
			fmt.Printf("  ... and %d more errors\n", len(result.Errors)-10)
		}
	}

	logger.Info(ctx, "[INGESTER_COMPLETE] Ingestion completed successfully", logging.Fields{
		"total_records":      result.TotalRecords,
		"successful_records": result.SuccessfulRecords,
		"failed_records":     result.FailedRecords,
		"rows_in_table":      stored,
		"duration_seconds":   result.Duration.Seconds(),
	})
}
