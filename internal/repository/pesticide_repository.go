package repository

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"pesticide-analytics/internal/models"
	"pesticide-analytics/pkg/database"
	"pesticide-analytics/pkg/logging"
	"pesticide-analytics/pkg/metrics"
)

// DefaultTable is the table created by the bundled migrations.
const DefaultTable = "pesticide_use"

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// PesticideRepository provides data access for pesticide-use observations
type PesticideRepository interface {
	// ListObservations returns every stored row ordered by country, year and type.
	ListObservations(ctx context.Context) ([]models.Observation, error)
	CreateObservationsBatch(ctx context.Context, observations []models.Observation) error
	CountObservations(ctx context.Context) (int, error)
	HealthCheck(ctx context.Context) error
}

type pesticideRepository struct {
	db      *database.DB
	table   string
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewPesticideRepository creates a repository over table. The table name is
// interpolated into SQL, so it must be a plain identifier.
func NewPesticideRepository(db *database.DB, table string, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) (PesticideRepository, error) {
	if table == "" {
		table = DefaultTable
	}
	if !identPattern.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}

	return &pesticideRepository{
		db:      db,
		table:   table,
		logger:  logger,
		metrics: metricsCollector,
	}, nil
}

// ListObservations loads the full table
func (r *pesticideRepository) ListObservations(ctx context.Context) ([]models.Observation, error) {
	query := fmt.Sprintf(`
		SELECT country, year, pesticide_type, tonnes, kg_per_ha
		FROM %s
		ORDER BY country, year, pesticide_type
	`, r.table)

	var observations []models.Observation
	if err := r.db.SelectContext(ctx, "list_observations", &observations, query); err != nil {
		return nil, fmt.Errorf("failed to list observations: %w", err)
	}

	return observations, nil
}

// CreateObservationsBatch upserts multiple observations in a single transaction
func (r *pesticideRepository) CreateObservationsBatch(ctx context.Context, observations []models.Observation) error {
	if len(observations) == 0 {
		return nil
	}

	timer := time.Now()
	defer func() {
		duration := time.Since(timer)
		r.metrics.IngestionBatchSize.Observe(float64(len(observations)))
		r.logger.Debug(ctx, "[REPO_BATCH_INSERT] Batch insert completed", logging.Fields{
			"count":       len(observations),
			"duration_ms": duration.Milliseconds(),
		})
	}()

	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, tx.Rebind(fmt.Sprintf(`
		INSERT INTO %s (country, year, pesticide_type, tonnes, kg_per_ha)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (country, year, pesticide_type) DO UPDATE SET
			tonnes = EXCLUDED.tonnes,
			kg_per_ha = EXCLUDED.kg_per_ha
	`, r.table)))
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, obs := range observations {
		if err := obs.Validate(); err != nil {
			return fmt.Errorf("invalid observation %s/%d/%s: %w", obs.Country, obs.Year, obs.PesticideType, err)
		}
		_, err := stmt.ExecContext(ctx,
			obs.Country,
			obs.Year,
			obs.PesticideType,
			obs.Tonnes,
			obs.KgPerHa,
		)
		if err != nil {
			r.metrics.RecordDBError("batch_insert_error")
			return fmt.Errorf("failed to insert observation: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.metrics.IngestionRecordsTotal.Add(float64(len(observations)))

	return nil
}

// CountObservations returns the number of stored rows
func (r *pesticideRepository) CountObservations(ctx context.Context) (int, error) {
	var count int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", r.table)
	if err := r.db.GetContext(ctx, "count_observations", &count, query); err != nil {
		return 0, fmt.Errorf("failed to count observations: %w", err)
	}
	return count, nil
}

// HealthCheck performs a repository health check
func (r *pesticideRepository) HealthCheck(ctx context.Context) error {
	return r.db.HealthCheck(ctx)
}
