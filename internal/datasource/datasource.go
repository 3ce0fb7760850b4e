// Package datasource loads the pesticide-use dataset from one of several
// backends. Every backend yields the same canonical row set; callers only see
// the DataSource interface.
package datasource

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pesticide-analytics/internal/config"
	"pesticide-analytics/internal/models"
	"pesticide-analytics/internal/repository"
	"pesticide-analytics/pkg/database"
	"pesticide-analytics/pkg/logging"
	"pesticide-analytics/pkg/metrics"
)

// ErrEmptyDataset is returned when a source yields no rows.
var ErrEmptyDataset = errors.New("dataset contains no observations")

// DataSource returns the complete row set.
type DataSource interface {
	Load(ctx context.Context) ([]models.Observation, error)
}

// RejectFunc receives rows that failed validation. Row numbers are 1-based
// and count data rows only. When a source has no RejectFunc the first invalid
// row aborts the load.
type RejectFunc func(row int, err error)

// rowSink applies the reject policy shared by all backends.
type rowSink struct {
	onReject RejectFunc
	rows     []models.Observation
}

func (s *rowSink) add(row int, obs *models.Observation, err error) error {
	if err == nil {
		err = obs.Validate()
	}
	if err != nil {
		if s.onReject == nil {
			return fmt.Errorf("row %d: %w", row, err)
		}
		s.onReject(row, err)
		return nil
	}
	s.rows = append(s.rows, *obs)
	return nil
}

// Options tune Open.
type Options struct {
	OnReject RejectFunc
}

// Open builds the DataSource selected by cfg.Source.Driver. The returned
// cleanup releases any connection the source holds and is never nil.
func Open(ctx context.Context, cfg *config.Config, logger *logging.StructuredLogger, metricsCollector *metrics.Collector, opts Options) (DataSource, func() error, error) {
	noop := func() error { return nil }
	src := cfg.Source

	switch src.Driver {
	case config.DriverCSV:
		return &CSVSource{Path: src.Path, OnReject: opts.OnReject}, noop, nil

	case config.DriverParquet:
		return &ParquetSource{Path: src.Path, OnReject: opts.OnReject}, noop, nil

	case config.DriverS3:
		s3src, err := NewS3Source(ctx, src.S3, opts.OnReject)
		if err != nil {
			return nil, nil, err
		}
		return s3src, noop, nil

	case config.DriverSQLite, config.DriverPostgres:
		var (
			db  *database.DB
			err error
		)
		if src.Driver == config.DriverSQLite {
			db, err = database.NewSQLiteDB(src.Path, logger, metricsCollector)
		} else {
			db, err = database.NewPostgresDB(PostgresConfig(cfg.Database), logger, metricsCollector)
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open %s source: %w", src.Driver, err)
		}

		repo, err := repository.NewPesticideRepository(db, src.Table, logger, metricsCollector)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		return &SQLSource{Repo: repo, OnReject: opts.OnReject}, db.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown source driver %q", src.Driver)
	}
}

// PostgresConfig maps the application database settings onto the
// connection settings of pkg/database.
func PostgresConfig(c config.DatabaseConfig) *database.Config {
	return &database.Config{
		Host:            c.Host,
		Port:            c.Port,
		User:            c.User,
		Password:        c.Password,
		Database:        c.Database,
		SSLMode:         c.SSLMode,
		MaxOpenConns:    c.MaxOpenConns,
		MaxIdleConns:    c.MaxIdleConns,
		ConnMaxLifetime: c.ConnMaxLifetime,
		ConnMaxIdleTime: c.ConnMaxIdleTime,
	}
}

// LoadDataset runs src once, rejects an empty result and records load metrics.
func LoadDataset(ctx context.Context, src DataSource, driver string, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) ([]models.Observation, error) {
	start := time.Now()

	rows, err := src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s dataset: %w", driver, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s source: %w", driver, ErrEmptyDataset)
	}

	duration := time.Since(start)
	metricsCollector.RecordDatasetLoad(driver, len(rows), duration)

	logger.Info(ctx, "[DATASET_LOADED] Dataset loaded", logging.Fields{
		"driver":      driver,
		"rows":        len(rows),
		"duration_ms": duration.Milliseconds(),
	})

	return rows, nil
}

// columnIndex maps each canonical column to its position in header.
// Extra columns are ignored; header cells are matched after trimming.
func columnIndex(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := idx[h]; !dup {
			idx[h] = i
		}
	}

	var missing []string
	for _, col := range models.Columns {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return idx, nil
}
