package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"pesticide-analytics/internal/datasource"
	"pesticide-analytics/internal/repository"
	"pesticide-analytics/pkg/logging"
	"pesticide-analytics/pkg/metrics"
)

// IngestionService copies a dataset source into the SQL store
type IngestionService struct {
	repo    repository.PesticideRepository
	logger  *logging.StructuredLogger
	metrics *metrics.Collector

	mu       sync.Mutex
	rejected []string
}

// IngestionResult contains ingestion statistics
type IngestionResult struct {
	TotalRecords      int
	SuccessfulRecords int
	FailedRecords     int
	Batches           int
	Duration          time.Duration
	Errors            []string
}

// NewIngestionService creates a new ingestion service
func NewIngestionService(repo repository.PesticideRepository, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *IngestionService {
	return &IngestionService{
		repo:    repo,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// Reject is a datasource.RejectFunc. Pass it to datasource.Open so invalid
// rows are counted instead of aborting the run.
func (s *IngestionService) Reject(row int, err error) {
	s.metrics.RecordIngestionError("validation_error")
	s.metrics.RecordRejectedRow("validation")

	s.mu.Lock()
	s.rejected = append(s.rejected, fmt.Sprintf("row %d: %v", row, err))
	s.mu.Unlock()
}

// Ingest loads src and writes it to the repository in batches of batchSize
func (s *IngestionService) Ingest(ctx context.Context, src datasource.DataSource, batchSize int) (*IngestionResult, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", batchSize)
	}

	startTime := time.Now()
	s.mu.Lock()
	s.rejected = nil
	s.mu.Unlock()

	s.logger.Info(ctx, "[INGEST_START] Starting data ingestion", logging.Fields{
		"batch_size": batchSize,
		"stage":      "INITIALIZATION",
	})

	rows, err := src.Load(ctx)
	if err != nil {
		s.metrics.RecordIngestionError("load_error")
		return nil, fmt.Errorf("failed to load source: %w", err)
	}

	s.mu.Lock()
	rejected := append([]string(nil), s.rejected...)
	s.mu.Unlock()

	result := &IngestionResult{
		TotalRecords:  len(rows) + len(rejected),
		FailedRecords: len(rejected),
		Errors:        rejected,
	}

	if len(rows) == 0 {
		return nil, datasource.ErrEmptyDataset
	}

	s.logger.Info(ctx, "[INGEST_LOADED] Source rows read", logging.Fields{
		"valid_records":  len(rows),
		"failed_records": result.FailedRecords,
		"stage":          "SOURCE_READ",
	})

	for start := 0; start < len(rows); start += batchSize {
		end := min(start+batchSize, len(rows))
		if err := s.repo.CreateObservationsBatch(ctx, rows[start:end]); err != nil {
			s.metrics.RecordIngestionError("batch_error")
			s.logger.Error(ctx, "[INGEST_BATCH_ERROR] Batch insert failed", logging.Fields{
				"batch_start": start,
				"batch_end":   end,
				"stage":       "BATCH_WRITE",
			}, err)
			return nil, fmt.Errorf("failed to insert batch starting at row %d: %w", start, err)
		}
		result.SuccessfulRecords += end - start
		result.Batches++
	}

	result.Duration = time.Since(startTime)
	s.metrics.IngestionDuration.Observe(result.Duration.Seconds())

	s.logger.Info(ctx, "[INGEST_COMPLETE] Data ingestion completed", logging.Fields{
		"total_records":      result.TotalRecords,
		"successful_records": result.SuccessfulRecords,
		"failed_records":     result.FailedRecords,
		"batches":            result.Batches,
		"duration_seconds":   result.Duration.Seconds(),
		"records_per_second": float64(result.SuccessfulRecords) / result.Duration.Seconds(),
		"stage":              "COMPLETE",
	})

	return result, nil
}
