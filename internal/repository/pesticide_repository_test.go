package repository

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pesticide-analytics/internal/models"
	"pesticide-analytics/migrations"
	"pesticide-analytics/pkg/database"
	"pesticide-analytics/pkg/logging"
	"pesticide-analytics/pkg/metrics"
)

func newTestRepository(t *testing.T) (PesticideRepository, *metrics.Collector) {
	t.Helper()

	logger := logging.NewStructuredLogger("repository-test", "test", logging.ErrorLevel)
	logger.SetOutput(io.Discard)
	collector := metrics.NewCollector("repository_test", prometheus.NewRegistry())

	db, err := database.NewSQLiteDB(filepath.Join(t.TempDir(), "pesticide.db"), logger, collector)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = migrations.Apply(context.Background(), db, migrations.Up)
	require.NoError(t, err)

	repo, err := NewPesticideRepository(db, DefaultTable, logger, collector)
	require.NoError(t, err)
	return repo, collector
}

func TestBatchRoundTrip(t *testing.T) {
	repo, collector := newTestRepository(t)
	ctx := context.Background()

	batch := []models.Observation{
		{Country: "Zambia", Year: 2021, PesticideType: "Herbicides", Tonnes: 120, KgPerHa: 0.4},
		{Country: "Botswana", Year: 2020, PesticideType: "Fungicides", Tonnes: 8.5, KgPerHa: 0.1},
		{Country: "Botswana", Year: 2019, PesticideType: "Fungicides", Tonnes: 7, KgPerHa: 0.09},
	}
	require.NoError(t, repo.CreateObservationsBatch(ctx, batch))

	got, err := repo.ListObservations(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, batch[2], got[0])
	assert.Equal(t, batch[1], got[1])
	assert.Equal(t, batch[0], got[2])

	count, err := repo.CountObservations(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.Equal(t, 3.0, testutil.ToFloat64(collector.IngestionRecordsTotal))
}

func TestBatchUpsertsOnKey(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	first := models.Observation{Country: "Malawi", Year: 2015, PesticideType: "Insecticides", Tonnes: 10, KgPerHa: 0.2}
	require.NoError(t, repo.CreateObservationsBatch(ctx, []models.Observation{first}))

	updated := first
	updated.Tonnes = 12
	require.NoError(t, repo.CreateObservationsBatch(ctx, []models.Observation{updated}))

	got, err := repo.ListObservations(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.Observation{updated}, got)
}

func TestBatchRejectsInvalidRowAtomically(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	err := repo.CreateObservationsBatch(ctx, []models.Observation{
		{Country: "Namibia", Year: 2000, PesticideType: "Herbicides", Tonnes: 1, KgPerHa: 0.01},
		{Country: "Namibia", Year: 2001, PesticideType: "Herbicides", Tonnes: -1, KgPerHa: 0.01},
	})
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Tonnes", verr.Field)

	count, err := repo.CountObservations(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestEmptyBatchIsNoop(t *testing.T) {
	repo, _ := newTestRepository(t)
	assert.NoError(t, repo.CreateObservationsBatch(context.Background(), nil))
}

func TestNewPesticideRepositoryRejectsBadTable(t *testing.T) {
	_, err := NewPesticideRepository(nil, "pesticide_use; DROP TABLE x", nil, nil)
	assert.Error(t, err)
}
