package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pesticide-analytics/internal/datasource"
	"pesticide-analytics/internal/models"
	"pesticide-analytics/pkg/metrics"
)

type fakeRepository struct {
	batches [][]models.Observation
	failOn  int
}

func (f *fakeRepository) ListObservations(context.Context) ([]models.Observation, error) {
	var all []models.Observation
	for _, b := range f.batches {
		all = append(all, b...)
	}
	return all, nil
}

func (f *fakeRepository) CreateObservationsBatch(_ context.Context, obs []models.Observation) error {
	if f.failOn > 0 && len(f.batches)+1 == f.failOn {
		return errors.New("disk full")
	}
	f.batches = append(f.batches, append([]models.Observation(nil), obs...))
	return nil
}

func (f *fakeRepository) CountObservations(ctx context.Context) (int, error) {
	all, _ := f.ListObservations(ctx)
	return len(all), nil
}

func (f *fakeRepository) HealthCheck(context.Context) error { return nil }

const ingestCSV = `Country,Year,Pesticide_Type,Tonnes,Kg_per_ha
Zambia,2019,Herbicides,10,0.2
Zambia,2020,Herbicides,abc,0.2
Zambia,2021,Herbicides,12,0.25
Zambia,2022,Herbicides,13,0.26
Zambia,2023,Herbicides,14,0.27
`

type readerSource struct {
	data     string
	onReject datasource.RejectFunc
}

func (r readerSource) Load(ctx context.Context) ([]models.Observation, error) {
	return datasource.DecodeCSV(ctx, strings.NewReader(r.data), r.onReject)
}

func TestIngestBatchesAndCountsRejects(t *testing.T) {
	repo := &fakeRepository{}
	collector := metrics.NewCollector("services_test", prometheus.NewRegistry())
	svc := NewIngestionService(repo, testLogger(), collector)

	result, err := svc.Ingest(context.Background(), readerSource{data: ingestCSV, onReject: svc.Reject}, 3)
	require.NoError(t, err)

	assert.Equal(t, 5, result.TotalRecords)
	assert.Equal(t, 4, result.SuccessfulRecords)
	assert.Equal(t, 1, result.FailedRecords)
	assert.Equal(t, 2, result.Batches)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "row 2")

	require.Len(t, repo.batches, 2)
	assert.Len(t, repo.batches[0], 3)
	assert.Len(t, repo.batches[1], 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.IngestionErrorsTotal.WithLabelValues("validation_error")))
}

func TestIngestBatchFailure(t *testing.T) {
	repo := &fakeRepository{failOn: 2}
	svc := NewIngestionService(repo, testLogger(), metrics.NewCollector("services_test", prometheus.NewRegistry()))

	_, err := svc.Ingest(context.Background(), readerSource{data: ingestCSV, onReject: svc.Reject}, 2)
	assert.ErrorContains(t, err, "disk full")
}

func TestIngestEmptySource(t *testing.T) {
	svc := NewIngestionService(&fakeRepository{}, testLogger(), metrics.NewCollector("services_test", prometheus.NewRegistry()))

	_, err := svc.Ingest(context.Background(), readerSource{data: "Country,Year,Pesticide_Type,Tonnes,Kg_per_ha\n"}, 10)
	assert.ErrorIs(t, err, datasource.ErrEmptyDataset)

	_, err = svc.Ingest(context.Background(), readerSource{}, 0)
	assert.Error(t, err)
}
