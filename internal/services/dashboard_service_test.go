package services

import (
	"context"
	"io"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pesticide-analytics/internal/analytics"
	"pesticide-analytics/internal/datasource"
	"pesticide-analytics/internal/models"
	"pesticide-analytics/pkg/logging"
	"pesticide-analytics/pkg/metrics"
)

func testLogger() *logging.StructuredLogger {
	logger := logging.NewStructuredLogger("services-test", "test", logging.ErrorLevel)
	logger.SetOutput(io.Discard)
	return logger
}

func dataset() []models.Observation {
	total := models.TotalPesticideType
	return []models.Observation{
		{Country: "Zambia", Year: 2019, PesticideType: "Herbicides", Tonnes: 10, KgPerHa: 0.2},
		{Country: "Zambia", Year: 2019, PesticideType: total, Tonnes: 10, KgPerHa: 0.2},
		{Country: "South Africa", Year: 2019, PesticideType: "Herbicides", Tonnes: 100, KgPerHa: 2},
		{Country: "South Africa", Year: 2019, PesticideType: "Fungicides", Tonnes: 50, KgPerHa: 1},
		{Country: "South Africa", Year: 2020, PesticideType: "Herbicides", Tonnes: 120, KgPerHa: 2.5},
		{Country: "South Africa", Year: 2020, PesticideType: total, Tonnes: 120, KgPerHa: 2.5},
	}
}

func newDashboard(t *testing.T) (*DashboardService, *metrics.Collector) {
	t.Helper()
	collector := metrics.NewCollector("services_test", prometheus.NewRegistry())
	svc, err := NewDashboardService(dataset(), analytics.DefaultOptions(), "", testLogger(), collector)
	require.NoError(t, err)
	return svc, collector
}

func TestNewDashboardServiceRequiresRows(t *testing.T) {
	_, err := NewDashboardService(nil, analytics.DefaultOptions(), "", testLogger(),
		metrics.NewCollector("services_test", prometheus.NewRegistry()))
	assert.ErrorIs(t, err, datasource.ErrEmptyDataset)
}

func TestOptions(t *testing.T) {
	svc, _ := newDashboard(t)
	opts := svc.Options()

	assert.Equal(t, []string{"South Africa", "Zambia"}, opts.Countries)
	assert.Equal(t, []string{"Herbicides", models.TotalPesticideType, "Fungicides"}, opts.PesticideTypes)
	assert.Equal(t, 2019, opts.YearMin)
	assert.Equal(t, 2020, opts.YearMax)
	assert.Equal(t, models.DefaultFocusCountry, opts.FocusCountry)
	require.Len(t, opts.Views, 7)
	assert.Equal(t, "outliers", opts.Views[0].Prev)
	assert.Equal(t, "overview", opts.Views[0].Next)

	opts.Countries[0] = "Mutated"
	assert.Equal(t, "South Africa", svc.Options().Countries[0])
}

func TestRenderDefaultSession(t *testing.T) {
	svc, collector := newDashboard(t)

	res, err := svc.Render(context.Background(), svc.DefaultSession(models.ViewRegionalTrends))
	require.NoError(t, err)

	trend, ok := res.(analytics.RegionalTrend)
	require.True(t, ok)
	require.Len(t, trend.Points, 2)
	assert.Equal(t, 2019, trend.Points[0].Year)
	assert.Equal(t, 1, testutil.CollectAndCount(collector.ViewComputeDuration))
}

func TestRenderClearedSelection(t *testing.T) {
	svc, collector := newDashboard(t)
	sel, err := models.NewSelection(nil, []string{"Herbicides"}, 2019, 2020)
	require.NoError(t, err)

	_, err = svc.Render(context.Background(), models.Session{View: models.ViewOverview, Selection: sel})
	assert.ErrorIs(t, err, models.ErrNoData)
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.ViewNoDataTotal.WithLabelValues("overview")))
}

func TestRenderUnknownView(t *testing.T) {
	svc, _ := newDashboard(t)
	session := svc.DefaultSession(models.View(42))

	_, err := svc.Render(context.Background(), session)
	assert.ErrorIs(t, err, models.ErrUnknownView)
}

func TestRenderUsesServiceFocusCountry(t *testing.T) {
	collector := metrics.NewCollector("services_test", prometheus.NewRegistry())
	svc, err := NewDashboardService(dataset(), analytics.DefaultOptions(), "Zambia", testLogger(), collector)
	require.NoError(t, err)

	session := svc.DefaultSession(models.ViewLeadership)
	session.FocusCountry = ""
	res, err := svc.Render(context.Background(), session)
	require.NoError(t, err)
	assert.Equal(t, "Zambia", res.(analytics.Leadership).FocusCountry)
}

func TestRenderAll(t *testing.T) {
	svc, _ := newDashboard(t)

	results, err := svc.RenderAll(context.Background(), svc.DefaultSelection(), "")
	require.NoError(t, err)
	require.Len(t, results, 7)
	for i, v := range models.AllViews() {
		assert.Equal(t, v, results[i].View())
	}

	empty, err := models.NewSelection([]string{"Zambia"}, []string{"Herbicides"}, 2021, 2023)
	require.NoError(t, err)
	_, err = svc.RenderAll(context.Background(), empty, "")
	assert.ErrorIs(t, err, models.ErrNoData)
}

func TestObservationsPaging(t *testing.T) {
	svc, _ := newDashboard(t)
	sel := svc.DefaultSelection()

	page := svc.Observations(context.Background(), sel, 2, 4)
	assert.Equal(t, 6, page.Total)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, "South Africa", page.Items[0].Country)

	beyond := svc.Observations(context.Background(), sel, 9, 4)
	assert.NotNil(t, beyond.Items)
	assert.Empty(t, beyond.Items)

	defaults := svc.Observations(context.Background(), sel, 0, 0)
	assert.Equal(t, 1, defaults.Page)
	assert.Equal(t, DefaultPageLimit, defaults.Limit)
	assert.Len(t, defaults.Items, 6)
}
