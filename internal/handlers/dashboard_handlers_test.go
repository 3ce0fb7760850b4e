package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pesticide-analytics/internal/analytics"
	"pesticide-analytics/internal/models"
	"pesticide-analytics/internal/services"
	"pesticide-analytics/pkg/logging"
	"pesticide-analytics/pkg/metrics"
)

func newTestRouter(t *testing.T) (*mux.Router, *metrics.Collector) {
	t.Helper()

	logger := logging.NewStructuredLogger("handlers-test", "test", logging.ErrorLevel)
	logger.SetOutput(io.Discard)
	collector := metrics.NewCollector("handlers_test", prometheus.NewRegistry())

	total := models.TotalPesticideType
	dataset := []models.Observation{
		{Country: "South Africa", Year: 2020, PesticideType: "Herbicides", Tonnes: 100, KgPerHa: 2.0},
		{Country: "South Africa", Year: 2020, PesticideType: total, Tonnes: 100, KgPerHa: 2.0},
		{Country: "Zambia", Year: 2020, PesticideType: "Herbicides", Tonnes: 10, KgPerHa: 1.0},
		{Country: "Zambia", Year: 2021, PesticideType: "Herbicides", Tonnes: 12, KgPerHa: 3.0},
		{Country: "Zambia", Year: 2021, PesticideType: total, Tonnes: 12, KgPerHa: 3.0},
	}
	svc, err := services.NewDashboardService(dataset, analytics.DefaultOptions(), "", logger, collector)
	require.NoError(t, err)

	router := mux.NewRouter()
	router.Use(RequestID, Instrument(logger, collector))
	NewDashboardHandler(svc, logger, collector).RegisterRoutes(router)
	return router, collector
}

func get(t *testing.T, router http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestGetViewRegionalTrend(t *testing.T) {
	router, collector := newTestRouter(t)

	rec := get(t, router, "/api/views/regional-trends?countries=Zambia,South%20Africa&types=Herbicides")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "overview", body["view"].(map[string]interface{})["next"])

	points := body["result"].(map[string]interface{})["points"].([]interface{})
	require.Len(t, points, 2)
	first := points[0].(map[string]interface{})
	assert.Equal(t, 2020.0, first["year"])
	assert.Equal(t, 1.5, first["kg_per_ha"])

	assert.Equal(t, 1.0, testutil.ToFloat64(collector.APIRequestsTotal.WithLabelValues("/api/views/{view}", "GET", "200")))
}

func TestGetViewNoData(t *testing.T) {
	router, _ := newTestRouter(t)

	tests := []string{
		"/api/views/overview?countries=",
		"/api/views/overview?types=",
		"/api/views/outliers?year_min=1990&year_max=1999",
	}
	for _, target := range tests {
		t.Run(target, func(t *testing.T) {
			rec := get(t, router, target)
			require.Equal(t, http.StatusOK, rec.Code)
			body := decode(t, rec)
			assert.Equal(t, "no_data", body["status"])
			assert.NotContains(t, body, "result")
		})
	}
}

func TestGetViewBadRequests(t *testing.T) {
	router, collector := newTestRouter(t)

	tests := []struct {
		name   string
		target string
	}{
		{"unknown view", "/api/views/pie-chart"},
		{"bad year", "/api/views/overview?year_min=abc"},
		{"inverted range", "/api/views/overview?year_min=2022&year_max=2020"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, router, tt.target)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, 400.0, decode(t, rec)["code"])
		})
	}
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.APIErrorsTotal.WithLabelValues("unknown_view", "/api/views/{view}")))
}

func TestGetViewFocusCountry(t *testing.T) {
	router, _ := newTestRouter(t)

	body := decode(t, get(t, router, "/api/views/leadership?focus=Zambia"))
	result := body["result"].(map[string]interface{})
	assert.Equal(t, "Zambia", result["focus_country"])
	assert.Len(t, result["year_over_year"], 1)
}

func TestGetOptionsAndViews(t *testing.T) {
	router, _ := newTestRouter(t)

	opts := decode(t, get(t, router, "/api/options"))
	assert.Equal(t, []interface{}{"South Africa", "Zambia"}, opts["countries"])
	assert.Equal(t, 2020.0, opts["year_min"])
	assert.Equal(t, 2021.0, opts["year_max"])

	rec := get(t, router, "/api/views")
	var views []services.ViewInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	require.Len(t, views, 7)
	assert.Equal(t, "regional-trends", views[0].Slug)
	assert.Equal(t, "regional-trends", views[6].Next)
}

func TestGetObservationsPaginates(t *testing.T) {
	router, _ := newTestRouter(t)

	body := decode(t, get(t, router, "/api/observations?countries=Zambia&page=2&limit=2"))
	assert.Equal(t, 3.0, body["total"])
	assert.Equal(t, 2.0, body["total_pages"])
	assert.Len(t, body["data"], 1)
}

func TestRequestIDHeader(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := get(t, router, "/health")
	assert.Len(t, rec.Header().Get(RequestIDHeader), 36)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "9b2f7a4e-3c1d-4e8f-a6b5-0d9c8e7f6a5b")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, "9b2f7a4e-3c1d-4e8f-a6b5-0d9c8e7f6a5b", rec.Header().Get(RequestIDHeader))
}

func TestDocsEndpoints(t *testing.T) {
	router, _ := newTestRouter(t)

	spec := decode(t, get(t, router, "/api/docs/openapi.json"))
	paths := spec["paths"].(map[string]interface{})
	assert.Contains(t, paths, "/api/views/{view}")
	assert.Contains(t, paths, "/api/observations")

	rec := get(t, router, "/api/docs")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "swagger-ui")
}
