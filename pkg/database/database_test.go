package database

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pesticide-analytics/pkg/logging"
	"pesticide-analytics/pkg/metrics"
)

func openTestDB(t *testing.T) (*DB, *metrics.Collector) {
	t.Helper()

	logger := logging.NewStructuredLogger("database-test", "test", logging.ErrorLevel)
	logger.SetOutput(io.Discard)
	collector := metrics.NewCollector("database_test", prometheus.NewRegistry())

	db, err := NewSQLiteDB(filepath.Join(t.TempDir(), "test.db"), logger, collector)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, collector
}

func TestSQLiteRoundTrip(t *testing.T) {
	db, _ := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.ExecScript(ctx, `
		CREATE TABLE crops (name TEXT PRIMARY KEY, hectares REAL NOT NULL);
		CREATE INDEX idx_crops_hectares ON crops (hectares);
	`))

	_, err := db.ExecContext(ctx, "insert_crop", "INSERT INTO crops (name, hectares) VALUES (?, ?)", "maize", 12.5)
	require.NoError(t, err)

	var hectares float64
	require.NoError(t, db.GetContext(ctx, "get_crop", &hectares, "SELECT hectares FROM crops WHERE name = ?", "maize"))
	assert.Equal(t, 12.5, hectares)

	var names []string
	require.NoError(t, db.SelectContext(ctx, "list_crops", &names, "SELECT name FROM crops ORDER BY name"))
	assert.Equal(t, []string{"maize"}, names)

	require.NoError(t, db.HealthCheck(ctx))
}

func TestSelectErrorIsCounted(t *testing.T) {
	db, collector := openTestDB(t)

	var out []string
	err := db.SelectContext(context.Background(), "broken", &out, "SELECT name FROM missing_table")
	require.Error(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.DBErrorsTotal.WithLabelValues("select_error")))
}

func TestRebind(t *testing.T) {
	db, _ := openTestDB(t)
	assert.Equal(t, DriverSQLite, db.DriverName())
	assert.Equal(t, "SELECT 1 WHERE a = ? AND b = ?", db.Rebind("SELECT 1 WHERE a = ? AND b = ?"))
}

func TestSamplePoolUpdatesGauges(t *testing.T) {
	db, collector := openTestDB(t)
	db.samplePool()
	assert.Equal(t, 3, testutil.CollectAndCount(collector.DBConnectionPool))
}
