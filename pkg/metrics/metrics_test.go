package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordView(t *testing.T) {
	c := NewCollector("pesticide_test", prometheus.NewRegistry())

	c.RecordView("overview", 40, 2*time.Millisecond)
	c.RecordView("overview", 0, time.Millisecond)
	c.RecordView("outliers", 0, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.ViewNoDataTotal.WithLabelValues("overview")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.ViewNoDataTotal.WithLabelValues("outliers")))
	assert.Equal(t, 2, testutil.CollectAndCount(c.ViewComputeDuration))
}

func TestRecordDatasetLoad(t *testing.T) {
	c := NewCollector("pesticide_test", prometheus.NewRegistry())

	c.RecordDatasetLoad("csv", 1360, 30*time.Millisecond)
	c.RecordRejectedRow("validation")

	assert.Equal(t, 1360.0, testutil.ToFloat64(c.DatasetRows))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.DatasetRejectedRows.WithLabelValues("validation")))
}

func TestCollectorsDoNotShareRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		NewCollector("pesticide_test", prometheus.NewRegistry())
		NewCollector("pesticide_test", prometheus.NewRegistry())
	})
}

func TestTimerObserves(t *testing.T) {
	c := NewCollector("pesticide_test", prometheus.NewRegistry())
	timer := c.NewTimer(c.ViewComputeDuration.WithLabelValues("by-decade"))
	assert.GreaterOrEqual(t, timer.ObserveDuration(), time.Duration(0))
	assert.Equal(t, 1, testutil.CollectAndCount(c.ViewComputeDuration))
}
