package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(level LogLevel) (*StructuredLogger, *bytes.Buffer) {
	var buf bytes.Buffer
	l := NewStructuredLogger("pesticide-test", "0.0.1", level)
	l.SetOutput(&buf)
	return l, &buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry), line)
		out = append(out, entry)
	}
	return out
}

func TestStructuredLoggerJSON(t *testing.T) {
	logger, buf := newTestLogger(InfoLevel)
	ctx := WithRequestID(context.Background(), "req-42")

	logger.Debug(ctx, "[HIDDEN] below threshold", Fields{})
	logger.Info(ctx, "[VIEW_COMPUTED] View computed", Fields{"view": "overview", "rows": 12})
	logger.Error(ctx, "[VIEW_ERROR] View failed", Fields{"view": "outliers"}, errors.New("boom"))

	entries := decodeLines(t, buf)
	require.Len(t, entries, 2)

	info := entries[0]
	assert.Equal(t, "INFO", info["level"])
	assert.Equal(t, "[VIEW_COMPUTED] View computed", info["msg"])
	assert.Equal(t, "pesticide-test", info["service"])
	assert.Equal(t, "overview", info["view"])
	assert.Equal(t, float64(12), info["rows"])
	assert.Equal(t, "req-42", info["request_id"])

	errEntry := entries[1]
	assert.Equal(t, "ERROR", errEntry["level"])
	assert.Equal(t, "boom", errEntry["error"])
	assert.NotEmpty(t, errEntry["caller"])
}

func TestStructuredLoggerFatalExits(t *testing.T) {
	logger, buf := newTestLogger(InfoLevel)
	code := -1
	logger.exit = func(c int) { code = c }

	logger.Fatal(context.Background(), "[STARTUP_ERROR] dataset missing", Fields{}, errors.New("no file"))

	assert.Equal(t, 1, code)
	entries := decodeLines(t, buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "FATAL", entries[0]["level"])
	assert.NotEmpty(t, entries[0]["stack_trace"])
}

func TestContextLoggerMergesFields(t *testing.T) {
	logger, buf := newTestLogger(DebugLevel)
	scoped := logger.WithFields(Fields{"component": "loader", "source": "csv"})

	scoped.Debug(context.TODO(), "[LOAD] rows read", Fields{"source": "parquet", "rows": 3})

	entries := decodeLines(t, buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "loader", entries[0]["component"])
	assert.Equal(t, "parquet", entries[0]["source"])
}

func TestTextFormat(t *testing.T) {
	logger, buf := newTestLogger(InfoLevel)
	logger.SetFormat(FormatText)

	logger.Warn(context.Background(), "[SLOW] view took long", Fields{"view": "breakdown"})

	out := buf.String()
	assert.Contains(t, out, "[SLOW] view took long")
	assert.Contains(t, out, "view=breakdown")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, WarnLevel, ParseLevel("warning"))
	assert.Equal(t, InfoLevel, ParseLevel(""))
	assert.Equal(t, "FATAL", FatalLevel.String())
}
