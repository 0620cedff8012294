package telemetry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/soundprediction/footballkg/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParquetHandlerPersistsErrorsOnClose(t *testing.T) {
	dir := t.TempDir()
	h, err := NewParquetHandler(slog.NewTextHandler(io.Discard, nil), dir)
	require.NoError(t, err)

	log := slog.New(h).With("component", "qa")
	ctx := context.WithValue(context.Background(), types.ContextKeyRequestID, "req-7")

	log.InfoContext(ctx, "not persisted")
	log.ErrorContext(ctx, "graph store call failed", "error", errors.New("boom"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	require.NoError(t, h.Close())

	entries, err = os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	rows, err := parquet.ReadFile[LogRecord](filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "graph store call failed", rows[0].Message)
	assert.Equal(t, "req-7", rows[0].RequestID)
	assert.Contains(t, rows[0].Attributes, `"component":"qa"`)
	assert.Contains(t, rows[0].Attributes, `"error":"boom"`)
}

func TestMetrics(t *testing.T) {
	m := NewMetrics()
	m.RecordQuestion("answered")
	m.RecordQuestion("answered")
	m.RecordQuestion("failed")
	m.RecordIngestRow(true)
	m.RecordIngestRow(false)
	m.ObserveStage("execute", 20*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.questionsTotal.WithLabelValues("answered")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ingestRows.WithLabelValues("failed")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "footballkg_questions_total")
}

func TestNilMetricsIsNoOp(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordQuestion("answered")
		m.ObserveStage("generate", time.Second)
		m.RecordIngestRow(true)
		m.RecordSchemaRefresh(nil)
	})
}
