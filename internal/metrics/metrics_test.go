package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Records(t *testing.T) {
	m := New()

	m.RecordEvent("3PM", "http")
	m.RecordEvent("3PM", "http")
	m.RecordRejection("game_not_live")
	m.RecordCache("hit")
	m.RecordRateLimited()
	m.ObserveReportBuild(2 * time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.EventsRecorded.WithLabelValues("3PM", "http")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsRejected.WithLabelValues("game_not_live")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReportCache.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RateLimited))
}

func TestRegistry_NilIsSafe(t *testing.T) {
	var m *Registry
	assert.NotPanics(t, func() {
		m.RecordEvent("AST", "kafka")
		m.RecordCache("miss")
		m.RecordKafkaBatch("ok")
		m.RecordRefresh()
	})
}

func TestRegistry_Handler(t *testing.T) {
	m := New()
	m.RegisterGauge("statsbasket_websocket_clients", "Connected websocket clients", func() float64 { return 3 })
	m.RecordEvent("AST", "http")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), "statsbasket_events_recorded_total")
	assert.Contains(t, string(body), "statsbasket_websocket_clients 3")
}
