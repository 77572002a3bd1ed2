package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObservations(t *testing.T) {
	m := New()
	m.ObserveStep("video", "fetch", "no_signal")
	m.ObserveStep("video", "fetch", "no_signal")
	m.ObserveStep("video", "llm", "accepted")
	m.ObserveExtraction("youtube", "llm_transcript", true, 1500*time.Millisecond)
	m.ObserveRequest("/api/extract", 200)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.steps.WithLabelValues("video", "fetch", "no_signal")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.steps.WithLabelValues("video", "llm", "accepted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.extractions.WithLabelValues("youtube", "llm_transcript", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("/api/extract", "200")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.duration))
}

func TestHandlerServesText(t *testing.T) {
	m := New()
	m.ObserveExtraction("direct_url", "schema_org", true, time.Second)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `recipe_extraction_extractions_total{method="schema_org",platform="direct_url",success="true"} 1`)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveStep("a", "b", "c")
		m.ObserveExtraction("a", "b", false, time.Second)
		m.ObserveRequest("/", 200)
	})
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 404, rec.Code)
}
