package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.ObserveStageDuration("render", time.Second)
	r.ObserveBuildDuration(time.Second)
	r.IncStageResult("render", ResultSuccess)
	r.IncBuildOutcome(BuildOutcomeSuccess)
	r.AddPagesRendered(3)
	r.AddPassthroughFiles(2, 10)
	r.SetLastBuildTimestamp(time.Now())
}

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	r := NewPrometheusRecorder(reg)

	r.IncStageResult("render", ResultSuccess)
	r.IncStageResult("render", ResultSuccess)
	r.IncBuildOutcome(BuildOutcomeFailed)
	r.AddPagesRendered(5)
	r.AddPagesRendered(0)
	r.AddPassthroughFiles(2, 2048)
	r.ObserveStageDuration("render", 20*time.Millisecond)
	r.SetLastBuildTimestamp(time.Unix(1700000000, 0))

	values := gather(t, reg)
	assert.InDelta(t, 2, values["sitebuilder_stage_results_total"], 0)
	assert.InDelta(t, 1, values["sitebuilder_build_outcomes_total"], 0)
	assert.InDelta(t, 5, values["sitebuilder_pages_rendered_total"], 0)
	assert.InDelta(t, 2, values["sitebuilder_passthrough_files_total"], 0)
	assert.InDelta(t, 2048, values["sitebuilder_passthrough_bytes_total"], 0)
	assert.InDelta(t, 1700000000, values["sitebuilder_last_build_timestamp_seconds"], 0)
}

// gather sums counter and gauge samples per metric family.
func gather(t *testing.T, reg *prom.Registry) map[string]float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	out := map[string]float64{}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				out[mf.GetName()] += m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				out[mf.GetName()] += m.GetGauge().GetValue()
			}
		}
	}
	return out
}

func TestPrometheusRecorder_NilSafe(t *testing.T) {
	var r *PrometheusRecorder
	r.IncBuildOutcome(BuildOutcomeSuccess)
	r.AddPagesRendered(1)
}

func TestHTTPHandler(t *testing.T) {
	reg := prom.NewRegistry()
	r := NewPrometheusRecorder(reg)
	r.AddPagesRendered(7)

	rec := httptest.NewRecorder()
	HTTPHandler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "sitebuilder_pages_rendered_total 7"), body)
}

func TestNewRegistry_IncludesRuntimeCollectors(t *testing.T) {
	reg := NewRegistry()
	NewPrometheusRecorder(reg).AddPagesRendered(1)

	rec := httptest.NewRecorder()
	HTTPHandler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "go_goroutines")
	assert.Contains(t, body, "sitebuilder_pages_rendered_total 1")
}
