package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounters(t *testing.T) {
	m := New()
	m.ShotFinished("COMPLETED")
	m.ShotFinished("COMPLETED")
	m.ShotFinished("ERROR")
	m.BatchTask("failed")
	m.ObserveGeneration("image", "synthetic", time.Now())

	if got := testutil.ToFloat64(m.ShotsTotal.WithLabelValues("COMPLETED")); got != 2 {
		t.Fatalf("completed shots = %v", got)
	}
	if got := testutil.ToFloat64(m.BatchTasksTotal.WithLabelValues("failed")); got != 1 {
		t.Fatalf("failed tasks = %v", got)
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "engine_generation_duration_seconds_count") {
		t.Fatalf("histogram missing from exposition")
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ShotFinished("COMPLETED")
	m.BatchTask("success")
	m.ObserveGeneration("video", "veo", time.Now())
}
