package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	_ Recorder = (*NoopRecorder)(nil)
	_ Recorder = (*InMemoryRecorder)(nil)
	_ Recorder = (*PrometheusRecorder)(nil)
)

func TestInMemoryRecorder_Snapshot(t *testing.T) {
	t.Parallel()

	m := NewInMemory()
	m.IncSessionCreated()
	m.IncSessionCreated()
	m.IncSessionDeleted()
	m.IncDangerFlagSet(true)
	m.IncStoreError("list_sessions")
	m.IncStoreError("list_sessions")
	m.IncDangerCacheHit()
	m.IncDangerCacheMiss()
	m.ObserveStatusRefresh(5 * time.Millisecond)
	m.SetPresent(true)
	m.IncLogin(LoginFailure)

	s := m.Snapshot()
	if s.SessionsCreated != 2 || s.SessionsDeleted != 1 || s.DangerFlagSets != 1 {
		t.Errorf("mutation counters = %+v", s)
	}
	if s.StoreErrors["list_sessions"] != 2 {
		t.Errorf("store errors = %v, want list_sessions=2", s.StoreErrors)
	}
	if s.DangerCacheHits != 1 || s.DangerCacheMisses != 1 {
		t.Errorf("cache counters = %d/%d, want 1/1", s.DangerCacheHits, s.DangerCacheMisses)
	}
	if s.StatusRefreshes != 1 || s.StatusRefreshTotalNs != int64(5*time.Millisecond) {
		t.Errorf("refresh = %d/%d", s.StatusRefreshes, s.StatusRefreshTotalNs)
	}
	if !s.Present {
		t.Error("Present should be true")
	}
	if s.Logins[LoginFailure] != 1 {
		t.Errorf("logins = %v", s.Logins)
	}

	// Snapshot maps are copies.
	s.StoreErrors["list_sessions"] = 99
	if m.Snapshot().StoreErrors["list_sessions"] != 2 {
		t.Error("Snapshot must not expose internal maps")
	}
}

func gatherValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	metric:
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if labels[lp.GetName()] != lp.GetValue() {
					continue metric
				}
			}
			switch {
			case m.GetCounter() != nil:
				return m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				return m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				return float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	t.Fatalf("metric %s%v not found", name, labels)
	return 0
}

func TestPrometheusRecorder_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPrometheus(reg)

	p.IncSessionCreated()
	p.IncSessionCreated()
	p.IncSessionDeleted()
	p.IncDangerFlagSet(true)
	p.IncStoreError("get_setting")
	p.IncDangerCacheMiss()
	p.IncLogin(LoginSuccess)
	p.ObserveStatusRefresh(time.Millisecond)

	tests := []struct {
		name   string
		labels map[string]string
		want   float64
	}{
		{"gymwatch_sessions_created_total", nil, 2},
		{"gymwatch_sessions_deleted_total", nil, 1},
		{"gymwatch_danger_flag_sets_total", map[string]string{"value": "true"}, 1},
		{"gymwatch_store_errors_total", map[string]string{"op": "get_setting"}, 1},
		{"gymwatch_danger_cache_lookups_total", map[string]string{"result": "miss"}, 1},
		{"gymwatch_logins_total", map[string]string{"result": "success"}, 1},
		{"gymwatch_status_refresh_seconds", nil, 1},
	}

	for _, tt := range tests {
		if got := gatherValue(t, reg, tt.name, tt.labels); got != tt.want {
			t.Errorf("%s%v = %v, want %v", tt.name, tt.labels, got, tt.want)
		}
	}
}

func TestPrometheusRecorder_PresentGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPrometheus(reg)

	p.SetPresent(true)
	if got := gatherValue(t, reg, "gymwatch_present", nil); got != 1 {
		t.Errorf("gymwatch_present = %v, want 1", got)
	}
	p.SetPresent(false)
	if got := gatherValue(t, reg, "gymwatch_present", nil); got != 0 {
		t.Errorf("gymwatch_present = %v, want 0", got)
	}
}

func TestHandler_ServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPrometheus(reg)
	p.IncSessionCreated()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	Handler(reg).ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "gymwatch_sessions_created_total 1") {
		t.Error("response should contain gymwatch_sessions_created_total")
	}
}
