package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder exports Recorder events as Prometheus series.
type PrometheusRecorder struct {
	sessionsCreated prometheus.Counter
	sessionsDeleted prometheus.Counter
	dangerFlagSets  *prometheus.CounterVec
	storeErrors     *prometheus.CounterVec
	dangerCache     *prometheus.CounterVec
	statusRefresh   prometheus.Histogram
	present         prometheus.Gauge
	logins          *prometheus.CounterVec
}

// NewPrometheus creates a recorder and registers its collectors on reg.
func NewPrometheus(reg prometheus.Registerer) *PrometheusRecorder {
	p := &PrometheusRecorder{
		sessionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gymwatch_sessions_created_total",
			Help: "Gym sessions added.",
		}),
		sessionsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gymwatch_sessions_deleted_total",
			Help: "Gym sessions deleted.",
		}),
		dangerFlagSets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gymwatch_danger_flag_sets_total",
			Help: "Danger flag writes by new value.",
		}, []string{"value"}),
		storeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gymwatch_store_errors_total",
			Help: "Failed store calls by operation.",
		}, []string{"op"}),
		dangerCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gymwatch_danger_cache_lookups_total",
			Help: "Danger flag cache lookups by result.",
		}, []string{"result"}),
		statusRefresh: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "gymwatch_status_refresh_seconds",
			Help:    "Time to compute one status snapshot.",
			Buckets: prometheus.DefBuckets,
		}),
		present: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gymwatch_present",
			Help: "1 while the owner is inside a scheduled session.",
		}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gymwatch_logins_total",
			Help: "Login attempts by result.",
		}, []string{"result"}),
	}

	reg.MustRegister(
		p.sessionsCreated,
		p.sessionsDeleted,
		p.dangerFlagSets,
		p.storeErrors,
		p.dangerCache,
		p.statusRefresh,
		p.present,
		p.logins,
	)

	return p
}

func (p *PrometheusRecorder) IncSessionCreated() { p.sessionsCreated.Inc() }
func (p *PrometheusRecorder) IncSessionDeleted() { p.sessionsDeleted.Inc() }

func (p *PrometheusRecorder) IncDangerFlagSet(on bool) {
	p.dangerFlagSets.WithLabelValues(strconv.FormatBool(on)).Inc()
}

func (p *PrometheusRecorder) IncStoreError(op string) { p.storeErrors.WithLabelValues(op).Inc() }

func (p *PrometheusRecorder) IncDangerCacheHit()  { p.dangerCache.WithLabelValues("hit").Inc() }
func (p *PrometheusRecorder) IncDangerCacheMiss() { p.dangerCache.WithLabelValues("miss").Inc() }

func (p *PrometheusRecorder) ObserveStatusRefresh(duration time.Duration) {
	p.statusRefresh.Observe(duration.Seconds())
}

func (p *PrometheusRecorder) SetPresent(present bool) {
	if present {
		p.present.Set(1)
		return
	}
	p.present.Set(0)
}

func (p *PrometheusRecorder) IncLogin(result string) { p.logins.WithLabelValues(result).Inc() }

// Handler serves the registry in the Prometheus exposition format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
