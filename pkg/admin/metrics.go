package admin

import (
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus counters the server engine and admin API
// update as sessions come and go, the same shape as the pack's
// TCPInfoCollector registering one Desc per exported stat, simplified
// here to plain (unlabelled) Counters and a Gauge since per-connection TCP_INFO
// polling has no ASTM analogue.
type Metrics struct {
	SessionsOpened    prometheus.Counter
	SessionsCompleted prometheus.Counter
	SessionsRejected  prometheus.Counter
	SessionsTimedOut  prometheus.Counter
	RecordsProcessed  prometheus.Counter
	FramesRejected    prometheus.Counter
	SessionsActive    prometheus.Gauge

	registry *prometheus.Registry
	active   atomic.Int64
}

// OpenSession records a newly-accepted session in both the Prometheus
// gauge and an in-process counter GET /healthz can read back without
// going through the Prometheus scrape path.
func (m *Metrics) OpenSession() {
	m.SessionsOpened.Inc()
	m.SessionsActive.Inc()
	m.active.Add(1)
}

// CloseSession records a session leaving the active set.
func (m *Metrics) CloseSession() {
	m.SessionsActive.Dec()
	m.active.Add(-1)
}

// ActiveCount returns the current number of open sessions.
func (m *Metrics) ActiveCount() int64 {
	return m.active.Load()
}

// NewMetrics registers the admin API's counters against a fresh
// registry and returns the handles used to update them. A fresh
// registry per Metrics (rather than prometheus.DefaultRegisterer) lets
// tests build independent Metrics instances without collector
// re-registration panics.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		SessionsOpened: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "astm_sessions_opened_total",
			Help: "Total ASTM sessions accepted by the server engine.",
		}),
		SessionsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "astm_sessions_completed_total",
			Help: "Total ASTM sessions that reached a clean EOT.",
		}),
		SessionsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "astm_sessions_rejected_total",
			Help: "Total ASTM sessions that ended in a rejection.",
		}),
		SessionsTimedOut: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "astm_sessions_timed_out_total",
			Help: "Total ASTM sessions that ended on an inactivity timeout.",
		}),
		RecordsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "astm_records_processed_total",
			Help: "Total records successfully dispatched.",
		}),
		FramesRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "astm_frames_rejected_total",
			Help: "Total sessions that ended rejected, counted once per session; individual NAK'd frames are not counted.",
		}),
		SessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "astm_sessions_active",
			Help: "ASTM sessions currently open.",
		}),
	}

	reg.MustRegister(
		m.SessionsOpened, m.SessionsCompleted, m.SessionsRejected,
		m.SessionsTimedOut, m.RecordsProcessed, m.FramesRejected,
		m.SessionsActive,
	)
	return m
}

// Handler returns the /metrics HTTP handler backed by this Metrics'
// own registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
