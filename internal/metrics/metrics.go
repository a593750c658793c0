package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "channel_identity"

// Metrics holds the service counters. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	sessions      *prometheus.CounterVec
	mediaReplaced *prometheus.CounterVec
	orphanedMedia *prometheus.CounterVec
	profileViews  *prometheus.CounterVec
	httpRequests  *prometheus.CounterVec
}

func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		gatherer: reg,
		sessions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_operations_total",
			Help:      "Session operations by operation and outcome.",
		}, []string{"operation", "outcome"}),
		mediaReplaced: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "media_replacements_total",
			Help:      "Media replacements by slot and outcome.",
		}, []string{"slot", "outcome"}),
		orphanedMedia: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "media_orphaned_total",
			Help:      "Remote assets left behind after a failed best-effort delete.",
		}, []string{"slot"}),
		profileViews: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "channel_profile_views_total",
			Help:      "Channel profile lookups by outcome.",
		}, []string{"outcome"}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method and status code.",
		}, []string{"method", "status"}),
	}
}

// NewDefault registers the counters on a fresh registry that also carries
// the Go runtime and process collectors.
func NewDefault() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return New(reg)
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) Session(operation string, outcome string) {
	if m == nil {
		return
	}
	m.sessions.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) MediaReplaced(slot string, outcome string) {
	if m == nil {
		return
	}
	m.mediaReplaced.WithLabelValues(slot, outcome).Inc()
}

func (m *Metrics) MediaOrphaned(slot string) {
	if m == nil {
		return
	}
	m.orphanedMedia.WithLabelValues(slot).Inc()
}

func (m *Metrics) ProfileView(outcome string) {
	if m == nil {
		return
	}
	m.profileViews.WithLabelValues(outcome).Inc()
}

func (m *Metrics) HTTPRequest(method string, status string) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, status).Inc()
}
