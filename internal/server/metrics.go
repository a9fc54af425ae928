package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	resultAccepted = "accepted"
	resultRejected = "rejected"
)

// metrics holds the server's collectors on a private registry so several
// servers can live in one process.
type metrics struct {
	registry     *prometheus.Registry
	formsCreated prometheus.Counter
	submissions  *prometheus.CounterVec
	requests     *prometheus.CounterVec
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		formsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "formdesk",
			Name:      "forms_created_total",
			Help:      "Forms stored by the reference store.",
		}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "formdesk",
			Name:      "submissions_total",
			Help:      "Submissions received, by result.",
		}, []string{"result"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "formdesk",
			Name:      "http_requests_total",
			Help:      "HTTP requests, by handler, method and status code.",
		}, []string{"handler", "method", "code"}),
	}
	m.registry.MustRegister(
		m.formsCreated,
		m.submissions,
		m.requests,
		collectors.NewGoCollector(),
	)
	// Pre-create both series so dashboards see zeroes.
	m.submissions.WithLabelValues(resultAccepted)
	m.submissions.WithLabelValues(resultRejected)
	return m
}

func (m *metrics) instrument(name string, next http.Handler) http.Handler {
	return promhttp.InstrumentHandlerCounter(
		m.requests.MustCurryWith(prometheus.Labels{"handler": name}),
		next,
	)
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
