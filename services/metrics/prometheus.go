package metricsvc

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/trezcool/sajili/core"
)

const namespace = "sajili"

// Prometheus implements core.Metrics on its own registry.
type Prometheus struct {
	registry *prometheus.Registry

	sessionsStarted prometheus.Counter
	recordsMarked   *prometheus.CounterVec
	scansRejected   *prometheus.CounterVec
	eventsDropped   *prometheus.CounterVec
}

var _ core.Metrics = (*Prometheus)(nil)

func NewPrometheus() *Prometheus {
	p := &Prometheus{
		registry: prometheus.NewRegistry(),
		sessionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_started_total",
			Help:      "Attendance sessions started.",
		}),
		recordsMarked: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_marked_total",
			Help:      "Attendance records created, by status.",
		}, []string{"status"}),
		scansRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scans_rejected_total",
			Help:      "Attendance marks refused, by reason.",
		}, []string{"reason"}),
		eventsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_dropped_total",
			Help:      "Change notifications that could not be delivered to a subscriber, by topic.",
		}, []string{"topic"}),
	}

	p.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		p.sessionsStarted,
		p.recordsMarked,
		p.scansRejected,
		p.eventsDropped,
	)
	return p
}

func (p *Prometheus) SessionStarted() {
	p.sessionsStarted.Inc()
}

func (p *Prometheus) RecordMarked(status string) {
	p.recordsMarked.WithLabelValues(status).Inc()
}

func (p *Prometheus) ScanRejected(reason string) {
	p.scansRejected.WithLabelValues(reason).Inc()
}

func (p *Prometheus) EventDropped(topic string) {
	p.eventsDropped.WithLabelValues(topic).Inc()
}

// Registry is exposed for tests and for registering extra collectors.
func (p *Prometheus) Registry() *prometheus.Registry {
	return p.registry
}

// Handler serves the metrics in the Prometheus exposition format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}
