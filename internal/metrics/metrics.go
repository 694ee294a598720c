// Package metrics exposes the engine's Prometheus counters and histograms:
// transport sends, evaluate race outcomes, pause events, and projection
// evictions.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds every counter/histogram the engine records.
type Metrics struct {
	transportSends    *prometheus.CounterVec
	transportErrors   *prometheus.CounterVec
	transportDuration prometheus.Histogram

	evaluateRaceOutcomes *prometheus.CounterVec

	pauseEvents  prometheus.Counter
	resumeEvents prometheus.Counter

	projectionEvictions *prometheus.CounterVec

	fetchPaused   prometheus.Counter
	fetchDispatch *prometheus.CounterVec
}

// New creates a Metrics registered against the default registerer.
func New(namespace string) *Metrics {
	return NewWithRegistry(namespace, prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a Metrics registered against a custom registerer,
// for tests that need an isolated registry.
func NewWithRegistry(namespace string, registerer prometheus.Registerer) *Metrics {
	m := &Metrics{}

	m.transportSends = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "transport",
		Name:      "sends_total",
		Help:      "Total CDP commands sent, by method.",
	}, []string{"method"})

	m.transportErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "transport",
		Name:      "errors_total",
		Help:      "Total CDP send errors, by kind (protocol, timeout, disconnect).",
	}, []string{"kind"})

	m.transportDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "transport",
		Name:      "send_duration_seconds",
		Help:      "Time spent waiting for a CDP command to resolve.",
		Buckets:   prometheus.DefBuckets,
	})

	m.evaluateRaceOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "session",
		Name:      "evaluate_race_outcomes_total",
		Help:      "Outcome of the evaluate/Debugger.paused race, by winner.",
	}, []string{"winner"}) // "call", "pause" or "call_error"

	m.pauseEvents = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "session",
		Name:      "pause_events_total",
		Help:      "Total Debugger.paused events observed.",
	})

	m.resumeEvents = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "session",
		Name:      "resume_events_total",
		Help:      "Total Debugger.resumed events observed.",
	})

	m.projectionEvictions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "projection",
		Name:      "evictions_total",
		Help:      "Total entries evicted from a bounded projection, by projection.",
	}, []string{"projection"})

	m.fetchPaused = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "fetch",
		Name:      "paused_total",
		Help:      "Total Fetch.requestPaused events observed.",
	})

	m.fetchDispatch = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "fetch",
		Name:      "dispatch_total",
		Help:      "Total paused-request dispatch decisions, by kind.",
	}, []string{"kind"}) // "continue", "fulfill", "fail"

	registerer.MustRegister(
		m.transportSends,
		m.transportErrors,
		m.transportDuration,
		m.evaluateRaceOutcomes,
		m.pauseEvents,
		m.resumeEvents,
		m.projectionEvictions,
		m.fetchPaused,
		m.fetchDispatch,
	)

	return m
}

func (m *Metrics) RecordSend(method string) {
	m.transportSends.WithLabelValues(method).Inc()
}

func (m *Metrics) RecordSendError(kind string) {
	m.transportErrors.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObserveSendDuration(seconds float64) {
	m.transportDuration.Observe(seconds)
}

func (m *Metrics) RecordEvaluateRaceOutcome(winner string) {
	m.evaluateRaceOutcomes.WithLabelValues(winner).Inc()
}

func (m *Metrics) RecordPauseEvent() {
	m.pauseEvents.Inc()
}

func (m *Metrics) RecordResumeEvent() {
	m.resumeEvents.Inc()
}

func (m *Metrics) RecordProjectionEviction(projection string) {
	m.projectionEvictions.WithLabelValues(projection).Inc()
}

func (m *Metrics) RecordFetchPaused() {
	m.fetchPaused.Inc()
}

func (m *Metrics) RecordFetchDispatch(kind string) {
	m.fetchDispatch.WithLabelValues(kind).Inc()
}
