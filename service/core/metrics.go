package core

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const (
	outcomeSuccess = "success"
	outcomeAborted = "aborted"
	outcomeError   = "error"
)

// Metrics are the capm_* series exposed on /metrics. A nil *Metrics records nothing.
type Metrics struct {
	runs          *prometheus.CounterVec
	runDuration   prometheus.Histogram
	omitted       prometheus.Counter
	fetchFailures *prometheus.CounterVec
}

// NewMetrics registers the run metrics plus the go and process collectors on reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "capm_runs_total",
				Help: "Number of capm runs by outcome",
			},
			[]string{"outcome"},
		),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "capm_run_duration_seconds",
			Help:    "Wall time of a capm run including price fetches",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		omitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "capm_instruments_omitted_total",
			Help: "Instruments dropped from results because no beta could be fit",
		}),
		fetchFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "capm_price_fetch_failures_total",
				Help: "Failed price fetches by source",
			},
			[]string{"source"},
		),
	}

	reg.MustRegister(
		m.runs,
		m.runDuration,
		m.omitted,
		m.fetchFailures,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

func (m *Metrics) runFinished(outcome string, start time.Time) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(outcome).Inc()
	m.runDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) instrumentsOmitted(n int) {
	if m == nil {
		return
	}
	m.omitted.Add(float64(n))
}

func (m *Metrics) fetchFailed(source string) {
	if m == nil {
		return
	}
	m.fetchFailures.WithLabelValues(source).Inc()
}
