package service

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	queries  *prometheus.CounterVec
	duration prometheus.Histogram
}

func newMetrics(r prometheus.Registerer) *metrics {
	m := &metrics{
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "esql",
			Subsystem: "service",
			Name:      "queries_total",
			Help:      "Number of queries received, by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "esql",
			Subsystem: "service",
			Name:      "query_duration_seconds",
			Help:      "Time from receiving a query to sending its last chunk.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
	}
	r.MustRegister(m.queries, m.duration)
	return m
}

func (m *metrics) observe(o outcomeLabel, start time.Time) {
	m.queries.WithLabelValues(string(o)).Inc()
	m.duration.Observe(time.Since(start).Seconds())
}
