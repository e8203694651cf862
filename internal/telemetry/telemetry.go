// Package telemetry exposes Prometheus metrics for topic engine operations.
//
// Metrics are collected in a private registry and only leave the process
// when an operator scrapes the handler returned by Handler. A nil *Metrics
// is valid and records nothing.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apperr "github.com/kimhsiao/topicflow/backend/internal/errors"
)

const namespace = "topicflow"

// Metrics holds the engine's collectors and the registry they live in.
type Metrics struct {
	registry *prometheus.Registry

	Transitions       *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	ErrorsTotal       *prometheus.CounterVec
	TagUpserts        prometheus.Counter
}

// New creates Metrics registered in a fresh registry together with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		Transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "workflow",
				Name:      "transitions_total",
				Help:      "Workflow status transitions performed, by source and target status",
			},
			[]string{"from", "to"},
		),

		OperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "engine",
				Name:      "operation_duration_seconds",
				Help:      "Engine operation duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation", "outcome"},
		),

		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "engine",
				Name:      "errors_total",
				Help:      "Failed engine operations, by error code",
			},
			[]string{"operation", "code"},
		),

		TagUpserts: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "tags",
				Name:      "upserts_total",
				Help:      "Tag catalog upserts issued by the synchronizer",
			},
		),
	}

	m.registry.MustRegister(
		m.Transitions,
		m.OperationDuration,
		m.ErrorsTotal,
		m.TagUpserts,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordTransition counts one status change. from is empty for a version
// that did not exist before.
func (m *Metrics) RecordTransition(from, to string) {
	if m == nil {
		return
	}
	if from == "" {
		from = "none"
	}
	m.Transitions.WithLabelValues(from, to).Inc()
}

// RecordTagUpserts adds n catalog upserts.
func (m *Metrics) RecordTagUpserts(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.TagUpserts.Add(float64(n))
}

// ObserveOperation records the duration of an engine call that started at
// start, and counts it as an error under its AppError code when err is set.
func (m *Metrics) ObserveOperation(operation string, start time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
		m.ErrorsTotal.WithLabelValues(operation, string(apperr.CodeOf(err))).Inc()
	}
	m.OperationDuration.WithLabelValues(operation, outcome).Observe(time.Since(start).Seconds())
}
