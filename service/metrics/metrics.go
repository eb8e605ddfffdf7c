// Package metrics exposes lifecycle operation counters and latencies as
// prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/viant/guaranty/fault"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Recorder records lifecycle metrics. A nil Recorder records nothing.
type Recorder struct {
	operations  *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	transitions *prometheus.CounterVec
}

// Observe records one finished operation.
func (r *Recorder) Observe(operation string, started time.Time, err error) {
	if r == nil {
		return
	}
	r.duration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
	r.operations.WithLabelValues(operation, Status(err)).Inc()
}

// Transition records a committed status change.
func (r *Recorder) Transition(from, to string) {
	if r == nil {
		return
	}
	r.transitions.WithLabelValues(from, to).Inc()
}

// Status returns the status label for err: success, the fault code, or error.
func Status(err error) string {
	if err == nil {
		return StatusSuccess
	}
	if code := fault.CodeOf(err); code != "" {
		return string(code)
	}
	return StatusError
}

// New registers the lifecycle collectors with registerer; nil uses the
// default prometheus registerer.
func New(registerer prometheus.Registerer) *Recorder {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registerer)
	return &Recorder{
		operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "guaranty_lifecycle_operations_total",
				Help: "Total number of lifecycle operations",
			},
			[]string{"operation", "status"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "guaranty_lifecycle_operation_duration_seconds",
				Help:    "Duration of lifecycle operations",
				Buckets: []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2, 5},
			},
			[]string{"operation"},
		),
		transitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "guaranty_policy_transitions_total",
				Help: "Total number of committed policy status transitions",
			},
			[]string{"from", "to"},
		),
	}
}
