// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package metrics instruments the streaming pipeline with Prometheus
// collectors. A nil *Metrics is valid and records nothing.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Turn outcomes.
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
	OutcomeCancelled = "cancelled"
)

// Metrics holds the pipeline collectors.
type Metrics struct {
	registry *prometheus.Registry

	framesTotal       prometheus.Counter
	decodeErrorsTotal prometheus.Counter
	actionsTotal      *prometheus.CounterVec
	rawBlocksTotal    prometheus.Counter
	turnsTotal        *prometheus.CounterVec
	turnDuration      *prometheus.HistogramVec
	firstFrameLatency prometheus.Histogram
	commitsTotal      *prometheus.CounterVec
}

// New creates collectors registered on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		framesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "tripplan_stream_frames_total",
			Help: "Data frames received from the planning stream",
		}),
		decodeErrorsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "tripplan_stream_decode_errors_total",
			Help: "Frames skipped because their payload could not be decoded",
		}),
		actionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tripplan_stream_actions_total",
			Help: "Interpreted stream actions grouped by kind",
		}, []string{"kind"}),
		rawBlocksTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "tripplan_raw_blocks_total",
			Help: "Structured blocks inserted into the transcript",
		}),
		turnsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tripplan_turns_total",
			Help: "Chat turns grouped by outcome",
		}, []string{"outcome"}),
		turnDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tripplan_turn_duration_seconds",
			Help:    "Duration of chat turns from submit to end of stream",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120, 300},
		}, []string{"outcome"}),
		firstFrameLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "tripplan_first_frame_seconds",
			Help:    "Time from submit to the first data frame",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}),
		commitsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tripplan_plan_commits_total",
			Help: "Plan commits grouped by outcome",
		}, []string{"outcome"}),
	}
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveFrame counts a received data frame.
func (m *Metrics) ObserveFrame() {
	if m == nil {
		return
	}
	m.framesTotal.Inc()
}

// ObserveDecodeError counts a skipped frame.
func (m *Metrics) ObserveDecodeError() {
	if m == nil {
		return
	}
	m.decodeErrorsTotal.Inc()
}

// ObserveAction counts an interpreted action.
func (m *Metrics) ObserveAction(kind string) {
	if m == nil {
		return
	}
	m.actionsTotal.WithLabelValues(kind).Inc()
}

// ObserveRawBlock counts a structured block.
func (m *Metrics) ObserveRawBlock() {
	if m == nil {
		return
	}
	m.rawBlocksTotal.Inc()
}

// ObserveFirstFrame records time to first frame.
func (m *Metrics) ObserveFirstFrame(latency time.Duration) {
	if m == nil {
		return
	}
	m.firstFrameLatency.Observe(latency.Seconds())
}

// ObserveTurn records the outcome and duration of a turn.
func (m *Metrics) ObserveTurn(outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	if outcome == "" {
		outcome = "unknown"
	}
	m.turnsTotal.WithLabelValues(outcome).Inc()
	m.turnDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// ObserveCommit records a plan commit attempt.
func (m *Metrics) ObserveCommit(success bool) {
	if m == nil {
		return
	}
	if success {
		m.commitsTotal.WithLabelValues("success").Inc()
	} else {
		m.commitsTotal.WithLabelValues("failed").Inc()
	}
}

// Handler serves the collectors in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
