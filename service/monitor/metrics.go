// Package monitor holds the Prometheus metrics shared by the governance engines.
package monitor

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "toolgate"

// Metrics holds every governance metric on a dedicated registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	ExecutionsTotal      *prometheus.CounterVec
	ExecutionDuration    *prometheus.HistogramVec
	ApprovalDecisions    *prometheus.CounterVec
	ApprovalDuration     prometheus.Histogram
	ComplianceViolations prometheus.Counter
	PendingApprovals     prometheus.Gauge
	Escalations          prometheus.Counter
	BatchCommands        *prometheus.CounterVec
	DiffTransitions      *prometheus.CounterVec
}

// NewMetrics creates and registers all metrics.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		ExecutionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "executions_total",
				Help:      "Tracked tool executions by security level and status.",
			},
			[]string{"level", "status"},
		),
		ExecutionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "execution_duration_seconds",
				Help:      "Duration of tracked tool executions.",
				Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
			},
			[]string{"tool"},
		),
		ApprovalDecisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "approval",
				Name:      "decisions_total",
				Help:      "Approval outcomes by decision path and result.",
			},
			[]string{"path", "result"},
		),
		ApprovalDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "approval",
				Name:      "duration_seconds",
				Help:      "Time from submission to terminal response.",
				Buckets:   prometheus.ExponentialBuckets(0.001, 10, 7),
			},
		),
		ComplianceViolations: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "compliance",
				Name:      "violations_total",
				Help:      "Requests blocked by compliance violations.",
			},
		),
		PendingApprovals: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "approval",
				Name:      "pending",
				Help:      "Requests awaiting a human decision.",
			},
		),
		Escalations: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "workflow",
				Name:      "escalations_total",
				Help:      "Workflow escalations fired.",
			},
		),
		BatchCommands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "batch",
				Name:      "commands_total",
				Help:      "Batch commands executed by status.",
			},
			[]string{"status"},
		),
		DiffTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "diff",
				Name:      "transitions_total",
				Help:      "Diff stage transitions by target status.",
			},
			[]string{"status"},
		),
	}
	reg.MustRegister(
		m.ExecutionsTotal,
		m.ExecutionDuration,
		m.ApprovalDecisions,
		m.ApprovalDuration,
		m.ComplianceViolations,
		m.PendingApprovals,
		m.Escalations,
		m.BatchCommands,
		m.DiffTransitions,
	)
	return m
}

func status(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

// ObserveExecution records one tracked execution.
func (m *Metrics) ObserveExecution(tool, level string, success bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.ExecutionsTotal.WithLabelValues(level, status(success)).Inc()
	m.ExecutionDuration.WithLabelValues(tool).Observe(elapsed.Seconds())
}

// ObserveDecision records a terminal approval response.
func (m *Metrics) ObserveDecision(path string, approved bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	result := "rejected"
	if approved {
		result = "approved"
	}
	m.ApprovalDecisions.WithLabelValues(path, result).Inc()
	m.ApprovalDuration.Observe(elapsed.Seconds())
}

// ObserveViolation counts a compliance violation.
func (m *Metrics) ObserveViolation() {
	if m == nil {
		return
	}
	m.ComplianceViolations.Inc()
}

// PendingDelta adjusts the pending approvals gauge.
func (m *Metrics) PendingDelta(delta float64) {
	if m == nil {
		return
	}
	m.PendingApprovals.Add(delta)
}

// ObserveEscalation counts a fired escalation.
func (m *Metrics) ObserveEscalation() {
	if m == nil {
		return
	}
	m.Escalations.Inc()
}

// ObserveBatchCommand counts a batch command outcome.
func (m *Metrics) ObserveBatchCommand(success bool) {
	if m == nil {
		return
	}
	m.BatchCommands.WithLabelValues(status(success)).Inc()
}

// ObserveDiff counts a diff status transition.
func (m *Metrics) ObserveDiff(status string) {
	if m == nil {
		return
	}
	m.DiffTransitions.WithLabelValues(status).Inc()
}
