package provisioning

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records bootstrap run metrics in a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	phaseDuration *prometheus.HistogramVec
	phaseTotal    *prometheus.CounterVec
	nodeFailures  *prometheus.CounterVec
	nodes         *prometheus.GaugeVec
}

// NewMetrics creates metrics for cluster and registers them in a fresh registry.
func NewMetrics(cluster string) *Metrics {
	labels := prometheus.Labels{"cluster": cluster}
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		phaseDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace:   "hkube",
				Subsystem:   "bootstrap",
				Name:        "phase_duration_seconds",
				Help:        "Duration of bootstrap phases in seconds",
				Buckets:     prometheus.ExponentialBuckets(1, 2, 12), // 1s to ~34min
				ConstLabels: labels,
			},
			[]string{"phase"},
		),
		phaseTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   "hkube",
				Subsystem:   "bootstrap",
				Name:        "phase_total",
				Help:        "Total number of bootstrap phase runs by result",
				ConstLabels: labels,
			},
			[]string{"phase", "result"},
		),
		nodeFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   "hkube",
				Subsystem:   "bootstrap",
				Name:        "node_failures_total",
				Help:        "Total number of node-scoped failures by stage and kind",
				ConstLabels: labels,
			},
			[]string{"stage", "kind"},
		),
		nodes: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace:   "hkube",
				Subsystem:   "cluster",
				Name:        "nodes",
				Help:        "Number of provisioned nodes by role",
				ConstLabels: labels,
			},
			[]string{"role"},
		),
	}
	m.Registry.MustRegister(m.phaseDuration, m.phaseTotal, m.nodeFailures, m.nodes)
	return m
}

// ObservePhase records a finished phase.
func (m *Metrics) ObservePhase(phase string, d time.Duration, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.phaseDuration.WithLabelValues(phase).Observe(d.Seconds())
	m.phaseTotal.WithLabelValues(phase, result).Inc()
}

// NodeFailed counts a node-scoped failure.
func (m *Metrics) NodeFailed(err *NodeError) {
	if m == nil {
		return
	}
	m.nodeFailures.WithLabelValues(err.Stage, KindName(err)).Inc()
}

// SetNodes records the node count per role.
func (m *Metrics) SetNodes(roles RoleGroup) {
	if m == nil {
		return
	}
	for role, names := range roles.Map() {
		m.nodes.WithLabelValues(role).Set(float64(len(names)))
	}
}

// WriteTextfile writes the registry in the node-exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.Registry)
}
