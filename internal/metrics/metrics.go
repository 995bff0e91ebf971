// Package metrics exposes per-run counters on a private Prometheus registry.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "riskgen"

// Metrics holds the collectors updated by one process
type Metrics struct {
	Registry *prometheus.Registry

	Operations          *prometheus.CounterVec
	TestCases           *prometheus.CounterVec
	FeatureRowsAppended prometheus.Counter
	RiskRecords         *prometheus.GaugeVec
	StageDuration       *prometheus.HistogramVec
}

// New creates and registers the collectors
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Contract operations processed, by outcome.",
		}, []string{"outcome"}),
		TestCases: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "test_cases_total",
			Help:      "Test cases emitted, by scenario type.",
		}, []string{"scenario"}),
		FeatureRowsAppended: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feature_rows_appended_total",
			Help:      "Feature rows appended to the cumulative history.",
		}),
		RiskRecords: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "risk_records",
			Help:      "Risk records in the last prioritization, before and after deduplication.",
		}, []string{"stage"}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Wall time of pipeline stages.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage"}),
	}

	m.Registry.MustRegister(m.Operations, m.TestCases, m.FeatureRowsAppended, m.RiskRecords, m.StageDuration)
	return m
}

// RecordAssembly counts one Generate call
func (m *Metrics) RecordAssembly(assembled, filtered, skipped int, byScenario map[string]int) {
	m.Operations.WithLabelValues("assembled").Add(float64(assembled))
	m.Operations.WithLabelValues("filtered").Add(float64(filtered))
	m.Operations.WithLabelValues("skipped").Add(float64(skipped))
	for scenario, n := range byScenario {
		m.TestCases.WithLabelValues(scenario).Add(float64(n))
	}
}

// RecordFeatures counts rows appended to the history
func (m *Metrics) RecordFeatures(n int) {
	m.FeatureRowsAppended.Add(float64(n))
}

// RecordRisk sets the record counts of the latest prioritization
func (m *Metrics) RecordRisk(scored, deduplicated int) {
	m.RiskRecords.WithLabelValues("scored").Set(float64(scored))
	m.RiskRecords.WithLabelValues("deduplicated").Set(float64(deduplicated))
}

// Time starts timing a stage; call the returned func when it ends
func (m *Metrics) Time(stage string) func() {
	start := time.Now()
	return func() {
		m.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	}
}

// WriteTextfile exports the registry for a node_exporter textfile collector
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
