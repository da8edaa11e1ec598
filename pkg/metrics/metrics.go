// Package metrics records driver run metrics and pushes them to a
// Pushgateway at the end of a run. A run-to-completion CI job cannot be
// scraped, so push is the only export path.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// DriverMetrics bundles the per-run metric set.
type DriverMetrics struct {
	registry *prometheus.Registry

	phaseDuration   *prometheus.GaugeVec
	modulesPassed   prometheus.Gauge
	modulesFailed   prometheus.Gauge
	regressed       prometheus.Gauge
	harnessFailures prometheus.Counter
}

// New registers the driver metric set on a fresh registry.
func New() *DriverMetrics {
	registry := prometheus.NewRegistry()
	m := &DriverMetrics{
		registry: registry,
		phaseDuration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "compilebench_phase_duration_seconds",
			Help: "Wall time spent in each driver phase.",
		}, []string{"phase"}),
		modulesPassed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "compilebench_modules_passed",
			Help: "Modules classified as passed in this run.",
		}),
		modulesFailed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "compilebench_modules_failed",
			Help: "Modules classified as failed in this run.",
		}),
		regressed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "compilebench_regressed",
			Help: "1 when the run detected a regression past thresholds.",
		}),
		harnessFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "compilebench_harness_repetition_failures_total",
			Help: "Benchmark harness repetitions that failed and were skipped.",
		}),
	}
	registry.MustRegister(
		m.phaseDuration,
		m.modulesPassed,
		m.modulesFailed,
		m.regressed,
		m.harnessFailures,
	)
	return m
}

// ObservePhase records the duration of one driver phase.
func (m *DriverMetrics) ObservePhase(phase string, d time.Duration) {
	m.phaseDuration.WithLabelValues(phase).Set(d.Seconds())
}

// SetClassification records the module partition sizes.
func (m *DriverMetrics) SetClassification(passed int, failed int) {
	m.modulesPassed.Set(float64(passed))
	m.modulesFailed.Set(float64(failed))
}

// SetRegressed records the run verdict.
func (m *DriverMetrics) SetRegressed(regressed bool) {
	if regressed {
		m.regressed.Set(1)
		return
	}
	m.regressed.Set(0)
}

// AddHarnessFailures counts swallowed harness repetition failures.
func (m *DriverMetrics) AddHarnessFailures(n int) {
	m.harnessFailures.Add(float64(n))
}

// Push sends the run's metrics to the Pushgateway, grouped by job and branch.
func (m *DriverMetrics) Push(gatewayURL string, job string, branch string) error {
	if gatewayURL == "" {
		return nil
	}
	if job == "" {
		job = "compilebench"
	}
	err := push.New(gatewayURL, job).
		Grouping("branch", branch).
		Gatherer(m.registry).
		Push()
	if err != nil {
		return fmt.Errorf("push metrics to %s: %w", gatewayURL, err)
	}
	return nil
}
