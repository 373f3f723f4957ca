// Package metrics exports approval statistics and scan results in the
// Prometheus text format, for pickup by a node-exporter textfile collector.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dbankscard/hookguard/internal/domain"
)

const namespace = "hookguard"

// Textfile collects gauges into a private registry.
type Textfile struct {
	registry *prometheus.Registry

	commands     *prometheus.GaugeVec
	byRisk       *prometheus.GaugeVec
	autoRate     prometheus.Gauge
	score        prometheus.Gauge
	filesScanned prometheus.Gauge
	findings     *prometheus.GaugeVec
	hardFailure  prometheus.Gauge
}

// NewTextfile builds the gauges on a fresh registry.
func NewTextfile() *Textfile {
	return &Textfile{
		registry: prometheus.NewRegistry(),
		commands: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "approval",
			Name:      "commands",
			Help:      "Classified commands by outcome.",
		}, []string{"outcome"}),
		byRisk: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "approval",
			Name:      "commands_by_risk",
			Help:      "Classified commands by risk level.",
		}, []string{"risk_level"}),
		autoRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "approval",
			Name:      "auto_approve_ratio",
			Help:      "Share of commands approved without a human.",
		}),
		score: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "security_score",
			Help:      "Score of the last scan, 0 to 100.",
		}),
		filesScanned: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "files_scanned",
			Help:      "Files inspected by the last scan.",
		}),
		findings: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "findings",
			Help:      "Findings of the last scan by severity.",
		}, []string{"severity"}),
		hardFailure: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "hard_failure",
			Help:      "1 when the last scan failed the policy.",
		}),
	}
}

// ObserveStatistics sets the approval gauges.
func (t *Textfile) ObserveStatistics(stats domain.Statistics) {
	t.register(t.commands, t.byRisk, t.autoRate)
	t.commands.WithLabelValues("total").Set(float64(stats.TotalCommands))
	t.commands.WithLabelValues("auto_approved").Set(float64(stats.AutoApproved))
	t.commands.WithLabelValues("user_approved").Set(float64(stats.UserApproved))
	t.commands.WithLabelValues("rejected").Set(float64(stats.Rejected))
	for level, count := range stats.ByRiskLevel {
		t.byRisk.WithLabelValues(string(level)).Set(float64(count))
	}
	t.autoRate.Set(stats.AutoApproveRate() / 100)
}

// ObserveReport sets the scan gauges.
func (t *Textfile) ObserveReport(report domain.ScanReport) {
	t.register(t.score, t.filesScanned, t.findings, t.hardFailure)
	t.score.Set(float64(report.Score))
	t.filesScanned.Set(float64(report.FilesScanned))
	for _, sev := range domain.Severities {
		t.findings.WithLabelValues(string(sev)).Set(float64(report.CountsBySeverity[sev]))
	}
	if report.HardFailure {
		t.hardFailure.Set(1)
	} else {
		t.hardFailure.Set(0)
	}
}

// Write atomically replaces path with the gathered metrics.
func (t *Textfile) Write(path string) error {
	if err := prometheus.WriteToTextfile(path, t.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

// register adds collectors on first use so unobserved groups stay absent.
func (t *Textfile) register(collectors ...prometheus.Collector) {
	for _, c := range collectors {
		// Repeat observations return AlreadyRegisteredError.
		_ = t.registry.Register(c)
	}
}
