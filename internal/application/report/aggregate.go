// Package report turns a batch of findings into a scored ScanReport and
// decides whether the batch fails the policy.
package report

import (
	"fmt"
	"strings"

	"github.com/dbankscard/hookguard/internal/domain"
)

// weights are the score deductions per finding.
var weights = map[domain.Severity]int{
	domain.SeverityCritical: 25,
	domain.SeverityHigh:     15,
	domain.SeverityMedium:   5,
	domain.SeverityLow:      2,
}

// Options are the policy knobs that shape a report.
type Options struct {
	BlockOnCritical bool
	FailScore       int
	HighShown       int
	Threshold       domain.Severity
}

// OptionsFrom reads the options out of the security configuration.
func OptionsFrom(cfg domain.SecurityConfig) Options {
	opts := Options{
		BlockOnCritical: cfg.BlockOnCritical,
		FailScore:       cfg.FailScore,
		HighShown:       cfg.HighFindingsShown,
		Threshold:       cfg.Threshold(),
	}
	if opts.FailScore <= 0 {
		opts.FailScore = domain.DefaultFailScore
	}
	if opts.HighShown <= 0 {
		opts.HighShown = domain.DefaultHighFindingsShown
	}
	return opts
}

// Count groups findings by severity. Every severity is present in the result.
func Count(findings []domain.Finding) map[domain.Severity]int {
	counts := make(map[domain.Severity]int, len(domain.Severities))
	for _, sev := range domain.Severities {
		counts[sev] = 0
	}
	for _, f := range findings {
		sev := f.Severity
		if !sev.Valid() {
			sev = domain.SeverityMedium
		}
		counts[sev]++
	}
	return counts
}

// Score is 100 minus the weighted finding counts, clamped to [0, 100].
func Score(counts map[domain.Severity]int) int {
	score := 100
	for sev, weight := range weights {
		if n := counts[sev]; n > 0 {
			score -= n * weight
		}
	}
	if score < 0 {
		return 0
	}
	return score
}

// Band grades a score.
func Band(score int) domain.StatusBand {
	switch {
	case score >= 90:
		return domain.BandExcellent
	case score >= 70:
		return domain.BandGood
	case score >= 50:
		return domain.BandPoor
	default:
		return domain.BandCritical
	}
}

func bandLabel(band domain.StatusBand) string {
	switch band {
	case domain.BandExcellent:
		return "Excellent"
	case domain.BandGood:
		return "Good (needs attention)"
	case domain.BandPoor:
		return "Poor (action required)"
	default:
		return "Critical (immediate action needed)"
	}
}

// Summary is the one-line human readable verdict.
func Summary(score int, counts map[domain.Severity]int) string {
	parts := []string{fmt.Sprintf("Security Score: %d/100 - %s", score, bandLabel(Band(score)))}
	for _, sev := range domain.Severities {
		parts = append(parts, fmt.Sprintf("%s: %d", titleCase(string(sev)), counts[sev]))
	}
	return strings.Join(parts, " | ")
}

// HardFailure applies the blocking policy. A critical finding with blocking
// enabled fails regardless of the score; a score below the fail score fails
// on its own.
func HardFailure(score int, counts map[domain.Severity]int, opts Options) (bool, []string) {
	var reasons []string
	if opts.BlockOnCritical && counts[domain.SeverityCritical] > 0 {
		reasons = append(reasons, fmt.Sprintf("%d critical finding(s) with block_on_critical enabled", counts[domain.SeverityCritical]))
	}
	failScore := opts.FailScore
	if failScore <= 0 {
		failScore = domain.DefaultFailScore
	}
	if score < failScore {
		reasons = append(reasons, fmt.Sprintf("security score %d is below %d", score, failScore))
	}
	return len(reasons) > 0, reasons
}

// Build aggregates findings from one batch. Findings keep their input order.
func Build(runID string, filesScanned int, findings []domain.Finding, opts Options) domain.ScanReport {
	if findings == nil {
		findings = []domain.Finding{}
	}
	counts := Count(findings)
	score := Score(counts)
	report := domain.ScanReport{
		RunID:            runID,
		FilesScanned:     filesScanned,
		FindingsCount:    len(findings),
		Findings:         findings,
		CountsBySeverity: counts,
		Score:            score,
		Status:           Band(score),
		CriticalFindings: []domain.Finding{},
		HighFindings:     []domain.Finding{},
		Summary:          Summary(score, counts),
	}
	highShown := opts.HighShown
	if highShown <= 0 {
		highShown = domain.DefaultHighFindingsShown
	}
	for _, f := range findings {
		switch f.Severity {
		case domain.SeverityCritical:
			report.CriticalFindings = append(report.CriticalFindings, f)
		case domain.SeverityHigh:
			if len(report.HighFindings) < highShown {
				report.HighFindings = append(report.HighFindings, f)
			}
		}
	}
	report.HardFailure, report.FailureReasons = HardFailure(score, counts, opts)
	return report
}

// Visible returns the findings at or above the display threshold.
func Visible(findings []domain.Finding, threshold domain.Severity) []domain.Finding {
	var out []domain.Finding
	for _, f := range findings {
		if f.Severity.AtLeast(threshold) {
			out = append(out, f)
		}
	}
	return out
}

// Violation converts a failing report into the error the CLI exits with.
func Violation(report domain.ScanReport) *domain.PolicyViolation {
	if !report.HardFailure {
		return nil
	}
	return domain.NewPolicyViolation("%s", strings.Join(report.FailureReasons, "; "))
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
