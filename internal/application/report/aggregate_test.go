package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbankscard/hookguard/internal/domain"
)

func findings(sevs ...domain.Severity) []domain.Finding {
	out := make([]domain.Finding, 0, len(sevs))
	for i, s := range sevs {
		out = append(out, domain.Finding{Type: domain.FindingVulnerability, Severity: s, File: "app.py", Line: i + 1, RuleID: "r"})
	}
	return out
}

func TestScoreWeights(t *testing.T) {
	tests := []struct {
		name   string
		counts map[domain.Severity]int
		want   int
	}{
		{"clean", map[domain.Severity]int{}, 100},
		{"one of each", map[domain.Severity]int{domain.SeverityCritical: 1, domain.SeverityHigh: 1, domain.SeverityMedium: 1, domain.SeverityLow: 1}, 53},
		{"clamped", map[domain.Severity]int{domain.SeverityCritical: 5}, 0},
		{"lows", map[domain.Severity]int{domain.SeverityLow: 3}, 94},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Score(tt.counts))
		})
	}
}

func TestScoreIsMonotonic(t *testing.T) {
	base := map[domain.Severity]int{domain.SeverityHigh: 1, domain.SeverityLow: 2}
	prev := Score(base)
	for _, sev := range domain.Severities {
		for i := 0; i < 10; i++ {
			base[sev]++
			next := Score(base)
			assert.LessOrEqual(t, next, prev)
			assert.GreaterOrEqual(t, next, 0)
			prev = next
		}
	}
}

func TestBand(t *testing.T) {
	assert.Equal(t, domain.BandExcellent, Band(90))
	assert.Equal(t, domain.BandGood, Band(89))
	assert.Equal(t, domain.BandGood, Band(70))
	assert.Equal(t, domain.BandPoor, Band(50))
	assert.Equal(t, domain.BandCritical, Band(49))
}

func TestBuildGroupsAndCapsHighFindings(t *testing.T) {
	input := findings(domain.SeverityHigh, domain.SeverityCritical, domain.SeverityHigh, domain.SeverityHigh, domain.SeverityLow)
	report := Build("run-1", 3, input, Options{HighShown: 2, FailScore: 50})

	assert.Equal(t, "run-1", report.RunID)
	assert.Equal(t, 3, report.FilesScanned)
	assert.Equal(t, 5, report.FindingsCount)
	assert.Equal(t, input, report.Findings)
	assert.Equal(t, 3, report.CountsBySeverity[domain.SeverityHigh])
	assert.Equal(t, 0, report.CountsBySeverity[domain.SeverityMedium])
	assert.Len(t, report.CriticalFindings, 1)
	require.Len(t, report.HighFindings, 2)
	assert.Equal(t, 1, report.HighFindings[0].Line)
	assert.Equal(t, 3, report.HighFindings[1].Line)
	assert.Equal(t, 28, report.Score)
	assert.Equal(t, domain.BandCritical, report.Status)
	assert.True(t, report.HardFailure)
	assert.Equal(t, "Security Score: 28/100 - Critical (immediate action needed) | Critical: 1 | High: 3 | Medium: 0 | Low: 1", report.Summary)
}

func TestCleanBatchPasses(t *testing.T) {
	report := Build("run-2", 4, nil, Options{BlockOnCritical: true})
	assert.Equal(t, 100, report.Score)
	assert.Equal(t, domain.BandExcellent, report.Status)
	assert.False(t, report.HardFailure)
	assert.NotNil(t, report.Findings)
	assert.Nil(t, Violation(report))
}

func TestCriticalBlocksRegardlessOfScore(t *testing.T) {
	counts := map[domain.Severity]int{domain.SeverityCritical: 3}
	failed, reasons := HardFailure(60, counts, Options{BlockOnCritical: true, FailScore: 50})
	assert.True(t, failed)
	require.Len(t, reasons, 1)
	assert.Contains(t, reasons[0], "3 critical")

	failed, _ = HardFailure(60, counts, Options{BlockOnCritical: false, FailScore: 50})
	assert.False(t, failed)
}

func TestLowScoreFailsWithoutCriticals(t *testing.T) {
	report := Build("run-3", 1, findings(domain.SeverityHigh, domain.SeverityHigh, domain.SeverityHigh, domain.SeverityHigh), Options{BlockOnCritical: true})
	assert.Equal(t, 40, report.Score)
	assert.True(t, report.HardFailure)
	v := Violation(report)
	require.NotNil(t, v)
	assert.Contains(t, v.Error(), "below 50")
}

func TestVisibleAppliesThreshold(t *testing.T) {
	input := findings(domain.SeverityLow, domain.SeverityMedium, domain.SeverityCritical)
	assert.Len(t, Visible(input, domain.SeverityMedium), 2)
	assert.Len(t, Visible(input, domain.SeverityLow), 3)
	assert.Len(t, Visible(input, domain.SeverityCritical), 1)
}

func TestOptionsFromDefaults(t *testing.T) {
	opts := OptionsFrom(domain.SecurityConfig{BlockOnCritical: true, SeverityThreshold: "high"})
	assert.Equal(t, domain.DefaultFailScore, opts.FailScore)
	assert.Equal(t, domain.DefaultHighFindingsShown, opts.HighShown)
	assert.Equal(t, domain.SeverityHigh, opts.Threshold)
}
