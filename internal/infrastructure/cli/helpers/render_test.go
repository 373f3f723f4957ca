package helpers

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dbankscard/hookguard/internal/domain"
)

func critical(n int) []domain.Finding {
	out := make([]domain.Finding, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, domain.Finding{Severity: domain.SeverityCritical, File: "app.py", Line: i + 1, Title: "AWS Access Key", Remediation: "Rotate the key"})
	}
	return out
}

func TestScanSummaryCapsCriticalFindings(t *testing.T) {
	var buf bytes.Buffer
	findings := append(critical(4),
		domain.Finding{Severity: domain.SeverityHigh, File: "db.py", Line: 9, Title: "SQL injection"},
		domain.Finding{Severity: domain.SeverityLow, File: "x.sh", Title: "Unexpected executable"},
	)
	rep := domain.ScanReport{
		Summary:          "Security Score: 0/100 - Critical (immediate action needed)",
		Status:           domain.BandCritical,
		FilesScanned:     1200,
		FindingsCount:    len(findings),
		Findings:         findings,
		CriticalFindings: findings[:4],
		HardFailure:      true,
		FailureReasons:   []string{"4 critical finding(s) with block_on_critical enabled"},
	}
	NewPlainPrinter(&buf).ScanSummary(rep, domain.SeverityMedium)
	out := buf.String()

	assert.Contains(t, out, "Scanned 1,200 files, 6 findings")
	assert.Equal(t, 3, strings.Count(out, "Fix: Rotate the key"))
	assert.Contains(t, out, "... and 1 more")
	assert.Contains(t, out, "[high] db.py:9 SQL injection")
	assert.NotContains(t, out, "Unexpected executable")
	assert.Contains(t, out, "FAILED: 4 critical finding(s)")
	assert.NotContains(t, out, "\x1b[")
}

func TestTriggerSummary(t *testing.T) {
	now := time.Date(2026, 4, 2, 12, 0, 0, 0, time.UTC)
	lastRun := now.Add(-12 * time.Minute)
	var buf bytes.Buffer
	NewPlainPrinter(&buf).TriggerSummary(domain.TriggerAnalysis{
		Branch:         "main",
		ChangedFiles:   []string{"a.go", "b.go"},
		LinesChanged:   1500,
		TestStatus:     domain.TestStatus{Status: "failed", Passed: 3, Failed: 1, Total: 4},
		SecurityAlerts: 2,
		Recommendations: []domain.Recommendation{
			{Reviewer: "security_auditor", Reason: "2 security alerts", Triggered: true},
			{Reviewer: "code_reviewer", Reason: "Code changes detected", SkipReason: "recently triggered", LastRun: &lastRun},
		},
		Triggered: 1,
	}, now)
	out := buf.String()

	assert.Contains(t, out, "Branch: main")
	assert.Contains(t, out, "Changed files: 2 (1,500 lines)")
	assert.Contains(t, out, "Tests: 3 passed, 1 failed")
	assert.Contains(t, out, "Security alerts: 2")
	assert.Contains(t, out, "+ security_auditor: 2 security alerts")
	assert.Contains(t, out, "- code_reviewer: Code changes detected (recently triggered, last 12 minutes ago)")
	assert.Contains(t, out, "Triggered 1 automated actions")
}

func TestTriggerSummaryWithoutRecommendations(t *testing.T) {
	var buf bytes.Buffer
	NewPlainPrinter(&buf).TriggerSummary(domain.TriggerAnalysis{TestStatus: domain.TestStatus{Status: "unknown"}}, time.Now())
	assert.Contains(t, buf.String(), "Branch: unknown")
	assert.Contains(t, buf.String(), "No immediate actions required")
	assert.NotContains(t, buf.String(), "Tests:")
}

func TestStatistics(t *testing.T) {
	var buf bytes.Buffer
	NewPlainPrinter(&buf).Statistics(domain.Statistics{
		TotalCommands: 4,
		AutoApproved:  3,
		Rejected:      1,
		ByRiskLevel:   map[domain.RiskLevel]int{domain.RiskLow: 3, domain.RiskHigh: 1},
	})
	out := buf.String()
	assert.Contains(t, out, "Auto-approved:  3 (75.0%)")
	assert.Less(t, strings.Index(out, "high"), strings.Index(out, "low"))
	assert.Contains(t, out, "25.0%")
}

func TestRiskDistributionOrder(t *testing.T) {
	got := RiskDistribution(map[domain.RiskLevel]int{"weird": 1, domain.RiskLow: 2, domain.RiskCritical: 1, domain.RiskMedium: 5})
	var levels []domain.RiskLevel
	for _, b := range got {
		levels = append(levels, b.Level)
	}
	assert.Equal(t, []domain.RiskLevel{domain.RiskCritical, domain.RiskMedium, domain.RiskLow, "weird"}, levels)
}

func TestIsTerminalForBuffers(t *testing.T) {
	assert.False(t, IsTerminal(&bytes.Buffer{}))
}
