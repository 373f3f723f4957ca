package triggers

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/dbankscard/hookguard/internal/domain"
)

// Reviewer identifiers.
const (
	Orchestrator         = "orchestrator"
	CodeReviewer         = "code_reviewer"
	TestEngineer         = "test_engineer"
	SecurityAuditor      = "security_auditor"
	ArchitectureReviewer = "architecture_reviewer"
	PerformanceOptimizer = "performance_optimizer"
)

const (
	multiFacetThreshold         = 3
	defaultPerformanceThreshold = 10
)

// Skip reasons.
const (
	SkipDisabled = "auto-trigger disabled"
	SkipCooldown = "recently triggered"
	SkipCI       = "not allowed in CI"
)

var defaultCIAllowList = []string{TestEngineer, SecurityAuditor}

var defaultCommands = map[string]string{
	Orchestrator:         "/project:plan",
	CodeReviewer:         "/dev:review",
	TestEngineer:         "/dev:test",
	SecurityAuditor:      "/security:audit",
	ArchitectureReviewer: "/project:plan review",
	PerformanceOptimizer: "/dev:refactor performance",
}

// Signals are the non-path inputs to the selector.
type Signals struct {
	Files          int
	Lines          int
	Tests          domain.TestStatus
	SecurityAlerts int
	Degraded       bool
}

// Recommend maps facets and signals to reviewer recommendations ordered by
// priority. Nothing is gated here.
func Recommend(f domain.Facets, sig Signals, cfg domain.AutomationConfig) []domain.Recommendation {
	var recs []domain.Recommendation
	add := func(reviewer, reason string, p domain.Priority) {
		recs = append(recs, domain.Recommendation{Reviewer: reviewer, Reason: reason, Priority: p})
	}
	t := cfg.Triggers

	if t.SecurityIssues.Enabled {
		switch {
		case sig.SecurityAlerts > 0:
			add(SecurityAuditor, fmt.Sprintf("%d security alerts", sig.SecurityAlerts), domain.PriorityHigh)
		case f.SecurityChange:
			add(SecurityAuditor, "Security-related changes detected", domain.PriorityHigh)
		}
	}

	if t.CodeChanges.Enabled {
		switch {
		case significant(sig, t.CodeChanges):
			add(CodeReviewer, "Significant code changes detected", domain.PriorityMedium)
		case f.Code:
			add(CodeReviewer, "Code changes detected", domain.PriorityLow)
		}
	}

	switch {
	case t.TestFailures.Enabled && sig.Tests.Failed > 0:
		add(TestEngineer, fmt.Sprintf("%d tests failing", sig.Tests.Failed), domain.PriorityHigh)
	case f.Code && !f.Tests:
		add(TestEngineer, "Code changes without test changes", domain.PriorityMedium)
	}

	var arch []string
	if f.API {
		arch = append(arch, "API changes require architecture review")
	}
	if f.Database {
		arch = append(arch, "Database changes require architecture review")
	}
	if len(arch) > 0 {
		add(ArchitectureReviewer, strings.Join(arch, "; "), domain.PriorityMedium)
	}

	if t.PerformanceDegradation.Enabled && sig.Degraded {
		add(PerformanceOptimizer, "Performance degradation detected", domain.PriorityMedium)
	}

	if n := f.Count(); n >= multiFacetThreshold {
		add(Orchestrator, fmt.Sprintf("Change spans %d facets", n), domain.PriorityTop)
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Priority.Rank() > recs[j].Priority.Rank()
	})
	return recs
}

func significant(sig Signals, cfg domain.CodeChangeTrigger) bool {
	if cfg.FileThreshold > 0 && sig.Files >= cfg.FileThreshold {
		return true
	}
	return cfg.LineThreshold > 0 && sig.Lines >= cfg.LineThreshold
}

// Gate decides whether each recommendation fires. A reviewer fires when
// auto-trigger is on, it has no triggered record inside the cooldown window,
// and in CI it is on the allow-list.
func Gate(recs []domain.Recommendation, history []domain.CooldownRecord, cfg domain.AutomationConfig, ci bool, now time.Time) []domain.Recommendation {
	cooldown := domain.DefaultCooldown
	if cfg.CooldownMinutes > 0 {
		cooldown = time.Duration(cfg.CooldownMinutes) * time.Minute
	}
	allow := cfg.CIAllowList
	if len(allow) == 0 {
		allow = defaultCIAllowList
	}

	out := make([]domain.Recommendation, 0, len(recs))
	for _, rec := range recs {
		rec.LastRun = lastTriggered(history, rec.Reviewer)
		switch {
		case !cfg.AutoTrigger(rec.Reviewer):
			rec.SkipReason = SkipDisabled
		case rec.LastRun != nil && now.Sub(*rec.LastRun) < cooldown:
			rec.SkipReason = SkipCooldown
		case ci && !slices.Contains(allow, rec.Reviewer):
			rec.SkipReason = SkipCI
		default:
			rec.Triggered = true
			rec.Command = commandFor(cfg, rec.Reviewer)
		}
		out = append(out, rec)
	}
	return out
}

// lastTriggered returns the newest triggered record time for reviewer, nil
// when it never fired. Records that were only considered never start a cooldown.
func lastTriggered(history []domain.CooldownRecord, reviewer string) *time.Time {
	var last *time.Time
	for i := range history {
		r := history[i]
		if r.Reviewer == reviewer && r.Triggered && (last == nil || r.Timestamp.After(*last)) {
			ts := r.Timestamp
			last = &ts
		}
	}
	return last
}

func commandFor(cfg domain.AutomationConfig, reviewer string) string {
	if agent, ok := cfg.Agents[reviewer]; ok && agent.Command != "" {
		return agent.Command
	}
	return defaultCommands[reviewer]
}

// QueuedLine renders the pending-command line for a triggered reviewer.
func QueuedLine(rec domain.Recommendation) string {
	return fmt.Sprintf("%s # Auto-triggered: %s", rec.Command, rec.Reason)
}
