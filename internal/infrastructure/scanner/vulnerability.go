package scanner

import (
	"github.com/dbankscard/hookguard/internal/domain"
	"github.com/dbankscard/hookguard/internal/infrastructure/rules"
)

const defaultGuardRadius = 5

// RuleCheck applies one declarative vulnerability rule line by line.
//
// A line is reported when the rule expression matches, at least one of
// Requires (if any) occurs, none of Unless occurs and, for guarded rules,
// no guard expression matches within GuardRadius lines.
type RuleCheck struct {
	Matcher rules.Matcher
	gate    Gate
}

func (c RuleCheck) ID() string { return c.Matcher.Rule.ID }

func (c RuleCheck) Gate() Gate { return c.gate }

func (c RuleCheck) Run(file domain.SourceFile, lines []string) []domain.Finding {
	rule := c.Matcher.Rule
	var findings []domain.Finding
	for i, line := range lines {
		if rule.SkipComments && isComment(line) {
			continue
		}
		if !c.Matcher.Re.MatchString(line) {
			continue
		}
		if len(rule.Requires) > 0 && !containsAny(line, rule.Requires) {
			continue
		}
		if containsAny(line, rule.Unless) {
			continue
		}
		if c.guarded(lines, i) {
			continue
		}
		findings = append(findings, domain.Finding{
			Type:        domain.FindingVulnerability,
			Severity:    rule.Severity,
			File:        file.Path,
			Line:        i + 1,
			Title:       rule.Label(),
			Evidence:    evidence(line),
			Remediation: rule.Remediation,
			RuleID:      rule.ID,
			CWE:         rule.CWE,
		})
	}
	return findings
}

// guarded reports whether a protection marker appears near line idx.
func (c RuleCheck) guarded(lines []string, idx int) bool {
	if len(c.Matcher.Guards) == 0 {
		return false
	}
	radius := c.Matcher.Rule.GuardRadius
	if radius <= 0 {
		radius = defaultGuardRadius
	}
	lo, hi := max(0, idx-radius), min(len(lines)-1, idx+radius)
	for j := lo; j <= hi; j++ {
		for _, g := range c.Matcher.Guards {
			if g.MatchString(lines[j]) {
				return true
			}
		}
	}
	return false
}
