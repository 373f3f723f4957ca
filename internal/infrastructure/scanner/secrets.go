package scanner

import (
	"strings"

	"github.com/dbankscard/hookguard/internal/domain"
	"github.com/dbankscard/hookguard/internal/infrastructure/rules"
)

var (
	pathMarkers  = []string{"test", "example"}
	placeholders = []string{"xxx", "your-", "example", "test", "dummy", "fake"}
	envLookups   = []string{"environ", "getenv", "process.env", "os.Getenv", "ENV["}
)

const defaultSecretRemediation = "Move to environment variable or secret management system"

// SecretScanner evaluates secret rules line by line.
type SecretScanner struct {
	rules []rules.Matcher
}

// NewSecretScanner binds the compiled secret rules.
func NewSecretScanner(matchers []rules.Matcher) *SecretScanner {
	return &SecretScanner{rules: matchers}
}

// Scan returns one finding per retained match, rule order first, then line order.
func (s *SecretScanner) Scan(file domain.SourceFile) []domain.Finding {
	if skipSecretsIn(file.Path) {
		return nil
	}
	lines := splitLines(file.Content)
	var findings []domain.Finding
	for _, m := range s.rules {
		for i, line := range lines {
			if isComment(line) || containsAny(line, envLookups) {
				continue
			}
			for _, match := range m.Re.FindAllStringSubmatch(line, -1) {
				if isPlaceholder(match[0]) {
					continue
				}
				findings = append(findings, secretFinding(file.Path, i+1, m.Rule, secretValue(match, m.Rule.ValueGroup)))
			}
		}
	}
	return findings
}

// Mask redacts every secret value a rule matches in text. Unlike Scan it
// applies no false-positive suppression.
func (s *SecretScanner) Mask(text string) string {
	if s == nil {
		return text
	}
	for _, m := range s.rules {
		text = maskMatches(text, m)
	}
	return text
}

func maskMatches(text string, m rules.Matcher) string {
	locs := m.Re.FindAllStringSubmatchIndex(text, -1)
	if len(locs) == 0 {
		return text
	}
	var b strings.Builder
	last := 0
	for _, loc := range locs {
		start, end := loc[0], loc[1]
		if g := m.Rule.ValueGroup; g > 0 && 2*g+1 < len(loc) && loc[2*g] >= 0 && loc[2*g+1] > loc[2*g] {
			start, end = loc[2*g], loc[2*g+1]
		}
		if start < last {
			continue
		}
		b.WriteString(text[last:start])
		b.WriteString(Redact(text[start:end]))
		last = end
	}
	b.WriteString(text[last:])
	return b.String()
}

func skipSecretsIn(p string) bool {
	lower := strings.ToLower(p)
	return containsAny(lower, pathMarkers) || hasAnySuffix(lower, docExtensions)
}

func isPlaceholder(match string) bool {
	return containsAny(strings.ToLower(match), placeholders)
}

func secretValue(match []string, group int) string {
	if group > 0 && group < len(match) && match[group] != "" {
		return match[group]
	}
	return match[0]
}

func secretFinding(file string, line int, rule domain.Rule, value string) domain.Finding {
	severity := rule.Severity
	if !severity.Valid() {
		severity = domain.SeverityHigh
	}
	remediation := rule.Remediation
	if remediation == "" {
		remediation = defaultSecretRemediation
	}
	return domain.Finding{
		Type:        domain.FindingSecret,
		Severity:    severity,
		File:        file,
		Line:        line,
		Title:       rule.Label(),
		Evidence:    Redact(value),
		Remediation: remediation,
		RuleID:      rule.ID,
	}
}
