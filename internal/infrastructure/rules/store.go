package rules

import (
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dbankscard/hookguard/internal/domain"
	"github.com/dbankscard/hookguard/internal/ports"
)

// Rule sources.
const (
	SourceDefault = "default"
	SourceConfig  = "config"
)

// Matcher is a content rule with its compiled expressions.
type Matcher struct {
	Rule   domain.Rule
	Re     *regexp.Regexp
	Guards []*regexp.Regexp
}

// Store is the loaded-once, immutable rule set. It implements ports.CommandResolver
// and hands compiled content rules to the scanners.
type Store struct {
	safeCommands        []domain.Rule
	safePatterns        []Matcher
	additionalSafe      []domain.Rule
	dangerousCommands   []domain.Rule
	dangerousByName     map[string]int
	dangerousPatterns   []Matcher
	additionalDangerous []domain.Rule
	writeKeywords       []domain.Rule
	productionGuard     bool
	custom              []Matcher

	secrets            []Matcher
	vulnerabilities    []Matcher
	dangerousFunctions []Matcher
	advisories         map[string][]domain.Advisory

	precedence []step
	logger     ports.Logger
}

// ruleFile is the schema of the embedded rule set.
type ruleFile struct {
	Safe struct {
		Commands []string       `yaml:"commands"`
		Patterns []patternEntry `yaml:"patterns"`
	} `yaml:"safe"`
	Dangerous struct {
		Commands      []string       `yaml:"commands"`
		Patterns      []patternEntry `yaml:"patterns"`
		WriteKeywords []string       `yaml:"write_keywords"`
	} `yaml:"dangerous"`
	Secrets            []domain.Rule                `yaml:"secrets"`
	DangerousFunctions []string                     `yaml:"dangerous_functions"`
	Vulnerabilities    []domain.Rule                `yaml:"vulnerabilities"`
	Advisories         map[string][]domain.Advisory `yaml:"advisories"`
}

type patternEntry struct {
	Pattern string `yaml:"pattern"`
	Name    string `yaml:"name"`
}

// New parses the built-in rule set and overlays the user configuration.
// Configuration entries are appended after the defaults and never replace them.
// An invalid built-in rule is an error; an invalid configured rule is logged and skipped.
func New(defaults []byte, cfg domain.Config, logger ports.Logger) (*Store, error) {
	var file ruleFile
	if err := yaml.Unmarshal(defaults, &file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal the embedded rule set: %w", err)
	}

	s := &Store{
		dangerousByName: map[string]int{},
		advisories:      map[string][]domain.Advisory{},
		productionGuard: cfg.Approval.RequireApprovalInProduction,
		logger:          logger,
	}
	if err := s.loadCommands(file); err != nil {
		return nil, err
	}
	if err := s.loadContent(file); err != nil {
		return nil, err
	}
	for eco, list := range file.Advisories {
		s.advisories[eco] = append([]domain.Advisory(nil), list...)
	}

	s.overlay(cfg)
	s.precedence = s.buildPrecedence()
	return s, nil
}

func (s *Store) loadCommands(file ruleFile) error {
	for _, cmd := range file.Safe.Commands {
		s.safeCommands = append(s.safeCommands, domain.Rule{
			Name:     "Command is in safe list",
			Category: domain.CategorySafe,
			Kind:     domain.MatchExact,
			Pattern:  cmd,
			Source:   SourceDefault,
		})
	}
	for _, p := range file.Safe.Patterns {
		m, err := compileMatcher(domain.Rule{
			Name:     p.Name,
			Category: domain.CategorySafe,
			Kind:     domain.MatchAnchored,
			Pattern:  p.Pattern,
			Source:   SourceDefault,
		})
		if err != nil {
			return err
		}
		s.safePatterns = append(s.safePatterns, m)
	}
	for _, cmd := range file.Dangerous.Commands {
		s.addDangerousCommand(domain.Rule{
			Name:     "Command requires approval",
			Category: domain.CategoryDangerous,
			Kind:     domain.MatchToken,
			Pattern:  cmd,
			Source:   SourceDefault,
		})
	}
	for _, p := range file.Dangerous.Patterns {
		m, err := compileMatcher(domain.Rule{
			Name:     p.Name,
			Category: domain.CategoryDangerous,
			Kind:     domain.MatchRegex,
			Pattern:  p.Pattern,
			Source:   SourceDefault,
		})
		if err != nil {
			return err
		}
		s.dangerousPatterns = append(s.dangerousPatterns, m)
	}
	for _, kw := range file.Dangerous.WriteKeywords {
		s.writeKeywords = append(s.writeKeywords, domain.Rule{
			Name:     "Write operation in production environment",
			Category: domain.CategoryDangerous,
			Kind:     domain.MatchKeyword,
			Pattern:  strings.ToLower(kw),
			Source:   SourceDefault,
		})
	}
	return nil
}

func (s *Store) loadContent(file ruleFile) error {
	for _, r := range file.Secrets {
		r.Category = domain.CategorySecret
		r.Kind = domain.MatchRegex
		r.Source = SourceDefault
		m, err := compileMatcher(r)
		if err != nil {
			return err
		}
		s.secrets = append(s.secrets, m)
	}
	for _, r := range file.Vulnerabilities {
		r.Category = domain.CategoryVulnerability
		r.Kind = domain.MatchRegex
		r.Source = SourceDefault
		m, err := compileMatcher(r)
		if err != nil {
			return err
		}
		s.vulnerabilities = append(s.vulnerabilities, m)
	}
	for _, fn := range file.DangerousFunctions {
		if err := s.addDangerousFunction(fn, SourceDefault); err != nil {
			return err
		}
	}
	return nil
}

// overlay appends the user configuration to the defaults.
func (s *Store) overlay(cfg domain.Config) {
	seenSafe := map[string]bool{}
	for _, cmd := range cfg.Approval.AdditionalSafeCommands {
		if cmd == "" || seenSafe[cmd] {
			continue
		}
		seenSafe[cmd] = true
		s.additionalSafe = append(s.additionalSafe, domain.Rule{
			Name:     "Command in custom safe list",
			Category: domain.CategorySafe,
			Kind:     domain.MatchPrefix,
			Pattern:  cmd,
			Source:   SourceConfig,
		})
	}

	seenDangerous := map[string]bool{}
	for _, cmd := range cfg.Approval.AdditionalDangerousCommands {
		if cmd == "" || seenDangerous[cmd] {
			continue
		}
		seenDangerous[cmd] = true
		s.additionalDangerous = append(s.additionalDangerous, domain.Rule{
			Name:     "Command in custom dangerous list",
			Category: domain.CategoryDangerous,
			Kind:     domain.MatchPrefix,
			Pattern:  cmd,
			Source:   SourceConfig,
		})
	}

	for i, cr := range cfg.Approval.CustomRules {
		rule := domain.Rule{
			ID:            fmt.Sprintf("custom-%d", i+1),
			Name:          "Matches custom rule",
			Category:      domain.CategoryCustom,
			Kind:          domain.MatchAnchored,
			Pattern:       cr.Pattern,
			Source:        SourceConfig,
			Reason:        cr.Reason,
			RiskLevel:     domain.ParseRiskLevel(cr.RiskLevel),
			NeedsApproval: true,
			AutoApprove:   cr.AutoApprove,
		}
		if cr.NeedsApproval != nil {
			rule.NeedsApproval = *cr.NeedsApproval
		}
		if rule.AutoApprove {
			rule.NeedsApproval = false
		}
		if rule.Reason == "" {
			rule.Reason = "Matches custom rule"
		}
		m, err := compileMatcher(rule)
		if err != nil {
			s.warnSkipped(rule, err)
			continue
		}
		s.custom = append(s.custom, m)
	}

	seenSecrets := map[string]bool{}
	for _, m := range s.secrets {
		seenSecrets[m.Rule.Key()] = true
	}
	for _, sp := range cfg.Security.SecretPatterns {
		severity, ok := domain.ParseSeverity(sp.Severity)
		if !ok {
			severity = domain.SeverityHigh
		}
		rule := domain.Rule{
			ID:          "config-" + slug(sp.Name),
			Name:        sp.Name,
			Category:    domain.CategorySecret,
			Kind:        domain.MatchRegex,
			Pattern:     sp.Pattern,
			Severity:    severity,
			Remediation: "Move to environment variable or secret management system",
			Source:      SourceConfig,
		}
		if seenSecrets[rule.Key()] {
			continue
		}
		m, err := compileMatcher(rule)
		if err != nil {
			s.warnSkipped(rule, err)
			continue
		}
		// The last capture group holds the value when the pattern has groups.
		m.Rule.ValueGroup = m.Re.NumSubexp()
		seenSecrets[rule.Key()] = true
		s.secrets = append(s.secrets, m)
	}

	for _, fn := range cfg.Security.DangerousFunctions {
		if err := s.addDangerousFunction(fn, SourceConfig); err != nil {
			s.warnSkipped(domain.Rule{Pattern: fn, Category: domain.CategoryVulnerability}, err)
		}
	}
}

func (s *Store) addDangerousCommand(rule domain.Rule) {
	if _, ok := s.dangerousByName[rule.Pattern]; ok {
		return
	}
	s.dangerousByName[rule.Pattern] = len(s.dangerousCommands)
	s.dangerousCommands = append(s.dangerousCommands, rule)
}

func (s *Store) addDangerousFunction(name, source string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	for _, m := range s.dangerousFunctions {
		if m.Rule.Name == "Use of dangerous function: "+name {
			return nil
		}
	}
	m, err := compileMatcher(domain.Rule{
		ID:           "py-dangerous-function-" + slug(name),
		Name:         "Use of dangerous function: " + name,
		Category:     domain.CategoryVulnerability,
		Kind:         domain.MatchRegex,
		Pattern:      `\b` + regexp.QuoteMeta(name) + `\s*\(`,
		Severity:     domain.SeverityHigh,
		CWE:          "CWE-95",
		Languages:    []string{"python"},
		Remediation:  "Replace " + name + " with safer alternative",
		Source:       source,
		SkipComments: true,
	})
	if err != nil {
		return err
	}
	s.dangerousFunctions = append(s.dangerousFunctions, m)
	return nil
}

func (s *Store) warnSkipped(rule domain.Rule, err error) {
	if s.logger == nil {
		return
	}
	s.logger.Warn("skipping invalid configured rule", map[string]interface{}{
		"category": rule.Category,
		"pattern":  rule.Pattern,
		"error":    err.Error(),
	})
}

func compileMatcher(rule domain.Rule) (Matcher, error) {
	expr := rule.Pattern
	if rule.Kind == domain.MatchAnchored {
		expr = "^(?:" + expr + ")"
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return Matcher{}, fmt.Errorf("compile %s rule %q: %w", rule.Category, rule.Pattern, err)
	}
	m := Matcher{Rule: rule, Re: re}
	for _, g := range rule.Guard {
		guard, err := regexp.Compile(g)
		if err != nil {
			return Matcher{}, fmt.Errorf("compile guard %q of rule %s: %w", g, rule.Label(), err)
		}
		m.Guards = append(m.Guards, guard)
	}
	return m, nil
}

// AllRules returns the rules of one category in evaluation order.
func (s *Store) AllRules(category domain.RuleCategory) []domain.Rule {
	var out []domain.Rule
	switch category {
	case domain.CategorySafe:
		out = append(out, s.safeCommands...)
		out = appendMatchers(out, s.safePatterns)
		out = append(out, s.additionalSafe...)
	case domain.CategoryDangerous:
		out = append(out, s.dangerousCommands...)
		out = appendMatchers(out, s.dangerousPatterns)
		out = append(out, s.additionalDangerous...)
		out = append(out, s.writeKeywords...)
	case domain.CategoryCustom:
		out = appendMatchers(out, s.custom)
	case domain.CategorySecret:
		out = appendMatchers(out, s.secrets)
	case domain.CategoryVulnerability:
		out = appendMatchers(out, s.dangerousFunctions)
		out = appendMatchers(out, s.vulnerabilities)
	}
	return out
}

func appendMatchers(out []domain.Rule, matchers []Matcher) []domain.Rule {
	for _, m := range matchers {
		out = append(out, m.Rule)
	}
	return out
}

// Secrets returns the compiled secret rules, defaults first.
func (s *Store) Secrets() []Matcher {
	return append([]Matcher(nil), s.secrets...)
}

// Vulnerabilities returns the compiled language vulnerability rules.
func (s *Store) Vulnerabilities() []Matcher {
	return append([]Matcher(nil), s.vulnerabilities...)
}

// DangerousFunctions returns the generated dangerous-function rules.
func (s *Store) DangerousFunctions() []Matcher {
	return append([]Matcher(nil), s.dangerousFunctions...)
}

// Advisories returns the known-vulnerable ranges for an ecosystem
// (python, npm, go, cargo, maven).
func (s *Store) Advisories(ecosystem string) []domain.Advisory {
	return append([]domain.Advisory(nil), s.advisories[ecosystem]...)
}

func slug(value string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(value) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

var _ ports.CommandResolver = (*Store)(nil)
