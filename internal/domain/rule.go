package domain

// RuleCategory partitions the rule store.
type RuleCategory string

const (
	CategorySafe          RuleCategory = "safe"
	CategoryDangerous     RuleCategory = "dangerous"
	CategorySecret        RuleCategory = "secret"
	CategoryVulnerability RuleCategory = "vulnerability"
	CategoryCustom        RuleCategory = "custom"
)

// RuleCategories lists categories in evaluation order.
var RuleCategories = []RuleCategory{CategorySafe, CategoryDangerous, CategoryCustom, CategorySecret, CategoryVulnerability}

// MatchKind says how a rule's pattern is applied.
type MatchKind string

const (
	// MatchExact matches the whole command or a whitespace-delimited prefix of it.
	MatchExact MatchKind = "exact"
	// MatchPrefix is a raw string prefix, used for caller-extended lists.
	MatchPrefix MatchKind = "prefix"
	// MatchRegex is an unanchored regular expression search.
	MatchRegex MatchKind = "regex"
	// MatchAnchored is a regular expression that must match at the start of the input.
	MatchAnchored MatchKind = "anchored"
	// MatchToken compares against the command name of each simple command.
	MatchToken MatchKind = "token"
	// MatchKeyword is a case-insensitive substring.
	MatchKeyword MatchKind = "keyword"
	// MatchLiteral is a case-sensitive substring.
	MatchLiteral MatchKind = "literal"
)

// Rule is one declarative entry of the rule store. Rules are immutable once
// loaded and are identified by Key, not by their position.
type Rule struct {
	ID          string       `json:"id" yaml:"id"`
	Name        string       `json:"name,omitempty" yaml:"name,omitempty"`
	Category    RuleCategory `json:"category" yaml:"category"`
	Kind        MatchKind    `json:"kind" yaml:"kind"`
	Pattern     string       `json:"pattern" yaml:"pattern"`
	Severity    Severity     `json:"severity,omitempty" yaml:"severity,omitempty"`
	Remediation string       `json:"remediation,omitempty" yaml:"remediation,omitempty"`
	Source      string       `json:"source,omitempty" yaml:"source,omitempty"`

	// Vulnerability rules.
	CWE          string   `json:"cwe,omitempty" yaml:"cwe,omitempty"`
	Languages    []string `json:"languages,omitempty" yaml:"languages,omitempty"`
	Requires     []string `json:"requires,omitempty" yaml:"requires,omitempty"`
	Unless       []string `json:"unless,omitempty" yaml:"unless,omitempty"`
	Guard        []string `json:"guard,omitempty" yaml:"guard,omitempty"`
	GuardRadius  int      `json:"guard_radius,omitempty" yaml:"guard_radius,omitempty"`
	SkipComments bool     `json:"skip_comments,omitempty" yaml:"skip_comments,omitempty"`

	// Secret rules: index of the capture group holding the secret value (0 = whole match).
	ValueGroup int `json:"value_group,omitempty" yaml:"value_group,omitempty"`

	// Custom command rules.
	Reason        string    `json:"reason,omitempty" yaml:"reason,omitempty"`
	RiskLevel     RiskLevel `json:"risk_level,omitempty" yaml:"risk_level,omitempty"`
	NeedsApproval bool      `json:"needs_approval,omitempty" yaml:"needs_approval,omitempty"`
	AutoApprove   bool      `json:"auto_approve,omitempty" yaml:"auto_approve,omitempty"`
}

// Key identifies a rule by category and pattern.
func (r Rule) Key() string {
	return string(r.Category) + ":" + r.Pattern
}

// Label is a human readable rule name.
func (r Rule) Label() string {
	if r.Name != "" {
		return r.Name
	}
	if r.ID != "" {
		return r.ID
	}
	return r.Pattern
}

// AppliesTo reports whether a vulnerability rule covers language.
func (r Rule) AppliesTo(language string) bool {
	for _, l := range r.Languages {
		if l == "*" || l == language {
			return true
		}
	}
	return false
}

// Advisory is a known-vulnerable version range: every version below Fixed is affected.
type Advisory struct {
	Package  string   `json:"package" yaml:"package"`
	Fixed    string   `json:"fixed" yaml:"fixed"`
	Severity Severity `json:"severity" yaml:"severity"`
	Advisory string   `json:"advisory" yaml:"advisory"`
}
