package domain

// Config bundles the three optional policy files after defaults are applied.
type Config struct {
	Approval   ApprovalConfig   `json:"approval" yaml:"approval"`
	Security   SecurityConfig   `json:"security" yaml:"security"`
	Automation AutomationConfig `json:"automation" yaml:"automation"`
}

// ApprovalConfig mirrors approval.json.
type ApprovalConfig struct {
	AutoApprovePercentage       int          `json:"auto_approve_percentage" yaml:"auto_approve_percentage" validate:"min=0,max=100"`
	RequireApprovalInProduction bool         `json:"require_approval_in_production" yaml:"require_approval_in_production"`
	AdditionalSafeCommands      []string     `json:"additional_safe_commands" yaml:"additional_safe_commands" validate:"dive,required"`
	AdditionalDangerousCommands []string     `json:"additional_dangerous_commands" yaml:"additional_dangerous_commands" validate:"dive,required"`
	CustomRules                 []CustomRule `json:"custom_rules" yaml:"custom_rules" validate:"dive"`
	AuditBackend                string       `json:"audit_backend,omitempty" yaml:"audit_backend,omitempty" validate:"omitempty,oneof=jsonl sqlite"`
}

// CustomRule is a user supplied command rule. NeedsApproval defaults to true.
type CustomRule struct {
	Pattern       string `json:"pattern" yaml:"pattern" validate:"required"`
	NeedsApproval *bool  `json:"needs_approval,omitempty" yaml:"needs_approval,omitempty"`
	Reason        string `json:"reason,omitempty" yaml:"reason,omitempty"`
	RiskLevel     string `json:"risk_level,omitempty" yaml:"risk_level,omitempty" validate:"omitempty,oneof=low medium high critical"`
	AutoApprove   bool   `json:"auto_approve,omitempty" yaml:"auto_approve,omitempty"`
}

// SecurityConfig mirrors security.json.
type SecurityConfig struct {
	EnabledChecks      EnabledChecks   `json:"enabled_checks" yaml:"enabled_checks"`
	SeverityThreshold  string          `json:"severity_threshold" yaml:"severity_threshold" validate:"omitempty,oneof=low medium high critical"`
	BlockOnCritical    bool            `json:"block_on_critical" yaml:"block_on_critical"`
	SecretPatterns     []SecretPattern `json:"secret_patterns" yaml:"secret_patterns" validate:"dive"`
	DangerousFunctions []string        `json:"dangerous_functions" yaml:"dangerous_functions" validate:"dive,required"`
	FailScore          int             `json:"fail_score,omitempty" yaml:"fail_score,omitempty" validate:"min=0,max=100"`
	HighFindingsShown  int             `json:"high_findings_shown,omitempty" yaml:"high_findings_shown,omitempty" validate:"min=0"`
}

// Threshold returns the configured display threshold, defaulting to low.
func (c SecurityConfig) Threshold() Severity {
	if s, ok := ParseSeverity(c.SeverityThreshold); ok {
		return s
	}
	return SeverityLow
}

// EnabledChecks toggles individual scan passes.
type EnabledChecks struct {
	Secrets         bool `json:"secrets" yaml:"secrets"`
	Vulnerabilities bool `json:"vulnerabilities" yaml:"vulnerabilities"`
	Permissions     bool `json:"permissions" yaml:"permissions"`
	Dependencies    bool `json:"dependencies" yaml:"dependencies"`
	CodePatterns    bool `json:"code_patterns" yaml:"code_patterns"`
}

// SecretPattern is a user supplied secret detector.
type SecretPattern struct {
	Name     string `json:"name" yaml:"name" validate:"required"`
	Pattern  string `json:"pattern" yaml:"pattern" validate:"required"`
	Severity string `json:"severity" yaml:"severity" validate:"omitempty,oneof=low medium high critical"`
}

// AutomationConfig mirrors automation.json.
type AutomationConfig struct {
	Triggers        TriggerSettings          `json:"triggers" yaml:"triggers"`
	Agents          map[string]AgentSettings `json:"agents" yaml:"agents" validate:"dive"`
	CIAllowList     []string                 `json:"ci_allow_list,omitempty" yaml:"ci_allow_list,omitempty"`
	CooldownMinutes int                      `json:"cooldown_minutes,omitempty" yaml:"cooldown_minutes,omitempty" validate:"min=0"`
}

// AutoTrigger reports whether reviewer may be triggered automatically.
// Reviewers absent from the configuration default to enabled.
func (c AutomationConfig) AutoTrigger(reviewer string) bool {
	agent, ok := c.Agents[reviewer]
	if !ok || agent.AutoTrigger == nil {
		return true
	}
	return *agent.AutoTrigger
}

// TriggerSettings holds the per-signal thresholds.
type TriggerSettings struct {
	CodeChanges            CodeChangeTrigger  `json:"code_changes" yaml:"code_changes"`
	TestFailures           TestFailureTrigger `json:"test_failures" yaml:"test_failures"`
	SecurityIssues         SecurityTrigger    `json:"security_issues" yaml:"security_issues"`
	PerformanceDegradation PerformanceTrigger `json:"performance_degradation" yaml:"performance_degradation"`
}

type CodeChangeTrigger struct {
	Enabled       bool `json:"enabled" yaml:"enabled"`
	FileThreshold int  `json:"file_threshold" yaml:"file_threshold" validate:"min=0"`
	LineThreshold int  `json:"line_threshold" yaml:"line_threshold" validate:"min=0"`
}

type TestFailureTrigger struct {
	Enabled        bool `json:"enabled" yaml:"enabled"`
	AutoFixAttempt bool `json:"auto_fix_attempt" yaml:"auto_fix_attempt"`
}

type SecurityTrigger struct {
	Enabled           bool   `json:"enabled" yaml:"enabled"`
	SeverityThreshold string `json:"severity_threshold" yaml:"severity_threshold" validate:"omitempty,oneof=low medium high critical"`
}

type PerformanceTrigger struct {
	Enabled          bool `json:"enabled" yaml:"enabled"`
	ThresholdPercent int  `json:"threshold_percent" yaml:"threshold_percent" validate:"min=0"`
}

// AgentSettings configures one reviewer.
type AgentSettings struct {
	TriggerOn   []string `json:"trigger_on" yaml:"trigger_on"`
	AutoTrigger *bool    `json:"auto_trigger,omitempty" yaml:"auto_trigger,omitempty"`
	Command     string   `json:"command,omitempty" yaml:"command,omitempty"`
}
