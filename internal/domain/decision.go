package domain

import "time"

// Verdict tags which precedence group produced a decision.
type Verdict string

const (
	VerdictSafe      Verdict = "safe"
	VerdictDangerous Verdict = "dangerous"
	VerdictCustom    Verdict = "custom"
	VerdictDefault   Verdict = "default"
)

// ApprovalDecision is the outcome of classifying one command.
// AutoApprove implies !NeedsApproval.
type ApprovalDecision struct {
	Command       string    `json:"command"`
	NeedsApproval bool      `json:"needs_approval"`
	AutoApprove   bool      `json:"auto_approve"`
	Reason        string    `json:"reason"`
	RiskLevel     RiskLevel `json:"risk_level"`
	Verdict       Verdict   `json:"verdict"`
	MatchedRule   string    `json:"matched_rule,omitempty"`
}

// AuditEntry is one line of the append-only command audit log.
type AuditEntry struct {
	ID           string    `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	Command      string    `json:"command"`
	RiskLevel    RiskLevel `json:"risk_level"`
	Verdict      Verdict   `json:"verdict"`
	AutoApproved bool      `json:"auto_approved"`
	UserApproved bool      `json:"user_approved"`
	Reason       string    `json:"reason"`
	User         string    `json:"user"`
	Cwd          string    `json:"cwd"`
	Environment  string    `json:"environment,omitempty"`
}

// Statistics are process-wide approval counters persisted between runs.
type Statistics struct {
	TotalCommands int               `json:"total_commands"`
	AutoApproved  int               `json:"auto_approved"`
	UserApproved  int               `json:"user_approved"`
	Rejected      int               `json:"rejected"`
	ByRiskLevel   map[RiskLevel]int `json:"by_risk_level"`
	UpdatedAt     time.Time         `json:"updated_at,omitempty"`
}

// NewStatistics returns zeroed counters with every risk bucket present.
func NewStatistics() Statistics {
	return Statistics{
		ByRiskLevel: map[RiskLevel]int{RiskLow: 0, RiskMedium: 0, RiskHigh: 0},
	}
}

// Record counts one decision.
func (s *Statistics) Record(decision ApprovalDecision, userApproved bool) {
	if s.ByRiskLevel == nil {
		s.ByRiskLevel = map[RiskLevel]int{}
	}
	s.TotalCommands++
	switch {
	case decision.AutoApprove:
		s.AutoApproved++
	case userApproved:
		s.UserApproved++
	default:
		s.Rejected++
	}
	level := decision.RiskLevel
	if level == "" {
		level = RiskMedium
	}
	s.ByRiskLevel[level]++
}

// AutoApproveRate is the share of auto-approved commands in percent.
func (s Statistics) AutoApproveRate() float64 {
	if s.TotalCommands == 0 {
		return 0
	}
	return float64(s.AutoApproved) / float64(s.TotalCommands) * 100
}
