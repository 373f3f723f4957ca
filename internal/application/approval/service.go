package approval

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dbankscard/hookguard/internal/domain"
	"github.com/dbankscard/hookguard/internal/ports"
)

// Request is one command to classify.
type Request struct {
	Command      string
	Context      domain.ExecContext
	UserApproved bool
}

// Service classifies commands, then records the outcome in the statistics
// and the audit log. It never executes anything.
type Service struct {
	Resolver ports.CommandResolver
	Stats    ports.StatisticsStore
	Audit    ports.AuditSink
	Logger   ports.Logger
	Clock    ports.Clock
}

// Evaluate classifies req and records it. Recording failures are logged and
// do not change the decision.
func (s *Service) Evaluate(req Request) (domain.ApprovalDecision, error) {
	if s.Resolver == nil || s.Stats == nil || s.Audit == nil || s.Logger == nil {
		return domain.ApprovalDecision{}, errors.New("approval.Service dependencies not satisfied")
	}
	decision := Classify(s.Resolver, req.Command, req.Context)
	userApproved := req.UserApproved && !decision.AutoApprove

	if _, err := s.Stats.Update(func(stats *domain.Statistics) {
		stats.Record(decision, userApproved)
	}); err != nil {
		s.Logger.Warn("statistics update failed", map[string]interface{}{"path": s.Stats.Path(), "error": err.Error()})
	}

	entry := domain.AuditEntry{
		ID:           uuid.NewString(),
		Timestamp:    s.now().UTC(),
		Command:      decision.Command,
		RiskLevel:    decision.RiskLevel,
		Verdict:      decision.Verdict,
		AutoApproved: decision.AutoApprove,
		UserApproved: userApproved,
		Reason:       decision.Reason,
		User:         req.Context.User,
		Cwd:          req.Context.Cwd,
		Environment:  req.Context.Environment,
	}
	if err := s.Audit.Append(entry); err != nil {
		s.Logger.Warn("audit append failed", map[string]interface{}{"path": s.Audit.Path(), "error": err.Error()})
	}

	s.Logger.Debug("command classified", map[string]interface{}{
		"command": decision.Command,
		"verdict": string(decision.Verdict),
		"risk":    string(decision.RiskLevel),
	})
	return decision, nil
}

func (s *Service) now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now()
}

// Classify maps the resolver's verdict onto a decision without side effects.
func Classify(resolver ports.CommandResolver, command string, execCtx domain.ExecContext) domain.ApprovalDecision {
	command = strings.TrimSpace(command)
	res := resolver.ResolveCommand(command, execCtx)
	decision := domain.ApprovalDecision{
		Command: command,
		Reason:  res.Reason,
		Verdict: res.Verdict,
	}
	if res.Rule != nil {
		decision.MatchedRule = res.Rule.ID
	}

	switch {
	case res.Verdict == domain.VerdictSafe:
		decision.AutoApprove = true
		decision.RiskLevel = domain.RiskLow
	case res.Verdict == domain.VerdictDangerous:
		decision.NeedsApproval = true
		decision.RiskLevel = domain.RiskHigh
	case res.Verdict == domain.VerdictCustom && res.Rule != nil:
		decision.NeedsApproval = res.Rule.NeedsApproval
		decision.AutoApprove = res.Rule.AutoApprove
		decision.RiskLevel = res.Rule.RiskLevel
	default:
		decision.Verdict = domain.VerdictDefault
		decision.NeedsApproval = true
		decision.RiskLevel = domain.RiskMedium
	}

	if decision.AutoApprove {
		decision.NeedsApproval = false
	}
	if decision.RiskLevel == "" {
		decision.RiskLevel = domain.RiskMedium
	}
	if decision.Reason == "" {
		decision.Reason = "Command not in safe list"
	}
	return decision
}

// Violation returns the policy violation for a decision that was not
// auto-approved, or nil.
func Violation(decision domain.ApprovalDecision) *domain.PolicyViolation {
	if decision.AutoApprove {
		return nil
	}
	return domain.NewPolicyViolation("%s (risk: %s)", decision.Reason, decision.RiskLevel)
}
