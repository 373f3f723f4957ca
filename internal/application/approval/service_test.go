package approval

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbankscard/hookguard/assets"
	"github.com/dbankscard/hookguard/internal/domain"
	"github.com/dbankscard/hookguard/internal/infrastructure/rules"
	"github.com/dbankscard/hookguard/internal/pkg/logger"
)

type memoryStats struct {
	stats domain.Statistics
	err   error
}

func (m *memoryStats) Load() (domain.Statistics, error) { return m.stats, nil }

func (m *memoryStats) Update(apply func(*domain.Statistics)) (domain.Statistics, error) {
	if m.err != nil {
		return m.stats, m.err
	}
	apply(&m.stats)
	return m.stats, nil
}

func (m *memoryStats) Path() string { return "memory" }

type memoryAudit struct {
	entries []domain.AuditEntry
	err     error
}

func (m *memoryAudit) Append(entry domain.AuditEntry) error {
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, entry)
	return nil
}

func (m *memoryAudit) Entries(int, string) ([]domain.AuditEntry, error) { return m.entries, nil }
func (m *memoryAudit) ExportJSON(string) error                          { return nil }
func (m *memoryAudit) Path() string                                     { return "memory" }

func newService(t *testing.T, cfg domain.Config) (*Service, *memoryStats, *memoryAudit) {
	t.Helper()
	store, err := rules.New(assets.DefaultRulesYAML, cfg, logger.NewNop())
	require.NoError(t, err)
	stats := &memoryStats{stats: domain.NewStatistics()}
	audit := &memoryAudit{}
	fixed := time.Date(2026, 4, 2, 9, 30, 0, 0, time.UTC)
	return &Service{
		Resolver: store,
		Stats:    stats,
		Audit:    audit,
		Logger:   logger.NewNop(),
		Clock:    func() time.Time { return fixed },
	}, stats, audit
}

func TestSafeCommandIsAutoApproved(t *testing.T) {
	svc, stats, audit := newService(t, domain.Config{})
	ctx := domain.ExecContext{User: "dev", Cwd: "/repo"}

	decision, err := svc.Evaluate(Request{Command: "git status", Context: ctx})
	require.NoError(t, err)
	assert.True(t, decision.AutoApprove)
	assert.False(t, decision.NeedsApproval)
	assert.Equal(t, domain.RiskLow, decision.RiskLevel)
	assert.Nil(t, Violation(decision))

	assert.Equal(t, 1, stats.stats.TotalCommands)
	assert.Equal(t, 1, stats.stats.AutoApproved)
	require.Len(t, audit.entries, 1)
	entry := audit.entries[0]
	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, "git status", entry.Command)
	assert.Equal(t, "dev", entry.User)
	assert.Equal(t, "/repo", entry.Cwd)
	assert.True(t, entry.AutoApproved)
	assert.Equal(t, time.Date(2026, 4, 2, 9, 30, 0, 0, time.UTC), entry.Timestamp)
}

func TestDangerousCommandNeedsApproval(t *testing.T) {
	svc, stats, _ := newService(t, domain.Config{})
	decision, err := svc.Evaluate(Request{Command: "rm -rf /tmp/x"})
	require.NoError(t, err)
	assert.True(t, decision.NeedsApproval)
	assert.False(t, decision.AutoApprove)
	assert.Equal(t, domain.RiskHigh, decision.RiskLevel)
	assert.Equal(t, domain.VerdictDangerous, decision.Verdict)

	v := Violation(decision)
	require.NotNil(t, v)
	assert.Equal(t, 1, v.ExitCode())
	assert.Contains(t, v.Error(), "requires approval")
	assert.Equal(t, 1, stats.stats.Rejected)
	assert.Equal(t, 1, stats.stats.ByRiskLevel[domain.RiskHigh])
}

func TestUnknownCommandFailsClosed(t *testing.T) {
	svc, _, _ := newService(t, domain.Config{})
	decision, err := svc.Evaluate(Request{Command: "make build"})
	require.NoError(t, err)
	assert.True(t, decision.NeedsApproval)
	assert.Equal(t, domain.RiskMedium, decision.RiskLevel)
	assert.Equal(t, "Command not in safe list", decision.Reason)
}

func TestCustomRuleFieldsPopulateDecision(t *testing.T) {
	cfg := domain.Config{Approval: domain.ApprovalConfig{CustomRules: []domain.CustomRule{
		{Pattern: `terraform plan`, AutoApprove: true, Reason: "Plans are read-only", RiskLevel: "low"},
		{Pattern: `kubectl apply`, Reason: "Cluster change", RiskLevel: "critical"},
	}}}
	svc, _, _ := newService(t, cfg)

	decision, err := svc.Evaluate(Request{Command: "terraform plan -out tf.plan"})
	require.NoError(t, err)
	assert.True(t, decision.AutoApprove)
	assert.False(t, decision.NeedsApproval)
	assert.Equal(t, "Plans are read-only", decision.Reason)
	assert.Equal(t, domain.RiskLow, decision.RiskLevel)
	assert.Equal(t, domain.VerdictCustom, decision.Verdict)
	assert.NotEmpty(t, decision.MatchedRule)

	decision, err = svc.Evaluate(Request{Command: "kubectl apply -f deploy.yaml"})
	require.NoError(t, err)
	assert.True(t, decision.NeedsApproval)
	assert.Equal(t, domain.RiskCritical, decision.RiskLevel)
}

func TestUserApprovalIsRecorded(t *testing.T) {
	svc, stats, audit := newService(t, domain.Config{})
	_, err := svc.Evaluate(Request{Command: "make build", UserApproved: true})
	require.NoError(t, err)
	// Auto-approved decisions never count as user approvals.
	_, err = svc.Evaluate(Request{Command: "ls", UserApproved: true})
	require.NoError(t, err)

	assert.Equal(t, 1, stats.stats.UserApproved)
	assert.Equal(t, 1, stats.stats.AutoApproved)
	assert.Equal(t, 0, stats.stats.Rejected)
	assert.True(t, audit.entries[0].UserApproved)
	assert.False(t, audit.entries[1].UserApproved)
}

func TestProductionContextGuardsWrites(t *testing.T) {
	cfg := domain.Config{Approval: domain.ApprovalConfig{RequireApprovalInProduction: true}}
	svc, _, audit := newService(t, cfg)
	prod := domain.ExecContext{Environment: domain.EnvProduction}

	decision, err := svc.Evaluate(Request{Command: "psql -c 'truncate sessions'", Context: prod})
	require.NoError(t, err)
	assert.Equal(t, domain.RiskHigh, decision.RiskLevel)
	assert.Equal(t, "Write operation in production environment", decision.Reason)
	assert.Equal(t, domain.EnvProduction, audit.entries[0].Environment)
}

func TestRecordingFailuresDoNotChangeDecision(t *testing.T) {
	svc, stats, audit := newService(t, domain.Config{})
	stats.err = errors.New("disk full")
	audit.err = errors.New("read-only")

	decision, err := svc.Evaluate(Request{Command: "git status"})
	require.NoError(t, err)
	assert.True(t, decision.AutoApprove)
}

func TestMissingDependencies(t *testing.T) {
	_, err := (&Service{}).Evaluate(Request{Command: "ls"})
	require.Error(t, err)
}
