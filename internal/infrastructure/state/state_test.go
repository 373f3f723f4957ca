package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbankscard/hookguard/internal/domain"
	"github.com/dbankscard/hookguard/internal/pkg/logger"
)

func TestStatsFileUpdateIsReadMergeWrite(t *testing.T) {
	dir := t.TempDir()
	store := NewStatsFile(dir, logger.NewNop())

	stats, err := store.Load()
	require.NoError(t, err)
	assert.Zero(t, stats.TotalCommands)
	assert.Contains(t, stats.ByRiskLevel, domain.RiskLow)

	safe := domain.ApprovalDecision{AutoApprove: true, RiskLevel: domain.RiskLow}
	risky := domain.ApprovalDecision{NeedsApproval: true, RiskLevel: domain.RiskHigh}
	_, err = store.Update(func(s *domain.Statistics) { s.Record(safe, false) })
	require.NoError(t, err)

	// A second handle sees the persisted counters.
	other := NewStatsFile(dir, logger.NewNop())
	stats, err = other.Update(func(s *domain.Statistics) { s.Record(risky, true) })
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalCommands)
	assert.Equal(t, 1, stats.AutoApproved)
	assert.Equal(t, 1, stats.UserApproved)
	assert.Equal(t, 1, stats.ByRiskLevel[domain.RiskHigh])
	assert.False(t, stats.UpdatedAt.IsZero())

	reloaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, stats.TotalCommands, reloaded.TotalCommands)
}

func TestStatsFileConcurrentUpdatesInProcess(t *testing.T) {
	store := NewStatsFile(t.TempDir(), logger.NewNop())
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Update(func(s *domain.Statistics) {
				s.Record(domain.ApprovalDecision{RiskLevel: domain.RiskMedium}, false)
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	stats, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, 20, stats.TotalCommands)
	assert.Equal(t, 20, stats.Rejected)
}

func TestStatsFileCorruptStartsFresh(t *testing.T) {
	dir := t.TempDir()
	store := NewStatsFile(dir, logger.NewNop())
	require.NoError(t, os.WriteFile(store.Path(), []byte("{broken"), 0o644))

	stats, err := store.Load()
	require.NoError(t, err)
	assert.Zero(t, stats.TotalCommands)
}

func TestHistoryFilePrunesOnLoad(t *testing.T) {
	dir := t.TempDir()
	store := NewHistoryFile(dir, logger.NewNop())
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

	records := []domain.CooldownRecord{
		{Timestamp: now.Add(-time.Hour), Reviewer: "code_reviewer", Triggered: true},
		{Timestamp: now.Add(-25 * time.Hour), Reviewer: "security_auditor", Triggered: true},
		{Timestamp: now.Add(-2 * time.Hour), Reviewer: "test_engineer"},
	}
	require.NoError(t, store.Save(records))

	loaded, err := store.Load(now)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "test_engineer", loaded[0].Reviewer)
	assert.Equal(t, "code_reviewer", loaded[1].Reviewer)
}

func TestHistoryFileMissingOrCorrupt(t *testing.T) {
	dir := t.TempDir()
	store := NewHistoryFile(dir, logger.NewNop())
	loaded, err := store.Load(time.Now())
	require.NoError(t, err)
	assert.Empty(t, loaded)

	require.NoError(t, os.WriteFile(store.Path(), []byte("not json"), 0o644))
	loaded, err = store.Load(time.Now())
	require.NoError(t, err)
	assert.Empty(t, loaded)

	require.NoError(t, store.Save(nil))
	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestWriterPersistsReportAndQueue(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter()

	reportPath := filepath.Join(dir, "nested", "security-report.json")
	report := domain.PersistedReport{
		Timestamp: time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC),
		Report:    domain.ScanReport{FilesScanned: 2, Score: 100, Status: domain.BandExcellent},
	}
	require.NoError(t, w.WriteReport(reportPath, report))
	data, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, []interface{}{}, decoded["vulnerabilities"])
	assert.Equal(t, float64(100), decoded["report"].(map[string]interface{})["security_score"])

	queue := filepath.Join(dir, domain.PendingCommandsFile)
	require.NoError(t, w.QueueCommands(queue, []string{"claude review", " ", "claude test"}))
	require.NoError(t, w.QueueCommands(queue, []string{"claude audit"}))
	data, err = os.ReadFile(queue)
	require.NoError(t, err)
	assert.Equal(t, "claude review\nclaude test\nclaude audit\n", string(data))

	analysisPath := filepath.Join(dir, domain.AutomationOutputFile)
	require.NoError(t, w.WriteAnalysis(analysisPath, domain.TriggerAnalysis{Branch: "main", Triggered: 1}))
	data, err = os.ReadFile(analysisPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"branch": "main"`)
}
