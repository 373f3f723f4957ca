package audit

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbankscard/hookguard/internal/domain"
	"github.com/dbankscard/hookguard/internal/pkg/logger"
	"github.com/dbankscard/hookguard/internal/ports"
)

func sampleEntries() []domain.AuditEntry {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return []domain.AuditEntry{
		{ID: "a", Timestamp: base, Command: "git status", RiskLevel: domain.RiskLow, Verdict: domain.VerdictSafe, AutoApproved: true, Reason: "Command is in safe list", User: "dev", Cwd: "/repo"},
		{ID: "b", Timestamp: base.Add(time.Minute), Command: "rm -rf build", RiskLevel: domain.RiskHigh, Verdict: domain.VerdictDangerous, Reason: "Command 'rm' requires approval", User: "dev", Cwd: "/repo"},
		{ID: "c", Timestamp: base.Add(2 * time.Minute), Command: "make deploy", RiskLevel: domain.RiskMedium, Verdict: domain.VerdictDefault, UserApproved: true, Reason: "Command not in safe list", User: "ci", Cwd: "/repo", Environment: "production"},
	}
}

func exerciseSink(t *testing.T, sink ports.AuditSink) {
	t.Helper()
	for _, e := range sampleEntries() {
		require.NoError(t, sink.Append(e))
	}

	all, err := sink.Entries(0, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"c", "b", "a"}, []string{all[0].ID, all[1].ID, all[2].ID})
	assert.True(t, all[0].UserApproved)
	assert.Equal(t, domain.VerdictDefault, all[0].Verdict)
	assert.Equal(t, "production", all[0].Environment)
	assert.True(t, all[2].Timestamp.Equal(sampleEntries()[0].Timestamp))

	limited, err := sink.Entries(1, "")
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "c", limited[0].ID)

	found, err := sink.Entries(0, "RM -RF")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "b", found[0].ID)

	byUser, err := sink.Entries(0, "ci")
	require.NoError(t, err)
	require.Len(t, byUser, 1)

	dest := filepath.Join(t.TempDir(), "export.jsonl")
	require.NoError(t, sink.ExportJSON(dest))
	file, err := os.Open(dest)
	require.NoError(t, err)
	defer file.Close()
	var ids []string
	sc := bufio.NewScanner(file)
	for sc.Scan() {
		var e domain.AuditEntry
		require.NoError(t, json.Unmarshal(sc.Bytes(), &e))
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}

func TestFileStore(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)
	assert.Equal(t, filepath.Join(dir, domain.AuditLogFile), store.Path())
	exerciseSink(t, store)
}

func TestFileStoreSkipsCorruptLines(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)
	require.NoError(t, store.Append(domain.AuditEntry{ID: "ok", Command: "ls"}))
	f, err := os.OpenFile(store.Path(), os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("{not json\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	entries, err := store.Entries(0, "")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "ok", entries[0].ID)
}

func TestFileStoreMissingFile(t *testing.T) {
	store := NewFileStore(t.TempDir())
	entries, err := store.Entries(10, "")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSQLiteStore(t *testing.T) {
	dir := t.TempDir()
	store := NewSQLiteStore(dir, logger.NewNop())
	t.Cleanup(func() { _ = store.Close() })
	assert.Equal(t, filepath.Join(dir, domain.AuditDBFile), store.Path())
	exerciseSink(t, store)
}
