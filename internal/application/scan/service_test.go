package scan

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbankscard/hookguard/internal/domain"
	"github.com/dbankscard/hookguard/internal/pkg/logger"
)

// lineScanner reports one finding per line starting with a severity name.
type lineScanner struct{}

func (lineScanner) Scan(file domain.SourceFile) []domain.Finding {
	var out []domain.Finding
	for i, line := range strings.Split(string(file.Content), "\n") {
		if sev, ok := domain.ParseSeverity(strings.TrimSpace(line)); ok {
			out = append(out, domain.Finding{Type: domain.FindingVulnerability, Severity: sev, File: file.Path, Line: i + 1, RuleID: "line"})
		}
	}
	return out
}

func (lineScanner) Skip(path string) bool {
	return strings.HasSuffix(path, ".md") || strings.HasSuffix(path, ".txt")
}

type manifestChecker struct {
	mu      sync.Mutex
	checked []string
}

func (m *manifestChecker) Handles(path string) bool { return filepath.Base(path) == "requirements.txt" }

func (m *manifestChecker) Check(_ context.Context, file domain.SourceFile) []domain.Finding {
	m.mu.Lock()
	m.checked = append(m.checked, file.Path)
	m.mu.Unlock()
	return []domain.Finding{{Type: domain.FindingDependency, Severity: domain.SeverityHigh, File: file.Path, Line: 1, Package: "django"}}
}

type stagedSource struct{ files []string }

func (s stagedSource) StagedFiles(context.Context) []string { return s.files }

func (s stagedSource) RecentChanges(context.Context) domain.ChangeSet { return domain.ChangeSet{} }

type memoryReports struct {
	path   string
	report domain.PersistedReport
	writes int
}

func (m *memoryReports) WriteReport(path string, report domain.PersistedReport) error {
	m.path, m.report = path, report
	m.writes++
	return nil
}

func (m *memoryReports) WriteAnalysis(string, domain.TriggerAnalysis) error { return nil }
func (m *memoryReports) QueueCommands(string, []string) error               { return nil }

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func newService(deps *manifestChecker, reports *memoryReports) *Service {
	fixed := time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)
	return &Service{
		Scanner:      lineScanner{},
		Dependencies: deps,
		Changes:      stagedSource{},
		Reports:      reports,
		Logger:       logger.NewNop(),
		Clock:        func() time.Time { return fixed },
		Security: domain.SecurityConfig{
			EnabledChecks:   domain.EnabledChecks{Dependencies: true},
			BlockOnCritical: true,
		},
		Workers: 3,
	}
}

func TestRunKeepsInputOrderAndPersists(t *testing.T) {
	root := writeFiles(t, map[string]string{
		"a.py":             "low\nhigh\n",
		"b.py":             "medium\n",
		"c.py":             "nothing here\n",
		"README.md":        "critical\n",
		"requirements.txt": "Django==3.2.0\n",
	})
	deps := &manifestChecker{}
	reports := &memoryReports{}
	svc := newService(deps, reports)

	rep, err := svc.Run(context.Background(), Request{
		Files:      []string{"a.py", "README.md", "b.py", "c.py", "requirements.txt", "missing.py"},
		Root:       root,
		ReportPath: "out/security-report.json",
	})
	require.NoError(t, err)

	assert.Equal(t, 4, rep.FilesScanned)
	require.Len(t, rep.Findings, 4)
	assert.Equal(t, "a.py", rep.Findings[0].File)
	assert.Equal(t, domain.SeverityLow, rep.Findings[0].Severity)
	assert.Equal(t, domain.SeverityHigh, rep.Findings[1].Severity)
	assert.Equal(t, "b.py", rep.Findings[2].File)
	assert.Equal(t, "requirements.txt", rep.Findings[3].File)
	assert.Equal(t, []string{"requirements.txt"}, deps.checked)
	assert.Equal(t, 0, rep.CountsBySeverity[domain.SeverityCritical])
	assert.NotEmpty(t, rep.RunID)

	require.Equal(t, 1, reports.writes)
	assert.Equal(t, "out/security-report.json", reports.path)
	assert.Equal(t, rep.Findings, reports.report.Vulnerabilities)
	assert.Equal(t, time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC), reports.report.Timestamp)
}

func TestRunSkipsManifestsWhenDependencyCheckDisabled(t *testing.T) {
	root := writeFiles(t, map[string]string{"requirements.txt": "Django==3.2.0\n"})
	deps := &manifestChecker{}
	svc := newService(deps, &memoryReports{})
	svc.Security.EnabledChecks.Dependencies = false

	rep, err := svc.Run(context.Background(), Request{Files: []string{"requirements.txt"}, Root: root})
	require.NoError(t, err)
	assert.Equal(t, 0, rep.FilesScanned)
	assert.Empty(t, deps.checked)
	assert.Equal(t, 100, rep.Score)
}

func TestRunDefaultsToStagedFiles(t *testing.T) {
	root := writeFiles(t, map[string]string{"src/app.py": "critical\n", "src/util.py": "low\n"})
	reports := &memoryReports{}
	svc := newService(&manifestChecker{}, reports)
	svc.Changes = stagedSource{files: []string{"src/app.py", "src/util.py", "src/app.py"}}

	rep, err := svc.Run(context.Background(), Request{Root: root})
	require.NoError(t, err)
	assert.Equal(t, 2, rep.FilesScanned)
	assert.Equal(t, 1, rep.CountsBySeverity[domain.SeverityCritical])
	assert.True(t, rep.HardFailure)
	assert.Zero(t, reports.writes)
}

func TestRunIsDeterministic(t *testing.T) {
	files := map[string]string{}
	var names []string
	for i := 0; i < 20; i++ {
		name := filepath.Join("pkg", string(rune('a'+i))+".py")
		files[name] = "high\nlow\n"
		names = append(names, name)
	}
	root := writeFiles(t, files)
	svc := newService(&manifestChecker{}, &memoryReports{})

	first, err := svc.Run(context.Background(), Request{Files: names, Root: root})
	require.NoError(t, err)
	second, err := svc.Run(context.Background(), Request{Files: names, Root: root})
	require.NoError(t, err)
	assert.Equal(t, first.Findings, second.Findings)
	assert.Equal(t, 40, first.FindingsCount)
}

func TestMissingDependencies(t *testing.T) {
	_, err := (&Service{}).Run(context.Background(), Request{})
	require.Error(t, err)
}
