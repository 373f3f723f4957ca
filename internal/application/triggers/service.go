// Package triggers selects reviewers for a change set and records which of
// them fired.
package triggers

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/dbankscard/hookguard/internal/domain"
	"github.com/dbankscard/hookguard/internal/ports"
)

const (
	npmManifest = "package.json"
	npmLockfile = "package-lock.json"
)

// DefaultTestReports are probed, in order, when no test report is given.
var DefaultTestReports = []string{"test-results.xml", "pytest.xml"}

// Request describes one selection run.
type Request struct {
	// Files overrides the changed paths reported by version control.
	Files []string
	// Root is the directory changed paths resolve against.
	Root string
	// TestReport is a JUnit XML report. Empty probes DefaultTestReports.
	TestReport string
	// PerformanceFile holds current and baseline metrics. Missing is fine.
	PerformanceFile string
	// CI restricts triggering to the allow-list.
	CI bool
	// OutputPath receives the full analysis. Empty skips it.
	OutputPath string
	// PendingPath receives queued reviewer commands. Empty skips it.
	PendingPath string
}

// Service runs the trigger selector against the stored cooldown history.
type Service struct {
	Changes ports.ChangeSource
	History ports.CooldownStore
	Reports ports.ReportWriter
	// Secrets scans changed files for exposed secrets. Optional.
	Secrets ports.FileScanner
	// Dependencies audits changed manifests, and package.json whenever a
	// package-lock.json sits next to it. Optional.
	Dependencies ports.DependencyChecker
	Logger       ports.Logger
	Clock        ports.Clock
	Config       domain.AutomationConfig
}

// Run analyses the change set, gates every recommendation, records all of
// them in the history and queues commands for the ones that fired.
func (s *Service) Run(ctx context.Context, req Request) (domain.TriggerAnalysis, error) {
	if s.Changes == nil || s.History == nil || s.Logger == nil {
		return domain.TriggerAnalysis{}, errors.New("triggers.Service dependencies not satisfied")
	}
	now := s.now()

	changes := s.Changes.RecentChanges(ctx)
	if len(req.Files) > 0 {
		changes.Files = changes.Files[:0]
		for _, p := range req.Files {
			changes.Files = append(changes.Files, domain.ChangedFile{Path: p})
		}
	}
	paths := changes.Paths()

	tests := s.testStatus(testReportPath(req.Root, req.TestReport))
	sig := Signals{
		Files:          len(paths),
		Lines:          changes.LinesChanged(),
		Tests:          tests,
		SecurityAlerts: s.securityAlerts(ctx, req.Root, paths),
		Degraded:       s.degraded(req.Root, req.PerformanceFile),
	}
	facets := Classify(paths)

	history, err := s.History.Load(now)
	if err != nil {
		s.Logger.Warn("automation history unavailable", map[string]interface{}{"error": err.Error()})
		history = nil
	}
	recs := Gate(Recommend(facets, sig, s.Config), history, s.Config, req.CI, now)

	analysis := domain.TriggerAnalysis{
		Timestamp:       now,
		ChangedFiles:    paths,
		LinesChanged:    sig.Lines,
		Branch:          changes.Branch,
		Commit:          changes.Commit.Hash,
		Facets:          facets,
		TestStatus:      tests,
		SecurityAlerts:  sig.SecurityAlerts,
		Recommendations: recs,
	}

	var queued []string
	for _, rec := range recs {
		history = append(history, domain.CooldownRecord{
			Timestamp: now,
			Reviewer:  rec.Reviewer,
			Reason:    rec.Reason,
			Triggered: rec.Triggered,
			Context:   domain.HistoryContext{Branch: changes.Branch, Commit: changes.Commit.ShortHash()},
		})
		if rec.Triggered {
			analysis.Triggered++
			if rec.Command != "" {
				queued = append(queued, QueuedLine(rec))
			}
		}
		s.Logger.Debug("reviewer considered", map[string]interface{}{
			"agent":     rec.Reviewer,
			"triggered": rec.Triggered,
			"skip":      rec.SkipReason,
		})
	}

	if err := s.History.Save(history); err != nil {
		s.Logger.Warn("automation history not saved", map[string]interface{}{"error": err.Error()})
	}
	s.write(req, analysis, queued)
	return analysis, nil
}

func (s *Service) write(req Request, analysis domain.TriggerAnalysis, queued []string) {
	if s.Reports == nil {
		return
	}
	if req.PendingPath != "" && len(queued) > 0 {
		if err := s.Reports.QueueCommands(req.PendingPath, queued); err != nil {
			s.Logger.Warn("reviewer commands not queued", map[string]interface{}{"path": req.PendingPath, "error": err.Error()})
		}
	}
	if req.OutputPath != "" {
		if err := s.Reports.WriteAnalysis(req.OutputPath, analysis); err != nil {
			s.Logger.Warn("automation output not written", map[string]interface{}{"path": req.OutputPath, "error": err.Error()})
		}
	}
}

func (s *Service) testStatus(path string) domain.TestStatus {
	if path == "" {
		return domain.TestStatus{Status: TestsUnknown}
	}
	content, err := os.ReadFile(path)
	if err != nil {
		s.Logger.Debug("test report unreadable", map[string]interface{}{"path": path, "error": err.Error()})
		return domain.TestStatus{Status: TestsUnknown}
	}
	return ParseJUnit(content)
}

func (s *Service) degraded(root, path string) bool {
	if !s.Config.Triggers.PerformanceDegradation.Enabled || path == "" {
		return false
	}
	content, err := os.ReadFile(resolve(root, path))
	if err != nil {
		return false
	}
	return Degraded(content, s.Config.Triggers.PerformanceDegradation.ThresholdPercent)
}

// securityAlerts counts secret and vulnerable-dependency findings at or
// above the configured severity across the changed files that still exist.
func (s *Service) securityAlerts(ctx context.Context, root string, paths []string) int {
	if !s.Config.Triggers.SecurityIssues.Enabled {
		return 0
	}
	threshold := domain.SeverityMedium
	if sev, ok := domain.ParseSeverity(s.Config.Triggers.SecurityIssues.SeverityThreshold); ok {
		threshold = sev
	}
	count := func(findings []domain.Finding, kind domain.FindingType) int {
		n := 0
		for _, f := range findings {
			if f.Type == kind && f.Severity.AtLeast(threshold) {
				n++
			}
		}
		return n
	}

	alerts := 0
	if s.Secrets != nil {
		for _, p := range paths {
			if s.Secrets.Skip(p) {
				continue
			}
			if file, ok := readSource(root, p); ok {
				alerts += count(s.Secrets.Scan(file), domain.FindingSecret)
			}
		}
	}
	if s.Dependencies != nil {
		for _, p := range s.manifests(root, paths) {
			if file, ok := readSource(root, p); ok {
				alerts += count(s.Dependencies.Check(ctx, file), domain.FindingDependency)
			}
		}
	}
	return alerts
}

// manifests lists the changed manifests, adding the root package.json when
// a package-lock.json exists even if neither changed.
func (s *Service) manifests(root string, paths []string) []string {
	var out []string
	seen := map[string]bool{}
	for _, p := range paths {
		if s.Dependencies.Handles(p) && !seen[filepath.Clean(p)] {
			seen[filepath.Clean(p)] = true
			out = append(out, p)
		}
	}
	if seen[npmManifest] {
		return out
	}
	if _, err := os.Stat(resolve(root, npmLockfile)); err == nil {
		out = append(out, npmManifest)
	}
	return out
}

func readSource(root, p string) (domain.SourceFile, bool) {
	abs := resolve(root, p)
	content, err := os.ReadFile(abs)
	if err != nil {
		return domain.SourceFile{}, false
	}
	return domain.SourceFile{Path: p, AbsPath: abs, Content: content}, true
}

// testReportPath resolves the explicit report, or the first default report
// that exists under root. Empty means no report.
func testReportPath(root, p string) string {
	if p != "" {
		return resolve(root, p)
	}
	for _, candidate := range DefaultTestReports {
		abs := resolve(root, candidate)
		if info, err := os.Stat(abs); err == nil && !info.IsDir() {
			return abs
		}
	}
	return ""
}

func resolve(root, p string) string {
	if filepath.IsAbs(p) || root == "" {
		return p
	}
	return filepath.Join(root, p)
}

func (s *Service) now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now()
}
