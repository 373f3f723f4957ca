// Package scan runs the content scanner and dependency checker over a batch
// of files and aggregates the result into a persisted report.
package scan

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dbankscard/hookguard/internal/application/report"
	"github.com/dbankscard/hookguard/internal/domain"
	"github.com/dbankscard/hookguard/internal/pkg/filesystem"
	"github.com/dbankscard/hookguard/internal/ports"
)

// Request describes one batch.
type Request struct {
	// Files are the scan targets. Empty means the staged set.
	Files []string
	// Root is the directory relative paths resolve against.
	Root string
	// ReportPath is where the persisted report goes. Empty skips persistence.
	ReportPath string
}

// Service scans a batch. Nothing a single file does can abort the batch.
type Service struct {
	Scanner      ports.FileScanner
	Dependencies ports.DependencyChecker
	Changes      ports.ChangeSource
	Reports      ports.ReportWriter
	Logger       ports.Logger
	Clock        ports.Clock
	Security     domain.SecurityConfig
	Workers      int
}

// Run scans every target and returns the aggregated report. The returned
// error only reports missing dependencies; policy failures are carried by
// report.HardFailure.
func (s *Service) Run(ctx context.Context, req Request) (domain.ScanReport, error) {
	if s.Scanner == nil || s.Logger == nil {
		return domain.ScanReport{}, errors.New("scan.Service dependencies not satisfied")
	}
	opts := report.OptionsFrom(s.Security)

	targets := req.Files
	if len(targets) == 0 && s.Changes != nil {
		targets = s.Changes.StagedFiles(ctx)
		s.Logger.Debug("scanning staged files", map[string]interface{}{"count": len(targets)})
	}
	targets = s.filter(targets)

	results := make([][]domain.Finding, len(targets))
	scanned := make([]bool, len(targets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers())
	for i, target := range targets {
		i, target := i, target
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			file, ok := s.load(req.Root, target)
			if !ok {
				return nil
			}
			scanned[i] = true
			results[i] = s.scanOne(gctx, file)
			return nil
		})
	}
	_ = g.Wait()

	findings := []domain.Finding{}
	filesScanned := 0
	for i := range targets {
		if scanned[i] {
			filesScanned++
		}
		findings = append(findings, results[i]...)
	}

	rep := report.Build(uuid.NewString(), filesScanned, findings, opts)
	s.persist(req.ReportPath, rep)
	return rep, nil
}

// filter drops paths a batch ignores. Manifests stay in the batch even when
// their extension is otherwise skipped.
func (s *Service) filter(paths []string) []string {
	out := make([]string, 0, len(paths))
	seen := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		if s.Scanner.Skip(p) && !s.manifest(p) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (s *Service) manifest(p string) bool {
	return s.Security.EnabledChecks.Dependencies && s.Dependencies != nil && s.Dependencies.Handles(p)
}

func (s *Service) scanOne(ctx context.Context, file domain.SourceFile) []domain.Finding {
	findings := s.Scanner.Scan(file)
	if s.manifest(file.Path) {
		findings = append(findings, s.Dependencies.Check(ctx, file)...)
	}
	return findings
}

// load reads one target. Unreadable targets and directories are logged and
// contribute nothing.
func (s *Service) load(root, target string) (domain.SourceFile, bool) {
	abs := target
	if !filepath.IsAbs(abs) && root != "" {
		abs = filepath.Join(root, target)
	}
	info, err := os.Stat(abs)
	if err != nil {
		s.Logger.Debug("scan target unreadable", map[string]interface{}{"file": target, "error": err.Error()})
		return domain.SourceFile{}, false
	}
	if info.IsDir() {
		return domain.SourceFile{}, false
	}
	content, err := os.ReadFile(abs)
	if err != nil {
		s.Logger.Debug("scan target unreadable", map[string]interface{}{"file": target, "error": err.Error()})
		return domain.SourceFile{}, false
	}
	return domain.SourceFile{
		Path:    filesystem.RelativeTo(root, abs),
		AbsPath: abs,
		Content: content,
		Mode:    info.Mode(),
		HasMode: true,
	}, true
}

func (s *Service) persist(path string, rep domain.ScanReport) {
	if path == "" || s.Reports == nil {
		return
	}
	persisted := domain.PersistedReport{
		Timestamp:       s.now(),
		Report:          rep,
		Vulnerabilities: rep.Findings,
	}
	if err := s.Reports.WriteReport(path, persisted); err != nil {
		s.Logger.Warn("security report not written", map[string]interface{}{"path": path, "error": err.Error()})
	}
}

func (s *Service) workers() int {
	if s.Workers > 0 {
		return s.Workers
	}
	return runtime.NumCPU()
}

func (s *Service) now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now()
}
