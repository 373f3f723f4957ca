package scanner

import (
	"github.com/dbankscard/hookguard/internal/domain"
	"github.com/dbankscard/hookguard/internal/ports"
)

// ContentScanner runs the permission, secret and vulnerability passes over
// one file. It never rewrites the file and never fails the caller.
type ContentScanner struct {
	checks   domain.EnabledChecks
	secrets  *SecretScanner
	registry *Registry
	logger   ports.Logger
}

// NewContentScanner wires the passes enabled in checks.
func NewContentScanner(checks domain.EnabledChecks, secrets *SecretScanner, registry *Registry, logger ports.Logger) *ContentScanner {
	return &ContentScanner{checks: checks, secrets: secrets, registry: registry, logger: logger}
}

// Scan returns permissions findings first, then secrets, then vulnerabilities.
// A panic inside a pass is logged and yields the findings collected so far.
func (s *ContentScanner) Scan(file domain.SourceFile) (findings []domain.Finding) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("scanner failed, file skipped", map[string]interface{}{
				"file":  file.Path,
				"panic": r,
			})
		}
	}()

	if s.checks.Permissions {
		findings = append(findings, CheckPermissions(file)...)
	}
	if IsBinary(file.Content) {
		s.logger.Debug("binary file skipped", map[string]interface{}{"file": file.Path})
		return findings
	}
	if s.checks.Secrets {
		findings = append(findings, s.secrets.Scan(file)...)
	}
	if !s.checks.Vulnerabilities && !s.checks.CodePatterns {
		return findings
	}
	lang, ok := s.registry.Language(file.Path)
	if !ok {
		return findings
	}
	lines := splitLines(file.Content)
	for _, check := range s.registry.Checks(lang) {
		if !s.enabled(check.Gate()) {
			continue
		}
		for _, f := range check.Run(file, lines) {
			f.Evidence = s.secrets.Mask(f.Evidence)
			findings = append(findings, f)
		}
	}
	return findings
}

// Skip implements ports.FileScanner.
func (s *ContentScanner) Skip(path string) bool { return SkipFile(path) }

func (s *ContentScanner) enabled(gate Gate) bool {
	switch gate {
	case GateCodePatterns:
		return s.checks.CodePatterns
	default:
		return s.checks.Vulnerabilities
	}
}

var _ ports.FileScanner = (*ContentScanner)(nil)
