package scanner

import (
	"strings"

	"github.com/dbankscard/hookguard/internal/domain"
)

var (
	scriptExtensions = []string{".sh", ".py", ".exe"}
	scriptDirs       = []string{"bin/", "scripts/"}
)

// CheckPermissions flags world-writable files and executables outside the
// conventional script locations. It needs no content.
func CheckPermissions(file domain.SourceFile) []domain.Finding {
	if !file.HasMode || file.Mode.IsDir() {
		return nil
	}
	perm := file.Mode.Perm()
	var findings []domain.Finding
	if perm&0o002 != 0 {
		findings = append(findings, domain.Finding{
			Type:        domain.FindingPermission,
			Severity:    domain.SeverityHigh,
			File:        file.Path,
			Title:       "World-writable file",
			Remediation: "chmod o-w " + file.Path,
			RuleID:      "world-writable",
		})
	}
	if perm&0o111 != 0 && !hasAnySuffix(file.Path, scriptExtensions) && !inScriptDir(file.Path) {
		findings = append(findings, domain.Finding{
			Type:        domain.FindingPermission,
			Severity:    domain.SeverityMedium,
			File:        file.Path,
			Title:       "Unexpected executable permission",
			Remediation: "chmod -x " + file.Path,
			RuleID:      "unexpected-executable",
		})
	}
	return findings
}

func inScriptDir(p string) bool {
	for _, dir := range scriptDirs {
		if strings.HasPrefix(p, dir) {
			return true
		}
	}
	return false
}
