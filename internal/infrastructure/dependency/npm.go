package dependency

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dbankscard/hookguard/internal/domain"
)

type packageJSON struct {
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

// parsePackageJSON is the fallback when npm is not installed.
func parsePackageJSON(content []byte) ([]declared, error) {
	var pkg packageJSON
	if err := json.Unmarshal(content, &pkg); err != nil {
		return nil, err
	}
	lines := splitLines(content)
	var deps []declared
	for _, table := range []map[string]string{pkg.Dependencies, pkg.DevDependencies} {
		names := make([]string, 0, len(table))
		for name := range table {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			deps = append(deps, declared{Name: name, Version: table[name], Line: lineOf(lines, `"`+name+`"`)})
		}
	}
	return deps, nil
}

// npmAudit runs `npm audit --json` next to the manifest. handled is false
// only when npm is not installed, so the caller can fall back to the table.
func (c *Checker) npmAudit(ctx context.Context, file domain.SourceFile) (findings []domain.Finding, handled bool) {
	if c.runner == nil || !c.runner.Available("npm") {
		return nil, false
	}
	target := file.AbsPath
	if target == "" {
		target = file.Path
	}
	out, err := c.runner.Run(ctx, filepath.Dir(target), "npm", "audit", "--json")
	if len(bytes.TrimSpace(out)) == 0 {
		if err != nil {
			c.logger.Debug("npm audit failed", map[string]interface{}{"file": file.Path, "error": err.Error()})
		}
		return nil, true
	}
	findings, perr := parseNPMAudit(file.Path, out)
	if perr != nil {
		c.logger.Debug("npm audit output not parsed", map[string]interface{}{"file": file.Path, "error": perr.Error()})
		return nil, true
	}
	return findings, true
}

type npmAuditReport struct {
	// npm 6 and earlier.
	Advisories map[string]npmAdvisory `json:"advisories"`
	// npm 7 and later.
	Vulnerabilities map[string]npmVulnerability `json:"vulnerabilities"`
}

type npmAdvisory struct {
	ModuleName     string   `json:"module_name"`
	Severity       string   `json:"severity"`
	Title          string   `json:"title"`
	CVEs           []string `json:"cves"`
	Recommendation string   `json:"recommendation"`
	URL            string   `json:"url"`
	Findings       []struct {
		Version string `json:"version"`
	} `json:"findings"`
}

type npmVulnerability struct {
	Name     string            `json:"name"`
	Severity string            `json:"severity"`
	Range    string            `json:"range"`
	Via      []json.RawMessage `json:"via"`
}

type npmVia struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

func parseNPMAudit(file string, out []byte) ([]domain.Finding, error) {
	var report npmAuditReport
	if err := json.Unmarshal(out, &report); err != nil {
		return nil, err
	}
	var findings []domain.Finding

	ids := make([]string, 0, len(report.Advisories))
	for id := range report.Advisories {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		adv := report.Advisories[id]
		ref := "npm-" + id
		if len(adv.CVEs) > 0 {
			ref = adv.CVEs[0]
		}
		remediation := adv.Recommendation
		if remediation == "" {
			remediation = "Update package"
		}
		var version string
		if len(adv.Findings) > 0 {
			version = adv.Findings[0].Version
		}
		findings = append(findings, domain.Finding{
			Type:        domain.FindingDependency,
			Severity:    npmSeverity(adv.Severity),
			File:        file,
			Title:       adv.Title,
			Remediation: remediation,
			RuleID:      ref,
			Package:     adv.ModuleName,
			Version:     version,
			Advisory:    ref,
		})
	}

	names := make([]string, 0, len(report.Vulnerabilities))
	for name := range report.Vulnerabilities {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		vuln := report.Vulnerabilities[name]
		if vuln.Name == "" {
			vuln.Name = name
		}
		title, ref := "Vulnerable dependency "+vuln.Name, "npm-"+vuln.Name
		for _, raw := range vuln.Via {
			var via npmVia
			if json.Unmarshal(raw, &via) == nil && via.Title != "" {
				title = via.Title
				if via.URL != "" {
					ref = via.URL[strings.LastIndex(via.URL, "/")+1:]
				}
				break
			}
		}
		findings = append(findings, domain.Finding{
			Type:        domain.FindingDependency,
			Severity:    npmSeverity(vuln.Severity),
			File:        file,
			Title:       title,
			Remediation: "Run npm audit fix or update " + vuln.Name,
			RuleID:      ref,
			Package:     vuln.Name,
			Version:     vuln.Range,
			Advisory:    ref,
		})
	}
	return findings, nil
}

func npmSeverity(value string) domain.Severity {
	if s, ok := domain.ParseSeverity(value); ok {
		return s
	}
	return domain.SeverityMedium
}
