package dependency

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/dbankscard/hookguard/internal/domain"
	"github.com/dbankscard/hookguard/internal/ports"
)

// Ecosystems with a manifest parser.
const (
	EcosystemPython = "python"
	EcosystemNPM    = "npm"
	EcosystemGo     = "go"
	EcosystemCargo  = "cargo"
	EcosystemMaven  = "maven"
)

// AdvisorySource provides the known-vulnerable ranges per ecosystem.
type AdvisorySource interface {
	Advisories(ecosystem string) []domain.Advisory
}

// Checker recognises manifests by file name and matches the declared
// versions against the advisory table. package.json is delegated to
// `npm audit` when npm is installed.
type Checker struct {
	advisories AdvisorySource
	runner     ports.ToolRunner
	logger     ports.Logger
}

// NewChecker wires the advisory table and the tool runner.
func NewChecker(advisories AdvisorySource, runner ports.ToolRunner, logger ports.Logger) *Checker {
	return &Checker{advisories: advisories, runner: runner, logger: logger}
}

// Ecosystem maps a manifest path to its ecosystem.
func Ecosystem(p string) (string, bool) {
	name := strings.ToLower(path.Base(p))
	switch {
	case name == "requirements.txt", strings.HasPrefix(name, "requirements") && strings.HasSuffix(name, ".txt"), name == "pyproject.toml":
		return EcosystemPython, true
	case name == "package.json":
		return EcosystemNPM, true
	case name == "go.mod":
		return EcosystemGo, true
	case name == "cargo.toml":
		return EcosystemCargo, true
	case name == "pom.xml":
		return EcosystemMaven, true
	default:
		return "", false
	}
}

// IsManifest reports whether p is a recognised dependency manifest.
func IsManifest(p string) bool {
	_, ok := Ecosystem(p)
	return ok
}

// Handles reports whether p is a manifest this checker parses.
func (c *Checker) Handles(p string) bool { return IsManifest(p) }

// Check implements ports.DependencyChecker. Parse errors and tool failures
// yield no findings: absence of a finding only means "not detected".
func (c *Checker) Check(ctx context.Context, file domain.SourceFile) []domain.Finding {
	eco, ok := Ecosystem(file.Path)
	if !ok {
		return nil
	}
	var (
		deps []declared
		err  error
	)
	switch eco {
	case EcosystemPython:
		if strings.HasSuffix(strings.ToLower(file.Path), ".toml") {
			deps, err = parsePyproject(file.Content)
		} else {
			deps = parseRequirements(file.Content)
		}
	case EcosystemNPM:
		if findings, handled := c.npmAudit(ctx, file); handled {
			return findings
		}
		deps, err = parsePackageJSON(file.Content)
	case EcosystemGo:
		deps, err = parseGoMod(file.Path, file.Content)
	case EcosystemCargo:
		deps, err = parseCargo(file.Content)
	case EcosystemMaven:
		deps, err = parsePOM(file.Content)
	}
	if err != nil {
		c.logger.Debug("manifest not parsed", map[string]interface{}{
			"file":  file.Path,
			"error": err.Error(),
		})
		return nil
	}
	return c.match(eco, file.Path, deps)
}

// declared is one dependency as written in a manifest.
type declared struct {
	Name    string
	Version string
	Line    int
}

func (c *Checker) match(eco, file string, deps []declared) []domain.Finding {
	table := c.advisories.Advisories(eco)
	var findings []domain.Finding
	for _, dep := range deps {
		for _, adv := range table {
			if !samePackage(eco, dep.Name, adv.Package) || !below(dep.Version, adv.Fixed) {
				continue
			}
			version := dep.Version
			if eco != EcosystemGo {
				version = displayVersion(dep.Version)
			}
			findings = append(findings, domain.Finding{
				Type:        domain.FindingDependency,
				Severity:    adv.Severity,
				File:        file,
				Line:        dep.Line,
				Title:       fmt.Sprintf("Vulnerable dependency %s %s (fixed in %s)", adv.Package, version, adv.Fixed),
				Remediation: fmt.Sprintf("Update %s to %s or later", adv.Package, adv.Fixed),
				RuleID:      adv.Advisory,
				Package:     adv.Package,
				Version:     version,
				Advisory:    adv.Advisory,
			})
		}
	}
	return findings
}

func samePackage(eco, name, advisory string) bool {
	switch eco {
	case EcosystemPython:
		return normalizePython(name) == normalizePython(advisory)
	case EcosystemGo, EcosystemMaven:
		return name == advisory
	default:
		return strings.EqualFold(name, advisory)
	}
}

func normalizePython(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.NewReplacer("_", "-", ".", "-").Replace(name)
}

var _ ports.DependencyChecker = (*Checker)(nil)
