package dependency

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbankscard/hookguard/assets"
	"github.com/dbankscard/hookguard/internal/domain"
	"github.com/dbankscard/hookguard/internal/infrastructure/rules"
	"github.com/dbankscard/hookguard/internal/pkg/logger"
)

type fakeRunner struct {
	available bool
	out       []byte
	err       error
	calls     [][]string
	dirs      []string
}

func (f *fakeRunner) Available(string) bool { return f.available }

func (f *fakeRunner) Run(_ context.Context, dir string, name string, args ...string) ([]byte, error) {
	f.dirs = append(f.dirs, dir)
	f.calls = append(f.calls, append([]string{name}, args...))
	return f.out, f.err
}

func newChecker(t *testing.T, runner *fakeRunner) *Checker {
	t.Helper()
	store, err := rules.New(assets.DefaultRulesYAML, domain.Config{}, logger.NewNop())
	require.NoError(t, err)
	return NewChecker(store, runner, logger.NewNop())
}

func manifest(path, content string) domain.SourceFile {
	return domain.SourceFile{Path: path, Content: []byte(content)}
}

type summary struct {
	Package  string
	Version  string
	Severity domain.Severity
	Line     int
}

func summarize(findings []domain.Finding) []summary {
	var out []summary
	for _, f := range findings {
		out = append(out, summary{f.Package, f.Version, f.Severity, f.Line})
	}
	return out
}

func TestRequirementsTxt(t *testing.T) {
	c := newChecker(t, &fakeRunner{})
	content := `# pinned
Django==3.2.0
requests>=2.20.0
pillow
PyYAML==5.4.1
flask==2.0.0  # not tracked
-r base.txt
`
	findings := c.Check(context.Background(), manifest("requirements.txt", content))
	assert.Equal(t, []summary{
		{"django", "3.2.0", domain.SeverityHigh, 2},
		{"requests", "2.20.0", domain.SeverityMedium, 3},
	}, summarize(findings))
	for _, f := range findings {
		assert.Equal(t, domain.FindingDependency, f.Type)
		assert.NotEmpty(t, f.Advisory)
		assert.Contains(t, f.Remediation, f.Package)
	}
	assert.Equal(t, "CVE-2023-23969", findings[0].Advisory)
}

func TestPyproject(t *testing.T) {
	c := newChecker(t, &fakeRunner{})
	content := `[project]
name = "svc"
dependencies = [
  "requests>=2.25.0",
  "django~=4.2",
]

[tool.poetry.dependencies]
python = "^3.10"
pillow = { version = "^8.4.0" }
`
	findings := c.Check(context.Background(), manifest("svc/pyproject.toml", content))
	assert.Equal(t, []summary{
		{"requests", "2.25.0", domain.SeverityMedium, 4},
		{"pillow", "8.4.0", domain.SeverityHigh, 10},
	}, summarize(findings))
}

func TestGoMod(t *testing.T) {
	c := newChecker(t, &fakeRunner{})
	content := `module example.com/app

go 1.21

require (
	golang.org/x/net v0.10.0
	golang.org/x/crypto v0.17.0
	github.com/gin-gonic/gin v1.9.0 // indirect
)
`
	findings := c.Check(context.Background(), manifest("go.mod", content))
	assert.Equal(t, []summary{
		{"golang.org/x/net", "v0.10.0", domain.SeverityHigh, 6},
		{"github.com/gin-gonic/gin", "v1.9.0", domain.SeverityMedium, 8},
	}, summarize(findings))
}

func TestCargoToml(t *testing.T) {
	c := newChecker(t, &fakeRunner{})
	content := `[package]
name = "app"
version = "0.1.0"

[dependencies]
openssl = "0.10.30"
hyper = { version = "0.14.20", features = ["full"] }
smallvec = "1.4"

[dev-dependencies]
time = "0.1.43"
`
	findings := c.Check(context.Background(), manifest("Cargo.toml", content))
	assert.Equal(t, []summary{
		{"openssl", "0.10.30", domain.SeverityMedium, 6},
		{"smallvec", "1.4", domain.SeverityCritical, 8},
		{"time", "0.1.43", domain.SeverityMedium, 11},
	}, summarize(findings))
}

func TestPomXML(t *testing.T) {
	c := newChecker(t, &fakeRunner{})
	content := `<project xmlns="http://maven.apache.org/POM/4.0.0">
  <properties>
    <log4j.version>2.14.1</log4j.version>
  </properties>
  <dependencies>
    <dependency>
      <groupId>org.apache.logging.log4j</groupId>
      <artifactId>log4j-core</artifactId>
      <version>${log4j.version}</version>
    </dependency>
    <dependency>
      <groupId>com.fasterxml.jackson.core</groupId>
      <artifactId>jackson-databind</artifactId>
      <version>2.13.4</version>
    </dependency>
  </dependencies>
</project>
`
	findings := c.Check(context.Background(), manifest("pom.xml", content))
	require.Len(t, findings, 1)
	assert.Equal(t, "org.apache.logging.log4j:log4j-core", findings[0].Package)
	assert.Equal(t, "2.14.1", findings[0].Version)
	assert.Equal(t, domain.SeverityCritical, findings[0].Severity)
	assert.Equal(t, 8, findings[0].Line)
}

const packageJSONContent = `{
  "name": "web",
  "dependencies": {
    "lodash": "^4.17.15",
    "axios": "0.21.4"
  },
  "devDependencies": {
    "minimist": "1.2.5"
  }
}
`

func TestPackageJSONFallsBackToTableWithoutNPM(t *testing.T) {
	runner := &fakeRunner{available: false}
	c := newChecker(t, runner)
	findings := c.Check(context.Background(), manifest("web/package.json", packageJSONContent))
	assert.Equal(t, []summary{
		{"lodash", "4.17.15", domain.SeverityHigh, 4},
		{"minimist", "1.2.5", domain.SeverityCritical, 8},
	}, summarize(findings))
	assert.Empty(t, runner.calls)
}

func TestNPMAuditModernFormat(t *testing.T) {
	runner := &fakeRunner{
		available: true,
		err:       errors.New("exit status 1"),
		out: []byte(`{
  "auditReportVersion": 2,
  "vulnerabilities": {
    "minimist": {
      "name": "minimist",
      "severity": "critical",
      "range": "<1.2.6",
      "via": [{"source": 1179, "title": "Prototype Pollution in minimist", "url": "https://github.com/advisories/GHSA-xvch-5gv4-984h", "severity": "critical"}]
    },
    "mkdirp": {
      "name": "mkdirp",
      "severity": "moderate",
      "range": "0.4.1 - 0.5.1",
      "via": ["minimist"]
    }
  }
}`),
	}
	c := newChecker(t, runner)
	file := domain.SourceFile{Path: "web/package.json", AbsPath: "/repo/web/package.json", Content: []byte(packageJSONContent)}
	findings := c.Check(context.Background(), file)

	require.Len(t, findings, 2)
	assert.Equal(t, "minimist", findings[0].Package)
	assert.Equal(t, domain.SeverityCritical, findings[0].Severity)
	assert.Equal(t, "Prototype Pollution in minimist", findings[0].Title)
	assert.Equal(t, "GHSA-xvch-5gv4-984h", findings[0].Advisory)
	assert.Equal(t, "mkdirp", findings[1].Package)
	assert.Equal(t, domain.SeverityMedium, findings[1].Severity)

	require.Len(t, runner.calls, 1)
	assert.Equal(t, []string{"npm", "audit", "--json"}, runner.calls[0])
	assert.Equal(t, "/repo/web", runner.dirs[0])
}

func TestNPMAuditLegacyFormat(t *testing.T) {
	runner := &fakeRunner{
		available: true,
		out: []byte(`{
  "advisories": {
    "1065": {
      "module_name": "lodash",
      "severity": "high",
      "title": "Prototype Pollution",
      "cves": ["CVE-2019-10744"],
      "recommendation": "Update to version 4.17.12 or later",
      "findings": [{"version": "4.17.11"}]
    }
  }
}`),
	}
	c := newChecker(t, runner)
	findings := c.Check(context.Background(), manifest("package.json", packageJSONContent))
	require.Len(t, findings, 1)
	f := findings[0]
	assert.Equal(t, "lodash", f.Package)
	assert.Equal(t, "4.17.11", f.Version)
	assert.Equal(t, "CVE-2019-10744", f.Advisory)
	assert.Equal(t, "Update to version 4.17.12 or later", f.Remediation)
}

func TestNPMAuditFailureYieldsNoFindings(t *testing.T) {
	for name, runner := range map[string]*fakeRunner{
		"no output":    {available: true, err: errors.New("ENOLOCK")},
		"invalid json": {available: true, out: []byte("npm ERR! something")},
	} {
		t.Run(name, func(t *testing.T) {
			c := newChecker(t, runner)
			assert.Empty(t, c.Check(context.Background(), manifest("package.json", packageJSONContent)))
		})
	}
}

func TestUnknownOrMalformedManifests(t *testing.T) {
	c := newChecker(t, &fakeRunner{})
	assert.Empty(t, c.Check(context.Background(), manifest("src/main.py", "import os")))
	assert.Empty(t, c.Check(context.Background(), manifest("go.mod", "module (")))
	assert.Empty(t, c.Check(context.Background(), manifest("Cargo.toml", "[dependencies\n")))
	assert.Empty(t, c.Check(context.Background(), manifest("pom.xml", "<project><dependencies>")))
}

func TestEcosystem(t *testing.T) {
	tests := map[string]string{
		"requirements.txt":       EcosystemPython,
		"requirements-dev.txt":   EcosystemPython,
		"svc/pyproject.toml":     EcosystemPython,
		"web/package.json":       EcosystemNPM,
		"go.mod":                 EcosystemGo,
		"crates/core/Cargo.toml": EcosystemCargo,
		"backend/pom.xml":        EcosystemMaven,
	}
	for p, want := range tests {
		got, ok := Ecosystem(p)
		assert.True(t, ok, p)
		assert.Equal(t, want, got, p)
	}
	assert.False(t, IsManifest("notes.txt"))
	assert.False(t, IsManifest("package-lock.json"))
}

func TestBelow(t *testing.T) {
	tests := []struct {
		declared, fixed string
		want            bool
	}{
		{"3.2.0", "3.2.18", true},
		{"3.2.18", "3.2.18", false},
		{"^0.10.30", "0.10.55", true},
		{">=2.0,<3", "2.31.0", true},
		{"v0.17.0", "0.17.0", false},
		{"1.4", "1.6.1", true},
		{"5.4.1", "5.4", false},
		{"", "1.0.0", false},
		{"latest", "1.0.0", false},
		{"*", "1.0.0", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, below(tt.declared, tt.fixed), "%s < %s", tt.declared, tt.fixed)
	}
}
