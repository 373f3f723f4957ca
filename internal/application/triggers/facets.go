package triggers

import (
	"path"
	"regexp"
	"strings"

	"github.com/dbankscard/hookguard/internal/domain"
)

var codeExtensions = map[string]bool{
	".go": true, ".py": true, ".js": true, ".jsx": true, ".ts": true, ".tsx": true,
	".java": true, ".kt": true, ".scala": true, ".rb": true, ".rs": true, ".php": true,
	".c": true, ".h": true, ".cc": true, ".cpp": true, ".hpp": true, ".cs": true,
	".swift": true, ".m": true, ".sh": true, ".bash": true, ".sql": true, ".vue": true,
}

var docExtensions = map[string]bool{".md": true, ".rst": true, ".adoc": true, ".txt": true}

var configExtensions = map[string]bool{
	".json": true, ".yaml": true, ".yml": true, ".toml": true, ".ini": true,
	".cfg": true, ".conf": true, ".env": true, ".properties": true, ".xml": true,
}

var configNames = map[string]bool{
	"dockerfile": true, "makefile": true, "go.mod": true, "go.sum": true,
	".gitignore": true, ".dockerignore": true, ".editorconfig": true,
}

var securityKeywords = []string{
	"auth", "security", "crypto", "password", "token",
	"permission", "access", "role", "encryption",
}

var (
	apiPattern      = regexp.MustCompile(`(^|[/_.-])api([/_.-]|$)|openapi|swagger|\.proto$`)
	databasePattern = regexp.MustCompile(`migration|schema|\.sql$|(^|/)db/`)
)

// Classify derives the facets of a change set from its paths alone.
func Classify(paths []string) domain.Facets {
	var f domain.Facets
	for _, p := range paths {
		lower := strings.ToLower(path.Clean(strings.ReplaceAll(p, "\\", "/")))
		base := path.Base(lower)
		ext := path.Ext(base)

		test := isTest(lower, base)
		switch {
		case test:
			f.Tests = true
		case docExtensions[ext] || strings.HasPrefix(lower, "docs/") || strings.Contains(lower, "/docs/"):
			f.Docs = true
		case codeExtensions[ext]:
			f.Code = true
		case configExtensions[ext] || configNames[base]:
			f.Configuration = true
		}
		if containsAny(lower, securityKeywords) {
			f.SecurityChange = true
		}
		if apiPattern.MatchString(lower) {
			f.API = true
		}
		if databasePattern.MatchString(lower) {
			f.Database = true
		}
	}
	return f
}

func isTest(lower, base string) bool {
	if strings.Contains(base, ".spec.") || strings.Contains(base, ".test.") || strings.HasSuffix(base, "_test.go") {
		return true
	}
	if strings.HasPrefix(base, "test_") || strings.HasSuffix(strings.TrimSuffix(base, path.Ext(base)), "_test") {
		return true
	}
	for _, seg := range strings.Split(path.Dir(lower), "/") {
		switch seg {
		case "test", "tests", "__tests__", "spec", "testdata":
			return true
		}
	}
	return false
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
