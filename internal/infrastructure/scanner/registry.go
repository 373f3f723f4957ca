package scanner

import (
	"github.com/dbankscard/hookguard/internal/domain"
	"github.com/dbankscard/hookguard/internal/infrastructure/rules"
)

// Language names used by vulnerability rules.
const (
	LangPython     = "python"
	LangJavaScript = "javascript"
	LangJava       = "java"
	LangGo         = "go"
	LangRuby       = "ruby"
)

// Gate names the enabled_checks switch a check belongs to.
type Gate int

const (
	GateVulnerabilities Gate = iota
	GateCodePatterns
)

// Check is one vulnerability detector applied to a file of a given language.
type Check interface {
	ID() string
	Gate() Gate
	Run(file domain.SourceFile, lines []string) []domain.Finding
}

// RuleSource provides compiled vulnerability rules.
type RuleSource interface {
	Vulnerabilities() []rules.Matcher
	DangerousFunctions() []rules.Matcher
}

// Registry maps file extensions to a language and each language to its
// ordered checks.
type Registry struct {
	extensions map[string]string
	checks     map[string][]Check
}

// NewRegistry returns an empty registry with the default extension map.
func NewRegistry() *Registry {
	return &Registry{
		extensions: map[string]string{
			".py":   LangPython,
			".js":   LangJavaScript,
			".jsx":  LangJavaScript,
			".ts":   LangJavaScript,
			".tsx":  LangJavaScript,
			".mjs":  LangJavaScript,
			".cjs":  LangJavaScript,
			".java": LangJava,
			".go":   LangGo,
			".rb":   LangRuby,
		},
		checks: map[string][]Check{},
	}
}

// DefaultRegistry wires the rule store into the per-language check lists:
// code patterns first, then language rules, then the cross-language rules.
func DefaultRegistry(src RuleSource) *Registry {
	reg := NewRegistry()
	vulns := src.Vulnerabilities()
	for _, lang := range []string{LangPython, LangJavaScript, LangJava, LangGo, LangRuby} {
		for _, m := range src.DangerousFunctions() {
			if m.Rule.AppliesTo(lang) {
				reg.Register(lang, RuleCheck{Matcher: m, gate: GateCodePatterns})
			}
		}
		for _, m := range vulns {
			if languageSpecific(m.Rule, lang) {
				reg.Register(lang, RuleCheck{Matcher: m})
			}
		}
		for _, m := range vulns {
			if common(m.Rule) {
				reg.Register(lang, RuleCheck{Matcher: m})
			}
		}
	}
	return reg
}

// Register appends checks to a language.
func (r *Registry) Register(language string, checks ...Check) {
	r.checks[language] = append(r.checks[language], checks...)
}

// MapExtension routes an extension such as ".kt" to a language.
func (r *Registry) MapExtension(ext, language string) {
	r.extensions[ext] = language
}

// Language resolves the language of a path.
func (r *Registry) Language(p string) (string, bool) {
	lang, ok := r.extensions[extension(p)]
	return lang, ok
}

// Checks returns the ordered checks of a language.
func (r *Registry) Checks(language string) []Check {
	return r.checks[language]
}

func languageSpecific(rule domain.Rule, lang string) bool {
	for _, l := range rule.Languages {
		if l == lang {
			return true
		}
	}
	return false
}

func common(rule domain.Rule) bool {
	for _, l := range rule.Languages {
		if l == "*" {
			return true
		}
	}
	return false
}
