package dependency

import (
	"regexp"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

var requirementName = regexp.MustCompile(`^([A-Za-z0-9][A-Za-z0-9._-]*)(\[[^\]]*\])?`)

// parseRequirements reads a pip requirements file. Options (-r, -e, --hash)
// and comments are ignored.
func parseRequirements(content []byte) []declared {
	var deps []declared
	for i, raw := range splitLines(content) {
		line := strings.TrimSpace(raw)
		if idx := strings.Index(line, " #"); idx >= 0 {
			line = strings.TrimSpace(line[:idx])
		}
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "-") {
			continue
		}
		if dep, ok := parseRequirement(line); ok {
			dep.Line = i + 1
			deps = append(deps, dep)
		}
	}
	return deps
}

// parseRequirement splits a PEP 508 style requirement into name and version spec.
func parseRequirement(spec string) (declared, bool) {
	spec = strings.TrimSpace(spec)
	m := requirementName.FindStringSubmatch(spec)
	if m == nil {
		return declared{}, false
	}
	rest := strings.TrimSpace(spec[len(m[0]):])
	if semi := strings.Index(rest, ";"); semi >= 0 {
		rest = strings.TrimSpace(rest[:semi])
	}
	if strings.HasPrefix(rest, "@") {
		rest = ""
	}
	rest = strings.Trim(rest, "()")
	return declared{Name: m[1], Version: rest}, true
}

type pyprojectFile struct {
	Project struct {
		Dependencies         []string            `toml:"dependencies"`
		OptionalDependencies map[string][]string `toml:"optional-dependencies"`
	} `toml:"project"`
	Tool struct {
		Poetry struct {
			Dependencies    map[string]interface{} `toml:"dependencies"`
			DevDependencies map[string]interface{} `toml:"dev-dependencies"`
		} `toml:"poetry"`
	} `toml:"tool"`
}

// parsePyproject reads PEP 621 and Poetry dependency tables.
func parsePyproject(content []byte) ([]declared, error) {
	var doc pyprojectFile
	if _, err := toml.Decode(string(content), &doc); err != nil {
		return nil, err
	}
	lines := splitLines(content)

	var deps []declared
	specs := append([]string(nil), doc.Project.Dependencies...)
	groups := make([]string, 0, len(doc.Project.OptionalDependencies))
	for g := range doc.Project.OptionalDependencies {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	for _, g := range groups {
		specs = append(specs, doc.Project.OptionalDependencies[g]...)
	}
	for _, spec := range specs {
		if dep, ok := parseRequirement(spec); ok {
			dep.Line = lineOf(lines, `"`+spec)
			deps = append(deps, dep)
		}
	}

	for _, table := range []map[string]interface{}{doc.Tool.Poetry.Dependencies, doc.Tool.Poetry.DevDependencies} {
		deps = append(deps, tableDeps(table, lines)...)
	}
	return deps, nil
}

// tableDeps reads a TOML table of name = "version" or name = { version = "..." }.
func tableDeps(table map[string]interface{}, lines []string) []declared {
	names := make([]string, 0, len(table))
	for name := range table {
		names = append(names, name)
	}
	sort.Strings(names)

	var deps []declared
	for _, name := range names {
		var version string
		switch v := table[name].(type) {
		case string:
			version = v
		case map[string]interface{}:
			version, _ = v["version"].(string)
		}
		deps = append(deps, declared{Name: name, Version: version, Line: lineOfKey(lines, name)})
	}
	return deps
}

// lineOfKey finds the line assigning a TOML key.
func lineOfKey(lines []string, key string) int {
	for i, l := range lines {
		trimmed := strings.TrimSpace(l)
		if !strings.HasPrefix(trimmed, key) {
			continue
		}
		rest := strings.TrimSpace(trimmed[len(key):])
		if strings.HasPrefix(rest, "=") {
			return i + 1
		}
	}
	return 0
}

func splitLines(content []byte) []string {
	lines := strings.Split(string(content), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
