package dependency

import (
	"regexp"
	"strings"

	"golang.org/x/mod/semver"
)

var versionRe = regexp.MustCompile(`\d+(\.\d+){0,2}`)

// canonical extracts the first dotted version from a version or range
// expression ("^0.10.30", ">=2.0,<3", "v1.2.3") and returns it in semver
// form. It returns "" when nothing usable is found.
func canonical(spec string) string {
	m := versionRe.FindString(spec)
	if m == "" {
		return ""
	}
	v := "v" + m
	if !semver.IsValid(v) {
		return ""
	}
	return v
}

// below reports whether the declared version is lower than fixed.
// Unparseable input is never reported.
func below(declared, fixed string) bool {
	v, f := canonical(declared), canonical(fixed)
	if v == "" || f == "" {
		return false
	}
	return semver.Compare(v, f) < 0
}

// displayVersion trims the semver "v" for ecosystems that do not use it.
func displayVersion(spec string) string {
	return strings.TrimPrefix(canonical(spec), "v")
}

// lineOf returns the 1-based line of the first line containing needle, or 0.
func lineOf(lines []string, needle string) int {
	for i, l := range lines {
		if strings.Contains(l, needle) {
			return i + 1
		}
	}
	return 0
}
