package domain

import (
	"io/fs"
	"strconv"
)

// FindingType classifies what a finding is about.
type FindingType string

const (
	FindingPermission    FindingType = "permission"
	FindingSecret        FindingType = "secret"
	FindingVulnerability FindingType = "vulnerability"
	FindingDependency    FindingType = "dependency"
)

// Finding is a single detected issue. Findings are created by scanners and
// never mutated afterwards. Evidence is always redacted: secret values are
// masked and source excerpts have their string literals masked.
type Finding struct {
	Type        FindingType `json:"type"`
	Severity    Severity    `json:"severity"`
	File        string      `json:"file"`
	Line        int         `json:"line,omitempty"`
	Title       string      `json:"title"`
	Evidence    string      `json:"evidence,omitempty"`
	Remediation string      `json:"remediation"`
	RuleID      string      `json:"rule_id"`
	CWE         string      `json:"cwe,omitempty"`
	Package     string      `json:"package,omitempty"`
	Version     string      `json:"version,omitempty"`
	Advisory    string      `json:"advisory,omitempty"`
}

// Location renders file:line, using "?" when the line is unknown.
func (f Finding) Location() string {
	if f.Line <= 0 {
		return f.File + ":?"
	}
	return f.File + ":" + strconv.Itoa(f.Line)
}

// SourceFile is one scan target as handed over by the caller.
type SourceFile struct {
	// Path is the display path, relative to the scan root where possible.
	Path    string
	AbsPath string
	Content []byte
	Mode    fs.FileMode
	HasMode bool
}
