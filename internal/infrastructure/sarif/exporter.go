// Package sarif writes findings as a SARIF 2.1.0 log for code-scanning UIs.
package sarif

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dbankscard/hookguard/internal/domain"
	"github.com/dbankscard/hookguard/internal/pkg/filesystem"
)

const (
	Version = "2.1.0"
	Schema  = "https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json"
)

type Log struct {
	Version string `json:"version"`
	Schema  string `json:"$schema"`
	Runs    []Run  `json:"runs"`
}

type Run struct {
	Tool    Tool     `json:"tool"`
	Results []Result `json:"results"`
}

type Tool struct {
	Driver Driver `json:"driver"`
}

type Driver struct {
	Name           string `json:"name"`
	Version        string `json:"version"`
	InformationURI string `json:"informationUri,omitempty"`
	Rules          []Rule `json:"rules,omitempty"`
}

type Rule struct {
	ID               string            `json:"id"`
	ShortDescription Message           `json:"shortDescription"`
	Help             *Message          `json:"help,omitempty"`
	Properties       map[string]string `json:"properties,omitempty"`
}

type Result struct {
	RuleID    string     `json:"ruleId"`
	Message   Message    `json:"message"`
	Level     string     `json:"level"` // error, warning, note
	Locations []Location `json:"locations"`
}

type Message struct {
	Text string `json:"text"`
}

type Location struct {
	PhysicalLocation PhysicalLocation `json:"physicalLocation"`
}

type PhysicalLocation struct {
	ArtifactLocation ArtifactLocation `json:"artifactLocation"`
	Region           Region           `json:"region"`
}

type ArtifactLocation struct {
	URI string `json:"uri"`
}

type Region struct {
	StartLine int `json:"startLine"`
}

// Build converts findings into a single-run log. Rules are listed once per
// rule id, sorted.
func Build(findings []domain.Finding, toolName, toolVersion string) Log {
	results := make([]Result, 0, len(findings))
	rules := map[string]Rule{}
	for _, f := range findings {
		uri := toURI(f.File)
		if uri == "" {
			uri = "UNKNOWN"
		}
		start := f.Line
		if start <= 0 {
			start = 1
		}
		ruleID := f.RuleID
		if ruleID == "" {
			ruleID = string(f.Type)
		}
		text := f.Title
		if f.Evidence != "" {
			text += ": " + f.Evidence
		}
		results = append(results, Result{
			RuleID:  ruleID,
			Level:   sevToLevel(f.Severity),
			Message: Message{Text: strings.TrimSpace(text)},
			Locations: []Location{{
				PhysicalLocation: PhysicalLocation{
					ArtifactLocation: ArtifactLocation{URI: uri},
					Region:           Region{StartLine: start},
				},
			}},
		})
		if _, ok := rules[ruleID]; !ok {
			rule := Rule{ID: ruleID, ShortDescription: Message{Text: f.Title}}
			if f.Remediation != "" {
				rule.Help = &Message{Text: f.Remediation}
			}
			props := map[string]string{"type": string(f.Type), "severity": string(f.Severity)}
			if f.CWE != "" {
				props["cwe"] = f.CWE
			}
			rule.Properties = props
			rules[ruleID] = rule
		}
	}

	ids := make([]string, 0, len(rules))
	for id := range rules {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	driverRules := make([]Rule, 0, len(ids))
	for _, id := range ids {
		driverRules = append(driverRules, rules[id])
	}

	return Log{
		Version: Version,
		Schema:  Schema,
		Runs: []Run{{
			Tool:    Tool{Driver: Driver{Name: toolName, Version: toolVersion, Rules: driverRules}},
			Results: results,
		}},
	}
}

// Write builds the log and atomically replaces path with it.
func Write(path string, findings []domain.Finding, toolName, toolVersion string) error {
	data, err := json.MarshalIndent(Build(findings, toolName, toolVersion), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal sarif: %w", err)
	}
	if err := filesystem.WriteFileAtomic(path, data, domain.StateFilePermissions); err != nil {
		return fmt.Errorf("write sarif: %w", err)
	}
	return nil
}

func sevToLevel(s domain.Severity) string {
	switch s {
	case domain.SeverityCritical, domain.SeverityHigh:
		return "error"
	case domain.SeverityMedium:
		return "warning"
	default:
		return "note"
	}
}

func toURI(p string) string {
	p = strings.TrimSpace(p)
	p = filepath.ToSlash(p)
	for strings.HasPrefix(p, "../") {
		p = strings.TrimPrefix(p, "../")
	}
	return strings.TrimPrefix(p, "./")
}
