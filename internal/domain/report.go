package domain

import "time"

// StatusBand is the textual grade derived from a score.
type StatusBand string

const (
	BandExcellent StatusBand = "excellent"
	BandGood      StatusBand = "good"
	BandPoor      StatusBand = "poor"
	BandCritical  StatusBand = "critical"
)

// ScanReport aggregates one scan invocation. It is derived data and is
// recomputed on every run.
type ScanReport struct {
	RunID            string           `json:"run_id"`
	FilesScanned     int              `json:"files_scanned"`
	FindingsCount    int              `json:"vulnerabilities_found"`
	Findings         []Finding        `json:"findings"`
	CountsBySeverity map[Severity]int `json:"by_severity"`
	Score            int              `json:"security_score"`
	Status           StatusBand       `json:"status"`
	CriticalFindings []Finding        `json:"critical_vulnerabilities"`
	HighFindings     []Finding        `json:"high_vulnerabilities"`
	Summary          string           `json:"summary"`
	HardFailure      bool             `json:"hard_failure"`
	FailureReasons   []string         `json:"failure_reasons,omitempty"`
}

// PersistedReport is the on-disk form of a scan: the report plus raw findings.
type PersistedReport struct {
	Timestamp       time.Time  `json:"timestamp"`
	Report          ScanReport `json:"report"`
	Vulnerabilities []Finding  `json:"vulnerabilities"`
}
