package domain

import "time"

// CooldownRecord is one entry of the automation history. Only records with
// Triggered set start a reviewer's cooldown window; the rest keep the
// "last considered" trail.
type CooldownRecord struct {
	Timestamp time.Time      `json:"timestamp"`
	Reviewer  string         `json:"agent"`
	Reason    string         `json:"reason"`
	Triggered bool           `json:"triggered"`
	Context   HistoryContext `json:"context"`
}

// HistoryContext pins a record to the repository state it was made in.
type HistoryContext struct {
	Branch string `json:"branch"`
	Commit string `json:"commit"`
}

// Facets are the boolean traits of a change set.
type Facets struct {
	Code           bool `json:"code"`
	Tests          bool `json:"tests"`
	Docs           bool `json:"docs"`
	Configuration  bool `json:"configuration"`
	SecurityChange bool `json:"security_sensitive"`
	API            bool `json:"api_surface"`
	Database       bool `json:"database"`
}

// Count returns how many of the primary facets are set. Database is a
// secondary signal and is not counted.
func (f Facets) Count() int {
	n := 0
	for _, v := range []bool{f.Code, f.Tests, f.Docs, f.Configuration, f.SecurityChange, f.API} {
		if v {
			n++
		}
	}
	return n
}

// Priority orders reviewer recommendations.
type Priority string

const (
	PriorityTop    Priority = "top"
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Rank orders priorities, higher first.
func (p Priority) Rank() int {
	switch p {
	case PriorityTop:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	default:
		return 1
	}
}

// Recommendation is a reviewer suggested for a change set.
type Recommendation struct {
	Reviewer   string     `json:"agent"`
	Reason     string     `json:"reason"`
	Priority   Priority   `json:"priority"`
	Triggered  bool       `json:"triggered"`
	SkipReason string     `json:"skip_reason,omitempty"`
	Command    string     `json:"command,omitempty"`
	LastRun    *time.Time `json:"last_triggered,omitempty"`
}

// ChangedFile is one path of a change set with optional line statistics.
type ChangedFile struct {
	Path    string `json:"path"`
	Added   int    `json:"added"`
	Deleted int    `json:"deleted"`
}

// ChangeSet is the input to the trigger selector.
type ChangeSet struct {
	Files  []ChangedFile `json:"files"`
	Branch string        `json:"branch"`
	Commit CommitInfo    `json:"last_commit"`
}

// Paths lists the changed paths.
func (c ChangeSet) Paths() []string {
	paths := make([]string, 0, len(c.Files))
	for _, f := range c.Files {
		paths = append(paths, f.Path)
	}
	return paths
}

// LinesChanged sums additions and deletions.
func (c ChangeSet) LinesChanged() int {
	total := 0
	for _, f := range c.Files {
		total += f.Added + f.Deleted
	}
	return total
}

// CommitInfo describes the most recent commit.
type CommitInfo struct {
	Hash    string `json:"hash"`
	Author  string `json:"author"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
}

// ShortHash is the first eight characters of the hash.
func (c CommitInfo) ShortHash() string {
	if len(c.Hash) > 8 {
		return c.Hash[:8]
	}
	return c.Hash
}

// TestStatus summarises a JUnit style test report.
type TestStatus struct {
	Status string `json:"status"`
	Passed int    `json:"passed"`
	Failed int    `json:"failed"`
	Total  int    `json:"total"`
}

// TriggerAnalysis is the result of one trigger selection run.
type TriggerAnalysis struct {
	Timestamp       time.Time        `json:"timestamp"`
	ChangedFiles    []string         `json:"changed_files"`
	LinesChanged    int              `json:"lines_changed"`
	Branch          string           `json:"branch"`
	Commit          string           `json:"commit"`
	Facets          Facets           `json:"facets"`
	TestStatus      TestStatus       `json:"test_status"`
	SecurityAlerts  int              `json:"security_alerts"`
	Recommendations []Recommendation `json:"required_agents"`
	Triggered       int              `json:"triggered"`
}
