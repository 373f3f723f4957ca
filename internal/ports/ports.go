// Package ports defines the interfaces (ports) for the hexagonal architecture.
//
// This package establishes the contract between the decision core and external
// adapters (infrastructure). The approval, scan and trigger services depend only
// on these abstractions; files, git, sqlite and subprocesses live behind them.
//
// Key architectural concepts:
//   - Ports: Interfaces defined here (e.g., AuditSink, ChangeSource)
//   - Adapters: Concrete implementations in the infrastructure layer
//   - Dependency inversion: Application depends on abstractions, not implementations
package ports

import (
	"context"
	"time"

	"github.com/dbankscard/hookguard/internal/domain"
)

// ConfigProvider loads the merged policy configuration.
// Implementations never fail on a missing or malformed file; they fall back to defaults.
type ConfigProvider interface {
	Load(context.Context) (domain.Config, error)
}

// ConfigSources reports which file each policy part came from.
type ConfigSources interface {
	Sources() map[string]string
}

// CommandResolver applies the command precedence list to a single command line.
type CommandResolver interface {
	ResolveCommand(command string, execCtx domain.ExecContext) Resolution
	AllRules(category domain.RuleCategory) []domain.Rule
}

// Resolution is the outcome of walking the precedence list.
type Resolution struct {
	Verdict domain.Verdict
	Rule    *domain.Rule
	Step    string
	Reason  string
}

// AuditSink is the append-only record of approval decisions.
type AuditSink interface {
	Append(entry domain.AuditEntry) error
	Entries(limit int, search string) ([]domain.AuditEntry, error)
	ExportJSON(dest string) error
	Path() string
}

// StatisticsStore persists the approval counters between invocations.
// Update performs a read-merge-write and replaces the file atomically.
type StatisticsStore interface {
	Load() (domain.Statistics, error)
	Update(func(*domain.Statistics)) (domain.Statistics, error)
	Path() string
}

// CooldownStore persists automation history.
type CooldownStore interface {
	Load(now time.Time) ([]domain.CooldownRecord, error)
	Save(records []domain.CooldownRecord) error
}

// ReportWriter persists scan and trigger output.
type ReportWriter interface {
	WriteReport(path string, report domain.PersistedReport) error
	WriteAnalysis(path string, analysis domain.TriggerAnalysis) error
	QueueCommands(path string, commands []string) error
}

// ChangeSource answers version-control questions. Failures degrade to empty results.
type ChangeSource interface {
	StagedFiles(ctx context.Context) []string
	RecentChanges(ctx context.Context) domain.ChangeSet
}

// ToolRunner runs an auxiliary tool with a bounded timeout and returns stdout.
// A non-zero exit still returns stdout alongside the error.
type ToolRunner interface {
	Run(ctx context.Context, dir string, name string, args ...string) ([]byte, error)
	Available(name string) bool
}

// FileScanner scans one file's content and never fails the caller.
// Skip reports whether a batch should leave path out entirely.
type FileScanner interface {
	Scan(file domain.SourceFile) []domain.Finding
	Skip(path string) bool
}

// DependencyChecker inspects a manifest for known-vulnerable versions.
type DependencyChecker interface {
	Check(ctx context.Context, file domain.SourceFile) []domain.Finding
	Handles(path string) bool
}

// Clock abstracts time for cooldown decisions.
type Clock func() time.Time

// Logger provides structured logging abstraction for the application layer.
// Implementations can route to different backends (stdout, files, external services).
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, err error, fields map[string]interface{})
}
