package domain

import "time"

// File permissions constants
const (
	// DirectoryPermissions is the default permission for directories (rwxr-xr-x)
	DirectoryPermissions = 0o755
	// StateFilePermissions is the permission for state files (rw-r--r--)
	StateFilePermissions = 0o644
)

// State file names, relative to the state directory.
const (
	DefaultStateDir        = ".claude/hooks"
	StatisticsFile         = "approval_stats.json"
	AuditLogFile           = "command_audit.log"
	AuditDBFile            = "command_audit.db"
	AutomationHistoryFile  = "automation_history.json"
	AutomationOutputFile   = "automation_output.json"
	PendingCommandsFile    = "pending_commands.txt"
	DefaultReportFile      = ".claude/security-report.json"
	DefaultPerformanceFile = ".claude/metrics/performance.json"
)

// Timeout and duration constants
const (
	// DefaultGitTimeout bounds git queries
	DefaultGitTimeout = 5 * time.Second
	// DefaultAuditToolTimeout bounds dependency audit tools
	DefaultAuditToolTimeout = 2 * time.Minute
	// DefaultCooldown is the minimum interval between two triggers of one reviewer
	DefaultCooldown = 30 * time.Minute
	// HistoryRetention is how long automation history is kept
	HistoryRetention = 24 * time.Hour
)

// Scanner limits
const (
	// BinaryProbeSize is how many leading bytes are checked for a NUL byte
	BinaryProbeSize = 8192
	// DefaultHighFindingsShown caps the high findings surfaced in a report
	DefaultHighFindingsShown = 5
	// CriticalFindingsPrinted caps critical findings in the text summary
	CriticalFindingsPrinted = 3
	// DefaultFailScore is the score below which a scan is a hard failure
	DefaultFailScore = 50
	// RedactionVisible is how many characters redaction keeps on each side
	RedactionVisible = 3
	// RedactionFullMaskMax is the length up to which values are fully masked
	RedactionFullMaskMax = 8
)

// Time formats
const (
	// TimestampFormat is the standard timestamp format
	TimestampFormat = time.RFC3339
)
