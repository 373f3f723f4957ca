package commands

// Environment variables read at startup.
const (
	EnvEnvironment = "ENVIRONMENT"
	EnvCI          = "CI"
	EnvUser        = "USER"
	EnvStateDir    = "HOOKGUARD_STATE_DIR"
)

// Listing defaults
const (
	DefaultAuditLimit       = 20
	DefaultAuditSearchLimit = 50
)

// Error messages
const (
	ErrQueryRequired    = "--query required"
	ErrCommandRequired  = "a command is required"
	ErrUnknownCategory  = "unknown rule category %q"
	ErrInvalidAuditSize = "--limit must be >= 0"
)

// Messages
const (
	MsgNoAuditEntries = "No audit entries recorded yet."
	MsgNoRules        = "No rules loaded."
)
