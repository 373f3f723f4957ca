package domain

import "strings"

// Environment names recognised by the production write guard.
const (
	EnvProduction  = "production"
	EnvDevelopment = "development"
)

// ExecContext describes where a decision is being made.
type ExecContext struct {
	Environment string `json:"environment"`
	CI          bool   `json:"ci"`
	User        string `json:"user"`
	Cwd         string `json:"cwd"`
}

// IsProduction reports whether the production write guard applies.
func (c ExecContext) IsProduction() bool {
	return strings.EqualFold(c.Environment, EnvProduction)
}

// Mode names the context as production, ci or interactive.
func (c ExecContext) Mode() string {
	switch {
	case c.IsProduction():
		return "production"
	case c.CI:
		return "ci"
	default:
		return "interactive"
	}
}
