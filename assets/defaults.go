package assets

import (
	_ "embed"
)

// DefaultRulesYAML contains the embedded built-in rule set.
//
//go:embed defaults/rules.yaml
var DefaultRulesYAML []byte

// DefaultApprovalYAML contains the embedded command approval policy.
//
//go:embed defaults/approval.yaml
var DefaultApprovalYAML []byte

// DefaultSecurityYAML contains the embedded security scan policy.
//
//go:embed defaults/security.yaml
var DefaultSecurityYAML []byte

// DefaultAutomationYAML contains the embedded reviewer automation policy.
//
//go:embed defaults/automation.yaml
var DefaultAutomationYAML []byte
