package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrConfigInvalid marks a malformed or invalid configuration file.
	ErrConfigInvalid = errors.New("invalid configuration")
	// ErrToolUnavailable marks a missing or failing auxiliary tool.
	ErrToolUnavailable = errors.New("external tool unavailable")
	// ErrBinaryFile marks content skipped by the binary probe.
	ErrBinaryFile = errors.New("binary file")
)

// PolicyViolation is the only condition that yields a non-zero exit.
type PolicyViolation struct {
	Reason string
	Code   int
}

func (e *PolicyViolation) Error() string {
	return fmt.Sprintf("policy violation: %s", e.Reason)
}

// ExitCode returns the process exit code, at least 1.
func (e *PolicyViolation) ExitCode() int {
	if e.Code <= 0 {
		return 1
	}
	return e.Code
}

// NewPolicyViolation builds a violation with exit code 1.
func NewPolicyViolation(format string, args ...interface{}) *PolicyViolation {
	return &PolicyViolation{Reason: fmt.Sprintf(format, args...), Code: 1}
}
