package toolrunner

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/dbankscard/hookguard/internal/domain"
	"github.com/dbankscard/hookguard/internal/ports"
)

// Runner executes auxiliary tools (git, npm) on the host with a timeout.
type Runner struct {
	timeout time.Duration
}

// New builds a runner; a non-positive timeout uses the audit tool default.
func New(timeout time.Duration) *Runner {
	if timeout <= 0 {
		timeout = domain.DefaultAuditToolTimeout
	}
	return &Runner{timeout: timeout}
}

// Available reports whether name resolves on PATH.
func (r *Runner) Available(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// Run implements ports.ToolRunner. Stdout is returned even when the tool
// exits non-zero, since audit tools signal findings that way.
func (r *Runner) Run(ctx context.Context, dir string, name string, args ...string) ([]byte, error) {
	if !r.Available(name) {
		return nil, fmt.Errorf("%w: %s", domain.ErrToolUnavailable, name)
	}
	cctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(cctx, name, args...)
	if dir != "" {
		cmd.Dir = dir
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return stdout.Bytes(), fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, msg)
		}
		return stdout.Bytes(), fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
	}
	return stdout.Bytes(), nil
}

var _ ports.ToolRunner = (*Runner)(nil)
