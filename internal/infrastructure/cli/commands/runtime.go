package commands

import (
	"context"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dbankscard/hookguard/internal/app"
	"github.com/dbankscard/hookguard/internal/domain"
	"github.com/dbankscard/hookguard/internal/ports"
)

// Runtime holds the global flags and builds the container on first use, so
// that flags parsed by cobra reach the adapters.
type Runtime struct {
	Env       string
	CI        bool
	StateDir  string
	ConfigDir string
	Root      string
	Logger    ports.Logger

	container *app.Container
}

// NewRuntime seeds the global flags from the environment.
func NewRuntime(logger ports.Logger) *Runtime {
	root, err := os.Getwd()
	if err != nil {
		root = "."
	}
	return &Runtime{
		Env:      os.Getenv(EnvEnvironment),
		CI:       truthy(os.Getenv(EnvCI)),
		StateDir: os.Getenv(EnvStateDir),
		Root:     root,
		Logger:   logger,
	}
}

// BindFlags registers the persistent flags on root.
func (r *Runtime) BindFlags(root *cobra.Command) {
	flags := root.PersistentFlags()
	flags.StringVar(&r.Env, "env", r.Env, "Execution environment (production enables the write guard)")
	flags.BoolVar(&r.CI, "ci", r.CI, "Unattended run: restrict reviewer triggers to the CI allow-list")
	flags.StringVar(&r.StateDir, "state-dir", r.StateDir, "State directory (default .claude/hooks)")
	flags.StringVar(&r.ConfigDir, "config-dir", r.ConfigDir, "Directory holding approval, security and automation policy files")
}

// Container builds the dependency graph once.
func (r *Runtime) Container(ctx context.Context) (*app.Container, error) {
	if r.container != nil {
		return r.container, nil
	}
	c, err := app.BuildContainer(ctx, app.Options{
		Root:      r.Root,
		StateDir:  r.StateDir,
		ConfigDir: r.ConfigDir,
		Logger:    r.Logger,
	})
	if err != nil {
		return nil, err
	}
	r.container = c
	return c, nil
}

// ExecContext describes the invoking environment for approval decisions.
func (r *Runtime) ExecContext() domain.ExecContext {
	user := os.Getenv(EnvUser)
	if user == "" {
		user = "unknown"
	}
	return domain.ExecContext{
		Environment: r.Env,
		CI:          r.CI,
		User:        user,
		Cwd:         r.Root,
	}
}

// Close releases container resources.
func (r *Runtime) Close() {
	if r.container == nil {
		return
	}
	if err := r.container.Close(); err != nil {
		r.Logger.Warn("container close failed", map[string]interface{}{"error": err.Error()})
	}
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}
