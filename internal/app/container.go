package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/dbankscard/hookguard/assets"
	"github.com/dbankscard/hookguard/internal/application/approval"
	"github.com/dbankscard/hookguard/internal/application/doctor"
	"github.com/dbankscard/hookguard/internal/application/scan"
	"github.com/dbankscard/hookguard/internal/application/triggers"
	"github.com/dbankscard/hookguard/internal/domain"
	"github.com/dbankscard/hookguard/internal/infrastructure/audit"
	"github.com/dbankscard/hookguard/internal/infrastructure/config"
	"github.com/dbankscard/hookguard/internal/infrastructure/dependency"
	"github.com/dbankscard/hookguard/internal/infrastructure/git"
	"github.com/dbankscard/hookguard/internal/infrastructure/rules"
	"github.com/dbankscard/hookguard/internal/infrastructure/scanner"
	"github.com/dbankscard/hookguard/internal/infrastructure/state"
	"github.com/dbankscard/hookguard/internal/infrastructure/toolrunner"
	"github.com/dbankscard/hookguard/internal/pkg/filesystem"
	"github.com/dbankscard/hookguard/internal/ports"
)

// Options locate the workspace and state.
type Options struct {
	// Root is the repository working directory.
	Root string
	// StateDir holds statistics, audit and automation state. Relative paths
	// resolve against Root.
	StateDir string
	// ConfigDir overrides the policy file search.
	ConfigDir string
	Logger    ports.Logger
}

// Paths are the resolved output locations.
type Paths struct {
	StateDir    string
	Report      string
	Output      string
	Pending     string
	Performance string
}

// Container wires up application services with infrastructure adapters.
type Container struct {
	Config       domain.Config
	ConfigLoader *config.FileLoader
	Rules        *rules.Store
	Approval     *approval.Service
	Scan         *scan.Service
	Triggers     *triggers.Service
	Doctor       *doctor.Service
	Audit        ports.AuditSink
	Stats        ports.StatisticsStore
	Logger       ports.Logger
	Paths        Paths

	closers []func() error
}

// BuildContainer constructs the dependency graph.
func BuildContainer(ctx context.Context, opts Options) (*Container, error) {
	if opts.Logger == nil {
		return nil, fmt.Errorf("app: logger required")
	}
	log := opts.Logger
	root := opts.Root
	if root == "" {
		root = "."
	}
	paths := resolvePaths(root, opts.StateDir)

	loader := config.NewFileLoader(root, opts.ConfigDir, log)
	cfg, err := loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	store, err := rules.New(assets.DefaultRulesYAML, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}

	c := &Container{
		Config:       cfg,
		ConfigLoader: loader,
		Rules:        store,
		Logger:       log,
		Paths:        paths,
		Stats:        state.NewStatsFile(paths.StateDir, log),
	}
	c.Audit = c.auditSink(cfg.Approval.AuditBackend)

	gitRunner := toolrunner.New(domain.DefaultGitTimeout)
	auditRunner := toolrunner.New(domain.DefaultAuditToolTimeout)
	changes := git.NewSource(root, gitRunner, log)
	reports := state.NewWriter()
	clock := ports.Clock(time.Now)

	c.Approval = &approval.Service{
		Resolver: store,
		Stats:    c.Stats,
		Audit:    c.Audit,
		Logger:   log,
		Clock:    clock,
	}

	secrets := scanner.NewSecretScanner(store.Secrets())
	deps := dependency.NewChecker(store, auditRunner, log)
	c.Scan = &scan.Service{
		Scanner:      scanner.NewContentScanner(cfg.Security.EnabledChecks, secrets, scanner.DefaultRegistry(store), log),
		Dependencies: deps,
		Changes:      changes,
		Reports:      reports,
		Logger:       log,
		Clock:        clock,
		Security:     cfg.Security,
	}

	secretsOnly := domain.EnabledChecks{Secrets: true}
	c.Triggers = &triggers.Service{
		Changes:      changes,
		History:      state.NewHistoryFile(paths.StateDir, log),
		Reports:      reports,
		Secrets:      scanner.NewContentScanner(secretsOnly, secrets, scanner.DefaultRegistry(store), log),
		Dependencies: deps,
		Logger:       log,
		Clock:        clock,
		Config:       cfg.Automation,
	}

	c.Doctor = &doctor.Service{
		ConfigProvider: loader,
		Sources:        loader,
		Rules:          store,
		Stats:          c.Stats,
		Audit:          c.Audit,
		Tools:          gitRunner,
	}
	return c, nil
}

func (c *Container) auditSink(backend string) ports.AuditSink {
	if strings.EqualFold(backend, "sqlite") {
		sink := audit.NewSQLiteStore(c.Paths.StateDir, c.Logger)
		c.closers = append(c.closers, sink.Close)
		return sink
	}
	return audit.NewFileStore(c.Paths.StateDir)
}

// Close releases the audit database, if one is open.
func (c *Container) Close() error {
	var first error
	for _, closer := range c.closers {
		if err := closer(); err != nil && first == nil {
			first = err
		}
	}
	c.closers = nil
	return first
}

func resolvePaths(root, stateDir string) Paths {
	if stateDir == "" {
		stateDir = domain.DefaultStateDir
	}
	stateDir = filesystem.ExpandPath(stateDir, root)
	return Paths{
		StateDir:    stateDir,
		Report:      filepath.Join(root, domain.DefaultReportFile),
		Output:      filepath.Join(stateDir, domain.AutomationOutputFile),
		Pending:     filepath.Join(stateDir, domain.PendingCommandsFile),
		Performance: filepath.Join(root, domain.DefaultPerformanceFile),
	}
}
