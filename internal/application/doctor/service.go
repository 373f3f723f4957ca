package doctor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dbankscard/hookguard/internal/domain"
	"github.com/dbankscard/hookguard/internal/ports"
)

// ConfigParts lists the policy files in report order.
var ConfigParts = []string{"approval", "security", "automation"}

// Service runs environment diagnostics.
type Service struct {
	ConfigProvider ports.ConfigProvider
	Sources        ports.ConfigSources
	Rules          ports.CommandResolver
	Stats          ports.StatisticsStore
	Audit          ports.AuditSink
	Tools          ports.ToolRunner
}

// Run executes checks and returns a report. The error is non-nil only when
// the configuration cannot be loaded at all.
func (s *Service) Run(ctx context.Context) (domain.HealthReport, error) {
	if s.ConfigProvider == nil || s.Rules == nil || s.Tools == nil {
		return domain.HealthReport{}, errors.New("doctor.Service dependencies not satisfied")
	}
	var checks []domain.HealthCheck

	cfg, err := s.ConfigProvider.Load(ctx)
	if err != nil {
		checks = append(checks, fail("Config", fmt.Sprintf("load failed: %v", err)))
		return domain.HealthReport{Checks: checks}, err
	}
	checks = append(checks, s.configChecks()...)
	checks = append(checks, s.rulesCheck())

	if s.Stats != nil {
		if _, err := s.Stats.Load(); err != nil {
			checks = append(checks, warn("Statistics", err.Error()))
		} else {
			checks = append(checks, ok("Statistics", s.Stats.Path()))
		}
	}
	if s.Audit != nil {
		if _, err := s.Audit.Entries(1, ""); err != nil {
			checks = append(checks, warn("Audit log", err.Error()))
		} else {
			checks = append(checks, ok("Audit log", fmt.Sprintf("%s (%s)", s.Audit.Path(), backendName(cfg.Approval.AuditBackend))))
		}
	}

	checks = append(checks, toolCheck(s.Tools, "git", "change detection falls back to empty results"))
	if cfg.Security.EnabledChecks.Dependencies {
		checks = append(checks, toolCheck(s.Tools, "npm", "package.json audits use the static advisory list only"))
	}
	return domain.HealthReport{Checks: checks}, nil
}

func (s *Service) configChecks() []domain.HealthCheck {
	var sources map[string]string
	if s.Sources != nil {
		sources = s.Sources.Sources()
	}
	checks := make([]domain.HealthCheck, 0, len(ConfigParts))
	for _, part := range ConfigParts {
		name := "Config " + part
		if path, found := sources[part]; found {
			checks = append(checks, ok(name, "loaded "+path))
			continue
		}
		checks = append(checks, ok(name, "embedded defaults"))
	}
	return checks
}

func (s *Service) rulesCheck() domain.HealthCheck {
	parts := make([]string, 0, len(domain.RuleCategories))
	for _, cat := range domain.RuleCategories {
		parts = append(parts, fmt.Sprintf("%s=%d", cat, len(s.Rules.AllRules(cat))))
	}
	details := strings.Join(parts, " ")
	if len(s.Rules.AllRules(domain.CategoryDangerous)) == 0 {
		return fail("Rules", "no dangerous patterns loaded: "+details)
	}
	return ok("Rules", details)
}

func toolCheck(tools ports.ToolRunner, name, missing string) domain.HealthCheck {
	if tools.Available(name) {
		return ok("Tool "+name, "found on PATH")
	}
	return warn("Tool "+name, "not found; "+missing)
}

func backendName(backend string) string {
	if strings.EqualFold(backend, "sqlite") {
		return "sqlite"
	}
	return "jsonl"
}

func ok(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthOK, Details: details}
}

func warn(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthWarn, Details: details}
}

func fail(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthError, Details: details}
}
