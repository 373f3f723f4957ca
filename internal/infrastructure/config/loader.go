package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dbankscard/hookguard/assets"
	appconfig "github.com/dbankscard/hookguard/internal/application/config"
	"github.com/dbankscard/hookguard/internal/domain"
	"github.com/dbankscard/hookguard/internal/ports"
)

// Config part names, also the file base names.
const (
	PartApproval   = "approval"
	PartSecurity   = "security"
	PartAutomation = "automation"
)

var extensions = []string{".json", ".yaml", ".yml"}

// searchDirs lists, per part, the directories probed relative to the root.
var searchDirs = map[string][]string{
	PartApproval:   {".claude/hooks", ".claude", "."},
	PartSecurity:   {".claude/hooks", ".claude"},
	PartAutomation: {".claude/hooks", ".claude"},
}

// FileLoader merges the optional policy files over the embedded defaults.
// A missing file is silent; a malformed or invalid one is logged and that
// part falls back to its defaults.
type FileLoader struct {
	root      string
	configDir string
	logger    ports.Logger
	sources   map[string]string
}

// NewFileLoader searches under root, or only in configDir when it is set.
func NewFileLoader(root, configDir string, logger ports.Logger) *FileLoader {
	return &FileLoader{root: root, configDir: configDir, logger: logger, sources: map[string]string{}}
}

// Load implements ports.ConfigProvider. The returned error is non-nil only
// when the embedded defaults themselves are broken.
func (l *FileLoader) Load(context.Context) (domain.Config, error) {
	var cfg domain.Config
	if err := yaml.Unmarshal(assets.DefaultApprovalYAML, &cfg.Approval); err != nil {
		return domain.Config{}, fmt.Errorf("decode default approval policy: %w", err)
	}
	if err := yaml.Unmarshal(assets.DefaultSecurityYAML, &cfg.Security); err != nil {
		return domain.Config{}, fmt.Errorf("decode default security policy: %w", err)
	}
	if err := yaml.Unmarshal(assets.DefaultAutomationYAML, &cfg.Automation); err != nil {
		return domain.Config{}, fmt.Errorf("decode default automation policy: %w", err)
	}

	approval := cfg.Approval
	if l.overlay(PartApproval, &approval, func() error { return appconfig.ValidateApproval(approval) }) {
		cfg.Approval = approval
	}
	security := cfg.Security
	if l.overlay(PartSecurity, &security, func() error { return appconfig.ValidateSecurity(security) }) {
		cfg.Security = security
	}
	automation := cfg.Automation
	automation.Agents = cloneAgents(cfg.Automation.Agents)
	automation.CIAllowList = slices.Clone(cfg.Automation.CIAllowList)
	if l.overlay(PartAutomation, &automation, func() error { return appconfig.ValidateAutomation(automation) }) {
		cfg.Automation = automation
	}
	return hydrateDefaults(cfg), nil
}

// Sources reports which file each part was loaded from. Parts using the
// embedded defaults are absent.
func (l *FileLoader) Sources() map[string]string {
	out := make(map[string]string, len(l.sources))
	for k, v := range l.sources {
		out[k] = v
	}
	return out
}

// overlay decodes the first existing file for part into target and validates
// it. It reports whether target should replace the defaults.
func (l *FileLoader) overlay(part string, target interface{}, validate func() error) bool {
	path, ok := l.find(part)
	if !ok {
		return false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		l.logger.Warn("config unreadable, using defaults", map[string]interface{}{"part": part, "path": path, "error": err.Error()})
		return false
	}
	if err := decode(path, data, target); err != nil {
		l.logger.Warn("config malformed, using defaults", map[string]interface{}{
			"part":  part,
			"path":  path,
			"error": fmt.Errorf("%w: %v", domain.ErrConfigInvalid, err).Error(),
		})
		return false
	}
	if err := validate(); err != nil {
		l.logger.Warn("config invalid, using defaults", map[string]interface{}{"part": part, "path": path, "error": err.Error()})
		return false
	}
	l.sources[part] = path
	l.logger.Debug("config loaded", map[string]interface{}{"part": part, "path": path})
	return true
}

func (l *FileLoader) find(part string) (string, bool) {
	dirs := searchDirs[part]
	if l.configDir != "" {
		dirs = []string{l.configDir}
	}
	for _, dir := range dirs {
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(l.root, dir)
		}
		for _, ext := range extensions {
			candidate := filepath.Join(dir, part+ext)
			info, err := os.Stat(candidate)
			if err == nil && !info.IsDir() {
				return candidate, true
			}
			if err != nil && !errors.Is(err, fs.ErrNotExist) {
				l.logger.Debug("config probe failed", map[string]interface{}{"path": candidate, "error": err.Error()})
			}
		}
	}
	return "", false
}

func decode(path string, data []byte, target interface{}) error {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return json.Unmarshal(data, target)
	}
	return yaml.Unmarshal(data, target)
}

func cloneAgents(in map[string]domain.AgentSettings) map[string]domain.AgentSettings {
	out := make(map[string]domain.AgentSettings, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func hydrateDefaults(cfg domain.Config) domain.Config {
	if cfg.Security.FailScore == 0 {
		cfg.Security.FailScore = domain.DefaultFailScore
	}
	if cfg.Security.HighFindingsShown == 0 {
		cfg.Security.HighFindingsShown = domain.DefaultHighFindingsShown
	}
	if cfg.Automation.CooldownMinutes == 0 {
		cfg.Automation.CooldownMinutes = int(domain.DefaultCooldown.Minutes())
	}
	if cfg.Approval.AuditBackend == "" {
		cfg.Approval.AuditBackend = "jsonl"
	}
	return cfg
}

var _ ports.ConfigProvider = (*FileLoader)(nil)
