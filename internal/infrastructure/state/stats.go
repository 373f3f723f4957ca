package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dbankscard/hookguard/internal/domain"
	"github.com/dbankscard/hookguard/internal/pkg/filesystem"
	"github.com/dbankscard/hookguard/internal/ports"
)

// StatsFile keeps approval counters in a single JSON object that is
// replaced atomically on every update.
type StatsFile struct {
	path   string
	now    ports.Clock
	logger ports.Logger
	mu     sync.Mutex
}

// NewStatsFile stores statistics in <stateDir>/approval_stats.json.
func NewStatsFile(stateDir string, logger ports.Logger) *StatsFile {
	return &StatsFile{
		path:   filepath.Join(stateDir, domain.StatisticsFile),
		now:    time.Now,
		logger: logger,
	}
}

// Path returns the backing file path.
func (s *StatsFile) Path() string {
	return s.path
}

// Load reads the counters. A missing file yields zeroed counters; a corrupt
// one is logged and also yields zeroed counters.
func (s *StatsFile) Load() (domain.Statistics, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.NewStatistics(), nil
		}
		return domain.NewStatistics(), fmt.Errorf("read statistics: %w", err)
	}
	stats := domain.NewStatistics()
	if err := json.Unmarshal(data, &stats); err != nil {
		s.logger.Warn("statistics file corrupt, starting fresh", map[string]interface{}{"path": s.path, "error": err.Error()})
		return domain.NewStatistics(), nil
	}
	if stats.ByRiskLevel == nil {
		stats.ByRiskLevel = domain.NewStatistics().ByRiskLevel
	}
	return stats, nil
}

// Update performs read, apply, atomic write.
func (s *StatsFile) Update(apply func(*domain.Statistics)) (domain.Statistics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats, err := s.Load()
	if err != nil {
		return stats, err
	}
	apply(&stats)
	stats.UpdatedAt = s.now().UTC()
	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return stats, fmt.Errorf("encode statistics: %w", err)
	}
	if err := filesystem.WriteFileAtomic(s.path, data, domain.StateFilePermissions); err != nil {
		return stats, fmt.Errorf("write statistics: %w", err)
	}
	return stats, nil
}

var _ ports.StatisticsStore = (*StatsFile)(nil)
