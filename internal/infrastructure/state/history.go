package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/dbankscard/hookguard/internal/domain"
	"github.com/dbankscard/hookguard/internal/pkg/filesystem"
	"github.com/dbankscard/hookguard/internal/ports"
)

// HistoryFile is the automation history: a JSON array of cooldown records
// pruned to the retention window on load.
type HistoryFile struct {
	path      string
	retention time.Duration
	logger    ports.Logger
}

// NewHistoryFile stores records in <stateDir>/automation_history.json.
func NewHistoryFile(stateDir string, logger ports.Logger) *HistoryFile {
	return &HistoryFile{
		path:      filepath.Join(stateDir, domain.AutomationHistoryFile),
		retention: domain.HistoryRetention,
		logger:    logger,
	}
}

// Path returns the backing file path.
func (h *HistoryFile) Path() string {
	return h.path
}

// Load returns records newer than now minus the retention window, oldest first.
func (h *HistoryFile) Load(now time.Time) ([]domain.CooldownRecord, error) {
	data, err := os.ReadFile(h.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read automation history: %w", err)
	}
	var records []domain.CooldownRecord
	if err := json.Unmarshal(data, &records); err != nil {
		h.logger.Warn("automation history corrupt, ignoring", map[string]interface{}{"path": h.path, "error": err.Error()})
		return nil, nil
	}
	cutoff := now.Add(-h.retention)
	kept := records[:0]
	for _, rec := range records {
		if rec.Timestamp.After(cutoff) {
			kept = append(kept, rec)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Timestamp.Before(kept[j].Timestamp) })
	return kept, nil
}

// Save replaces the history atomically.
func (h *HistoryFile) Save(records []domain.CooldownRecord) error {
	if records == nil {
		records = []domain.CooldownRecord{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode automation history: %w", err)
	}
	return filesystem.WriteFileAtomic(h.path, data, domain.StateFilePermissions)
}

var _ ports.CooldownStore = (*HistoryFile)(nil)
