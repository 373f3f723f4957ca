package audit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dbankscard/hookguard/internal/domain"
	"github.com/dbankscard/hookguard/internal/pkg/filesystem"
	"github.com/dbankscard/hookguard/internal/ports"
)

// FileStore appends audit entries to a jsonl file. Each entry is written
// with a single O_APPEND write so concurrent invocations never interleave
// partial lines.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a store writing to <stateDir>/command_audit.log.
func NewFileStore(stateDir string) *FileStore {
	return &FileStore{path: filepath.Join(stateDir, domain.AuditLogFile)}
}

// Append implements ports.AuditSink.
func (f *FileStore) Append(entry domain.AuditEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode audit entry: %w", err)
	}
	return filesystem.AppendLine(f.path, data, domain.StateFilePermissions)
}

// Path returns the backing file path.
func (f *FileStore) Path() string {
	return f.path
}

// Entries returns the newest entries first. Lines that fail to decode are
// skipped. search is a case-insensitive substring over command, reason and user.
func (f *FileStore) Entries(limit int, search string) ([]domain.AuditEntry, error) {
	all, err := f.readAll()
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(search)
	var entries []domain.AuditEntry
	for i := len(all) - 1; i >= 0; i-- {
		if needle != "" && !matches(all[i], needle) {
			continue
		}
		entries = append(entries, all[i])
		if limit > 0 && len(entries) >= limit {
			break
		}
	}
	return entries, nil
}

func (f *FileStore) readAll() ([]domain.AuditEntry, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var entries []domain.AuditEntry
	for _, line := range bytes.Split(data, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		var entry domain.AuditEntry
		if err := json.Unmarshal(line, &entry); err == nil {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

// ExportJSON copies the log to dest as jsonl, oldest first.
func (f *FileStore) ExportJSON(dest string) error {
	entries, err := f.readAll()
	if err != nil {
		return err
	}
	return writeJSONL(dest, entries)
}

func matches(entry domain.AuditEntry, needle string) bool {
	for _, field := range []string{entry.Command, entry.Reason, entry.User} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

func writeJSONL(dest string, entries []domain.AuditEntry) error {
	var buf bytes.Buffer
	for _, entry := range entries {
		data, err := json.Marshal(entry)
		if err != nil {
			return err
		}
		buf.Write(data)
		buf.WriteByte('\n')
	}
	return filesystem.WriteFileAtomic(dest, buf.Bytes(), domain.StateFilePermissions)
}

var _ ports.AuditSink = (*FileStore)(nil)
