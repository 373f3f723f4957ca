package audit

import (
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/dbankscard/hookguard/internal/domain"
	"github.com/dbankscard/hookguard/internal/ports"
)

// SQLiteStore persists audit entries in a SQLite database. When the
// database cannot be opened it degrades to the jsonl log next to it.
type SQLiteStore struct {
	db       *sql.DB
	path     string
	fallback *FileStore
	mu       sync.Mutex
}

// NewSQLiteStore creates (or opens) <stateDir>/command_audit.db.
func NewSQLiteStore(stateDir string, logger ports.Logger) *SQLiteStore {
	path := filepath.Join(stateDir, domain.AuditDBFile)
	store := &SQLiteStore{path: path, fallback: NewFileStore(stateDir)}
	_ = os.MkdirAll(filepath.Dir(path), domain.DirectoryPermissions)
	db, err := sql.Open("sqlite", path)
	if err != nil {
		logger.Warn("sqlite audit unavailable, using jsonl", map[string]interface{}{"path": path, "error": err.Error()})
		return store
	}
	if err := initSchema(db); err != nil {
		logger.Warn("sqlite audit schema failed, using jsonl", map[string]interface{}{"path": path, "error": err.Error()})
		_ = db.Close()
		return store
	}
	store.db = db
	return store
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS audit (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT,
		timestamp TEXT,
		command TEXT,
		risk_level TEXT,
		verdict TEXT,
		auto_approved INTEGER,
		user_approved INTEGER,
		reason TEXT,
		user TEXT,
		cwd TEXT,
		environment TEXT
	);`)
	return err
}

// Append inserts one entry.
func (s *SQLiteStore) Append(entry domain.AuditEntry) error {
	if s.db == nil {
		return s.fallback.Append(entry)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`INSERT INTO audit
		(id, timestamp, command, risk_level, verdict, auto_approved, user_approved, reason, user, cwd, environment)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.Timestamp.UTC().Format(time.RFC3339Nano),
		entry.Command,
		string(entry.RiskLevel),
		string(entry.Verdict),
		boolToInt(entry.AutoApproved),
		boolToInt(entry.UserApproved),
		entry.Reason,
		entry.User,
		entry.Cwd,
		entry.Environment,
	)
	return err
}

// Entries returns the newest entries first (limit/search optional).
func (s *SQLiteStore) Entries(limit int, search string) ([]domain.AuditEntry, error) {
	if s.db == nil {
		return s.fallback.Entries(limit, search)
	}
	builder := strings.Builder{}
	builder.WriteString("SELECT id, timestamp, command, risk_level, verdict, auto_approved, user_approved, reason, user, cwd, environment FROM audit")
	var args []interface{}
	if search != "" {
		builder.WriteString(" WHERE command LIKE ? OR reason LIKE ? OR user LIKE ?")
		like := "%" + search + "%"
		args = append(args, like, like, like)
	}
	builder.WriteString(" ORDER BY seq DESC")
	if limit > 0 {
		builder.WriteString(" LIMIT ?")
		args = append(args, limit)
	}
	rows, err := s.db.Query(builder.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []domain.AuditEntry
	for rows.Next() {
		var entry domain.AuditEntry
		var ts, risk, verdict string
		var auto, user int
		if err := rows.Scan(&entry.ID, &ts, &entry.Command, &risk, &verdict, &auto, &user, &entry.Reason, &entry.User, &entry.Cwd, &entry.Environment); err != nil {
			return nil, err
		}
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			entry.Timestamp = t
		}
		entry.RiskLevel = domain.RiskLevel(risk)
		entry.Verdict = domain.Verdict(verdict)
		entry.AutoApproved = auto == 1
		entry.UserApproved = user == 1
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// ExportJSON writes the audit table to a jsonl file, oldest first.
func (s *SQLiteStore) ExportJSON(dest string) error {
	if s.db == nil {
		return s.fallback.ExportJSON(dest)
	}
	entries, err := s.Entries(0, "")
	if err != nil {
		return err
	}
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return writeJSONL(dest, entries)
}

// Path returns the database path, or the jsonl path when degraded.
func (s *SQLiteStore) Path() string {
	if s.db == nil {
		return s.fallback.Path()
	}
	return s.path
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

var _ ports.AuditSink = (*SQLiteStore)(nil)
