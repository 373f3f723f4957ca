package state

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dbankscard/hookguard/internal/domain"
	"github.com/dbankscard/hookguard/internal/pkg/filesystem"
	"github.com/dbankscard/hookguard/internal/ports"
)

// Writer persists scan reports, trigger analyses and the reviewer queue.
type Writer struct{}

// NewWriter returns a report writer.
func NewWriter() *Writer {
	return &Writer{}
}

// WriteReport overwrites path with the report and its raw findings.
func (w *Writer) WriteReport(path string, report domain.PersistedReport) error {
	if report.Vulnerabilities == nil {
		report.Vulnerabilities = []domain.Finding{}
	}
	return writeJSON(path, report)
}

// WriteAnalysis overwrites path with the latest trigger analysis.
func (w *Writer) WriteAnalysis(path string, analysis domain.TriggerAnalysis) error {
	return writeJSON(path, analysis)
}

// QueueCommands appends one line per command to path.
func (w *Writer) QueueCommands(path string, commands []string) error {
	for _, cmd := range commands {
		cmd = strings.TrimSpace(cmd)
		if cmd == "" {
			continue
		}
		if err := filesystem.AppendLine(path, []byte(cmd), domain.StateFilePermissions); err != nil {
			return fmt.Errorf("queue command: %w", err)
		}
	}
	return nil
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return filesystem.WriteFileAtomic(path, data, domain.StateFilePermissions)
}

var _ ports.ReportWriter = (*Writer)(nil)
