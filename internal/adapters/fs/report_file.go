// Package fs provides file-system adapters.
package fs

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bft-labs/modelstation/internal/domain"
)

// ReportFileRepository implements ports.ReportRepository using a JSON file.
type ReportFileRepository struct {
	path string
}

// NewReportFileRepository creates a repository writing to the given path.
func NewReportFileRepository(path string) *ReportFileRepository {
	return &ReportFileRepository{path: path}
}

// Save persists the report atomically.
// Uses atomic write (write to temp file, then rename) to prevent corruption.
func (r *ReportFileRepository) Save(ctx context.Context, report domain.Report) error {
	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	// Atomic rename
	if err := os.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("rename report: %w", err)
	}
	return nil
}

// Path returns the report file path.
func (r *ReportFileRepository) Path() string {
	return r.path
}
