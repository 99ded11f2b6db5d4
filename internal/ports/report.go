package ports

import (
	"context"

	"github.com/bft-labs/modelstation/internal/domain"
)

// ReportRepository persists the end-of-run summary report.
// Implementations should write atomically (e.g., temp file plus rename) so a
// crash mid-write never leaves a truncated report behind.
type ReportRepository interface {
	// Save writes the report, replacing any previous one.
	Save(ctx context.Context, report domain.Report) error
}
