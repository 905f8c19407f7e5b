// Package archive keeps a history of completed analysis runs.
// Runs are written once by the analysis service and read back by the dashboard's
// history view and the JSON export.
package archive

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/pharmaguard-dashboard/internal/domain"
)

// ExportVersion is the version of the JSON export format.
const ExportVersion = "1.0"

// Store defines the interface for run archive operations.
type Store interface {
	// SaveRun stores a run. Saving a run whose ID already exists is a no-op.
	SaveRun(ctx context.Context, run *domain.AnalysisRun) error

	// GetRun returns a run by ID, or domain.ErrNotFound.
	GetRun(ctx context.Context, id uuid.UUID) (*domain.AnalysisRun, error)

	// ListRuns returns runs newest first. An empty SessionID lists every session.
	ListRuns(ctx context.Context, filter ListFilter) ([]*domain.AnalysisRun, error)

	// Count returns the number of runs matching the filter's SessionID.
	Count(ctx context.Context, filter ListFilter) (int64, error)

	// DeleteRun removes a run by ID.
	DeleteRun(ctx context.Context, id uuid.UUID) error

	// PruneBefore removes every run created before cutoff and returns how many went.
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// ExportJSON writes every run to writer.
	ExportJSON(ctx context.Context, writer io.Writer) error

	// ImportJSON reads an export and stores the runs not already present.
	ImportJSON(ctx context.Context, reader io.Reader) (imported int, skipped int, err error)

	// Close closes the store and releases resources.
	Close() error
}

// ListFilter narrows and pages ListRuns.
type ListFilter struct {
	SessionID string
	Limit     int
	Offset    int
}

const (
	defaultListLimit = 50
	maxListLimit     = 500
	maxExportLimit   = 1000000
)

// Normalized clamps paging values into a usable range.
func (f ListFilter) Normalized() ListFilter {
	if f.Limit <= 0 {
		f.Limit = defaultListLimit
	}
	if f.Limit > maxListLimit {
		f.Limit = maxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// RunExport represents the JSON export format.
type RunExport struct {
	Version    string                `json:"version"`
	ExportedAt time.Time             `json:"exported_at"`
	Count      int                   `json:"count"`
	Runs       []*domain.AnalysisRun `json:"runs"`
}
