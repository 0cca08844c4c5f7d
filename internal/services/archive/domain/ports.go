package domain

import "context"

// WriterPort persists parsed runs
type WriterPort interface {
	// EnsureSchema creates the moves table when missing
	EnsureSchema(ctx context.Context) error

	// ArchiveRun writes one run's move rows
	ArchiveRun(ctx context.Context, run RunArchive) error
}

// QueryPort reads archived run summaries
type QueryPort interface {
	RecentRuns(ctx context.Context, limit int) ([]RunSummary, error)
}
