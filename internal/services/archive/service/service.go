// Package service implements the archive service
package service

import (
	"context"

	perr "printprof/internal/platform/errors"
	"printprof/internal/services/archive/domain"
	"printprof/internal/services/archive/repo"
)

// Config for the archive service
type Config struct {
	// HardLimit caps RecentRuns page sizes; 0 means the default of 100
	HardLimit int
}

// Service implements domain.WriterPort and domain.QueryPort
type Service struct {
	Repo repo.Storage
	Cfg  Config
}

// New constructs a new archive service
func New(st repo.Storage, cfg Config) *Service {
	if st == nil {
		panic("archive.Service requires a non nil Storage")
	}
	if cfg.HardLimit <= 0 {
		cfg.HardLimit = 100
	}
	return &Service{Repo: st, Cfg: cfg}
}

// EnsureSchema creates the moves table when missing
func (s *Service) EnsureSchema(ctx context.Context) error {
	return perr.WrapIf(s.Repo.EnsureSchema(ctx), perr.ErrorCodeDB, "archive: ensure schema")
}

// ArchiveRun writes one run's move rows
func (s *Service) ArchiveRun(ctx context.Context, run domain.RunArchive) error {
	if run.RunID == "" {
		return perr.InvalidArgf("archive: run id is required")
	}
	return perr.WrapIf(s.Repo.InsertMoves(ctx, run), perr.ErrorCodeDB, "archive: insert moves")
}

// RecentRuns reads stored run summaries, newest first
func (s *Service) RecentRuns(ctx context.Context, limit int) ([]domain.RunSummary, error) {
	if limit <= 0 || limit > s.Cfg.HardLimit {
		limit = s.Cfg.HardLimit
	}
	rows, err := s.Repo.RecentRuns(ctx, limit)
	return rows, perr.WrapIf(err, perr.ErrorCodeDB, "archive: recent runs")
}
