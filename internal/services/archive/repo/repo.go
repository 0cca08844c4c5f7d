// Package repo provides the ClickHouse archive repository
package repo

import (
	"context"
	"fmt"

	"printprof/internal/platform/store"
	"printprof/internal/services/archive/domain"
)

// Storage defines the archive repository
type Storage interface {
	EnsureSchema(ctx context.Context) error
	InsertMoves(ctx context.Context, run domain.RunArchive) error
	RecentRuns(ctx context.Context, limit int) ([]domain.RunSummary, error)
}

type ch struct {
	db    store.Clickhouse
	table string
	chunk int
}

// NewCH constructs a ClickHouse-backed Storage writing to table in chunks of
// chunk rows per batch
func NewCH(db store.Clickhouse, table string, chunk int) Storage {
	if table == "" {
		table = "printprof_moves"
	}
	if chunk <= 0 {
		chunk = 5000
	}
	return &ch{db: db, table: table, chunk: chunk}
}

var moveColumns = []string{
	"run_id", "label", "file", "parsed_at",
	"seq", "layer", "z", "feature", "kind",
	"dist_mm", "de_mm", "time_s",
	"speed_mm_s", "flow_mm3_s",
	"fan_pct", "hotend_c", "bed_c", "chamber_c",
}

// EnsureSchema implements Storage
func (s *ch) EnsureSchema(ctx context.Context) error {
	ddl := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			run_id     String,
			label      String,
			file       String,
			parsed_at  DateTime64(3, 'UTC'),
			seq        UInt32,
			layer      Int32,
			z          Float64,
			feature    LowCardinality(String),
			kind       LowCardinality(String),
			dist_mm    Float64,
			de_mm      Float64,
			time_s     Float64,
			speed_mm_s Nullable(Float64),
			flow_mm3_s Float64,
			fan_pct    Nullable(Float64),
			hotend_c   Nullable(Float64),
			bed_c      Nullable(Float64),
			chamber_c  Nullable(Float64)
		)
		ENGINE = MergeTree
		ORDER BY (run_id, seq)
	`, s.table)
	return s.db.Exec(ctx, ddl)
}

// InsertMoves implements Storage
func (s *ch) InsertMoves(ctx context.Context, run domain.RunArchive) error {
	rows := make([][]any, 0, min(len(run.Moves), s.chunk))
	for i, m := range run.Moves {
		rows = append(rows, []any{
			run.RunID, run.Label, run.File, run.ParsedAt,
			uint32(i), int32(m.Layer), m.Z, m.Feature, string(m.Kind),
			m.DistMM, m.DeMM, m.TimeS,
			m.SpeedMMS, m.FlowMM3S,
			m.FanPct, m.HotendC, m.BedC, m.ChamberC,
		})
		if len(rows) == s.chunk {
			if err := s.db.Insert(ctx, s.table, moveColumns, rows); err != nil {
				return err
			}
			rows = rows[:0]
		}
	}
	return s.db.Insert(ctx, s.table, moveColumns, rows)
}

// RecentRuns implements Storage
func (s *ch) RecentRuns(ctx context.Context, limit int) ([]domain.RunSummary, error) {
	sql := fmt.Sprintf(`
		SELECT
			run_id,
			any(label)      AS label,
			any(file)       AS file,
			max(parsed_at)  AS parsed_at,
			count()         AS moves,
			sum(time_s)     AS time_s,
			sum(dist_mm)    AS dist_mm
		FROM %s
		GROUP BY run_id
		ORDER BY parsed_at DESC
		LIMIT ?
	`, s.table)
	return store.StructsByName[domain.RunSummary](ctx, s.db, sql, limit)
}
