// Package store fronts the optional archive backends behind one facade
package store

import (
	"context"
	"errors"
	"fmt"

	"printprof/internal/platform/logger"
)

// Store is the backend facade
// the zero value is safe and does nothing
type Store struct {
	// Log feeds the subclients; zero means a no-op zerolog logger
	Log logger.Logger

	// CH is nil when the archive is disabled
	CH Clickhouse
}

// Rows is the minimal iteration and scan surface over a result set
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
	Columns() []string
}

// Querier is the read surface repos hold against clickhouse
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
}

// Clickhouse adds columnar writes and DDL to the read surface
type Clickhouse interface {
	Querier
	Insert(ctx context.Context, table string, columns []string, rows [][]any) error
	Exec(ctx context.Context, sql string, args ...any) error
	Close() error
}

// Pinger is any backend that can report readiness
type Pinger interface{ Ping(context.Context) error }

// Open builds a Store from cfg; disabled backends stay nil
func Open(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	s := &Store{}
	for _, o := range opts {
		if err := o(s); err != nil {
			return nil, err
		}
	}

	// normalize the zero logger so callers never nil-check
	s.Log = s.Log.With().Logger()

	if cfg.CH.Enabled {
		chClient, err := openCH(ctx, cfg, s)
		if err != nil {
			return nil, err
		}
		s.CH = chClient
	}

	return s, nil
}

// Guard pings every configured backend and joins the failures
func (s *Store) Guard(ctx context.Context) error {
	if s == nil {
		return errors.New("nil store")
	}
	var errs []error
	if s.CH != nil {
		if p, ok := any(s.CH).(Pinger); ok {
			if err := p.Ping(ctx); err != nil {
				errs = append(errs, fmt.Errorf("ch: %w", err))
			}
		}
	}
	return errors.Join(errs...)
}

// Close shuts down every initialized backend; nil ones are skipped
func (s *Store) Close(context.Context) error {
	var errs []error

	if s.CH != nil {
		if e := s.CH.Close(); e != nil {
			errs = append(errs, e)
		}
	}

	return errors.Join(errs...)
}
