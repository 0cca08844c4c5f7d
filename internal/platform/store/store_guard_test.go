package store

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// fakeCHNoPing satisfies Clickhouse but not Pinger
type fakeCHNoPing struct {
	closeErr error
}

func (f *fakeCHNoPing) Insert(context.Context, string, []string, [][]any) error { return nil }
func (f *fakeCHNoPing) Exec(context.Context, string, ...any) error              { return nil }
func (f *fakeCHNoPing) Query(context.Context, string, ...any) (Rows, error) {
	var z Rows
	return z, nil
}
func (f *fakeCHNoPing) Close() error { return f.closeErr }

// fakeCHWithPing satisfies Clickhouse and Pinger
type fakeCHWithPing struct {
	fakeCHNoPing
	err error
}

func (f *fakeCHWithPing) Ping(context.Context) error { return f.err }

func TestGuard_NilStore(t *testing.T) {
	t.Parallel()

	var s *Store = nil
	if err := s.Guard(context.Background()); err == nil {
		t.Fatalf("nil store should return error")
	}
}

func TestGuard_NoSeams(t *testing.T) {
	t.Parallel()

	s := &Store{}
	if err := s.Guard(context.Background()); err != nil {
		t.Fatalf("expected nil error when no seams are set, got %v", err)
	}
}

func TestGuard_CH_NotPinger_Ignored(t *testing.T) {
	t.Parallel()

	s := &Store{CH: &fakeCHNoPing{}}
	if err := s.Guard(context.Background()); err != nil {
		t.Fatalf("expected nil error when CH is not a Pinger, got %v", err)
	}
}

func TestGuard_CH_PingOK(t *testing.T) {
	t.Parallel()

	s := &Store{CH: &fakeCHWithPing{err: nil}}
	if err := s.Guard(context.Background()); err != nil {
		t.Fatalf("expected nil error when CH.Ping succeeds, got %v", err)
	}
}

func TestGuard_CH_PingError_Wrapped(t *testing.T) {
	t.Parallel()

	s := &Store{CH: &fakeCHWithPing{err: errors.New("boom")}}
	err := s.Guard(context.Background())
	if err == nil {
		t.Fatalf("expected non-nil error when CH.Ping fails")
	}
	// Guard prefixes CH errors with "ch: "
	if !strings.HasPrefix(err.Error(), "ch: ") {
		t.Fatalf("expected error to be prefixed with 'ch: ', got %q", err.Error())
	}
}

func TestClose_PropagatesCHError(t *testing.T) {
	t.Parallel()

	s := &Store{CH: &fakeCHNoPing{closeErr: errors.New("close failed")}}
	if err := s.Close(context.Background()); err == nil {
		t.Fatalf("expected close error to bubble")
	}
}
