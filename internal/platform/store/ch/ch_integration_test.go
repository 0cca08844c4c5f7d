//go:build integration_ch
// +build integration_ch

package ch

import (
	"context"
	"fmt"
	"testing"
	"time"

	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startClickhouse(t *testing.T) (dsn string, stop func()) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)

	req := tc.ContainerRequest{
		Image:        "clickhouse/clickhouse-server:24.8-alpine",
		ExposedPorts: []string{"9000/tcp"},
		Env: map[string]string{
			"CLICKHOUSE_USER":     "default",
			"CLICKHOUSE_PASSWORD": "printprof",
			"CLICKHOUSE_DB":       "default",
		},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("9000/tcp"),
			wait.ForLog("Ready for connections"),
		).WithDeadline(2 * time.Minute),
	}
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		cancel()
		t.Fatalf("failed to start clickhouse container: %v", err)
	}

	host, err := c.Host(ctx)
	if err != nil {
		_ = c.Terminate(context.Background())
		cancel()
		t.Fatalf("failed to get container host: %v", err)
	}
	mapped, err := c.MappedPort(ctx, "9000/tcp")
	if err != nil {
		_ = c.Terminate(context.Background())
		cancel()
		t.Fatalf("failed to get mapped port: %v", err)
	}

	dsn = fmt.Sprintf("clickhouse://default:printprof@%s:%s/default", host, mapped.Port())
	stop = func() {
		_ = c.Terminate(context.Background())
		cancel()
	}
	return dsn, stop
}

func TestOpen_InsertQuery_Integration(t *testing.T) {
	dsn, stop := startClickhouse(t)
	defer stop()

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	c, err := Open(ctx, Config{URL: dsn, Role: "integration", Tag: "test"})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = c.Close() }()

	// first ping can race container readiness; retry briefly
	deadline := time.Now().Add(30 * time.Second)
	for {
		if err = c.Ping(ctx); err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("ping never succeeded: %v", err)
		}
		time.Sleep(500 * time.Millisecond)
	}

	ddl := `
		CREATE TABLE IF NOT EXISTS moves_it (
			run_id String,
			layer  Int32,
			z      Float64,
			dist_mm Float64
		) ENGINE = MergeTree ORDER BY (run_id, layer)`
	if err := c.Exec(ctx, ddl); err != nil {
		t.Fatalf("create table: %v", err)
	}

	cols := []string{"run_id", "layer", "z", "dist_mm"}
	rows := [][]any{
		{"r1", int32(0), 0.2, 10.0},
		{"r1", int32(1), 0.4, 12.5},
	}
	if err := c.Insert(ctx, "moves_it", cols, rows); err != nil {
		t.Fatalf("insert: %v", err)
	}

	rs, err := c.Query(ctx, "SELECT count(), sum(dist_mm) FROM moves_it WHERE run_id = ?", "r1")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	defer func() { _ = rs.Close() }()

	if !rs.Next() {
		t.Fatalf("no result rows: %v", rs.Err())
	}
	var n uint64
	var sum float64
	if err := rs.Scan(&n, &sum); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if n != 2 {
		t.Fatalf("count = %d, want 2", n)
	}
	if sum < 22.4 || sum > 22.6 {
		t.Fatalf("sum(dist_mm) = %v, want 22.5", sum)
	}
}

func TestInsert_EmptyBatchIsNoop_Integration(t *testing.T) {
	dsn, stop := startClickhouse(t)
	defer stop()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	c, err := Open(ctx, Config{URL: dsn})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = c.Close() }()

	if err := c.Insert(ctx, "does_not_exist", []string{"a"}, nil); err != nil {
		t.Fatalf("empty insert must not touch the table: %v", err)
	}
}
