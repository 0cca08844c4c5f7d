package store

import (
	"context"
	"fmt"
	"time"

	chx "printprof/internal/platform/store/ch"
)

// openCH opens clickhouse and wraps it with our adapter.
// The connection is pinged with retry/backoff before it is published.
func openCH(ctx context.Context, cfg Config, s *Store) (Clickhouse, error) {
	c, err := chx.Open(ctx, chx.Config{
		URL:  cfg.CH.URL,
		Role: cfg.AppName,
	})
	if err != nil {
		return nil, err
	}

	maxAttempts := cfg.CH.ConnectRetries
	if maxAttempts <= 0 {
		maxAttempts = 20
	}
	pingTimeout := cfg.CH.PingTimeout
	if pingTimeout <= 0 {
		pingTimeout = 3 * time.Second
	}
	const (
		backoffStart   = 150 * time.Millisecond
		backoffCeiling = 2 * time.Second
	)

	var lastErr error
	backoff := backoffStart
	for i := 0; i < maxAttempts; i++ {
		toCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		lastErr = c.Ping(toCtx)
		cancel()

		if lastErr == nil {
			a := newCHAdapter(c) // publish adapter only after the conn is healthy
			s.CH = a
			return a, nil
		}
		if ctx.Err() != nil {
			_ = c.Close()
			return nil, ctx.Err()
		}
		time.Sleep(backoff)
		if backoff < backoffCeiling {
			backoff *= 2
			if backoff > backoffCeiling {
				backoff = backoffCeiling
			}
		}
	}

	_ = c.Close()
	return nil, fmt.Errorf("clickhouse ping failed after %d attempts: %w", maxAttempts, lastErr)
}
