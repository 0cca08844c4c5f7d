// Package modkit provides module wiring and core deps
package modkit

import (
	"printprof/internal/platform/config"
	"printprof/internal/platform/logger"
	"printprof/internal/platform/metrics"
	"printprof/internal/platform/store"
)

// Deps holds core dependencies passed to modules
// this is wiring only and does not introduce new abstractions
type Deps struct {
	Log logger.Logger
	Cfg config.Conf
	CH  store.Clickhouse
	Met *metrics.Metrics
}

// ZeroOK returns true when deps are safe to use with zero values in tests
// consumers should still nil check for optional stores
func (d Deps) ZeroOK() bool { return true }
