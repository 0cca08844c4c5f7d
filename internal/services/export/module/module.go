// Package module implements the export service module
package module

import (
	"net/http"

	"printprof/internal/modkit"
	"printprof/internal/modkit/httpkit"
	"printprof/internal/platform/config"
	"printprof/internal/services/export/domain"
	"printprof/internal/services/export/service"
)

// Ports exposed by the export module
type Ports struct {
	Writer domain.WriterPort
}

// Options holds configuration settings for the export module
type Options struct {
	Moves bool
	Bins  int
}

// FromConfig extracts Options from the given config.Conf
func FromConfig(cfg config.Conf) Options {
	ef := cfg.Prefix("CORE_EXPORT_")
	return Options{
		Moves: ef.MayBool("MOVES", false),
		Bins:  ef.MayInt("BINS", 30),
	}
}

// Module implements the export service module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs a new export module
func New(deps modkit.Deps, overrides Options) *Module {
	opts := FromConfig(deps.Cfg)
	if overrides.Moves {
		opts.Moves = true
	}
	if overrides.Bins != 0 {
		opts.Bins = overrides.Bins
	}

	svc := service.New(service.Config{Moves: opts.Moves, Bins: opts.Bins})

	m := &Module{deps: deps}
	m.ports = Ports{Writer: svc}
	return m
}

// Name satisfies modkit.Module
func (m *Module) Name() string { return "export" }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }

// Prefix satisfies modkit.Module
func (m *Module) Prefix() string { return "" }

// Middlewares satisfies modkit.Module
func (m *Module) Middlewares() []func(http.Handler) http.Handler { return nil }

// MountRoutes satisfies modkit.Module
func (m *Module) MountRoutes(_ httpkit.Router) {}
