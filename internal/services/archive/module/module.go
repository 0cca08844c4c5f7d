// Package module implements the archive service module
package module

import (
	"net/http"

	"printprof/internal/modkit"
	"printprof/internal/modkit/httpkit"
	"printprof/internal/services/archive/domain"
	"printprof/internal/services/archive/repo"
	"printprof/internal/services/archive/service"
)

// Ports exposed by the archive module
type Ports struct {
	Writer domain.WriterPort
	Query  domain.QueryPort
}

// Module implements the archive service module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs a new archive module. Requires deps.CH.
func New(deps modkit.Deps) *Module {
	if deps.CH == nil {
		panic("archive module: requires a ClickHouse store")
	}
	opts := FromConfig(deps.Cfg)

	st := repo.NewCH(deps.CH, opts.Table, opts.Chunk)
	svc := service.New(st, service.Config{HardLimit: opts.HardLimit})

	m := &Module{deps: deps}
	m.ports = Ports{
		Writer: svc,
		Query:  svc,
	}
	return m
}

// Name satisfies modkit.Module
func (m *Module) Name() string { return "archive" }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }

// Prefix satisfies modkit.Module
func (m *Module) Prefix() string { return "" }

// Middlewares satisfies modkit.Module
func (m *Module) Middlewares() []func(http.Handler) http.Handler { return nil }

// MountRoutes satisfies modkit.Module
func (m *Module) MountRoutes(_ httpkit.Router) {}
