// Package module wires runs into the API using modkit
package module

import (
	"net/http"

	modkit "printprof/internal/modkit"
	"printprof/internal/modkit/httpkit"
	str "printprof/internal/platform/strings"

	archdom "printprof/internal/services/archive/domain"
	runshttp "printprof/internal/services/api/runs/http"
	profiledom "printprof/internal/services/profile/domain"
)

// Ports the runs module depends on. Archive is optional.
type Ports struct {
	Profiler profiledom.ProfilerPort
	Archive  archdom.QueryPort
}

// Module implements the runs module
type Module struct {
	deps   modkit.Deps
	name   string
	prefix string

	mws      []func(http.Handler) http.Handler
	ports    Ports
	register func(httpkit.Router)
}

// New constructs the runs module
func New(deps modkit.Deps, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{modkit.WithName("runs"), modkit.WithPrefix("/runs")}, opts...)...)

	ports, ok := b.Ports.(Ports)
	if !ok {
		panic("runs module: expected WithPorts(runs/module.Ports)")
	}
	if ports.Profiler == nil {
		panic("runs module: Ports missing Profiler")
	}

	m := &Module{
		deps:   deps,
		name:   b.Name,
		prefix: b.Prefix,
		mws:    b.Mw,
		ports:  ports,
	}

	external := b.Register
	m.register = func(r httpkit.Router) {
		runshttp.Register(r, runshttp.Deps{
			Profiler: ports.Profiler,
			Archive:  ports.Archive,
		})
		if external != nil {
			external(r)
		}
	}
	return m
}

// MountRoutes mounts the module routes on the given router
func (m *Module) MountRoutes(r httpkit.Router) {
	r.Route(m.prefix, func(rr httpkit.Router) {
		for _, mw := range m.mws {
			rr.Use(mw)
		}
		if m.register != nil {
			m.register(rr)
		}
	})
}

// Name returns the module name
func (m *Module) Name() string { return str.MustString(m.name, "module name") }

// Prefix returns the module route prefix
func (m *Module) Prefix() string { return str.MustPrefix(m.prefix) }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

// Middlewares returns the module middlewares
func (m *Module) Middlewares() []func(http.Handler) http.Handler { return m.mws }
