// Package module implements the profile module
package module

import (
	"net/http"

	"printprof/internal/modkit"
	"printprof/internal/modkit/httpkit"
	"printprof/internal/services/profile/domain"
	"printprof/internal/services/profile/service"
)

// Ports exposed by the profile module
type Ports struct {
	Profiler domain.ProfilerPort
}

// Module implements modkit.Module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs a new profile module
func New(deps modkit.Deps, overrides Options, opts ...modkit.Option) *Module {
	modkit.Build(append([]modkit.Option{
		modkit.WithName("profile"),
	}, opts...)...)

	// Merge config + overrides
	cfg := FromConfig(deps.Cfg)
	if overrides.Workers != 0 {
		cfg.Workers = overrides.Workers
	}
	if overrides.FilamentDiameterMM != 0 {
		cfg.FilamentDiameterMM = overrides.FilamentDiameterMM
	}
	if overrides.FilamentDensityGCM3 != 0 {
		cfg.FilamentDensityGCM3 = overrides.FilamentDensityGCM3
	}
	if overrides.MinPeakSegmentS != 0 {
		cfg.MinPeakSegmentS = overrides.MinPeakSegmentS
	}
	if overrides.ProgressEvery != 0 {
		cfg.ProgressEvery = overrides.ProgressEvery
	}

	var density *float64
	if cfg.FilamentDensityGCM3 > 0 {
		density = &cfg.FilamentDensityGCM3
	}

	svc := service.New(service.Config{
		Workers:             cfg.Workers,
		FilamentDiameterMM:  cfg.FilamentDiameterMM,
		FilamentDensityGCM3: density,
		MinPeakSegmentS:     cfg.MinPeakSegmentS,
		ProgressEvery:       cfg.ProgressEvery,
	}, deps.Met)

	m := &Module{deps: deps}
	m.ports = Ports{Profiler: svc}
	return m
}

// Name satisfies modkit.Module
func (m *Module) Name() string { return "profile" }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }

// Prefix satisfies modkit.Module
func (m *Module) Prefix() string { return "" }

// Middlewares satisfies modkit.Module
func (m *Module) Middlewares() []func(http.Handler) http.Handler { return nil }

// MountRoutes satisfies modkit.Module
func (m *Module) MountRoutes(_ httpkit.Router) {}
