package domain

import (
	"context"

	"printprof/internal/core/layers"
)

// ProfileInput is one profiling request. Ref is required; Compares may be
// empty. Zero FilamentDiameterMM falls back to the service default.
type ProfileInput struct {
	Ref      TraceInput
	Compares []TraceInput

	Limits              layers.Limits
	FilamentDiameterMM  float64
	FilamentDensityGCM3 *float64
}

// ProfilerPort parses and profiles a reference trace plus optional compares
type ProfilerPort interface {
	Profile(ctx context.Context, in ProfileInput) (*Report, error)
}
