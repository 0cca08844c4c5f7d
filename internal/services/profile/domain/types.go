// Package domain holds the profile service types and ports
package domain

import (
	"time"

	"printprof/internal/core/gcode"
	"printprof/internal/core/layers"
	"printprof/internal/core/zalign"
)

// TraceInput names one trace to profile. Exactly one of Path or Text is set;
// Path wins when both are present.
type TraceInput struct {
	Label string
	Path  string
	Text  string
}

// Totals are whole-run sums derived from the move sequence. FilamentG is nil
// when no filament density is configured.
type Totals struct {
	TimeS        float64  `json:"time_s"`
	DistMM       float64  `json:"dist_mm"`
	ExtrusionMM  float64  `json:"extrusion_mm"`
	TravelDistMM float64  `json:"travel_dist_mm"`
	FilamentMM3  float64  `json:"filament_mm3"`
	FilamentG    *float64 `json:"filament_g,omitempty"`
	Layers       int      `json:"layers"`
	Moves        int      `json:"moves"`
	Lines        int      `json:"lines"`
}

// Run is one parsed trace plus its derived tables
type Run struct {
	ID       string
	Label    string
	Path     string
	ParsedAt time.Time

	Moves  []gcode.Move
	LayerZ map[int]float64
	Layers []layers.LayerMetrics
	Series []zalign.Point
	Totals Totals
}

// Report is the full output of one profile call: the reference run, any
// compare runs, and the Z-aligned comparison when compares are present.
type Report struct {
	Ref      *Run
	Compares []*Run
	Limits   layers.Limits

	Alignment *zalign.Alignment
	Summary   []zalign.SummaryRow
}
