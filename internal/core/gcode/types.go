// Package gcode implements the streaming trace parser for ASCII G-code.
// One pass over the command stream resolves every motion directive into a
// Move record carrying the machine state in effect at that instant.
package gcode

import "math"

// Kind distinguishes the two motion directives. Both are treated identically
// for metrics; the distinction is kept for downstream reporting.
type Kind string

const (
	// KindRapid is a G0 motion
	KindRapid Kind = "G0"
	// KindLinear is a G1 motion
	KindLinear Kind = "G1"
)

// FeatureUnknown is the feature label before any ;TYPE: comment is seen
const FeatureUnknown = "UNKNOWN"

// Move is one resolved motion directive. Immutable once emitted.
// Nil pointer fields mean "unknown at that instant", never zero.
type Move struct {
	Layer   int
	Z       float64 // end-of-move Z, mm
	Feature string
	Kind    Kind

	X0, Y0, Z0 float64
	X1, Y1, Z1 float64

	DistMM   float64 // 3D euclidean distance, mm
	DeMM     float64 // net extruder delta; >0 extrude, <0 retract, 0 travel
	TimeS    float64 // 0 when feed rate unknown or dist is 0
	SpeedMMS *float64
	FlowMM3S float64 // nonzero only when DeMM>0 and TimeS>0

	FanPct   *float64 // 0-100
	HotendC  *float64
	BedC     *float64
	ChamberC *float64
}

// IsTravel reports a non-extruding move with real displacement
func (m Move) IsTravel() bool { return m.DeMM == 0 && m.DistMM > 0 }

// IsRetract reports a negative extruder delta
func (m Move) IsRetract() bool { return m.DeMM < 0 }

// Result is the full output of one parse: an ordered, append-only move
// sequence plus the layer index to Z-height mapping from slicer comments.
type Result struct {
	Moves  []Move
	LayerZ map[int]float64
	Lines  int
}

// Options configures a parse call
type Options struct {
	// FilamentDiameterMM must be > 0
	FilamentDiameterMM float64

	// Progress, when set, is invoked synchronously every ProgressEvery lines.
	// It must not mutate parser state; failures are the callback's problem.
	Progress      func(msg string)
	ProgressEvery int
}

// FilamentAreaMM2 returns the filament cross-section area for a diameter
func FilamentAreaMM2(diameterMM float64) float64 {
	r := diameterMM / 2.0
	return math.Pi * r * r
}
