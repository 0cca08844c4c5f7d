// Package zalign re-expresses per-layer aggregates of independently parsed
// runs on a shared Z-height axis, so prints with different layer heights or
// layer numbering can be compared point for point.
package zalign

import (
	"sort"

	"printprof/internal/core/gcode"
	"printprof/internal/core/stats"
)

// Point is one layer of one run keyed by Z. Metric pointers are nil when the
// layer had no qualifying moves.
type Point struct {
	Z     float64
	Layer int

	TimeS     float64
	PeakFlow  *float64
	P95Flow   *float64
	PeakSpeed *float64
	P95Speed  *float64
}

// SeriesOptions tunes the per-run series builder
type SeriesOptions struct {
	// MinPeakSegmentTime drops segments shorter than this (seconds) from peak
	// picking to suppress single-move spikes; if filtering leaves nothing the
	// unfiltered peak is used. Zero disables filtering.
	MinPeakSegmentTime float64
}

// RunSeries is one run's Z-sorted series plus its display label
type RunSeries struct {
	Label  string
	Points []Point
}

// Row is a point re-expressed on the common axis. Exact original points pass
// through; gaps are linearly interpolated; Z outside the run's observed range
// yields no row (nil), never an extrapolation.
type Row struct {
	Z     float64
	Layer int // nearest bracketing original layer by Z

	TimeS     *float64
	PeakFlow  *float64
	P95Flow   *float64
	PeakSpeed *float64
	P95Speed  *float64
}

// Alignment is the comparison table: the union Z axis ascending, and per run
// label one row slice parallel to Z (nil entries where the run has no data)
type Alignment struct {
	Z    []float64
	Runs map[string][]*Row
}

// Series groups moves by layer and derives the compare metrics for each,
// sorted ascending by Z.
func Series(moves []gcode.Move, layerZ map[int]float64, opts SeriesOptions) []Point {
	byLayer := map[int][]gcode.Move{}
	for _, m := range moves {
		byLayer[m.Layer] = append(byLayer[m.Layer], m)
	}

	pts := make([]Point, 0, len(byLayer))
	for l, ms := range byLayer {
		z, ok := layerZ[l]
		if !ok {
			z = ms[len(ms)-1].Z
		}
		p := Point{Z: z, Layer: l}

		var spVals, spW, flVals, flW []float64
		var spValsF, flValsF []float64
		for _, m := range ms {
			p.TimeS += m.TimeS
			if m.SpeedMMS != nil && m.DistMM > 0 {
				spVals = append(spVals, *m.SpeedMMS)
				spW = append(spW, m.TimeS)
				if m.TimeS >= opts.MinPeakSegmentTime {
					spValsF = append(spValsF, *m.SpeedMMS)
				}
			}
			if m.FlowMM3S > 0 {
				flVals = append(flVals, m.FlowMM3S)
				flW = append(flW, m.TimeS)
				if m.TimeS >= opts.MinPeakSegmentTime {
					flValsF = append(flValsF, m.FlowMM3S)
				}
			}
		}

		p.PeakSpeed = filteredPeak(spValsF, spVals)
		p.PeakFlow = filteredPeak(flValsF, flVals)
		p.P95Speed = quantileOf(spVals, spW)
		p.P95Flow = quantileOf(flVals, flW)

		pts = append(pts, p)
	}
	sort.Slice(pts, func(i, j int) bool { return pts[i].Z < pts[j].Z })
	return pts
}

// AlignRuns builds the comparison table for two or more runs on the union of
// their Z values.
func AlignRuns(runs []RunSeries) Alignment {
	seen := map[float64]struct{}{}
	var zs []float64
	for _, r := range runs {
		for _, p := range r.Points {
			if _, ok := seen[p.Z]; !ok {
				seen[p.Z] = struct{}{}
				zs = append(zs, p.Z)
			}
		}
	}
	sort.Float64s(zs)

	al := Alignment{Z: zs, Runs: map[string][]*Row{}}
	for _, r := range runs {
		rows := make([]*Row, len(zs))
		for i, z := range zs {
			rows[i] = interpAt(r.Points, z)
		}
		al.Runs[r.Label] = rows
	}
	return al
}

// interpAt resolves one common-axis Z against a run's series: exact point,
// linear interpolation between brackets, or nil outside the observed range
func interpAt(pts []Point, z float64) *Row {
	if len(pts) == 0 {
		return nil
	}
	zs := make([]float64, len(pts))
	for i, p := range pts {
		zs[i] = p.Z
	}
	if z < zs[0] || z > zs[len(zs)-1] {
		return nil
	}
	idx := sort.SearchFloat64s(zs, z)
	if idx < len(pts) && pts[idx].Z == z {
		p := pts[idx]
		return &Row{
			Z: z, Layer: p.Layer,
			TimeS:     f64(p.TimeS),
			PeakFlow:  p.PeakFlow,
			P95Flow:   p.P95Flow,
			PeakSpeed: p.PeakSpeed,
			P95Speed:  p.P95Speed,
		}
	}
	p0, p1 := pts[idx-1], pts[idx]
	t := (z - p0.Z) / (p1.Z - p0.Z)

	row := &Row{Z: z}
	row.TimeS = lerp(f64(p0.TimeS), f64(p1.TimeS), t)
	row.PeakFlow = lerp(p0.PeakFlow, p1.PeakFlow, t)
	row.P95Flow = lerp(p0.P95Flow, p1.P95Flow, t)
	row.PeakSpeed = lerp(p0.PeakSpeed, p1.PeakSpeed, t)
	row.P95Speed = lerp(p0.P95Speed, p1.P95Speed, t)

	// nearest bracketing layer wins the attribution
	if z-p0.Z <= p1.Z-z {
		row.Layer = p0.Layer
	} else {
		row.Layer = p1.Layer
	}
	return row
}

// SummaryRow is one scalar cross-run metric with per-compare deltas
type SummaryRow struct {
	Metric   string
	Ref      *float64
	Compares []SummaryCell
}

// SummaryCell pairs a compare run's value with (value - reference)
type SummaryCell struct {
	Value *float64
	Delta *float64
}

// SummaryDeltas computes the scalar comparison summary: total time and the
// run-wide maxima of peak/p95 flow and speed for the reference and each
// compare run.
func SummaryDeltas(ref RunSeries, compares []RunSeries) []SummaryRow {
	type metric struct {
		name string
		get  func(RunSeries) *float64
	}
	metrics := []metric{
		{"total_time_s", totalTime},
		{"max_peak_flow_mm3_s", func(r RunSeries) *float64 { return maxMetric(r, func(p Point) *float64 { return p.PeakFlow }) }},
		{"max_p95_flow_mm3_s", func(r RunSeries) *float64 { return maxMetric(r, func(p Point) *float64 { return p.P95Flow }) }},
		{"max_peak_speed_mm_s", func(r RunSeries) *float64 { return maxMetric(r, func(p Point) *float64 { return p.PeakSpeed }) }},
		{"max_p95_speed_mm_s", func(r RunSeries) *float64 { return maxMetric(r, func(p Point) *float64 { return p.P95Speed }) }},
	}

	out := make([]SummaryRow, 0, len(metrics))
	for _, m := range metrics {
		row := SummaryRow{Metric: m.name, Ref: m.get(ref)}
		for _, c := range compares {
			cell := SummaryCell{Value: m.get(c)}
			if row.Ref != nil && cell.Value != nil {
				d := *cell.Value - *row.Ref
				cell.Delta = &d
			}
			row.Compares = append(row.Compares, cell)
		}
		out = append(out, row)
	}
	return out
}

func totalTime(r RunSeries) *float64 {
	if len(r.Points) == 0 {
		return nil
	}
	sum := 0.0
	for _, p := range r.Points {
		sum += p.TimeS
	}
	return &sum
}

func maxMetric(r RunSeries, get func(Point) *float64) *float64 {
	var best *float64
	for _, p := range r.Points {
		v := get(p)
		if v == nil {
			continue
		}
		if best == nil || *v > *best {
			x := *v
			best = &x
		}
	}
	return best
}

func filteredPeak(filtered, all []float64) *float64 {
	if p := peak(filtered); p != nil {
		return p
	}
	return peak(all)
}

func peak(vals []float64) *float64 {
	if len(vals) == 0 {
		return nil
	}
	m := vals[0]
	for _, v := range vals[1:] {
		if v > m {
			m = v
		}
	}
	return &m
}

func quantileOf(vals, weights []float64) *float64 {
	if len(vals) == 0 {
		return nil
	}
	v, err := stats.WeightedQuantile(vals, weights, 0.95)
	if err != nil {
		return nil
	}
	return v
}

func f64(v float64) *float64 { return &v }

// lerp interpolates between optional endpoints; nil on either side wins
func lerp(a, b *float64, t float64) *float64 {
	if a == nil || b == nil {
		return nil
	}
	v := (1-t)*(*a) + t*(*b)
	return &v
}
