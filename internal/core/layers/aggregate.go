// Package layers aggregates resolved moves into the per-layer metrics table.
// Stateless: Aggregate is a pure function of its inputs and recomputes from
// scratch on every call.
package layers

import (
	"sort"

	"printprof/internal/core/gcode"
	"printprof/internal/core/stats"
)

// Short/fast extruding segments are a proxy for motion-dynamics stress
// (ringing / pressure-advance sensitivity)
const (
	shortFastMaxDistMM  = 0.6
	shortFastMinSpeedMM = 50.0
)

// Limits are externally supplied caps (typically from a slicer config).
// Nil members disable the corresponding headroom/over-limit fields.
type Limits struct {
	MaxFlowMM3S *float64
	MaxSpeedMMS *float64
}

// LayerMetrics is one derived row per layer index. Nil pointer fields mean
// "no qualifying data", never zero.
type LayerMetrics struct {
	Layer         int
	ZMM           float64
	LayerHeightMM *float64 // nil for the first layer

	TimeS       float64
	DistMM      float64
	ExtrusionMM float64

	AvgSpeedMMS *float64 // Σ dist / Σ time
	AvgFlowMM3S *float64 // time-weighted

	PeakSpeedMMS *float64
	P95SpeedMMS  *float64
	P99SpeedMMS  *float64
	PeakFlowMM3S *float64
	P95FlowMM3S  *float64
	P99FlowMM3S  *float64

	FlowHeadroomP99MM3S *float64 // limit - p99, when both known
	SpeedHeadroomP99MMS *float64

	TravelTimeS  float64
	TravelDistMM float64
	ExtrudeTimeS float64

	RetractCount int
	RetractMM    float64

	ShortFastCount int

	OverFlowTimeFrac  *float64 // fraction of layer time above the flow limit
	OverSpeedTimeFrac *float64

	AvgFanPct   *float64
	HotendSetC  *float64
	BedSetC     *float64
	ChamberSetC *float64
}

// Aggregate produces one LayerMetrics row per distinct layer index present in
// moves, ordered ascending. layerZ supplies each layer's Z with fallback to
// the last move's end Z in that layer.
func Aggregate(moves []gcode.Move, layerZ map[int]float64, limits Limits) []LayerMetrics {
	byLayer := map[int][]gcode.Move{}
	for _, m := range moves {
		byLayer[m.Layer] = append(byLayer[m.Layer], m)
	}
	order := make([]int, 0, len(byLayer))
	for l := range byLayer {
		order = append(order, l)
	}
	sort.Ints(order)

	out := make([]LayerMetrics, 0, len(order))
	var prevZ *float64

	// setpoints carry forward across layers so sparse M104/M140 traces still
	// chart cleanly
	var lastHotend, lastBed, lastChamber *float64

	for _, l := range order {
		ms := byLayer[l]

		z, ok := layerZ[l]
		if !ok {
			z = ms[len(ms)-1].Z
		}
		row := LayerMetrics{Layer: l, ZMM: z}
		if prevZ != nil {
			h := z - *prevZ
			row.LayerHeightMM = &h
		}
		zc := z
		prevZ = &zc

		var spVals, spW, flVals, flW []float64
		var overFlowT, overSpeedT float64
		var fanWeighted, fanW, flowWeighted float64

		for _, m := range ms {
			row.TimeS += m.TimeS
			row.DistMM += m.DistMM
			row.ExtrusionMM += m.DeMM

			if m.SpeedMMS != nil && m.DistMM > 0 {
				spVals = append(spVals, *m.SpeedMMS)
				spW = append(spW, m.TimeS)
			}
			if m.FlowMM3S > 0 {
				flVals = append(flVals, m.FlowMM3S)
				flW = append(flW, m.TimeS)
			}

			if m.IsTravel() {
				row.TravelTimeS += m.TimeS
				row.TravelDistMM += m.DistMM
			}
			if m.DeMM > 0 && m.TimeS > 0 {
				row.ExtrudeTimeS += m.TimeS
			}
			if m.IsRetract() {
				row.RetractCount++
				row.RetractMM += -m.DeMM
			}
			if m.DeMM > 0 && m.DistMM > 0 && m.DistMM < shortFastMaxDistMM &&
				m.SpeedMMS != nil && *m.SpeedMMS > shortFastMinSpeedMM {
				row.ShortFastCount++
			}

			if limits.MaxFlowMM3S != nil && m.FlowMM3S > *limits.MaxFlowMM3S {
				overFlowT += m.TimeS
			}
			if limits.MaxSpeedMMS != nil && m.SpeedMMS != nil && *m.SpeedMMS > *limits.MaxSpeedMMS {
				overSpeedT += m.TimeS
			}

			flowWeighted += m.FlowMM3S * m.TimeS
			if m.FanPct != nil {
				fanWeighted += *m.FanPct * m.TimeS
				fanW += m.TimeS
			}

			if m.HotendC != nil {
				lastHotend = m.HotendC
			}
			if m.BedC != nil {
				lastBed = m.BedC
			}
			if m.ChamberC != nil {
				lastChamber = m.ChamberC
			}
		}

		row.PeakSpeedMMS = maxOf(spVals)
		row.P95SpeedMMS = quantileOf(spVals, spW, 0.95)
		row.P99SpeedMMS = quantileOf(spVals, spW, 0.99)
		row.PeakFlowMM3S = maxOf(flVals)
		row.P95FlowMM3S = quantileOf(flVals, flW, 0.95)
		row.P99FlowMM3S = quantileOf(flVals, flW, 0.99)

		if limits.MaxFlowMM3S != nil && row.P99FlowMM3S != nil {
			h := *limits.MaxFlowMM3S - *row.P99FlowMM3S
			row.FlowHeadroomP99MM3S = &h
		}
		if limits.MaxSpeedMMS != nil && row.P99SpeedMMS != nil {
			h := *limits.MaxSpeedMMS - *row.P99SpeedMMS
			row.SpeedHeadroomP99MMS = &h
		}

		if row.TimeS > 0 {
			avgSpeed := row.DistMM / row.TimeS
			avgFlow := flowWeighted / row.TimeS
			row.AvgSpeedMMS = &avgSpeed
			row.AvgFlowMM3S = &avgFlow
			if fanW > 0 {
				avgFan := fanWeighted / fanW
				row.AvgFanPct = &avgFan
			}
			if limits.MaxFlowMM3S != nil {
				f := overFlowT / row.TimeS
				row.OverFlowTimeFrac = &f
			}
			if limits.MaxSpeedMMS != nil {
				f := overSpeedT / row.TimeS
				row.OverSpeedTimeFrac = &f
			}
		}

		row.HotendSetC = lastHotend
		row.BedSetC = lastBed
		row.ChamberSetC = lastChamber

		out = append(out, row)
	}
	return out
}

func maxOf(vals []float64) *float64 {
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

// quantileOf wraps stats.WeightedQuantile; slices built here always match in
// length so the error path cannot trigger
func quantileOf(vals, weights []float64, q float64) *float64 {
	if len(vals) == 0 {
		return nil
	}
	v, err := stats.WeightedQuantile(vals, weights, q)
	if err != nil {
		return nil
	}
	return v
}
