package domain

import (
	"time"

	"printprof/internal/core/layers"
	"printprof/internal/core/zalign"
	profiledom "printprof/internal/services/profile/domain"
)

// Machine-readable mirror of the CSV tables. Also serves as the API response
// shape, so field names stay stable even when the in-memory structs grow.

// ReportDoc is the serializable profile report
type ReportDoc struct {
	GeneratedAt time.Time   `json:"generated_at"`
	Runs        []RunDoc    `json:"runs"`
	Compare     *CompareDoc `json:"compare,omitempty"`
}

// RunDoc is one run's metadata, totals, and layer table
type RunDoc struct {
	ID       string            `json:"id"`
	Label    string            `json:"label"`
	File     string            `json:"file,omitempty"`
	ParsedAt time.Time         `json:"parsed_at"`
	Totals   profiledom.Totals `json:"totals"`
	Layers   []LayerDoc        `json:"layers"`
}

// LayerDoc is one serialized layer row; absent metrics are omitted
type LayerDoc struct {
	Layer         int      `json:"layer"`
	ZMM           float64  `json:"z_mm"`
	LayerHeightMM *float64 `json:"layer_height_mm,omitempty"`

	TimeS       float64 `json:"time_s"`
	DistMM      float64 `json:"dist_mm"`
	ExtrusionMM float64 `json:"extrusion_mm"`

	AvgSpeedMMS  *float64 `json:"avg_speed_mm_s,omitempty"`
	AvgFlowMM3S  *float64 `json:"avg_flow_mm3_s,omitempty"`
	PeakSpeedMMS *float64 `json:"peak_speed_mm_s,omitempty"`
	P95SpeedMMS  *float64 `json:"p95_speed_mm_s,omitempty"`
	P99SpeedMMS  *float64 `json:"p99_speed_mm_s,omitempty"`
	PeakFlowMM3S *float64 `json:"peak_flow_mm3_s,omitempty"`
	P95FlowMM3S  *float64 `json:"p95_flow_mm3_s,omitempty"`
	P99FlowMM3S  *float64 `json:"p99_flow_mm3_s,omitempty"`

	FlowHeadroomP99MM3S *float64 `json:"flow_headroom_p99_mm3_s,omitempty"`
	SpeedHeadroomP99MMS *float64 `json:"speed_headroom_p99_mm_s,omitempty"`

	TravelTimeS  float64 `json:"travel_time_s"`
	TravelDistMM float64 `json:"travel_dist_mm"`
	ExtrudeTimeS float64 `json:"extrude_time_s"`

	RetractCount   int     `json:"retract_count"`
	RetractMM      float64 `json:"retract_mm"`
	ShortFastCount int     `json:"short_fast_count"`

	OverFlowTimeFrac  *float64 `json:"over_flow_time_frac,omitempty"`
	OverSpeedTimeFrac *float64 `json:"over_speed_time_frac,omitempty"`

	AvgFanPct   *float64 `json:"avg_fan_pct,omitempty"`
	HotendSetC  *float64 `json:"hotend_set_c,omitempty"`
	BedSetC     *float64 `json:"bed_set_c,omitempty"`
	ChamberSetC *float64 `json:"chamber_set_c,omitempty"`
}

// CompareDoc is the serialized Z-aligned comparison
type CompareDoc struct {
	Z       []float64           `json:"z_mm"`
	Runs    map[string][]RowDoc `json:"runs"`
	Summary []SummaryDoc        `json:"summary"`
}

// RowDoc is one aligned row; Present false means the run has no data at that Z
type RowDoc struct {
	Present bool     `json:"present"`
	Layer   int      `json:"layer,omitempty"`
	TimeS   *float64 `json:"time_s,omitempty"`

	PeakFlow  *float64 `json:"peak_flow_mm3_s,omitempty"`
	P95Flow   *float64 `json:"p95_flow_mm3_s,omitempty"`
	PeakSpeed *float64 `json:"peak_speed_mm_s,omitempty"`
	P95Speed  *float64 `json:"p95_speed_mm_s,omitempty"`
}

// SummaryDoc is one scalar summary metric across runs
type SummaryDoc struct {
	Metric   string       `json:"metric"`
	Ref      *float64     `json:"ref,omitempty"`
	Compares []SummaryVal `json:"compares"`
}

// SummaryVal pairs a compare value with its delta against the reference
type SummaryVal struct {
	Value *float64 `json:"value,omitempty"`
	Delta *float64 `json:"delta,omitempty"`
}

// FromReport flattens rep into its serializable document
func FromReport(rep *profiledom.Report) ReportDoc {
	doc := ReportDoc{GeneratedAt: time.Now().UTC()}

	for _, run := range append([]*profiledom.Run{rep.Ref}, rep.Compares...) {
		rd := RunDoc{
			ID:       run.ID,
			Label:    run.Label,
			File:     run.Path,
			ParsedAt: run.ParsedAt,
			Totals:   run.Totals,
			Layers:   make([]LayerDoc, 0, len(run.Layers)),
		}
		for _, l := range run.Layers {
			rd.Layers = append(rd.Layers, layerFromMetrics(l))
		}
		doc.Runs = append(doc.Runs, rd)
	}

	if rep.Alignment != nil {
		cd := &CompareDoc{Z: rep.Alignment.Z, Runs: map[string][]RowDoc{}}
		for label, rows := range rep.Alignment.Runs {
			out := make([]RowDoc, len(rows))
			for i, r := range rows {
				out[i] = rowFromAligned(r)
			}
			cd.Runs[label] = out
		}
		for _, s := range rep.Summary {
			sd := SummaryDoc{Metric: s.Metric, Ref: s.Ref}
			for _, c := range s.Compares {
				sd.Compares = append(sd.Compares, SummaryVal{Value: c.Value, Delta: c.Delta})
			}
			cd.Summary = append(cd.Summary, sd)
		}
		doc.Compare = cd
	}
	return doc
}

func layerFromMetrics(l layers.LayerMetrics) LayerDoc {
	return LayerDoc{
		Layer:               l.Layer,
		ZMM:                 l.ZMM,
		LayerHeightMM:       l.LayerHeightMM,
		TimeS:               l.TimeS,
		DistMM:              l.DistMM,
		ExtrusionMM:         l.ExtrusionMM,
		AvgSpeedMMS:         l.AvgSpeedMMS,
		AvgFlowMM3S:         l.AvgFlowMM3S,
		PeakSpeedMMS:        l.PeakSpeedMMS,
		P95SpeedMMS:         l.P95SpeedMMS,
		P99SpeedMMS:         l.P99SpeedMMS,
		PeakFlowMM3S:        l.PeakFlowMM3S,
		P95FlowMM3S:         l.P95FlowMM3S,
		P99FlowMM3S:         l.P99FlowMM3S,
		FlowHeadroomP99MM3S: l.FlowHeadroomP99MM3S,
		SpeedHeadroomP99MMS: l.SpeedHeadroomP99MMS,
		TravelTimeS:         l.TravelTimeS,
		TravelDistMM:        l.TravelDistMM,
		ExtrudeTimeS:        l.ExtrudeTimeS,
		RetractCount:        l.RetractCount,
		RetractMM:           l.RetractMM,
		ShortFastCount:      l.ShortFastCount,
		OverFlowTimeFrac:    l.OverFlowTimeFrac,
		OverSpeedTimeFrac:   l.OverSpeedTimeFrac,
		AvgFanPct:           l.AvgFanPct,
		HotendSetC:          l.HotendSetC,
		BedSetC:             l.BedSetC,
		ChamberSetC:         l.ChamberSetC,
	}
}

func rowFromAligned(r *zalign.Row) RowDoc {
	if r == nil {
		return RowDoc{}
	}
	return RowDoc{
		Present:   true,
		Layer:     r.Layer,
		TimeS:     r.TimeS,
		PeakFlow:  r.PeakFlow,
		P95Flow:   r.P95Flow,
		PeakSpeed: r.PeakSpeed,
		P95Speed:  r.P95Speed,
	}
}
