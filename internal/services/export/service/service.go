// Package service implements the CSV/JSON report writers
package service

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"printprof/internal/core/stats"
	perr "printprof/internal/platform/errors"
	"printprof/internal/services/export/domain"
	profiledom "printprof/internal/services/profile/domain"
)

// Config for the export service
type Config struct {
	// Moves also writes the raw per-move table for each run; off by default
	// because those files dwarf everything else
	Moves bool

	// Bins sets the bucket count for the flow/speed histogram tables;
	// 0 disables them
	Bins int
}

// Service implements domain.WriterPort
type Service struct {
	Cfg Config
}

// New constructs an export service
func New(cfg Config) *Service { return &Service{Cfg: cfg} }

// WriteReport renders rep under dir: one layers table per run, the raw move
// tables when configured, the Z-aligned compare tables when compares exist,
// and a report.json bundling the lot
func (s *Service) WriteReport(ctx context.Context, rep *profiledom.Report, dir string) (domain.Manifest, error) {
	var man domain.Manifest
	if rep == nil || rep.Ref == nil {
		return man, perr.InvalidArgf("export: empty report")
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return man, perr.Wrap(err, perr.ErrorCodeIO, "export: create output dir")
	}

	runs := append([]*profiledom.Run{rep.Ref}, rep.Compares...)
	for _, run := range runs {
		if err := ctx.Err(); err != nil {
			return man, err
		}
		base := fileLabel(run.Label)
		if err := s.writeCSV(&man, filepath.Join(dir, base+"_layers.csv"), layersTable(run)); err != nil {
			return man, err
		}
		if s.Cfg.Moves {
			if err := s.writeCSV(&man, filepath.Join(dir, base+"_moves.csv"), movesTable(run)); err != nil {
				return man, err
			}
		}
		if s.Cfg.Bins > 0 {
			if tab := histTable(flowValues(run), s.Cfg.Bins); tab != nil {
				if err := s.writeCSV(&man, filepath.Join(dir, base+"_flow_hist.csv"), tab); err != nil {
					return man, err
				}
			}
			if tab := histTable(speedValues(run), s.Cfg.Bins); tab != nil {
				if err := s.writeCSV(&man, filepath.Join(dir, base+"_speed_hist.csv"), tab); err != nil {
					return man, err
				}
			}
		}
	}

	if rep.Alignment != nil {
		if err := s.writeCSV(&man, filepath.Join(dir, "compare_layers.csv"), compareTable(rep)); err != nil {
			return man, err
		}
		if err := s.writeCSV(&man, filepath.Join(dir, "compare_summary.csv"), summaryTable(rep)); err != nil {
			return man, err
		}
	}

	if err := s.writeJSON(&man, filepath.Join(dir, "report.json"), domain.FromReport(rep)); err != nil {
		return man, err
	}
	return man, nil
}

func (s *Service) writeCSV(man *domain.Manifest, path string, table [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeIO, "export: create "+filepath.Base(path))
	}
	w := csv.NewWriter(f)
	err = w.WriteAll(table)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeIO, "export: write "+filepath.Base(path))
	}
	man.Files = append(man.Files, path)
	return nil
}

func (s *Service) writeJSON(man *domain.Manifest, path string, doc any) error {
	buf, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeJSON, "export: encode report")
	}
	if err := os.WriteFile(path, append(buf, '\n'), 0o644); err != nil {
		return perr.Wrap(err, perr.ErrorCodeIO, "export: write report.json")
	}
	man.Files = append(man.Files, path)
	return nil
}

// fileLabel flattens a run label into a safe file stem
func fileLabel(label string) string {
	if label == "" {
		return "run"
	}
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return '_'
		}
	}, label)
	return strings.TrimSuffix(clean, ".gcode")
}

func cell(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func cellPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return cell(*v)
}

func layersTable(run *profiledom.Run) [][]string {
	table := [][]string{{
		"layer", "z_mm", "layer_height_mm",
		"time_s", "dist_mm", "extrusion_mm",
		"avg_speed_mm_s", "avg_flow_mm3_s",
		"peak_speed_mm_s", "p95_speed_mm_s", "p99_speed_mm_s",
		"peak_flow_mm3_s", "p95_flow_mm3_s", "p99_flow_mm3_s",
		"flow_headroom_p99_mm3_s", "speed_headroom_p99_mm_s",
		"travel_time_s", "travel_dist_mm", "extrude_time_s",
		"retract_count", "retract_mm", "short_fast_count",
		"over_flow_time_frac", "over_speed_time_frac",
		"avg_fan_pct", "hotend_set_c", "bed_set_c", "chamber_set_c",
	}}
	for _, l := range run.Layers {
		table = append(table, []string{
			strconv.Itoa(l.Layer), cell(l.ZMM), cellPtr(l.LayerHeightMM),
			cell(l.TimeS), cell(l.DistMM), cell(l.ExtrusionMM),
			cellPtr(l.AvgSpeedMMS), cellPtr(l.AvgFlowMM3S),
			cellPtr(l.PeakSpeedMMS), cellPtr(l.P95SpeedMMS), cellPtr(l.P99SpeedMMS),
			cellPtr(l.PeakFlowMM3S), cellPtr(l.P95FlowMM3S), cellPtr(l.P99FlowMM3S),
			cellPtr(l.FlowHeadroomP99MM3S), cellPtr(l.SpeedHeadroomP99MMS),
			cell(l.TravelTimeS), cell(l.TravelDistMM), cell(l.ExtrudeTimeS),
			strconv.Itoa(l.RetractCount), cell(l.RetractMM), strconv.Itoa(l.ShortFastCount),
			cellPtr(l.OverFlowTimeFrac), cellPtr(l.OverSpeedTimeFrac),
			cellPtr(l.AvgFanPct), cellPtr(l.HotendSetC), cellPtr(l.BedSetC), cellPtr(l.ChamberSetC),
		})
	}
	return table
}

func movesTable(run *profiledom.Run) [][]string {
	table := [][]string{{
		"seq", "layer", "z_mm", "feature", "kind",
		"dist_mm", "de_mm", "time_s", "speed_mm_s", "flow_mm3_s",
		"fan_pct", "hotend_c", "bed_c", "chamber_c",
	}}
	for i, m := range run.Moves {
		table = append(table, []string{
			strconv.Itoa(i), strconv.Itoa(m.Layer), cell(m.Z), m.Feature, string(m.Kind),
			cell(m.DistMM), cell(m.DeMM), cell(m.TimeS), cellPtr(m.SpeedMMS), cell(m.FlowMM3S),
			cellPtr(m.FanPct), cellPtr(m.HotendC), cellPtr(m.BedC), cellPtr(m.ChamberC),
		})
	}
	return table
}

// flowValues collects the flow of every extruding move
func flowValues(run *profiledom.Run) []float64 {
	vals := make([]float64, 0, len(run.Moves))
	for _, m := range run.Moves {
		if m.FlowMM3S > 0 {
			vals = append(vals, m.FlowMM3S)
		}
	}
	return vals
}

// speedValues collects the resolved speed of every move that has one
func speedValues(run *profiledom.Run) []float64 {
	vals := make([]float64, 0, len(run.Moves))
	for _, m := range run.Moves {
		if m.SpeedMMS != nil {
			vals = append(vals, *m.SpeedMMS)
		}
	}
	return vals
}

// histTable bins vals into n equal-width buckets; nil when vals is empty
func histTable(vals []float64, n int) [][]string {
	if len(vals) == 0 {
		return nil
	}
	lo, hi := vals[0], vals[0]
	for _, v := range vals[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	bins := stats.MakeBins(lo, hi, n)
	counts := stats.BinCounts(vals, bins)

	table := [][]string{{"bin_lo", "bin_hi", "count"}}
	for i, b := range bins {
		table = append(table, []string{cell(b.Lo), cell(b.Hi), strconv.Itoa(counts[i])})
	}
	return table
}

func compareTable(rep *profiledom.Report) [][]string {
	labels := make([]string, 0, 1+len(rep.Compares))
	labels = append(labels, rep.Ref.Label)
	for _, c := range rep.Compares {
		labels = append(labels, c.Label)
	}

	head := []string{"z_mm"}
	for _, l := range labels {
		head = append(head,
			l+"_layer", l+"_time_s",
			l+"_peak_flow_mm3_s", l+"_p95_flow_mm3_s",
			l+"_peak_speed_mm_s", l+"_p95_speed_mm_s",
		)
	}

	table := [][]string{head}
	for i, z := range rep.Alignment.Z {
		row := []string{cell(z)}
		for _, l := range labels {
			r := rep.Alignment.Runs[l][i]
			if r == nil {
				row = append(row, "", "", "", "", "", "")
				continue
			}
			row = append(row,
				strconv.Itoa(r.Layer), cellPtr(r.TimeS),
				cellPtr(r.PeakFlow), cellPtr(r.P95Flow),
				cellPtr(r.PeakSpeed), cellPtr(r.P95Speed),
			)
		}
		table = append(table, row)
	}
	return table
}

func summaryTable(rep *profiledom.Report) [][]string {
	head := []string{"metric", rep.Ref.Label}
	for _, c := range rep.Compares {
		head = append(head, c.Label, c.Label+"_delta")
	}

	table := [][]string{head}
	for _, row := range rep.Summary {
		r := []string{row.Metric, cellPtr(row.Ref)}
		for _, c := range row.Compares {
			r = append(r, cellPtr(c.Value), cellPtr(c.Delta))
		}
		table = append(table, r)
	}
	return table
}
