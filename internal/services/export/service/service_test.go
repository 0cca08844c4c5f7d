package service

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"printprof/internal/core/gcode"
	"printprof/internal/core/layers"
	"printprof/internal/core/zalign"
	perr "printprof/internal/platform/errors"
	"printprof/internal/services/export/domain"
	profiledom "printprof/internal/services/profile/domain"
)

func f64(v float64) *float64 { return &v }

func sampleRun(label string) *profiledom.Run {
	return &profiledom.Run{
		ID:       "id-" + label,
		Label:    label,
		ParsedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Layers: []layers.LayerMetrics{
			{Layer: 0, ZMM: 0.2, TimeS: 10, DistMM: 100, ExtrusionMM: 5, PeakSpeedMMS: f64(60)},
			{Layer: 1, ZMM: 0.4, LayerHeightMM: f64(0.2), TimeS: 12, DistMM: 110, ExtrusionMM: 6},
		},
		Totals: profiledom.Totals{TimeS: 22, DistMM: 210, ExtrusionMM: 11, Layers: 2},
	}
}

func sampleReport() *profiledom.Report {
	ref := sampleRun("ref")
	cmp := sampleRun("fast")
	return &profiledom.Report{
		Ref:      ref,
		Compares: []*profiledom.Run{cmp},
		Alignment: &zalign.Alignment{
			Z: []float64{0.2, 0.4},
			Runs: map[string][]*zalign.Row{
				"ref":  {{Z: 0.2, Layer: 0, TimeS: f64(10)}, {Z: 0.4, Layer: 1, TimeS: f64(12)}},
				"fast": {{Z: 0.2, Layer: 0, TimeS: f64(5)}, nil},
			},
		},
		Summary: []zalign.SummaryRow{
			{
				Metric: "total_time_s",
				Ref:    f64(22),
				Compares: []zalign.SummaryCell{
					{Value: f64(11), Delta: f64(-11)},
				},
			},
		},
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return rows
}

func TestWriteReport_FullSet(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	svc := New(Config{})

	man, err := svc.WriteReport(context.Background(), sampleReport(), dir)
	if err != nil {
		t.Fatalf("WriteReport: %v", err)
	}

	want := []string{"ref_layers.csv", "fast_layers.csv", "compare_layers.csv", "compare_summary.csv", "report.json"}
	if len(man.Files) != len(want) {
		t.Fatalf("files = %v", man.Files)
	}
	for i, base := range want {
		if filepath.Base(man.Files[i]) != base {
			t.Fatalf("file %d = %s, want %s", i, man.Files[i], base)
		}
	}

	rows := readCSV(t, filepath.Join(dir, "ref_layers.csv"))
	if len(rows) != 3 {
		t.Fatalf("layer rows = %d, want header + 2", len(rows))
	}
	if rows[0][0] != "layer" || rows[1][1] != "0.2" {
		t.Fatalf("rows = %v", rows[:2])
	}
	// nil metrics render as empty cells, never 0
	if rows[2][8] != "" {
		t.Fatalf("peak speed for layer 1 = %q, want empty", rows[2][8])
	}
	if rows[1][8] != "60" {
		t.Fatalf("peak speed for layer 0 = %q", rows[1][8])
	}
}

func TestWriteReport_CompareTables(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	svc := New(Config{})
	if _, err := svc.WriteReport(context.Background(), sampleReport(), dir); err != nil {
		t.Fatalf("WriteReport: %v", err)
	}

	cmp := readCSV(t, filepath.Join(dir, "compare_layers.csv"))
	if cmp[0][0] != "z_mm" || !strings.HasPrefix(cmp[0][1], "ref_") {
		t.Fatalf("header = %v", cmp[0])
	}
	// fast has no data at z=0.4; its cells stay empty
	last := cmp[2]
	if last[0] != "0.4" || last[7] != "" {
		t.Fatalf("row = %v", last)
	}

	sum := readCSV(t, filepath.Join(dir, "compare_summary.csv"))
	if len(sum) != 2 || sum[1][0] != "total_time_s" || sum[1][3] != "-11" {
		t.Fatalf("summary = %v", sum)
	}
}

func TestWriteReport_JSONRoundTrips(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	svc := New(Config{})
	if _, err := svc.WriteReport(context.Background(), sampleReport(), dir); err != nil {
		t.Fatalf("WriteReport: %v", err)
	}

	buf, err := os.ReadFile(filepath.Join(dir, "report.json"))
	if err != nil {
		t.Fatal(err)
	}
	var doc domain.ReportDoc
	if err := json.Unmarshal(buf, &doc); err != nil {
		t.Fatalf("report.json: %v", err)
	}
	if len(doc.Runs) != 2 || doc.Runs[0].Label != "ref" {
		t.Fatalf("runs = %+v", doc.Runs)
	}
	if doc.Compare == nil || len(doc.Compare.Summary) != 1 {
		t.Fatalf("compare = %+v", doc.Compare)
	}
	if doc.Compare.Runs["fast"][1].Present {
		t.Fatalf("fast z=0.4 should be absent")
	}
}

func TestWriteReport_Histograms(t *testing.T) {
	t.Parallel()

	run := sampleRun("ref")
	for i := 0; i < 8; i++ {
		v := float64(i + 1)
		run.Moves = append(run.Moves, gcode.Move{FlowMM3S: v, SpeedMMS: f64(v * 10), DistMM: 1})
	}

	dir := t.TempDir()
	svc := New(Config{Bins: 4})
	if _, err := svc.WriteReport(context.Background(), &profiledom.Report{Ref: run}, dir); err != nil {
		t.Fatalf("WriteReport: %v", err)
	}

	for _, name := range []string{"ref_flow_hist.csv", "ref_speed_hist.csv"} {
		rows := readCSV(t, filepath.Join(dir, name))
		if len(rows) != 5 {
			t.Fatalf("%s rows = %d, want header + 4 bins", name, len(rows))
		}
		total := 0
		for _, r := range rows[1:] {
			n, err := strconv.Atoi(r[2])
			if err != nil {
				t.Fatalf("%s count %q: %v", name, r[2], err)
			}
			total += n
		}
		if total != 8 {
			t.Fatalf("%s counted %d values, want 8", name, total)
		}
	}
}

func TestWriteReport_MovesToggleAndErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	svc := New(Config{Moves: true})
	rep := sampleReport()
	rep.Alignment = nil
	rep.Summary = nil

	man, err := svc.WriteReport(context.Background(), rep, dir)
	if err != nil {
		t.Fatalf("WriteReport: %v", err)
	}
	found := false
	for _, f := range man.Files {
		if filepath.Base(f) == "ref_moves.csv" {
			found = true
		}
		if strings.HasPrefix(filepath.Base(f), "compare_") {
			t.Fatalf("compare tables without compares: %v", man.Files)
		}
	}
	if !found {
		t.Fatalf("moves csv missing: %v", man.Files)
	}

	if _, err := svc.WriteReport(context.Background(), nil, dir); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("nil report: err = %v", err)
	}
}
