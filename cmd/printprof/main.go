package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"printprof/internal/modkit"
	"printprof/internal/modkit/module"
	"printprof/internal/platform/config"
	"printprof/internal/platform/logger"
	"printprof/internal/platform/metrics"
	"printprof/internal/platform/store"

	"printprof/internal/core/layers"
	"printprof/internal/core/slicercfg"

	archdom "printprof/internal/services/archive/domain"
	archmod "printprof/internal/services/archive/module"
	exportmod "printprof/internal/services/export/module"
	profiledom "printprof/internal/services/profile/domain"
	profilemod "printprof/internal/services/profile/module"
)

type repeatFlag []string

func (f *repeatFlag) String() string { return strings.Join(*f, ",") }
func (f *repeatFlag) Set(v string) error {
	*f = append(*f, v)
	return nil
}

func mustSetEnv(k, v string) {
	if v != "" {
		_ = os.Setenv(k, v)
	}
}

func main() {
	config.LoadDotenv()

	var (
		gcodePath = flag.String("gcode", "", "reference trace (required)")
		cfgPath   = flag.String("config", "", "slicer key=value config supplying limits")
		outDir    = flag.String("out-dir", "", "output directory (default: next to the trace)")
		workers   = flag.Int("workers", 0, "parse concurrency (>=1)")
		diameter  = flag.Float64("filament-diameter", 0, "filament diameter mm (overrides config)")
		density   = flag.Float64("filament-density", 0, "filament density g/cm3 (overrides config)")
		bins      = flag.Int("bins", 0, "histogram bucket count")
		movesCSV  = flag.Bool("csv-moves", false, "also write the raw per-move tables")
		archive   = flag.Bool("archive", false, "archive per-move rows to ClickHouse")
		quiet     = flag.Bool("quiet", false, "only log warnings and errors")
	)
	var compares repeatFlag
	flag.Var(&compares, "compare", "compare trace (repeatable)")
	flag.Parse()

	if *quiet {
		mustSetEnv("LOG_LEVEL", "warn")
	}
	root := config.New()
	l := logger.Get()

	if *gcodePath == "" {
		log.Fatal("-gcode is required")
	}

	// Slicer config supplies limits plus filament defaults; flags win
	limits := layers.Limits{}
	if *cfgPath != "" {
		scfg, err := slicercfg.Load(*cfgPath)
		if err != nil {
			l.Fatal().Err(err).Str("path", *cfgPath).Msg("slicer config load failed")
		}
		limits.MaxFlowMM3S, limits.MaxSpeedMMS = scfg.Limits()
		if *diameter == 0 {
			if d := scfg.Float(slicercfg.KeyFilamentDiameter); d != nil {
				*diameter = *d
			}
		}
		if *density == 0 {
			if d := scfg.Float(slicercfg.KeyFilamentDensity); d != nil {
				*density = *d
			}
		}
	}

	// Pass CLI flags into CORE_* so modules can read their own config
	if *workers > 0 {
		mustSetEnv("CORE_PROFILE_WORKERS", strconv.Itoa(*workers))
	}
	if *diameter > 0 {
		mustSetEnv("CORE_PROFILE_FILAMENT_DIAMETER_MM", strconv.FormatFloat(*diameter, 'f', -1, 64))
	}
	if *density > 0 {
		mustSetEnv("CORE_PROFILE_FILAMENT_DENSITY_G_CM3", strconv.FormatFloat(*density, 'f', -1, 64))
	}
	if *bins > 0 {
		mustSetEnv("CORE_EXPORT_BINS", strconv.Itoa(*bins))
	}

	deps := modkit.Deps{
		Cfg: root,
		Log: *l,
		Met: metrics.New(),
	}

	var st *store.Store
	if *archive {
		chCfg := root.Prefix("SERVICE_CLICKHOUSE_")
		var err error
		st, err = store.Open(context.Background(), store.Config{
			AppName: "printprof",
			CH: store.CHConfig{
				Enabled: true,
				URL:     chCfg.MustString("DBURL"),
			},
		}, store.WithLogger(*l))
		if err != nil {
			l.Fatal().Err(err).Msg("store.Open failed")
		}
		defer func() {
			if err := st.Close(context.Background()); err != nil {
				l.Error().Err(err).Msg("failed to close store")
			}
		}()
		deps.CH = st.CH
	}

	pm := profilemod.New(deps, profilemod.Options{})
	em := exportmod.New(deps, exportmod.Options{Moves: *movesCSV})
	module.Register(pm.Name(), pm.Ports())
	module.Register(em.Name(), em.Ports())

	ctx := context.Background()

	in := profiledom.ProfileInput{
		Ref:    profiledom.TraceInput{Path: *gcodePath},
		Limits: limits,
	}
	for _, c := range compares {
		in.Compares = append(in.Compares, profiledom.TraceInput{Path: c})
	}

	profiler := module.MustPortsOf[profilemod.Ports](pm).Profiler
	rep, err := profiler.Profile(ctx, in)
	if err != nil {
		l.Fatal().Err(err).Msg("profile failed")
	}

	dir := *outDir
	if dir == "" {
		dir = filepath.Dir(*gcodePath)
	}
	writer := module.MustPortsOf[exportmod.Ports](em).Writer
	man, err := writer.WriteReport(ctx, rep, dir)
	if err != nil {
		l.Fatal().Err(err).Msg("export failed")
	}
	for _, f := range man.Files {
		l.Info().Str("file", f).Msg("report written")
	}

	if *archive {
		am := archmod.New(deps)
		module.Register(am.Name(), am.Ports())
		aw := module.MustPortsOf[archmod.Ports](am).Writer
		if err := aw.EnsureSchema(ctx); err != nil {
			l.Fatal().Err(err).Msg("archive schema failed")
		}
		for _, run := range append([]*profiledom.Run{rep.Ref}, rep.Compares...) {
			err := aw.ArchiveRun(ctx, archdom.RunArchive{
				RunID:    run.ID,
				Label:    run.Label,
				File:     run.Path,
				ParsedAt: run.ParsedAt,
				Moves:    run.Moves,
			})
			if err != nil {
				l.Fatal().Err(err).Str("run_id", run.ID).Msg("archive failed")
			}
			l.Info().Str("run_id", run.ID).Int("moves", len(run.Moves)).Msg("run archived")
		}
	}

	printSummary(rep)
}

// printSummary writes the human-readable totals to stdout, logging aside
func printSummary(rep *profiledom.Report) {
	for _, run := range append([]*profiledom.Run{rep.Ref}, rep.Compares...) {
		t := run.Totals
		fmt.Printf("%s: %.1fs, %.1fmm travel+print, %.1fmm filament (%.2fcm3)",
			run.Label, t.TimeS, t.DistMM, t.ExtrusionMM, t.FilamentMM3/1000.0)
		if t.FilamentG != nil {
			fmt.Printf(", %.1fg", *t.FilamentG)
		}
		fmt.Printf(", %d layers, %d moves\n", t.Layers, t.Moves)
	}
}
