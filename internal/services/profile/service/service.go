// Package service implements the profile service
package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"printprof/internal/core/gcode"
	"printprof/internal/core/layers"
	"printprof/internal/core/zalign"
	"printprof/internal/platform/logger"
	"printprof/internal/platform/metrics"

	perr "printprof/internal/platform/errors"
	"printprof/internal/services/profile/domain"
)

// Config for the profile service
type Config struct {
	Workers             int
	FilamentDiameterMM  float64
	FilamentDensityGCM3 *float64
	MinPeakSegmentS     float64 // 0 = no spike filtering in compare series
	ProgressEvery       int     // 0 = no progress logging
}

// Service implements domain.ProfilerPort
type Service struct {
	Cfg Config
	Met *metrics.Metrics
}

// New constructs a profile service. Zero config fields get working defaults.
func New(cfg Config, met *metrics.Metrics) *Service {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.FilamentDiameterMM <= 0 {
		cfg.FilamentDiameterMM = 1.75
	}
	return &Service{Cfg: cfg, Met: met}
}

// Profile parses the reference and compare traces, aggregates per-layer
// metrics for each, and aligns the compare runs on the reference's Z axis
func (s *Service) Profile(ctx context.Context, in domain.ProfileInput) (*domain.Report, error) {
	if in.Ref.Path == "" && in.Ref.Text == "" {
		return nil, perr.InvalidArgf("profile: reference trace is required")
	}

	diameter := in.FilamentDiameterMM
	if diameter <= 0 {
		diameter = s.Cfg.FilamentDiameterMM
	}
	density := in.FilamentDensityGCM3
	if density == nil {
		density = s.Cfg.FilamentDensityGCM3
	}

	traces := append([]domain.TraceInput{in.Ref}, in.Compares...)
	runs := make([]*domain.Run, len(traces))
	errs := make([]error, len(traces))

	sem := make(chan struct{}, s.Cfg.Workers)
	wg := sync.WaitGroup{}

	for i := range traces {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer func() { <-sem; wg.Done() }()
			runs[i], errs[i] = s.parseOne(ctx, traces[i], diameter, density, in.Limits)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	rep := &domain.Report{
		Ref:      runs[0],
		Compares: runs[1:],
		Limits:   in.Limits,
	}
	if len(rep.Compares) > 0 {
		series := make([]zalign.RunSeries, 0, len(runs))
		for _, r := range runs {
			series = append(series, zalign.RunSeries{Label: r.Label, Points: r.Series})
		}
		a := zalign.AlignRuns(series)
		rep.Alignment = &a
		rep.Summary = zalign.SummaryDeltas(series[0], series[1:])
	}
	return rep, nil
}

func (s *Service) parseOne(
	ctx context.Context,
	t domain.TraceInput,
	diameter float64,
	density *float64,
	limits layers.Limits,
) (*domain.Run, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	label := t.Label
	if label == "" {
		label = labelFor(t)
	}
	lctx := logger.WithRun(ctx, "", label)
	log := logger.C(lctx)

	opts := gcode.Options{FilamentDiameterMM: diameter, ProgressEvery: s.Cfg.ProgressEvery}
	if s.Cfg.ProgressEvery > 0 {
		opts.Progress = func(msg string) { log.Debug().Msg(msg) }
	}

	started := time.Now()
	var (
		res *gcode.Result
		err error
	)
	if t.Path != "" {
		res, err = gcode.ParseFile(t.Path, opts)
	} else {
		res, err = gcode.Parse(strings.NewReader(t.Text), opts)
	}
	if err != nil {
		if s.Met != nil {
			s.Met.ParseFailed()
		}
		return nil, perr.WrapIf(err, perr.ErrorCodeIO, "parse "+label)
	}
	if s.Met != nil {
		s.Met.RunParsed(res.Lines, time.Since(started))
	}

	run := &domain.Run{
		ID:       uuid.NewString(),
		Label:    label,
		Path:     t.Path,
		ParsedAt: started.UTC(),
		Moves:    res.Moves,
		LayerZ:   res.LayerZ,
		Layers:   layers.Aggregate(res.Moves, res.LayerZ, limits),
		Series: zalign.Series(res.Moves, res.LayerZ, zalign.SeriesOptions{
			MinPeakSegmentTime: s.Cfg.MinPeakSegmentS,
		}),
	}
	run.Totals = totalsOf(run, diameter, density)
	run.Totals.Lines = res.Lines

	log.Info().
		Str("run_id", run.ID).
		Int("lines", res.Lines).
		Int("moves", len(res.Moves)).
		Int("layers", len(run.Layers)).
		Dur("took", time.Since(started)).
		Msg("trace profiled")
	return run, nil
}

func labelFor(t domain.TraceInput) string {
	if t.Path == "" {
		return "trace"
	}
	p := t.Path
	if i := strings.LastIndexAny(p, `/\`); i >= 0 {
		p = p[i+1:]
	}
	return p
}

func totalsOf(run *domain.Run, diameter float64, density *float64) domain.Totals {
	tot := domain.Totals{
		Moves:  len(run.Moves),
		Layers: len(run.Layers),
	}
	area := gcode.FilamentAreaMM2(diameter)
	for _, m := range run.Moves {
		tot.TimeS += m.TimeS
		tot.DistMM += m.DistMM
		if m.IsTravel() {
			tot.TravelDistMM += m.DistMM
		}
		if m.DeMM > 0 {
			tot.ExtrusionMM += m.DeMM
			tot.FilamentMM3 += m.DeMM * area
		}
	}
	if density != nil && *density > 0 {
		// density is g/cm3; 1 cm3 = 1000 mm3
		g := tot.FilamentMM3 * *density / 1000.0
		tot.FilamentG = &g
	}
	return tot
}
