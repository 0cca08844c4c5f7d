package module

import "printprof/internal/platform/config"

// Options holds configuration settings for the profile module
type Options struct {
	Workers             int
	FilamentDiameterMM  float64
	FilamentDensityGCM3 float64 // 0 = unknown
	MinPeakSegmentS     float64
	ProgressEvery       int
}

// FromConfig extracts Options from the given config.Conf
func FromConfig(cfg config.Conf) Options {
	pf := cfg.Prefix("CORE_PROFILE_")
	return Options{
		Workers:             pf.MayInt("WORKERS", 2),
		FilamentDiameterMM:  pf.MayFloat64("FILAMENT_DIAMETER_MM", 1.75),
		FilamentDensityGCM3: pf.MayFloat64("FILAMENT_DENSITY_G_CM3", 0),
		MinPeakSegmentS:     pf.MayFloat64("MIN_PEAK_SEGMENT_S", 0.05),
		ProgressEvery:       pf.MayInt("PROGRESS_EVERY", 0),
	}
}
