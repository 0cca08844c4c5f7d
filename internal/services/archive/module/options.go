package module

import "printprof/internal/platform/config"

// Options holds configuration settings for the archive module
type Options struct {
	Table     string
	Chunk     int
	HardLimit int
}

// FromConfig extracts Options from the given config.Conf
func FromConfig(cfg config.Conf) Options {
	af := cfg.Prefix("CORE_ARCHIVE_")
	return Options{
		Table:     af.MayString("TABLE", "printprof_moves"),
		Chunk:     af.MayInt("CHUNK", 5000),
		HardLimit: af.MayInt("HARD_LIMIT", 100),
	}
}
