// Package slicercfg reads slicer-exported `key = value` config files and
// exposes best-effort numeric lookups for the limits the aggregator consumes.
package slicercfg

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	perr "printprof/internal/platform/errors"
)

// Config is the raw key to string-value view of one config file
type Config map[string]string

// Well-known keys the profiler consumes
const (
	KeyNozzleDiameter   = "nozzle_diameter"
	KeyFilamentDiameter = "filament_diameter"
	KeyFilamentDensity  = "filament_density"
	KeyMaxFlow          = "filament_max_volumetric_speed"
	KeyMaxPrintSpeed    = "max_print_speed"
	KeyLayerHeight      = "layer_height"
	KeyFirstLayerHeight = "first_layer_height"
	KeyMaxLayerHeight   = "max_layer_height"
	KeyMinLayerHeight   = "min_layer_height"
	KeyMaxFanSpeed      = "max_fan_speed"
)

// Load reads a config file from path
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeIO, "open config %s", path)
	}
	defer func() { _ = f.Close() }()
	return Parse(f)
}

// Parse reads `key = value` lines; `#` lines are comments, unmatched lines
// are ignored
func Parse(r io.Reader) (Config, error) {
	out := Config{}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if line == "" || strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		eq := strings.Index(line, "=")
		if eq <= 0 {
			continue
		}
		k := strings.TrimSpace(line[:eq])
		v := strings.TrimSpace(line[eq+1:])
		if k == "" {
			continue
		}
		out[k] = v
	}
	if err := sc.Err(); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeIO, "read config")
	}
	return out, nil
}

// Float coerces a value to a float pointer. Handles plain numbers,
// percentages ("20%" -> 20), quoted strings, and nil/none. Returns nil for
// absent or non-numeric values.
func (c Config) Float(key string) *float64 {
	v, ok := c[key]
	if !ok {
		return nil
	}
	s := strings.TrimSpace(v)
	if s == "" {
		return nil
	}
	switch strings.ToLower(s) {
	case "nil", "none":
		return nil
	}
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			s = strings.TrimSpace(s[1 : len(s)-1])
		}
	}
	if strings.HasSuffix(s, "%") {
		s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

// Limits extracts the aggregator caps: max volumetric flow and max print
// speed. Either may be nil when the config does not carry the key.
func (c Config) Limits() (maxFlow, maxSpeed *float64) {
	return c.Float(KeyMaxFlow), c.Float(KeyMaxPrintSpeed)
}
