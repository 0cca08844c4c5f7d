package gcode

import (
	"bufio"
	"io"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"

	perr "printprof/internal/platform/errors"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// layer inference: a ;Z: comment must exceed the previous one by more than
// this to start a new layer when no explicit ;LAYER: tags exist
const layerZEpsilon = 1e-6

var (
	reType  = regexp.MustCompile(`;\s*TYPE:(.+?)\s*$`)
	reLayer = regexp.MustCompile(`;\s*LAYER:\s*([0-9]+)`)
	reZ     = regexp.MustCompile(`;\s*Z:([0-9.+-]+)`)
	reMove  = regexp.MustCompile(`^(G0|G1)\s+(.*)$`)
	reParam = regexp.MustCompile(`([XYZEFS])([0-9.+-]+)`)
	reFanS  = regexp.MustCompile(`\bS(\d+)`)
	reTempS = regexp.MustCompile(`\bS([0-9.+-]+)`)
)

// grouped-digit printer for progress messages
var progressPrinter = message.NewPrinter(language.English)

// machineState is owned by a single Parse call and never escapes it
type machineState struct {
	x, y, z float64
	e       float64 // cumulative extruder position, mm

	feedMMMin *float64
	eRelative bool // M82/M83; relative is the default

	layer   int
	feature string

	sawLayerTag bool // once true, Z-comment layer inference stays off
	lastZCmt    *float64

	fan0255  *int
	hotendC  *float64
	bedC     *float64
	chamberC *float64
}

// ParseFile opens path and parses it. A missing or unreadable file is a
// caller precondition failure, surfaced as a coded IO error.
func ParseFile(path string, opts Options) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeIO, "open trace %s", path)
	}
	defer func() { _ = f.Close() }()
	return Parse(f, opts)
}

// Parse consumes r exactly once and returns the resolved move sequence plus
// the layer to Z-height map. Constant auxiliary memory per line; output
// memory is O(total moves).
func Parse(r io.Reader, opts Options) (*Result, error) {
	if opts.FilamentDiameterMM <= 0 {
		return nil, perr.InvalidArgf("filament diameter must be > 0, got %g", opts.FilamentDiameterMM)
	}
	area := FilamentAreaMM2(opts.FilamentDiameterMM)

	st := machineState{eRelative: true, feature: FeatureUnknown}
	res := &Result{LayerZ: map[int]float64{}}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for sc.Scan() {
		res.Lines++
		if opts.Progress != nil && opts.ProgressEvery > 0 && res.Lines%opts.ProgressEvery == 0 {
			opts.Progress(progressPrinter.Sprintf("parsed %d lines", res.Lines))
		}
		line := sc.Text()

		// slicer comments first; they never emit a move
		if m := reType.FindStringSubmatch(line); m != nil {
			st.feature = strings.TrimSpace(m[1])
			continue
		}
		if m := reLayer.FindStringSubmatch(line); m != nil {
			st.sawLayerTag = true
			if n, err := strconv.Atoi(m[1]); err == nil {
				st.layer = n
			}
			continue
		}
		if m := reZ.FindStringSubmatch(line); m != nil {
			zc, err := strconv.ParseFloat(m[1], 64)
			if err != nil {
				continue
			}
			if !st.sawLayerTag {
				switch {
				case st.lastZCmt == nil:
					st.layer = 0
				case zc > *st.lastZCmt+layerZEpsilon:
					st.layer++
				}
				v := zc
				st.lastZCmt = &v
			}
			res.LayerZ[st.layer] = zc
			continue
		}

		// machine-state directives
		if strings.HasPrefix(line, "M82") {
			st.eRelative = false
			continue
		}
		if strings.HasPrefix(line, "M83") {
			st.eRelative = true
			continue
		}
		if strings.HasPrefix(line, "M106") {
			if m := reFanS.FindStringSubmatch(line); m != nil {
				if n, err := strconv.Atoi(m[1]); err == nil {
					st.fan0255 = &n
				}
			}
			continue
		}
		if strings.HasPrefix(line, "M107") {
			zero := 0
			st.fan0255 = &zero
			continue
		}
		if strings.HasPrefix(line, "M104") || strings.HasPrefix(line, "M109") {
			st.hotendC = tempSetpoint(line, st.hotendC)
			continue
		}
		if strings.HasPrefix(line, "M140") || strings.HasPrefix(line, "M190") {
			st.bedC = tempSetpoint(line, st.bedC)
			continue
		}
		if strings.HasPrefix(line, "M141") {
			st.chamberC = tempSetpoint(line, st.chamberC)
			continue
		}

		mg := reMove.FindStringSubmatch(line)
		if mg == nil {
			continue
		}
		res.Moves = append(res.Moves, st.applyMove(Kind(mg[1]), mg[2], area))
	}
	if err := sc.Err(); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeIO, "read trace")
	}
	return res, nil
}

// tempSetpoint parses a \bS<float> from line, keeping prev on malformed input
func tempSetpoint(line string, prev *float64) *float64 {
	m := reTempS.FindStringSubmatch(line)
	if m == nil {
		return prev
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return prev
	}
	return &v
}

// applyMove resolves one G0/G1 directive against the current state, emits the
// Move record, and advances position and extruder bookkeeping.
func (st *machineState) applyMove(kind Kind, rest string, areaMM2 float64) Move {
	params := map[byte]float64{}
	for _, p := range reParam.FindAllStringSubmatch(rest, -1) {
		if v, err := strconv.ParseFloat(p[2], 64); err == nil {
			params[p[1][0]] = v
		}
	}

	nx, ny, nz := st.x, st.y, st.z
	if v, ok := params['X']; ok {
		nx = v
	}
	if v, ok := params['Y']; ok {
		ny = v
	}
	if v, ok := params['Z']; ok {
		nz = v
	}

	// F persists across subsequent moves until changed
	if v, ok := params['F']; ok {
		st.feedMMMin = &v
	}
	var feedMMS *float64
	if st.feedMMMin != nil && *st.feedMMMin > 0 {
		v := *st.feedMMMin / 60.0
		feedMMS = &v
	}

	de := 0.0
	ne := st.e
	if eCmd, ok := params['E']; ok {
		if st.eRelative {
			de = eCmd
			ne = st.e + de
		} else {
			de = eCmd - st.e
			ne = eCmd
		}
	}

	dx, dy, dz := nx-st.x, ny-st.y, nz-st.z
	dist := math.Sqrt(dx*dx + dy*dy + dz*dz)

	t := 0.0
	if feedMMS != nil && dist > 0 {
		t = dist / *feedMMS
	}
	flow := 0.0
	if t > 0 && de > 0 {
		flow = de * areaMM2 / t
	}

	var fanPct *float64
	if st.fan0255 != nil {
		v := float64(*st.fan0255) / 255.0 * 100.0
		fanPct = &v
	}

	mv := Move{
		Layer:   st.layer,
		Z:       nz,
		Feature: st.feature,
		Kind:    kind,
		X0:      st.x, Y0: st.y, Z0: st.z,
		X1: nx, Y1: ny, Z1: nz,
		DistMM:   dist,
		DeMM:     de,
		TimeS:    t,
		SpeedMMS: feedMMS,
		FlowMM3S: flow,
		FanPct:   fanPct,
		HotendC:  st.hotendC,
		BedC:     st.bedC,
		ChamberC: st.chamberC,
	}

	st.x, st.y, st.z, st.e = nx, ny, nz, ne
	return mv
}
