// Package stats provides the weighted-quantile and histogram-bucketing
// helpers shared by the layer aggregator and report consumers. Pure
// functions, no state.
package stats

import (
	"math"
	"sort"

	perr "printprof/internal/platform/errors"
)

// Bin is one half-open histogram interval [Lo,Hi); the last bin of a set is
// closed on both ends.
type Bin struct {
	Lo, Hi float64
}

// WeightedQuantile returns the value at quantile q of values under the given
// weights (typically per-move seconds). A nil weights slice means equal
// weights. Pairs with weight <= 0 are ignored. Returns nil when nothing
// qualifies; mismatched lengths are a caller error.
func WeightedQuantile(values, weights []float64, q float64) (*float64, error) {
	if len(values) == 0 {
		return nil, nil
	}
	if weights == nil {
		weights = make([]float64, len(values))
		for i := range weights {
			weights[i] = 1.0
		}
	}
	if len(values) != len(weights) {
		return nil, perr.Newf(perr.ErrorCodeValidation,
			"values and weights must be same length (%d vs %d)", len(values), len(weights))
	}
	q = math.Max(0, math.Min(1, q))

	type pair struct{ v, w float64 }
	pairs := make([]pair, 0, len(values))
	total := 0.0
	for i := range values {
		if weights[i] > 0 {
			pairs = append(pairs, pair{values[i], weights[i]})
			total += weights[i]
		}
	}
	if len(pairs) == 0 || total <= 0 {
		return nil, nil
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].v < pairs[j].v })

	cutoff := q * total
	acc := 0.0
	for _, p := range pairs {
		acc += p.w
		if acc >= cutoff {
			v := p.v
			return &v, nil
		}
	}
	// rounding can leave acc a hair under cutoff; the answer is the max value
	v := pairs[len(pairs)-1].v
	return &v, nil
}

// MakeBins produces n equal-width bins covering [min,max]. Reversed bounds
// are swapped; a degenerate range collapses to a single bin.
func MakeBins(minV, maxV float64, n int) []Bin {
	if n < 1 {
		n = 1
	}
	if maxV < minV {
		minV, maxV = maxV, minV
	}
	if closeEnough(minV, maxV) {
		return []Bin{{Lo: minV, Hi: maxV}}
	}
	step := (maxV - minV) / float64(n)
	out := make([]Bin, 0, n)
	lo := minV
	for i := 0; i < n; i++ {
		hi := maxV
		if i < n-1 {
			hi = minV + float64(i+1)*step
		}
		out = append(out, Bin{Lo: lo, Hi: hi})
		lo = hi
	}
	return out
}

// BinCounts places each value into its bin. Out-of-range values clamp to the
// nearest edge bin, so the counts always sum to len(values).
func BinCounts(values []float64, bins []Bin) []int {
	counts := make([]int, len(bins))
	if len(bins) == 0 {
		return counts
	}
	for _, v := range values {
		placed := false
		for i, b := range bins {
			last := i == len(bins)-1
			if (b.Lo <= v && v < b.Hi) || (last && b.Lo <= v && v <= b.Hi) {
				counts[i]++
				placed = true
				break
			}
		}
		if !placed {
			if v < bins[0].Lo {
				counts[0]++
			} else {
				counts[len(counts)-1]++
			}
		}
	}
	return counts
}

// closeEnough mirrors relative-epsilon float equality with a 1e-9 tolerance
func closeEnough(a, b float64) bool {
	if a == b {
		return true
	}
	const rel = 1e-9
	return math.Abs(a-b) <= rel*math.Max(math.Abs(a), math.Abs(b))
}
