package prim

import (
	"math"
	"sort"
)

// Plotting positions used by the peel and paste quantiles unless configured
// otherwise. With alpha = beta = 1/3 the estimate is approximately
// median-unbiased regardless of the distribution.
const (
	DefaultQuantileAlpha = 1.0 / 3.0
	DefaultQuantileBeta  = 1.0 / 3.0
)

// mquantile estimates the p'th quantile of sorted using the plotting positions
// (alpha, beta). sorted must be non-empty and ascending. Probabilities outside
// [0, 1] clamp to the extremes.
func mquantile(sorted []float64, p, alpha, beta float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	m := alpha + p*(1-alpha-beta)
	aleph := float64(n)*p + m
	k := int(math.Floor(math.Min(math.Max(aleph, 1), float64(n-1))))
	gamma := math.Min(math.Max(aleph-float64(k), 0), 1)
	return (1-gamma)*sorted[k-1] + gamma*sorted[k]
}

// sortedCopy returns an ascending copy of values.
func sortedCopy(values []float64) []float64 {
	out := append([]float64(nil), values...)
	sort.Float64s(out)
	return out
}
