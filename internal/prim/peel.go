package prim

import (
	"context"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/prim/internal/dataset"
	"github.com/banshee-data/prim/internal/monitoring"
)

// peel shrinks box until the best candidate would violate the mass bounds.
func (e *Engine) peel(ctx context.Context, box *Box) error {
	for step := 0; ; step++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if e.stepLimitReached(step) {
			monitoring.Logf("box %d: peeling stopped after %d steps", box.index, step)
			return nil
		}

		cur := box.Current()
		if len(cur.rows) == 0 {
			return nil
		}

		var cands []candidate
		for a, attr := range e.attrs {
			switch attr.Kind {
			case dataset.Real:
				cands = append(cands, e.realPeel(cur, a)...)
			case dataset.Discrete:
				cands = append(cands, e.discretePeel(cur, a)...)
			case dataset.Categorical:
				cands = append(cands, e.categoricalPeel(cur, a)...)
			}
		}
		cands = nonEmpty(cands)

		top, ok := e.best(e.outcomes(cur.rows), cands)
		if !ok {
			return nil
		}
		massNew := e.mass(top.rows)
		if massNew < e.cfg.MassMin || len(top.rows) >= len(cur.rows) {
			return nil
		}
		box.push(e.snapshot(box, top.limits, top.rows))
	}
}

// realPeel cuts the upper and then the lower peel_alpha tail of attribute a.
func (e *Engine) realPeel(cur Snapshot, a int) []candidate {
	x := e.values(a, cur.rows)
	sorted := sortedCopy(x)
	lim := cur.Limits.At(a)

	upper := e.quantile(sorted, 1-e.cfg.PeelAlpha)
	lower := e.quantile(sorted, e.cfg.PeelAlpha)

	return []candidate{
		{
			limits: cur.Limits.With(a, Interval(lim.Kind, lim.Lower, upper)),
			rows:   selectRows(cur.rows, x, func(v float64) bool { return v <= upper }),
		},
		{
			limits: cur.Limits.With(a, Interval(lim.Kind, lower, lim.Upper)),
			rows:   selectRows(cur.rows, x, func(v float64) bool { return v >= lower }),
		},
	}
}

// discretePeel is realPeel on integer cut points. A cut that lands on the
// current limit is made strict so it still removes the boundary value, and the
// new limit snaps to the nearest value actually retained.
func (e *Engine) discretePeel(cur Snapshot, a int) []candidate {
	x := e.values(a, cur.rows)
	sorted := sortedCopy(x)
	lim := cur.Limits.At(a)

	upperCut := math.Floor(e.quantile(sorted, 1-e.cfg.PeelAlpha))
	var keepUpper func(float64) bool
	if upperCut == lim.Upper {
		keepUpper = func(v float64) bool { return v < lim.Upper && v >= lim.Lower }
	} else {
		keepUpper = func(v float64) bool { return v <= upperCut && v >= lim.Lower }
	}
	upperRows, upperVals := selectRowsAndValues(cur.rows, x, keepUpper)
	newUpper := floats.Max(x)
	if len(upperVals) > 0 {
		newUpper = floats.Max(upperVals)
	}

	lowerCut := math.Floor(e.quantile(sorted, e.cfg.PeelAlpha))
	var keepLower func(float64) bool
	if lowerCut == lim.Lower {
		keepLower = func(v float64) bool { return v > lim.Lower && v <= lim.Upper }
	} else {
		keepLower = func(v float64) bool { return v >= lowerCut && v <= lim.Upper }
	}
	lowerRows, lowerVals := selectRowsAndValues(cur.rows, x, keepLower)
	newLower := floats.Min(x)
	if len(lowerVals) > 0 {
		newLower = floats.Min(lowerVals)
	}

	return []candidate{
		{limits: cur.Limits.With(a, Interval(lim.Kind, lim.Lower, newUpper)), rows: upperRows},
		{limits: cur.Limits.With(a, Interval(lim.Kind, newLower, lim.Upper)), rows: lowerRows},
	}
}

// categoricalPeel proposes removing each allowed category in turn.
func (e *Engine) categoricalPeel(cur Snapshot, a int) []candidate {
	lim := cur.Limits.At(a)
	if len(lim.Categories) <= 1 {
		return nil
	}
	labels := e.labels[a]
	cands := make([]candidate, 0, len(lim.Categories))
	for _, cat := range lim.Categories {
		rows := make([]int, 0, len(cur.rows))
		for _, r := range cur.rows {
			if labels[r] != cat {
				rows = append(rows, r)
			}
		}
		cands = append(cands, candidate{
			limits: cur.Limits.With(a, lim.Without(cat)),
			rows:   rows,
		})
	}
	return cands
}

func selectRows(rows []int, x []float64, keep func(float64) bool) []int {
	out, _ := selectRowsAndValues(rows, x, keep)
	return out
}

// selectRowsAndValues filters the parallel rows and x slices.
func selectRowsAndValues(rows []int, x []float64, keep func(float64) bool) ([]int, []float64) {
	outRows := make([]int, 0, len(rows))
	outVals := make([]float64, 0, len(rows))
	for i, v := range x {
		if keep(v) {
			outRows = append(outRows, rows[i])
			outVals = append(outVals, v)
		}
	}
	return outRows, outVals
}

func nonEmpty(cands []candidate) []candidate {
	out := cands[:0]
	for _, c := range cands {
		if len(c.rows) > 0 {
			out = append(out, c)
		}
	}
	return out
}
