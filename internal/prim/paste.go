package prim

import (
	"context"
	"math"

	"github.com/banshee-data/prim/internal/dataset"
	"github.com/banshee-data/prim/internal/monitoring"
)

// paste grows box along its restricted attributes, drawing rows from the
// episode pool, until no candidate increases the mass.
func (e *Engine) paste(ctx context.Context, box *Box) error {
	old := e.outcomes(box.pool)
	for step := 0; ; step++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if e.stepLimitReached(step) {
			monitoring.Logf("box %d: pasting stopped after %d steps", box.index, step)
			return nil
		}

		cur := box.Current()
		var cands []candidate
		for _, a := range e.restricted(cur.Limits) {
			switch e.attrs[a].Kind {
			case dataset.Real:
				cands = append(cands, e.numericPaste(box, cur, a, false)...)
			case dataset.Discrete:
				cands = append(cands, e.numericPaste(box, cur, a, true)...)
			case dataset.Categorical:
				// Re-admitting categories is not attempted.
			}
		}

		top, ok := e.best(old, cands)
		if !ok {
			return nil
		}
		if e.mass(top.rows) < e.cfg.MassMin || len(top.rows) <= len(cur.rows) {
			return nil
		}
		box.push(e.snapshot(box, top.limits, top.rows))
	}
}

// numericPaste proposes widening the upper and then the lower limit of
// attribute a so that roughly paste_alpha of the box size is admitted. Only
// pool rows strictly beyond the current limit, and otherwise inside the box,
// are eligible. Without eligible rows the limit returns to its initial value.
func (e *Engine) numericPaste(box *Box, cur Snapshot, a int, discrete bool) []candidate {
	lim := cur.Limits.At(a)
	init := e.initial.At(a)
	pa := e.cfg.PasteAlpha * float64(len(cur.rows))

	// The rows that differ from cur only on attribute a.
	wide := e.InBoxOver(box.pool, cur.Limits.With(a, Interval(lim.Kind, init.Lower, init.Upper)))
	x := e.values(a, wide)

	var above, below []float64
	for _, v := range x {
		switch {
		case v > lim.Upper:
			above = append(above, v)
		case v < lim.Lower:
			below = append(below, v)
		}
	}

	upper := init.Upper
	if len(above) > 0 {
		n := float64(len(above))
		upper = e.quantile(sortedCopy(above), pa/n)
	}
	lower := init.Lower
	if len(below) > 0 {
		n := float64(len(below))
		lower = e.quantile(sortedCopy(below), (n-pa)/n)
	}
	if discrete {
		upper = math.Floor(upper)
		lower = math.Floor(lower)
	}

	upperLimits := cur.Limits.With(a, Interval(lim.Kind, lim.Lower, upper))
	lowerLimits := cur.Limits.With(a, Interval(lim.Kind, lower, lim.Upper))
	return []candidate{
		{limits: upperLimits, rows: e.InBoxOver(wide, upperLimits)},
		{limits: lowerLimits, rows: e.InBoxOver(wide, lowerLimits)},
	}
}
