// Package report renders PRIM box trajectories as text tables, CSV, PNG plots
// and HTML charts, and serves them over HTTP.
//
// Renderers work on Box, a plain value that can be built from a live engine
// box with FromBox or loaded back from the database.
package report

import (
	"github.com/banshee-data/prim/internal/prim"
)

// Step is one trajectory entry of a box.
type Step struct {
	Limits         prim.BoxLimits `json:"limits"`
	Size           int            `json:"size"`
	Mean           float64        `json:"mean"`
	Mass           float64        `json:"mass"`
	Coverage       float64        `json:"coverage"`
	Density        float64        `json:"density"`
	RestrictedDims int            `json:"restricted_dims"`
}

// Box is the reportable view of a discovered box.
type Box struct {
	Index      int    `json:"index"`
	PoolSize   int    `json:"pool_size"`
	PoolCOI    int    `json:"pool_coi"`
	Degenerate bool   `json:"degenerate"`
	Steps      []Step `json:"steps"`
}

// FromBox captures the trajectory of an engine box.
func FromBox(b *prim.Box) Box {
	out := Box{
		Index:      b.Index(),
		PoolSize:   len(b.Pool()),
		PoolCOI:    b.PoolCOI(),
		Degenerate: b.Degenerate(),
	}
	for _, s := range b.Trajectory() {
		out.Steps = append(out.Steps, Step{
			Limits:         s.Limits,
			Size:           s.Size(),
			Mean:           s.Mean,
			Mass:           s.Mass,
			Coverage:       s.Coverage,
			Density:        s.Density,
			RestrictedDims: s.RestrictedDims,
		})
	}
	return out
}

// FromBoxes captures every box in order.
func FromBoxes(boxes []*prim.Box) []Box {
	out := make([]Box, len(boxes))
	for i, b := range boxes {
		out[i] = FromBox(b)
	}
	return out
}

// Final returns the last step, or the zero Step for an empty trajectory.
func (b Box) Final() Step {
	if len(b.Steps) == 0 {
		return Step{}
	}
	return b.Steps[len(b.Steps)-1]
}

// Restricted lists the attributes whose final limits differ from the first
// step, which always spans the whole dataset, paired with the final limit.
func (b Box) Restricted() []RestrictedLimit {
	if len(b.Steps) == 0 {
		return nil
	}
	first, last := b.Steps[0].Limits, b.Final().Limits
	var out []RestrictedLimit
	for i := 0; i < last.Len() && i < first.Len(); i++ {
		if !first.At(i).Equal(last.At(i)) {
			out = append(out, RestrictedLimit{Name: last.Name(i), Limit: last.At(i)})
		}
	}
	return out
}

// RestrictedLimit is an attribute restriction of a final box.
type RestrictedLimit struct {
	Name  string
	Limit prim.Limit
}

func (b Box) series(f func(Step) float64) []float64 {
	out := make([]float64, len(b.Steps))
	for i, s := range b.Steps {
		out[i] = f(s)
	}
	return out
}
