package prim

// Snapshot is one immutable state in a box's peeling and pasting trajectory.
type Snapshot struct {
	Limits         BoxLimits
	Mean           float64
	Mass           float64
	Coverage       float64
	Density        float64
	RestrictedDims int

	rows []int
}

// Rows returns a copy of the row indices inside this state of the box.
func (s Snapshot) Rows() []int { return append([]int(nil), s.rows...) }

// Size is the number of rows inside this state of the box.
func (s Snapshot) Size() int { return len(s.rows) }

// Box is a region found by one FindBox episode together with its trajectory.
// The trajectory only grows while the episode runs and is truncated by
// Engine.Select; entries are never rewritten in place.
type Box struct {
	index      int
	pool       []int
	poolCOI    int
	trajectory []Snapshot
}

// Index is the position of the box in the engine's discovered list.
func (b *Box) Index() int { return b.index }

// Len returns the number of trajectory entries.
func (b *Box) Len() int { return len(b.trajectory) }

// Current returns the latest trajectory entry.
func (b *Box) Current() Snapshot { return b.trajectory[len(b.trajectory)-1] }

// At returns the i'th trajectory entry.
func (b *Box) At(i int) Snapshot { return b.trajectory[i] }

// Trajectory returns the trajectory entries in order.
func (b *Box) Trajectory() []Snapshot {
	return append([]Snapshot(nil), b.trajectory...)
}

// Limits returns the current box limits.
func (b *Box) Limits() BoxLimits { return b.Current().Limits }

// Rows returns the row indices currently inside the box.
func (b *Box) Rows() []int { return b.Current().Rows() }

// Pool returns the rows that were unclaimed when the box's episode started.
func (b *Box) Pool() []int { return append([]int(nil), b.pool...) }

// PoolCOI is the number of cases of interest in the episode pool.
func (b *Box) PoolCOI() int { return b.poolCOI }

// Degenerate reports whether no peel or paste was ever accepted, leaving the
// box equal to its unconstrained starting state.
func (b *Box) Degenerate() bool { return len(b.trajectory) <= 1 }

// Means returns the per-step mean outcome.
func (b *Box) Means() []float64 { return b.series(func(s Snapshot) float64 { return s.Mean }) }

// Masses returns the per-step mass.
func (b *Box) Masses() []float64 { return b.series(func(s Snapshot) float64 { return s.Mass }) }

// Coverages returns the per-step coverage.
func (b *Box) Coverages() []float64 {
	return b.series(func(s Snapshot) float64 { return s.Coverage })
}

// Densities returns the per-step density.
func (b *Box) Densities() []float64 {
	return b.series(func(s Snapshot) float64 { return s.Density })
}

// RestrictedDims returns the per-step count of restricted attributes.
func (b *Box) RestrictedDims() []int {
	out := make([]int, len(b.trajectory))
	for i, s := range b.trajectory {
		out[i] = s.RestrictedDims
	}
	return out
}

func (b *Box) series(f func(Snapshot) float64) []float64 {
	out := make([]float64, len(b.trajectory))
	for i, s := range b.trajectory {
		out[i] = f(s)
	}
	return out
}

func (b *Box) push(s Snapshot) {
	b.trajectory = append(b.trajectory, s)
}

// truncate keeps entries [0, i) and appends s as the new current state.
func (b *Box) truncate(i int, s Snapshot) {
	kept := make([]Snapshot, i, i+1)
	copy(kept, b.trajectory[:i])
	b.trajectory = append(kept, s)
}
