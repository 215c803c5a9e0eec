// Package prim implements the Patient Rule Induction Method: a greedy search
// for boxes in attribute space where cases of interest are concentrated.
//
// An Engine repeatedly peels a box over the not-yet-claimed rows, removing the
// slice of data whose removal best improves the objective, then pastes rows
// back along the attributes it restricted. Each FindBox call claims the rows of
// the box it finds, so successive boxes have disjoint row sets.
package prim

import (
	"context"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/prim/internal/dataset"
	"github.com/banshee-data/prim/internal/monitoring"
)

// ThresholdType selects which side of the threshold is a case of interest.
type ThresholdType int

const (
	Above ThresholdType = 1
	Below ThresholdType = -1
)

func (t ThresholdType) String() string {
	switch t {
	case Above:
		return "above"
	case Below:
		return "below"
	default:
		return fmt.Sprintf("threshold_type(%d)", int(t))
	}
}

// DefaultMaxSteps caps the number of accepted moves per peel or paste phase.
const DefaultMaxSteps = 10000

// Config holds the engine parameters.
type Config struct {
	Objective     string
	PeelAlpha     float64
	PasteAlpha    float64
	MassMin       float64
	Threshold     float64
	ThresholdType ThresholdType

	QuantileAlpha float64
	QuantileBeta  float64

	// MaxSteps bounds each phase. Zero means unbounded.
	MaxSteps int

	// Registry resolves Objective. Nil uses DefaultObjectiveRegistry.
	Registry *ObjectiveRegistry
}

// DefaultConfig returns the standard parameters: 5% peels and pastes, a 5%
// minimum mass and outcomes of 1 or more counted as cases of interest.
func DefaultConfig() Config {
	return Config{
		Objective:     DefaultObjective,
		PeelAlpha:     0.05,
		PasteAlpha:    0.05,
		MassMin:       0.05,
		Threshold:     1,
		ThresholdType: Above,
		QuantileAlpha: DefaultQuantileAlpha,
		QuantileBeta:  DefaultQuantileBeta,
		MaxSteps:      DefaultMaxSteps,
	}
}

// Classify chooses the outcome that PRIM explains: either a named outcome or
// a function deriving one from all outcomes. Exactly one must be set.
type Classify struct {
	Outcome string
	Func    func(dataset.Outcomes) (dataset.Outcome, error)
}

// ByOutcome classifies by a named outcome.
func ByOutcome(name string) Classify { return Classify{Outcome: name} }

// ByFunc classifies with a derived outcome.
func ByFunc(f func(dataset.Outcomes) (dataset.Outcome, error)) Classify {
	return Classify{Func: f}
}

func (c Classify) resolve(outcomes dataset.Outcomes) (dataset.Outcome, error) {
	switch {
	case c.Outcome != "" && c.Func != nil:
		return dataset.Outcome{}, configErrorf("classify sets both an outcome name and a function")
	case c.Func != nil:
		out, err := c.Func(outcomes)
		if err != nil {
			return dataset.Outcome{}, fmt.Errorf("%w: classify: %v", ErrConfiguration, err)
		}
		return out, nil
	case c.Outcome != "":
		out, ok := outcomes[c.Outcome]
		if !ok {
			return dataset.Outcome{}, configErrorf("unknown outcome %q", c.Outcome)
		}
		return out, nil
	default:
		return dataset.Outcome{}, configErrorf("classify needs an outcome name or a function")
	}
}

// Engine runs PRIM over one dataset. It is not safe for concurrent use.
type Engine struct {
	cfg       Config
	objective ObjectiveFunc

	attrs   []dataset.Attribute
	numeric [][]float64 // nil for categorical attributes
	labels  [][]string  // nil for numeric attributes
	y       []float64
	n       int
	tCOI    int

	initial   BoxLimits
	boxes     []*Box
	remaining []int
}

// New validates the configuration and prepares an engine over results.
func New(results *dataset.Results, classify Classify, cfg Config) (*Engine, error) {
	if results == nil || results.Experiments == nil {
		return nil, configErrorf("no experiments")
	}
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	registry := cfg.Registry
	if registry == nil {
		registry = DefaultObjectiveRegistry()
	}
	def, ok := registry.Get(cfg.Objective)
	if !ok || def.Score == nil {
		return nil, configErrorf("unknown objective function %q", cfg.Objective)
	}

	outcome, err := classify.resolve(results.Outcomes)
	if err != nil {
		return nil, err
	}
	if outcome.Rank() > 1 {
		return nil, configErrorf("outcome has rank %d, expected one value per row", outcome.Rank())
	}

	table := results.Experiments
	if outcome.Rows() != table.Len() {
		return nil, configErrorf("outcome has %d values for %d experiments", outcome.Rows(), table.Len())
	}

	e := &Engine{
		cfg:       cfg,
		objective: def.Score,
		attrs:     table.Attributes(),
		y:         append([]float64(nil), outcome.Values...),
		n:         table.Len(),
	}
	e.numeric = make([][]float64, len(e.attrs))
	e.labels = make([][]string, len(e.attrs))
	for i, a := range e.attrs {
		if a.Kind == dataset.Categorical {
			e.labels[i] = table.Labels(i)
		} else {
			e.numeric[i] = table.Numeric(i)
		}
	}

	all := make([]int, e.n)
	for i := range all {
		all[i] = i
	}
	e.tCOI = e.coi(all)
	e.initial = e.spanningLimits()
	e.remaining = all
	return e, nil
}

func validateConfig(cfg *Config) error {
	if cfg.Objective == "" {
		cfg.Objective = DefaultObjective
	}
	if cfg.QuantileAlpha == 0 && cfg.QuantileBeta == 0 {
		cfg.QuantileAlpha, cfg.QuantileBeta = DefaultQuantileAlpha, DefaultQuantileBeta
	}
	if cfg.ThresholdType != Above && cfg.ThresholdType != Below {
		return configErrorf("threshold type %d is neither above nor below", int(cfg.ThresholdType))
	}
	if cfg.PeelAlpha <= 0 || cfg.PeelAlpha >= 1 {
		return configErrorf("peel_alpha %v must be in (0, 1)", cfg.PeelAlpha)
	}
	if cfg.PasteAlpha <= 0 || cfg.PasteAlpha >= 1 {
		return configErrorf("paste_alpha %v must be in (0, 1)", cfg.PasteAlpha)
	}
	if cfg.MassMin <= 0 || cfg.MassMin > 1 {
		return configErrorf("mass_min %v must be in (0, 1]", cfg.MassMin)
	}
	if cfg.QuantileAlpha < 0 || cfg.QuantileAlpha > 1 || cfg.QuantileBeta < 0 || cfg.QuantileBeta > 1 {
		return configErrorf("quantile plotting positions (%v, %v) must be in [0, 1]", cfg.QuantileAlpha, cfg.QuantileBeta)
	}
	if cfg.MaxSteps < 0 {
		return configErrorf("max_steps %d must not be negative", cfg.MaxSteps)
	}
	return nil
}

// spanningLimits covers every row: [min, max] for numeric attributes and the
// full observed universe for categorical ones.
func (e *Engine) spanningLimits() BoxLimits {
	names := make([]string, len(e.attrs))
	limits := make([]Limit, len(e.attrs))
	for i, a := range e.attrs {
		names[i] = a.Name
		switch a.Kind {
		case dataset.Categorical:
			limits[i] = CategorySet(a.Categories...)
		default:
			if e.n == 0 {
				limits[i] = Interval(a.Kind, 0, 0)
				continue
			}
			limits[i] = Interval(a.Kind, floats.Min(e.numeric[i]), floats.Max(e.numeric[i]))
		}
	}
	b, _ := NewBoxLimits(names, limits)
	return b
}

// Config returns the validated engine configuration.
func (e *Engine) Config() Config { return e.cfg }

// Attributes returns the attributes the engine searches over.
func (e *Engine) Attributes() []dataset.Attribute {
	out := make([]dataset.Attribute, len(e.attrs))
	copy(out, e.attrs)
	return out
}

// Len is the number of rows in the dataset.
func (e *Engine) Len() int { return e.n }

// TotalCOI is the number of cases of interest in the whole dataset.
func (e *Engine) TotalCOI() int { return e.tCOI }

// InitialLimits returns the limits spanning the whole dataset.
func (e *Engine) InitialLimits() BoxLimits { return e.initial }

// Boxes returns the discovered boxes in discovery order.
func (e *Engine) Boxes() []*Box { return append([]*Box(nil), e.boxes...) }

// Remaining returns the rows not claimed by any discovered box.
func (e *Engine) Remaining() []int { return append([]int(nil), e.remaining...) }

// FindBox runs one peel and paste episode over the remaining rows and appends
// the resulting box, which may be degenerate, to the discovered list.
func (e *Engine) FindBox() *Box {
	box, _ := e.FindBoxContext(context.Background())
	return box
}

// FindBoxContext is FindBox with cancellation checked between moves. A
// cancelled episode still appends the partially refined box and returns it
// together with ctx.Err().
func (e *Engine) FindBoxContext(ctx context.Context) (*Box, error) {
	e.updateRemaining()
	pool := append([]int(nil), e.remaining...)
	poolCOI := e.coi(pool)
	monitoring.Logf("%d points remaining, containing %d cases of interest", len(pool), poolCOI)

	box := &Box{index: len(e.boxes), pool: pool, poolCOI: poolCOI}
	box.push(e.snapshot(box, e.initial, pool))

	err := e.peel(ctx, box)
	if err == nil {
		monitoring.Debugf("peeling completed")
		err = e.paste(ctx, box)
		if err == nil {
			monitoring.Debugf("pasting completed")
		}
	}

	e.boxes = append(e.boxes, box)
	e.updateRemaining()
	if box.Degenerate() {
		monitoring.Logf("box %d: no acceptable peel found, box spans all %d remaining points", box.index, len(pool))
	}
	return box, err
}

// InBox returns the remaining rows that satisfy limits.
func (e *Engine) InBox(limits BoxLimits) []int {
	return e.InBoxOver(e.remaining, limits)
}

// InBoxOver returns the rows from rows that satisfy every attribute limit.
func (e *Engine) InBoxOver(rows []int, limits BoxLimits) []int {
	out := make([]int, 0, len(rows))
	for _, r := range rows {
		if e.contains(limits, r) {
			out = append(out, r)
		}
	}
	return out
}

func (e *Engine) contains(limits BoxLimits, row int) bool {
	for i := range e.attrs {
		l := limits.limits[i]
		if e.attrs[i].Kind == dataset.Categorical {
			if !l.Allows(e.labels[i][row]) {
				return false
			}
		} else if !l.Contains(e.numeric[i][row]) {
			return false
		}
	}
	return true
}

// RestrictedDims names the attributes whose limits differ from the initial
// limits, in table order.
func (e *Engine) RestrictedDims(limits BoxLimits) []string {
	var out []string
	for _, i := range e.restricted(limits) {
		out = append(out, e.attrs[i].Name)
	}
	return out
}

// NumRestrictedDims counts the restricted attributes of limits.
func (e *Engine) NumRestrictedDims(limits BoxLimits) int {
	return len(e.restricted(limits))
}

func (e *Engine) restricted(limits BoxLimits) []int {
	var out []int
	for i := range e.attrs {
		if !limits.limits[i].Equal(e.initial.limits[i]) {
			out = append(out, i)
		}
	}
	return out
}

// Select rolls box back to trajectory entry i. Row membership is re-derived
// over the box's episode pool and the remaining rows are recomputed.
func (e *Engine) Select(box *Box, i int) error {
	if i < 0 || i >= box.Len() {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrSelectIndex, i, box.Len())
	}
	limits := box.At(i).Limits
	rows := e.InBoxOver(box.pool, limits)

	claimed := make(map[int]int)
	for _, other := range e.boxes {
		if other == box {
			continue
		}
		for _, r := range other.Current().rows {
			claimed[r] = other.index
		}
	}
	for _, r := range rows {
		if owner, ok := claimed[r]; ok {
			return fmt.Errorf("%w: row %d belongs to box %d", ErrSelectConflict, r, owner)
		}
	}

	box.truncate(i, e.snapshot(box, limits, rows))
	e.updateRemaining()
	return nil
}

// PerformPCA is the hook for rotating the attribute space before searching.
func (e *Engine) PerformPCA() error {
	return ErrPCANotSupported
}

// updateRemaining recomputes the unclaimed rows from scratch.
func (e *Engine) updateRemaining() {
	claimed := make([]bool, e.n)
	for _, b := range e.boxes {
		for _, r := range b.Current().rows {
			claimed[r] = true
		}
	}
	remaining := make([]int, 0, e.n)
	for r := 0; r < e.n; r++ {
		if !claimed[r] {
			remaining = append(remaining, r)
		}
	}
	e.remaining = remaining
}

// coi counts the cases of interest among rows.
func (e *Engine) coi(rows []int) int {
	count := 0
	for _, r := range rows {
		if e.isCOI(e.y[r]) {
			count++
		}
	}
	return count
}

func (e *Engine) isCOI(v float64) bool {
	if e.cfg.ThresholdType == Below {
		return v <= e.cfg.Threshold
	}
	return v >= e.cfg.Threshold
}

func (e *Engine) outcomes(rows []int) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = e.y[r]
	}
	return out
}

func (e *Engine) mass(rows []int) float64 {
	if e.n == 0 {
		return 0
	}
	return float64(len(rows)) / float64(e.n)
}

func (e *Engine) snapshot(box *Box, limits BoxLimits, rows []int) Snapshot {
	s := Snapshot{
		Limits:         limits,
		Mean:           mean(e.outcomes(rows)),
		Mass:           e.mass(rows),
		RestrictedDims: e.NumRestrictedDims(limits),
		rows:           append([]int(nil), rows...),
	}
	if len(rows) > 0 {
		coi := e.coi(rows)
		s.Density = float64(coi) / float64(len(rows))
		if box.poolCOI > 0 {
			s.Coverage = float64(coi) / float64(box.poolCOI)
		}
	}
	return s
}

// values returns attribute a's values over rows.
func (e *Engine) values(a int, rows []int) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = e.numeric[a][r]
	}
	return out
}

func (e *Engine) quantile(sorted []float64, p float64) float64 {
	return mquantile(sorted, p, e.cfg.QuantileAlpha, e.cfg.QuantileBeta)
}

// candidate is a proposed move: new limits and the rows they select.
type candidate struct {
	limits BoxLimits
	rows   []int
}

type scored struct {
	candidate
	objective    float64
	unrestricted int
}

// best ranks candidates by objective, then by unrestricted dimension count,
// both descending. Full ties keep generation order.
func (e *Engine) best(old []float64, cands []candidate) (candidate, bool) {
	if len(cands) == 0 {
		return candidate{}, false
	}
	ranked := make([]scored, len(cands))
	for i, c := range cands {
		ranked[i] = scored{
			candidate:    c,
			objective:    e.objective(old, e.outcomes(c.rows)),
			unrestricted: len(e.attrs) - e.NumRestrictedDims(c.limits),
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].objective != ranked[j].objective {
			return ranked[i].objective > ranked[j].objective
		}
		return ranked[i].unrestricted > ranked[j].unrestricted
	})
	return ranked[0].candidate, true
}

func (e *Engine) stepLimitReached(step int) bool {
	return e.cfg.MaxSteps > 0 && step >= e.cfg.MaxSteps
}
