package prim

import (
	"math"
	"sort"
	"sync"

	"gonum.org/v1/gonum/stat"
)

// DefaultObjective is the name of the objective used when none is configured.
const DefaultObjective = "default"

// ObjectiveFunc scores a candidate row subset against the subset it replaces.
// Both arguments are outcome values; higher scores are better.
type ObjectiveFunc func(old, candidate []float64) float64

// ObjectiveDefinition describes a registered objective.
type ObjectiveDefinition struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
	// Score computes the objective for an old and a candidate subset.
	Score ObjectiveFunc `json:"-"`
}

// ObjectiveInfo is a summary of a registered objective.
type ObjectiveInfo struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
}

// ObjectiveRegistry holds objective definitions keyed by name.
type ObjectiveRegistry struct {
	mu         sync.RWMutex
	objectives map[string]*ObjectiveDefinition
}

// NewObjectiveRegistry creates an empty registry.
func NewObjectiveRegistry() *ObjectiveRegistry {
	return &ObjectiveRegistry{
		objectives: make(map[string]*ObjectiveDefinition),
	}
}

// Register adds an objective definition, replacing any with the same name.
func (r *ObjectiveRegistry) Register(def *ObjectiveDefinition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.objectives[def.Name] = def
}

// Get retrieves an objective definition by name.
func (r *ObjectiveRegistry) Get(name string) (*ObjectiveDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.objectives[name]
	return def, ok
}

// List returns the registered objectives sorted by name.
func (r *ObjectiveRegistry) List() []ObjectiveInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]ObjectiveInfo, 0, len(r.objectives))
	for _, def := range r.objectives {
		infos = append(infos, ObjectiveInfo{
			Name:        def.Name,
			Version:     def.Version,
			Description: def.Description,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// DefaultObjectiveRegistry returns a registry holding the built-in objectives.
func DefaultObjectiveRegistry() *ObjectiveRegistry {
	reg := NewObjectiveRegistry()
	reg.Register(&ObjectiveDefinition{
		Name:    DefaultObjective,
		Version: "v1",
		Description: "Difference between the candidate and old mean outcome, divided " +
			"by the change in row count. Copes with real, discrete and categorical attributes.",
		Score: MeanShiftObjective,
	})
	return reg
}

// MeanShiftObjective rewards a large change of the mean outcome achieved with
// a small change in the number of rows.
func MeanShiftObjective(old, candidate []float64) float64 {
	meanOld := mean(old)
	meanNew := mean(candidate)
	if meanOld == meanNew {
		return 0
	}
	diff := math.Abs(float64(len(old) - len(candidate)))
	if diff == 0 {
		return 0
	}
	return (meanNew - meanOld) / diff
}

// mean is stat.Mean with the empty set defined as zero.
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}
