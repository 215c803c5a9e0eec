package prim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeanShiftObjective(t *testing.T) {
	testCases := []struct {
		name      string
		old       []float64
		candidate []float64
		want      float64
	}{
		{"equal means", []float64{1, 0}, []float64{1, 0, 1, 0}, 0},
		{"peel raises mean", []float64{1, 0, 0, 0}, []float64{1, 0}, (0.5 - 0.25) / 2},
		{"peel lowers mean", []float64{1, 1, 0, 0}, []float64{0}, -0.5 / 3},
		{"growth uses absolute size change", []float64{0, 0}, []float64{1, 0, 0, 0}, 0.25 / 2},
		{"same size different mean", []float64{0, 0}, []float64{1, 1}, 0},
		{"empty candidate", []float64{1, 0}, nil, -0.5 / 2},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, MeanShiftObjective(tc.old, tc.candidate), 1e-12)
		})
	}
}

func TestObjectiveRegistry(t *testing.T) {
	reg := DefaultObjectiveRegistry()

	def, ok := reg.Get(DefaultObjective)
	require.True(t, ok)
	assert.Equal(t, "v1", def.Version)
	require.NotNil(t, def.Score)
	assert.InDelta(t, 0.125, def.Score([]float64{1, 0, 0, 0}, []float64{1, 0}), 1e-12)

	_, ok = reg.Get("missing")
	assert.False(t, ok)

	reg.Register(&ObjectiveDefinition{Name: "density", Version: "v0", Score: func(_, c []float64) float64 { return mean(c) }})
	reg.Register(&ObjectiveDefinition{Name: "always_zero", Version: "v0", Score: func(_, _ []float64) float64 { return 0 }})

	infos := reg.List()
	require.Len(t, infos, 3)
	assert.Equal(t, "always_zero", infos[0].Name)
	assert.Equal(t, "default", infos[1].Name)
	assert.Equal(t, "density", infos[2].Name)
}
