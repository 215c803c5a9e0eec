package report

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/prim/internal/dataset"
	"github.com/banshee-data/prim/internal/monitoring"
	"github.com/banshee-data/prim/internal/prim"
	"github.com/banshee-data/prim/internal/testutil"
)

func init() {
	monitoring.SetLogger(nil)
}

func mustLimits(t testing.TB, names []string, limits ...prim.Limit) prim.BoxLimits {
	t.Helper()
	bl, err := prim.NewBoxLimits(names, limits)
	require.NoError(t, err)
	return bl
}

// sampleBox is a two-step box restricting both attributes.
func sampleBox(t testing.TB) Box {
	names := []string{"x", "policy"}
	return Box{
		Index:    0,
		PoolSize: 100,
		PoolCOI:  10,
		Steps: []Step{
			{
				Limits: mustLimits(t, names, prim.Interval(dataset.Real, 0, 10), prim.CategorySet("A", "B", "C")),
				Size:   100, Mean: 0.1, Mass: 1, Coverage: 1, Density: 0.1, RestrictedDims: 0,
			},
			{
				Limits: mustLimits(t, names, prim.Interval(dataset.Real, 2, 10), prim.CategorySet("A", "B")),
				Size:   50, Mean: 0.2, Mass: 0.5, Coverage: 1, Density: 0.2, RestrictedDims: 2,
			},
		},
	}
}

func gridBoxes(t *testing.T) []Box {
	t.Helper()
	cfg := prim.DefaultConfig()
	cfg.PeelAlpha = 0.1
	e, err := prim.New(testutil.GridResults(t), prim.ByOutcome("y"), cfg)
	require.NoError(t, err)
	e.FindBox()
	e.FindBox()
	return FromBoxes(e.Boxes())
}

func TestFromBox(t *testing.T) {
	boxes := gridBoxes(t)
	require.Len(t, boxes, 2)

	first := boxes[0]
	assert.Equal(t, 0, first.Index)
	assert.Equal(t, 100, first.PoolSize)
	assert.Equal(t, 9, first.PoolCOI)
	assert.False(t, first.Degenerate)
	assert.Len(t, first.Steps, 32)
	assert.Equal(t, 100, first.Steps[0].Size)

	final := first.Final()
	assert.Equal(t, 9, final.Size)
	assert.InDelta(t, 1.0, final.Density, 1e-12)
	assert.InDelta(t, 0.09, final.Mass, 1e-12)
	assert.Equal(t, 2, final.RestrictedDims)

	restricted := first.Restricted()
	require.Len(t, restricted, 2)
	assert.Equal(t, "x1", restricted[0].Name)
	assert.Equal(t, "x2", restricted[1].Name)

	assert.Equal(t, 1, boxes[1].Index)
	assert.Equal(t, 91, boxes[1].PoolSize)
	assert.Equal(t, 0, boxes[1].PoolCOI)
}

func TestEmptyBox(t *testing.T) {
	var b Box
	assert.Equal(t, Step{}, b.Final())
	assert.Nil(t, b.Restricted())
	assert.Nil(t, attributeNames(b))
}

func TestWriteTrajectory(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTrajectory(&buf, sampleBox(t)))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "box        mean      mass  coverage   density   res dim", lines[0])
	assert.Equal(t, "1    "+"       0.2"+"       0.5"+"         1"+"       0.2"+"         2", lines[2])
}

func TestWriteLimits(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteLimits(&buf, sampleBox(t)))
	out := buf.String()
	assert.Contains(t, out, "box 0 limits:")
	assert.Contains(t, out, "[2, 10]")
	assert.Contains(t, out, "{A, B}")

	b := sampleBox(t)
	b.Steps = b.Steps[:1]
	buf.Reset()
	require.NoError(t, WriteLimits(&buf, b))
	assert.Equal(t, "box 0: no restricted attributes\n", buf.String())
}

func TestWriteSummary(t *testing.T) {
	degenerate := Box{Index: 1, Degenerate: true, Steps: sampleBox(t).Steps[:1]}

	var buf bytes.Buffer
	require.NoError(t, WriteSummary(&buf, []Box{sampleBox(t), degenerate}))
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "box 0: 2 steps, size 50, mean 0.200, mass 0.500, coverage 1.000, density 0.200, 2 restricted", lines[0])
	assert.True(t, strings.HasSuffix(lines[1], "(degenerate)"), lines[1])
}

func TestCSVWriter(t *testing.T) {
	var buf bytes.Buffer
	cw := NewCSVWriter(&buf)
	require.NoError(t, cw.WriteHeader([]string{"x", "policy", "absent"}))
	require.NoError(t, cw.WriteBox(sampleBox(t)))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)

	want := [][]string{
		{"box", "step", "size", "mean", "mass", "coverage", "density", "res_dim", "x_lower", "x_upper", "policy_lower", "policy_upper", "absent_lower", "absent_upper"},
		{"0", "0", "100", "0.100000", "1.000000", "1.000000", "0.100000", "0", "0", "10", "{A, B, C}", "", "", ""},
		{"0", "1", "50", "0.200000", "0.500000", "1.000000", "0.200000", "2", "2", "10", "{A, B}", "", "", ""},
	}
	if diff := cmp.Diff(want, records); diff != "" {
		t.Errorf("CSV mismatch (-want +got):\n%s", diff)
	}
}
