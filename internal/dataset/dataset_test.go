package dataset

import (
	"strings"
	"testing"

	"github.com/banshee-data/prim/internal/fsutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	testCases := []struct {
		input     string
		want      Kind
		expectErr bool
	}{
		{"real", Real, false},
		{"Float", Real, false},
		{"discrete", Discrete, false},
		{" int ", Discrete, false},
		{"ordinal", Discrete, false},
		{"categorical", Categorical, false},
		{"object", Categorical, false},
		{"complex", 0, true},
		{"", 0, true},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			got, err := ParseKind(tc.input)
			if tc.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "real", Real.String())
	assert.Equal(t, "discrete", Discrete.String())
	assert.Equal(t, "categorical", Categorical.String())
	assert.Equal(t, "kind(7)", Kind(7).String())
}

func TestTableBuilder(t *testing.T) {
	t.Parallel()

	t.Run("builds typed columns", func(t *testing.T) {
		t.Parallel()
		table, err := NewTableBuilder(3).
			AddReal("x", []float64{0.5, 1.5, 2.5}).
			AddDiscrete("n", []int{1, 2, 3}).
			AddCategorical("policy", []string{"b", "a", "b"}).
			Build()
		require.NoError(t, err)

		assert.Equal(t, 3, table.Len())
		assert.Equal(t, 3, table.NumAttributes())

		attrs := table.Attributes()
		require.Len(t, attrs, 3)
		assert.Equal(t, Real, attrs[0].Kind)
		assert.Equal(t, Discrete, attrs[1].Kind)
		assert.Equal(t, Categorical, attrs[2].Kind)
		assert.Equal(t, []string{"a", "b"}, attrs[2].Categories)

		assert.Equal(t, []float64{1, 2, 3}, table.Numeric(1))
		assert.Nil(t, table.Numeric(2))
		assert.Equal(t, []string{"b", "a", "b"}, table.Labels(2))
		assert.Nil(t, table.Labels(0))
	})

	t.Run("rejects length mismatch", func(t *testing.T) {
		t.Parallel()
		_, err := NewTableBuilder(2).AddReal("x", []float64{1}).Build()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "has 1 rows, want 2")
	})

	t.Run("rejects duplicate names", func(t *testing.T) {
		t.Parallel()
		_, err := NewTableBuilder(1).
			AddReal("x", []float64{1}).
			AddDiscrete("x", []int{1}).
			Build()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate")
	})

	t.Run("rejects empty names", func(t *testing.T) {
		t.Parallel()
		_, err := NewTableBuilder(1).AddReal("", []float64{1}).Build()
		assert.Error(t, err)
	})
}

func TestTableAccessorsCopy(t *testing.T) {
	src := []float64{1, 2, 3}
	table, err := NewTableBuilder(3).AddReal("x", src).Build()
	require.NoError(t, err)

	src[0] = 99
	vals, err := table.Reals("x")
	require.NoError(t, err)
	assert.Equal(t, 1.0, vals[0], "builder must copy input slices")

	vals[1] = 42
	again, _ := table.Reals("x")
	assert.Equal(t, 2.0, again[1], "accessor must return a copy")

	_, err = table.Discretes("x")
	assert.Error(t, err, "kind mismatch")
	_, err = table.Categoricals("missing")
	assert.Error(t, err)

	_, ok := table.Attribute("missing")
	assert.False(t, ok)
}

func TestOutcome(t *testing.T) {
	s := Scalar([]float64{1, 0, 1})
	assert.Equal(t, 1, s.Rank())
	assert.Equal(t, 3, s.Rows())

	series, err := Series([][]float64{{1, 2}, {3, 4}})
	require.NoError(t, err)
	assert.Equal(t, 2, series.Rank())
	assert.Equal(t, 2, series.Rows())

	_, err = Series([][]float64{{1, 2}, {3}})
	assert.Error(t, err)
}

const resultsCSV = `x1, x2, levels, policy, outcome, ignored
0.5, 1.0, 3, a, 1.0, foo
2.5, 3.0, 1, b, 0.0, bar
4.5, 5.0, 2, a, 1.0, baz
`

func testSchema() Schema {
	return Schema{
		Attributes: []AttributeSpec{
			{Name: "x1", Kind: "real"},
			{Name: "x2", Kind: "real"},
			{Name: "levels", Kind: "discrete"},
			{Name: "policy", Kind: "categorical"},
		},
		Outcomes: []string{"outcome"},
	}
}

func TestReadCSV(t *testing.T) {
	res, err := ReadCSV(strings.NewReader(resultsCSV), testSchema())
	require.NoError(t, err)

	table := res.Experiments
	assert.Equal(t, 3, table.Len())
	assert.Equal(t, 4, table.NumAttributes())

	x1, err := table.Reals("x1")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 2.5, 4.5}, x1)

	levels, err := table.Discretes("levels")
	require.NoError(t, err)
	assert.Equal(t, []int{3, 1, 2}, levels)

	policy, err := table.Categoricals("policy")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "a"}, policy)

	out, ok := res.Outcomes["outcome"]
	require.True(t, ok)
	assert.Equal(t, []float64{1, 0, 1}, out.Values)
	assert.Equal(t, 1, out.Rank())
}

func TestReadCSVErrors(t *testing.T) {
	testCases := []struct {
		name    string
		input   string
		schema  Schema
		wantErr string
	}{
		{"empty_schema", resultsCSV, Schema{}, "no attributes"},
		{"unknown_kind", resultsCSV, Schema{Attributes: []AttributeSpec{{Name: "x1", Kind: "blob"}}}, "unknown attribute kind"},
		{"missing_column", resultsCSV, Schema{Attributes: []AttributeSpec{{Name: "nope", Kind: "real"}}}, "not found"},
		{"bad_float", "x1\nabc\n", Schema{Attributes: []AttributeSpec{{Name: "x1", Kind: "real"}}}, "row 2"},
		{"nan_attribute", "x1\n1\nNaN\n", Schema{Attributes: []AttributeSpec{{Name: "x1", Kind: "real"}}}, "row 3 column \"x1\": non-finite value \"NaN\""},
		{"inf_attribute", "x1\n+Inf\n", Schema{Attributes: []AttributeSpec{{Name: "x1", Kind: "real"}}}, "non-finite"},
		{"inf_outcome", "x1,y\n1,-inf\n", Schema{Attributes: []AttributeSpec{{Name: "x1", Kind: "real"}}, Outcomes: []string{"y"}}, "row 2 outcome \"y\": non-finite"},
		{"bad_int", "n\n1.5\n", Schema{Attributes: []AttributeSpec{{Name: "n", Kind: "discrete"}}}, "row 2"},
		{"missing_outcome", "x1\n1\n", Schema{Attributes: []AttributeSpec{{Name: "x1", Kind: "real"}}, Outcomes: []string{"y"}}, "not found"},
		{"empty_input", "", Schema{Attributes: []AttributeSpec{{Name: "x1", Kind: "real"}}}, "no header"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tc.input), tc.schema)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestLoadCSV(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	require.NoError(t, fs.WriteFile("data/results.csv", []byte(resultsCSV), 0o644))

	res, err := LoadCSV(fs, "data/results.csv", testSchema())
	require.NoError(t, err)
	assert.Equal(t, 3, res.Experiments.Len())

	_, err = LoadCSV(fs, "data/missing.csv", testSchema())
	assert.Error(t, err)
}
