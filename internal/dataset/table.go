// Package dataset holds the attribute-typed experiment table and the
// outcomes that a PRIM engine is fitted against.
//
// A Table is built once through a TableBuilder and is read-only afterwards.
// Every accessor returns a copy so callers can never mutate the shared data.
package dataset

import (
	"fmt"
	"sort"
	"strings"
)

// Kind tags an attribute with the way its values are compared and peeled.
type Kind int

const (
	// Real attributes hold continuous values.
	Real Kind = iota
	// Discrete attributes hold integer or ordinal values.
	Discrete
	// Categorical attributes hold unordered labels.
	Categorical
)

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	switch k {
	case Real:
		return "real"
	case Discrete:
		return "discrete"
	case Categorical:
		return "categorical"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind parses a kind name as written in schemas and config files.
// "int", "integer" and "ordinal" are accepted for Discrete; "float" for Real.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "real", "float", "continuous":
		return Real, nil
	case "discrete", "int", "integer", "ordinal":
		return Discrete, nil
	case "categorical", "category", "object":
		return Categorical, nil
	default:
		return 0, fmt.Errorf("unknown attribute kind %q", s)
	}
}

// Attribute describes one column of the experiment table.
type Attribute struct {
	Name string
	Kind Kind
	// Categories is the sorted universe of observed labels. Only set for
	// categorical attributes.
	Categories []string
}

type column struct {
	attr     Attribute
	numeric  []float64
	discrete []int
	labels   []string
}

// Table is an immutable N x D dataset of typed attributes.
type Table struct {
	n       int
	columns []column
	index   map[string]int
}

// TableBuilder accumulates columns for a Table of a fixed row count.
type TableBuilder struct {
	n       int
	columns []column
	err     error
}

// NewTableBuilder starts a table with n rows.
func NewTableBuilder(n int) *TableBuilder {
	return &TableBuilder{n: n}
}

func (b *TableBuilder) add(c column, length int) *TableBuilder {
	if b.err != nil {
		return b
	}
	if length != b.n {
		b.err = fmt.Errorf("attribute %q has %d rows, want %d", c.attr.Name, length, b.n)
		return b
	}
	if c.attr.Name == "" {
		b.err = fmt.Errorf("attribute %d has an empty name", len(b.columns))
		return b
	}
	for _, existing := range b.columns {
		if existing.attr.Name == c.attr.Name {
			b.err = fmt.Errorf("duplicate attribute %q", c.attr.Name)
			return b
		}
	}
	b.columns = append(b.columns, c)
	return b
}

// AddReal appends a continuous attribute.
func (b *TableBuilder) AddReal(name string, values []float64) *TableBuilder {
	vals := append([]float64(nil), values...)
	return b.add(column{attr: Attribute{Name: name, Kind: Real}, numeric: vals}, len(values))
}

// AddDiscrete appends an integer-valued attribute.
func (b *TableBuilder) AddDiscrete(name string, values []int) *TableBuilder {
	ints := append([]int(nil), values...)
	nums := make([]float64, len(values))
	for i, v := range values {
		nums[i] = float64(v)
	}
	return b.add(column{attr: Attribute{Name: name, Kind: Discrete}, numeric: nums, discrete: ints}, len(values))
}

// AddCategorical appends a categorical attribute. The category universe is
// the sorted set of distinct values.
func (b *TableBuilder) AddCategorical(name string, values []string) *TableBuilder {
	labels := append([]string(nil), values...)
	seen := make(map[string]struct{}, 8)
	var universe []string
	for _, v := range labels {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			universe = append(universe, v)
		}
	}
	sort.Strings(universe)
	attr := Attribute{Name: name, Kind: Categorical, Categories: universe}
	return b.add(column{attr: attr, labels: labels}, len(values))
}

// Build returns the finished table or the first error recorded while adding
// columns.
func (b *TableBuilder) Build() (*Table, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.n < 0 {
		return nil, fmt.Errorf("negative row count %d", b.n)
	}
	t := &Table{n: b.n, columns: b.columns, index: make(map[string]int, len(b.columns))}
	for i, c := range b.columns {
		t.index[c.attr.Name] = i
	}
	b.columns = nil
	return t, nil
}

// Len returns the number of rows.
func (t *Table) Len() int { return t.n }

// NumAttributes returns the number of columns.
func (t *Table) NumAttributes() int { return len(t.columns) }

// Attributes returns the attribute descriptors in column order.
func (t *Table) Attributes() []Attribute {
	out := make([]Attribute, len(t.columns))
	for i, c := range t.columns {
		out[i] = copyAttribute(c.attr)
	}
	return out
}

// Attribute looks up an attribute by name.
func (t *Table) Attribute(name string) (Attribute, bool) {
	i, ok := t.index[name]
	if !ok {
		return Attribute{}, false
	}
	return copyAttribute(t.columns[i].attr), true
}

// Numeric returns the values of the i-th column as float64. Discrete values
// are converted exactly. Returns nil for categorical columns.
func (t *Table) Numeric(i int) []float64 {
	if i < 0 || i >= len(t.columns) || t.columns[i].attr.Kind == Categorical {
		return nil
	}
	return append([]float64(nil), t.columns[i].numeric...)
}

// Labels returns the values of the i-th column if it is categorical.
func (t *Table) Labels(i int) []string {
	if i < 0 || i >= len(t.columns) || t.columns[i].attr.Kind != Categorical {
		return nil
	}
	return append([]string(nil), t.columns[i].labels...)
}

// Reals returns a real column by name.
func (t *Table) Reals(name string) ([]float64, error) {
	c, err := t.columnOfKind(name, Real)
	if err != nil {
		return nil, err
	}
	return append([]float64(nil), c.numeric...), nil
}

// Discretes returns a discrete column by name.
func (t *Table) Discretes(name string) ([]int, error) {
	c, err := t.columnOfKind(name, Discrete)
	if err != nil {
		return nil, err
	}
	return append([]int(nil), c.discrete...), nil
}

// Categoricals returns a categorical column by name.
func (t *Table) Categoricals(name string) ([]string, error) {
	c, err := t.columnOfKind(name, Categorical)
	if err != nil {
		return nil, err
	}
	return append([]string(nil), c.labels...), nil
}

func (t *Table) columnOfKind(name string, kind Kind) (*column, error) {
	i, ok := t.index[name]
	if !ok {
		return nil, fmt.Errorf("unknown attribute %q", name)
	}
	c := &t.columns[i]
	if c.attr.Kind != kind {
		return nil, fmt.Errorf("attribute %q is %s, not %s", name, c.attr.Kind, kind)
	}
	return c, nil
}

func copyAttribute(a Attribute) Attribute {
	if a.Categories != nil {
		a.Categories = append([]string(nil), a.Categories...)
	}
	return a
}
