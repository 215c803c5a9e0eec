package dataset

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/banshee-data/prim/internal/fsutil"
)

// AttributeSpec names an input column and how it should be typed.
type AttributeSpec struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// Schema selects the input attributes and outcome columns of a results file.
// Columns not mentioned in the schema are ignored.
type Schema struct {
	Attributes []AttributeSpec
	Outcomes   []string
}

// ReadCSV parses experiment results from CSV. The first record is the header.
// Attribute columns are typed according to the schema; outcome columns are
// parsed as scalar floats.
func ReadCSV(r io.Reader, schema Schema) (*Results, error) {
	if len(schema.Attributes) == 0 {
		return nil, fmt.Errorf("schema has no attributes")
	}
	kinds := make([]Kind, len(schema.Attributes))
	for i, attr := range schema.Attributes {
		k, err := ParseKind(attr.Kind)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", attr.Name, err)
		}
		kinds[i] = k
	}

	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("csv has no header")
	}
	header := make(map[string]int, len(records[0]))
	for i, h := range records[0] {
		header[strings.TrimSpace(h)] = i
	}
	rows := records[1:]

	lookup := func(name string) (int, error) {
		i, ok := header[name]
		if !ok {
			return 0, fmt.Errorf("column %q not found in header", name)
		}
		return i, nil
	}

	b := NewTableBuilder(len(rows))
	for ai, attr := range schema.Attributes {
		col, err := lookup(attr.Name)
		if err != nil {
			return nil, err
		}
		switch kinds[ai] {
		case Real:
			vals := make([]float64, len(rows))
			for ri, rec := range rows {
				v, err := parseFinite(rec[col])
				if err != nil {
					return nil, fmt.Errorf("row %d column %q: %w", ri+2, attr.Name, err)
				}
				vals[ri] = v
			}
			b.AddReal(attr.Name, vals)
		case Discrete:
			vals := make([]int, len(rows))
			for ri, rec := range rows {
				v, err := strconv.Atoi(strings.TrimSpace(rec[col]))
				if err != nil {
					return nil, fmt.Errorf("row %d column %q: %w", ri+2, attr.Name, err)
				}
				vals[ri] = v
			}
			b.AddDiscrete(attr.Name, vals)
		case Categorical:
			vals := make([]string, len(rows))
			for ri, rec := range rows {
				vals[ri] = strings.TrimSpace(rec[col])
			}
			b.AddCategorical(attr.Name, vals)
		}
	}
	table, err := b.Build()
	if err != nil {
		return nil, err
	}

	outcomes := make(Outcomes, len(schema.Outcomes))
	for _, name := range schema.Outcomes {
		col, err := lookup(name)
		if err != nil {
			return nil, err
		}
		vals := make([]float64, len(rows))
		for ri, rec := range rows {
			v, err := parseFinite(rec[col])
			if err != nil {
				return nil, fmt.Errorf("row %d outcome %q: %w", ri+2, name, err)
			}
			vals[ri] = v
		}
		outcomes[name] = Scalar(vals)
	}
	return &Results{Experiments: table, Outcomes: outcomes}, nil
}

// parseFinite parses a float field. NaN and infinities are rejected because
// limits and stored runs must stay finite.
func parseFinite(field string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite value %q", strings.TrimSpace(field))
	}
	return v, nil
}

// LoadCSV reads a results file through the given filesystem.
func LoadCSV(fs fsutil.FileSystem, path string, schema Schema) (*Results, error) {
	data, err := fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read results file: %w", err)
	}
	res, err := ReadCSV(bytes.NewReader(data), schema)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return res, nil
}
