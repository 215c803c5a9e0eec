package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/banshee-data/prim/internal/dataset"
)

// CSVWriter wraps csv.Writer with methods for trajectory output.
type CSVWriter struct {
	Steps *csv.Writer
	names []string
}

// NewCSVWriter creates a CSVWriter writing to w.
func NewCSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{Steps: csv.NewWriter(w)}
}

// WriteHeader writes the header row. Each attribute gets a lower and upper
// column; categorical attributes put their allowed set in the lower column
// and leave the upper column empty.
func (c *CSVWriter) WriteHeader(attributes []string) error {
	c.names = append([]string(nil), attributes...)
	header := []string{"box", "step", "size", "mean", "mass", "coverage", "density", "res_dim"}
	for _, name := range attributes {
		header = append(header, name+"_lower", name+"_upper")
	}
	return c.Steps.Write(header)
}

// WriteBox writes one row per trajectory step and flushes.
func (c *CSVWriter) WriteBox(b Box) error {
	for i, s := range b.Steps {
		row := []string{
			fmt.Sprintf("%d", b.Index),
			fmt.Sprintf("%d", i),
			fmt.Sprintf("%d", s.Size),
			fmt.Sprintf("%.6f", s.Mean),
			fmt.Sprintf("%.6f", s.Mass),
			fmt.Sprintf("%.6f", s.Coverage),
			fmt.Sprintf("%.6f", s.Density),
			fmt.Sprintf("%d", s.RestrictedDims),
		}
		for _, name := range c.names {
			l, ok := s.Limits.Lookup(name)
			switch {
			case !ok:
				row = append(row, "", "")
			case l.Kind == dataset.Categorical:
				row = append(row, l.String(), "")
			default:
				row = append(row, formatFloat(l.Lower), formatFloat(l.Upper))
			}
		}
		if err := c.Steps.Write(row); err != nil {
			return err
		}
	}
	c.Steps.Flush()
	return c.Steps.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
