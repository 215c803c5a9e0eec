package dataset

import "fmt"

// Outcome holds one experiment outcome. Scalar outcomes have Steps <= 1 and
// one value per row. Series outcomes store Steps values per row, row-major.
type Outcome struct {
	Values []float64
	Steps  int
}

// Scalar wraps a one-value-per-row outcome.
func Scalar(values []float64) Outcome {
	return Outcome{Values: append([]float64(nil), values...), Steps: 1}
}

// Series wraps an outcome recorded as a series of steps per row.
func Series(rows [][]float64) (Outcome, error) {
	if len(rows) == 0 {
		return Outcome{Steps: 1}, nil
	}
	steps := len(rows[0])
	values := make([]float64, 0, len(rows)*steps)
	for i, r := range rows {
		if len(r) != steps {
			return Outcome{}, fmt.Errorf("row %d has %d steps, want %d", i, len(r), steps)
		}
		values = append(values, r...)
	}
	return Outcome{Values: values, Steps: steps}, nil
}

// Rank is 1 for scalar outcomes and 2 for series.
func (o Outcome) Rank() int {
	if o.Steps > 1 {
		return 2
	}
	return 1
}

// Rows returns the number of experiments the outcome covers.
func (o Outcome) Rows() int {
	if o.Steps > 1 {
		return len(o.Values) / o.Steps
	}
	return len(o.Values)
}

// Outcomes maps outcome names to their recorded values.
type Outcomes map[string]Outcome

// Results pairs the experiment inputs with their outcomes.
type Results struct {
	Experiments *Table
	Outcomes    Outcomes
}
