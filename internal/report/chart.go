package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// AssetsHost overrides where rendered charts load echarts.min.js from.
// Empty uses the go-echarts default CDN.
var AssetsHost string

// TrajectoryChart writes an interactive HTML line chart of the box
// trajectory: the four ratios on the left axis and the restricted dimension
// count on the right.
func TrajectoryChart(w io.Writer, b Box) error {
	initOpts := opts.Initialization{
		PageTitle: fmt.Sprintf("PRIM box %d", b.Index),
		Width:     "100%",
		Height:    "600px",
	}
	if AssetsHost != "" {
		initOpts.AssetsHost = AssetsHost
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(initOpts),
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("Box %d trajectory", b.Index),
			Subtitle: fmt.Sprintf("steps=%d pool=%d coi=%d", len(b.Steps), b.PoolSize, b.PoolCOI),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "step"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "ratio", Min: 0, Max: 1}),
	)
	line.ExtendYAxis(opts.YAxis{Name: "res dim", Min: 0})

	x := make([]string, len(b.Steps))
	for i := range b.Steps {
		x[i] = strconv.Itoa(i)
	}
	line.SetXAxis(x).
		AddSeries("mean", lineData(b.series(func(s Step) float64 { return s.Mean }))).
		AddSeries("mass", lineData(b.series(func(s Step) float64 { return s.Mass }))).
		AddSeries("coverage", lineData(b.series(func(s Step) float64 { return s.Coverage }))).
		AddSeries("density", lineData(b.series(func(s Step) float64 { return s.Density }))).
		AddSeries("res dim", lineData(b.series(func(s Step) float64 { return float64(s.RestrictedDims) })),
			charts.WithLineChartOpts(opts.LineChart{YAxisIndex: 1, Step: "end"}))

	return line.Render(w)
}

func lineData(values []float64) []opts.LineData {
	out := make([]opts.LineData, len(values))
	for i, v := range values {
		out[i] = opts.LineData{Value: v}
	}
	return out
}
