package report

import (
	"fmt"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/prim/internal/fsutil"
)

const (
	plotWidth  = 10 * vg.Inch
	plotHeight = 5 * vg.Inch
)

// PlotTrajectory renders two PNGs under dir: <name>_ratios.png with mean,
// mass, coverage and density per step, and <name>_resdim.png with the
// restricted dimension count per step. It returns the written paths.
func PlotTrajectory(fs fsutil.FileSystem, b Box, dir, name string) ([]string, error) {
	if len(b.Steps) == 0 {
		return nil, fmt.Errorf("box %d has no trajectory to plot", b.Index)
	}
	if err := fs.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}

	ratios, err := ratioPlot(b)
	if err != nil {
		return nil, err
	}
	resdim, err := restrictedDimPlot(b)
	if err != nil {
		return nil, err
	}

	ratioFile := filepath.Join(dir, name+"_ratios.png")
	if err := savePNG(fs, ratios, ratioFile); err != nil {
		return nil, err
	}
	resdimFile := filepath.Join(dir, name+"_resdim.png")
	if err := savePNG(fs, resdim, resdimFile); err != nil {
		return nil, err
	}
	return []string{ratioFile, resdimFile}, nil
}

func ratioPlot(b Box) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Box %d - Peeling and Pasting Trajectory", b.Index)
	p.X.Label.Text = "Step"
	p.Y.Label.Text = "Ratio"
	p.Y.Min = 0
	p.Y.Max = 1

	series := []struct {
		label  string
		values []float64
	}{
		{"mean", b.series(func(s Step) float64 { return s.Mean })},
		{"mass", b.series(func(s Step) float64 { return s.Mass })},
		{"coverage", b.series(func(s Step) float64 { return s.Coverage })},
		{"density", b.series(func(s Step) float64 { return s.Density })},
	}
	for i, s := range series {
		line, err := plotter.NewLine(stepXYs(s.values))
		if err != nil {
			return nil, err
		}
		line.Color = plotutil.Color(i)
		line.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add(s.label, line)
	}
	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	return p, nil
}

func restrictedDimPlot(b Box) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Box %d - Restricted Dimensions", b.Index)
	p.X.Label.Text = "Step"
	p.Y.Label.Text = "Restricted dimensions"
	p.Y.Min = 0

	line, err := plotter.NewLine(stepXYs(b.series(func(s Step) float64 { return float64(s.RestrictedDims) })))
	if err != nil {
		return nil, err
	}
	line.StepStyle = plotter.PostStep
	line.Color = plotutil.Color(4)
	line.Width = vg.Points(1.5)
	p.Add(line)
	return p, nil
}

func stepXYs(values []float64) plotter.XYs {
	pts := make(plotter.XYs, len(values))
	for i, v := range values {
		pts[i] = plotter.XY{X: float64(i), Y: v}
	}
	return pts
}

func savePNG(fs fsutil.FileSystem, p *plot.Plot, path string) error {
	wt, err := p.WriterTo(plotWidth, plotHeight, "png")
	if err != nil {
		return fmt.Errorf("failed to render %s: %w", path, err)
	}
	f, err := fs.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if _, err := wt.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
