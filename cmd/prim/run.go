package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/banshee-data/prim/internal/config"
	"github.com/banshee-data/prim/internal/dataset"
	"github.com/banshee-data/prim/internal/db"
	"github.com/banshee-data/prim/internal/fsutil"
	"github.com/banshee-data/prim/internal/monitoring"
	"github.com/banshee-data/prim/internal/prim"
	"github.com/banshee-data/prim/internal/report"
)

type runOptions struct {
	configPath string
	dataPath   string
	boxes      int
	outDir     string
	dbPath     string
	name       string
	plots      bool
	debug      bool
}

func parseRunFlags(args []string) (runOptions, error) {
	var o runOptions
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.StringVar(&o.configPath, "config", "", "JSON run configuration (required)")
	fs.StringVar(&o.dataPath, "data", "", "CSV results file (required)")
	fs.IntVar(&o.boxes, "boxes", 0, "Number of boxes to find (0 uses the config value)")
	fs.StringVar(&o.outDir, "out", "", "Directory for txt/csv/html reports (empty skips export)")
	fs.StringVar(&o.dbPath, "db", "", "SQLite database to store the run in (empty skips storage)")
	fs.StringVar(&o.name, "name", "", "Run name stored with the results (defaults to the data file name)")
	fs.BoolVar(&o.plots, "plots", false, "Also write PNG trajectory plots to -out")
	fs.BoolVar(&o.debug, "debug", false, "Enable debug logging")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if o.configPath == "" || o.dataPath == "" {
		fs.Usage()
		return o, fmt.Errorf("%w: -config and -data are required", errUsage)
	}
	if o.boxes < 0 {
		return o, fmt.Errorf("%w: -boxes must be >= 0", errUsage)
	}
	if o.name == "" {
		o.name = filepath.Base(o.dataPath)
	}
	return o, nil
}

func runCommand(ctx context.Context, args []string, stdout io.Writer) error {
	o, err := parseRunFlags(args)
	if err != nil {
		return err
	}
	monitoring.SetDebug(o.debug)
	start := time.Now()

	cfg, err := config.LoadPrimConfig(o.configPath)
	if err != nil {
		return err
	}
	results, err := dataset.LoadCSV(fsutil.OSFileSystem{}, o.dataPath, cfg.Schema())
	if err != nil {
		return err
	}
	engine, err := prim.New(results, prim.ByOutcome(cfg.GetOutcome()), cfg.EngineConfig())
	if err != nil {
		return err
	}
	monitoring.Logf("loaded %d experiments with %d attributes, %d cases of interest",
		engine.Len(), len(engine.Attributes()), engine.TotalCOI())

	want := cfg.GetBoxes()
	if o.boxes > 0 {
		want = o.boxes
	}
	boxes, findErr := findBoxes(ctx, engine, want, stdout)
	if len(boxes) == 0 {
		return findErr
	}

	fmt.Fprintln(stdout)
	if err := report.WriteSummary(stdout, boxes); err != nil {
		return err
	}

	if o.outDir != "" {
		exp := report.Exporter{FS: fsutil.OSFileSystem{}, Dir: o.outDir, Plots: o.plots}
		if _, err := exp.Export(boxes); err != nil {
			return err
		}
	}

	if o.dbPath != "" {
		database, err := db.NewDB(o.dbPath)
		if err != nil {
			return err
		}
		defer database.Close()
		id, err := database.SaveRun(context.WithoutCancel(ctx), db.NewRun{
			Name:      o.name,
			DataPath:  o.dataPath,
			Config:    cfg,
			TotalRows: engine.Len(),
			TotalCOI:  engine.TotalCOI(),
			Boxes:     boxes,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "stored run %s in %s\n", id, o.dbPath)
	}

	monitoring.Logf("run finished in %v", time.Since(start).Round(time.Millisecond))
	return findErr
}

// findBoxes runs up to n episodes, printing each trajectory, and stops
// after the first degenerate box. A cancelled context keeps the boxes found
// so far and returns the context error alongside them.
func findBoxes(ctx context.Context, engine *prim.Engine, n int, stdout io.Writer) ([]report.Box, error) {
	var out []report.Box
	for i := 0; i < n; i++ {
		box, err := engine.FindBoxContext(ctx)
		if box != nil {
			rb := report.FromBox(box)
			out = append(out, rb)
			fmt.Fprintf(stdout, "\n== box %d ==\n", rb.Index)
			if werr := report.WriteTrajectory(stdout, rb); werr != nil {
				return out, werr
			}
			if werr := report.WriteLimits(stdout, rb); werr != nil {
				return out, werr
			}
		}
		if err != nil {
			return out, err
		}
		if box.Degenerate() {
			monitoring.Logf("box %d is degenerate, stopping", box.Index())
			break
		}
	}
	return out, nil
}
