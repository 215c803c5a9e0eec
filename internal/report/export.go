package report

import (
	"bytes"
	"fmt"
	"path/filepath"

	"github.com/banshee-data/prim/internal/fsutil"
	"github.com/banshee-data/prim/internal/monitoring"
)

// Exporter writes every report artefact for a set of boxes into Dir.
type Exporter struct {
	FS  fsutil.FileSystem
	Dir string
	// Plots enables PNG rendering alongside the text, CSV and HTML files.
	Plots bool
}

// Export writes summary.txt plus, per box, box_N.txt (trajectory table and
// final limits), box_N.csv, box_N.html and optionally the PNG plots. It
// returns the written paths in order.
func (e Exporter) Export(boxes []Box) ([]string, error) {
	fs := e.FS
	if fs == nil {
		fs = fsutil.OSFileSystem{}
	}
	if err := fs.MkdirAll(e.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output dir %s: %w", e.Dir, err)
	}

	var written []string
	write := func(name string, buf *bytes.Buffer) error {
		path := filepath.Join(e.Dir, name)
		if err := fs.WriteFile(path, buf.Bytes(), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		written = append(written, path)
		return nil
	}

	var summary bytes.Buffer
	if err := WriteSummary(&summary, boxes); err != nil {
		return nil, err
	}
	if err := write("summary.txt", &summary); err != nil {
		return nil, err
	}

	for _, b := range boxes {
		base := fmt.Sprintf("box_%d", b.Index)

		var txt bytes.Buffer
		if err := WriteTrajectory(&txt, b); err != nil {
			return written, err
		}
		txt.WriteString("\n")
		if err := WriteLimits(&txt, b); err != nil {
			return written, err
		}
		if err := write(base+".txt", &txt); err != nil {
			return written, err
		}

		var csvBuf bytes.Buffer
		cw := NewCSVWriter(&csvBuf)
		if err := cw.WriteHeader(attributeNames(b)); err != nil {
			return written, err
		}
		if err := cw.WriteBox(b); err != nil {
			return written, err
		}
		if err := write(base+".csv", &csvBuf); err != nil {
			return written, err
		}

		var html bytes.Buffer
		if err := TrajectoryChart(&html, b); err != nil {
			return written, fmt.Errorf("failed to render chart for box %d: %w", b.Index, err)
		}
		if err := write(base+".html", &html); err != nil {
			return written, err
		}

		if e.Plots && len(b.Steps) > 0 {
			paths, err := PlotTrajectory(fs, b, e.Dir, base)
			if err != nil {
				return written, err
			}
			written = append(written, paths...)
		}
		monitoring.Debugf("exported box %d to %s", b.Index, e.Dir)
	}
	monitoring.Logf("wrote %d report files to %s", len(written), e.Dir)
	return written, nil
}

func attributeNames(b Box) []string {
	if len(b.Steps) == 0 {
		return nil
	}
	return b.Steps[0].Limits.Names()
}
