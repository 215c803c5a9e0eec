package report

import (
	"fmt"
	"io"
)

// WriteTrajectory writes a fixed-width table with one row per trajectory step.
func WriteTrajectory(w io.Writer, b Box) error {
	if _, err := fmt.Fprintf(w, "%-5s%10s%10s%10s%10s%10s\n", "box", "mean", "mass", "coverage", "density", "res dim"); err != nil {
		return err
	}
	for i, s := range b.Steps {
		_, err := fmt.Fprintf(w, "%-5d%10.2g%10.2g%10.2g%10.2g%10d\n",
			i, s.Mean, s.Mass, s.Coverage, s.Density, s.RestrictedDims)
		if err != nil {
			return err
		}
	}
	return nil
}

// WriteLimits writes the final restriction on each restricted attribute.
func WriteLimits(w io.Writer, b Box) error {
	restricted := b.Restricted()
	if len(restricted) == 0 {
		_, err := fmt.Fprintf(w, "box %d: no restricted attributes\n", b.Index)
		return err
	}
	if _, err := fmt.Fprintf(w, "box %d limits:\n", b.Index); err != nil {
		return err
	}
	for _, r := range restricted {
		if _, err := fmt.Fprintf(w, "  %-20s %s\n", r.Name, r.Limit); err != nil {
			return err
		}
	}
	return nil
}

// WriteSummary writes one line per box with its final statistics.
func WriteSummary(w io.Writer, boxes []Box) error {
	for _, b := range boxes {
		f := b.Final()
		note := ""
		if b.Degenerate {
			note = " (degenerate)"
		}
		_, err := fmt.Fprintf(w, "box %d: %d steps, size %d, mean %.3f, mass %.3f, coverage %.3f, density %.3f, %d restricted%s\n",
			b.Index, len(b.Steps), f.Size, f.Mean, f.Mass, f.Coverage, f.Density, f.RestrictedDims, note)
		if err != nil {
			return err
		}
	}
	return nil
}
