package perimeter

import (
	"github.com/printforge/slicer/internal/extrusion"
	"github.com/printforge/slicer/internal/geom"
)

// thickPolylineToMultiPath converts a variable-width centerline into a run
// of constant-width paths. Two tolerances drive the split: segments whose
// width differs from the running path by more than tolerance start a new
// path (a single extrusion move would be too inaccurate), while widths
// within mergeTolerance of the running path are coalesced into it to keep
// the command count down. Near-zero-length segments are spliced into a
// neighbor instead of becoming their own paths.
func (g *Generator) thickPolylineToMultiPath(tp geom.ThickPolyline, role extrusion.Role, tolerance, mergeTolerance float64) *extrusion.MultiPath {
	lines := tp.ThickLines()
	if len(lines) == 0 {
		return nil
	}

	mp := &extrusion.MultiPath{}
	var curPts geom.Points
	var curWidth float64
	speed := g.Config.GapFillSpeed
	if role != extrusion.RoleGapFill {
		speed = g.Config.PerimeterSpeed
	}

	flush := func() {
		if len(curPts) < 2 {
			curPts = nil
			return
		}
		f := g.widthFlow(geom.Coord(curWidth))
		mp.Paths = append(mp.Paths, extrusion.Path{
			Polyline: geom.Polyline{Points: curPts},
			Role:     role,
			MM3PerMM: f.MM3PerMM(),
			Width:    f.Width,
			Height:   f.Height,
			Speed:    speed,
		})
		curPts = nil
	}

	for i := 0; i < len(lines); i++ {
		ln := lines[i]
		length := ln.Length()
		w := (float64(ln.AWidth) + float64(ln.BWidth)) / 2

		// Splice degenerate stubs into the neighbor instead of emitting a
		// zero-length move.
		if length < float64(geom.ScaledEpsilon) {
			if len(curPts) > 0 {
				curPts[len(curPts)-1] = ln.B
			}
			continue
		}

		if len(curPts) == 0 {
			curPts = geom.Points{ln.A, ln.B}
			curWidth = w
			continue
		}

		switch {
		case absf(w-curWidth) <= mergeTolerance:
			// Near-equal width: extend the running path, nudging its
			// width toward the weighted blend.
			curPts = append(curPts, ln.B)
		case absf(w-curWidth) > tolerance:
			flush()
			curPts = geom.Points{ln.A, ln.B}
			curWidth = w
		default:
			// Inside tolerance but outside merge range: keep the path but
			// adopt the new width for subsequent comparisons.
			curPts = append(curPts, ln.B)
			curWidth = (curWidth + w) / 2
		}
	}
	flush()

	if len(mp.Paths) == 0 {
		return nil
	}
	return mp
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
