package perimeter

import (
	"github.com/printforge/slicer/internal/clip"
	"github.com/printforge/slicer/internal/extrusion"
	"github.com/printforge/slicer/internal/geom"
	"github.com/printforge/slicer/internal/medial"
)

// processClassic runs the concentric-offset engine: repeated insets form
// onion layers of loops, thin walls come off the first inset, gaps between
// insets become variable-width fill, and the area inside the last inset is
// handed to infill.
func (g *Generator) processClassic(surface geom.ExPolygons) Result {
	var res Result
	n := g.loopCount()
	lowerGrown := g.lowerGrown()

	var allLoops []*loop
	var gapCandidates geom.Polygons
	var thinWalls []*extrusion.MultiPath

	last := surface
	walls := 0
	for i := 0; i < n && len(last) > 0; i++ {
		delta := g.insetDelta(i)
		center := clip.OffsetEx(last, -delta, clip.JoinMiter)

		lost := g.lostArea(last, center, delta)
		if i == 0 {
			if g.Config.ThinWalls {
				thinWalls = append(thinWalls, g.thinWallPaths(lost)...)
			}
		} else if g.Config.GapFill {
			gapCandidates = append(gapCandidates, lost.ToPolygons()...)
		}

		if len(center) == 0 {
			last = nil
			break
		}
		for _, p := range center.ToPolygons() {
			if len(p.Points) < 3 {
				continue
			}
			allLoops = append(allLoops, &loop{
				polygon:   p,
				isContour: p.IsCounterClockwise(),
				depth:     i,
			})
		}
		walls++
		last = center
	}

	// One inset beyond the last real perimeter exists purely to detect
	// gaps too narrow for another wall.
	if g.Config.GapFill && len(last) > 0 && walls > 0 {
		delta := g.insetDelta(walls)
		probe := clip.OffsetEx(last, -delta, clip.JoinMiter)
		gapCandidates = append(gapCandidates, g.lostArea(last, probe, delta).ToPolygons()...)
	}

	roots := nestLoops(allLoops)
	g.traverseLoops(roots, g.detectionPolygons(lowerGrown), &res.Loops)
	for _, tw := range thinWalls {
		res.Loops.Append(tw)
	}
	if !res.Loops.IsEmpty() {
		res.Loops.Chain(res.Loops.FirstPoint())
	}
	if g.Config.ExternalPerimetersFirst || (g.LayerIndex == 0 && g.FirstLayerBrim) {
		res.Loops.ReverseOrder()
	}

	res.GapFill = g.fillGaps(gapCandidates)

	var inner geom.ExPolygons
	if len(last) > 0 {
		inner = clip.OffsetEx(last, -g.lastInset(walls), clip.JoinMiter)
	}
	res.Infill = g.finishInfillBoundary(inner)

	if g.Config.ExtraPerimetersOnOverhangs {
		extra, reduced := g.extraPerimetersOnOverhangs(res.Infill)
		if extra != nil {
			res.Loops.Append(extra)
			res.Infill = reduced
		}
	}
	return res
}

// lastInset is the distance from the last wall centerline to the infill
// boundary before overlap adjustment.
func (g *Generator) lastInset(walls int) float64 {
	if walls <= 1 {
		return (g.ExtPerimeterFlow.Spacing() / 2) / geom.ScalingFactor
	}
	return (g.PerimeterFlow.Spacing() / 2) / geom.ScalingFactor
}

// lostArea returns the part of prev that vanished under an inset of delta:
// features too narrow to host the wall that inset would have placed.
func (g *Generator) lostArea(prev, center geom.ExPolygons, delta float64) geom.ExPolygons {
	regrown := clip.Offset(center.ToPolygons(), delta+float64(geom.ScaledEpsilon), clip.JoinMiter)
	return clip.DifferenceEx(prev, clip.UnionEx(regrown, clip.NonZero))
}

// detectionPolygons gates overhang splitting on config.
func (g *Generator) detectionPolygons(lowerGrown geom.Polygons) geom.Polygons {
	if !g.Config.OverhangDetection {
		return nil
	}
	return lowerGrown
}

// thinWallPaths converts first-inset remainders into variable-width
// external walls via the medial axis.
func (g *Generator) thinWallPaths(lost geom.ExPolygons) []*extrusion.MultiPath {
	if len(lost) == 0 {
		return nil
	}
	extW := float64(g.ExtPerimeterFlow.ScaledWidth())
	minW := g.PerimeterFlow.NozzleDiameter / 3 / geom.ScalingFactor

	var out []*extrusion.MultiPath
	for _, tp := range medial.AxisAll(lost, extW*1.05, minW) {
		for i := range tp.Widths {
			tp.Widths[i] = clampWidth(tp.Widths[i], minW, extW)
		}
		if mp := g.thickPolylineToMultiPath(tp, extrusion.RoleExternalPerimeter, extW/4, extW/10); mp != nil {
			out = append(out, mp)
		}
	}
	return out
}

// fillGaps isolates true gaps from the inset-loss candidates — wider than
// the minimum printable gap, narrower than two wall spacings — and lays
// variable-width fill along their medial axes.
func (g *Generator) fillGaps(candidates geom.Polygons) extrusion.Collection {
	var res extrusion.Collection
	if len(candidates) == 0 {
		return res
	}
	w := float64(g.PerimeterFlow.ScaledWidth())
	minW := 0.2 * w * (1 - InsetOverlapTolerance)
	maxW := 2 * float64(g.PerimeterFlow.ScaledSpacing())

	// Opening at the minimum kills unprintable slivers; removing the
	// opening at the maximum keeps only areas that are genuinely narrow.
	narrow := clip.DifferenceEx(
		clip.OpeningEx(candidates, minW/2),
		clip.OpeningEx(candidates, maxW/2),
	)
	if len(narrow) == 0 {
		return res
	}
	for _, tp := range medial.AxisAll(narrow, maxW, minW) {
		for i := range tp.Widths {
			tp.Widths[i] = clampWidth(tp.Widths[i], minW, maxW)
		}
		if mp := g.thickPolylineToMultiPath(tp, extrusion.RoleGapFill, w/4, w/10); mp != nil {
			res.Append(mp)
		}
	}
	if !res.IsEmpty() {
		res.Chain(res.FirstPoint())
	}
	return res
}
