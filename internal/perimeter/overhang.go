package perimeter

import (
	"github.com/printforge/slicer/internal/clip"
	"github.com/printforge/slicer/internal/extrusion"
	"github.com/printforge/slicer/internal/geom"
	"github.com/printforge/slicer/internal/medial"
)

// extraPerimetersOnOverhangs synthesizes concentric supporting rings over
// small overhang islands of the infill boundary. Only islands whose
// unsupported share is below OverhangAreaFraction of the surrounding fill
// area and whose unsupported span is short relative to the island
// perimeter qualify; larger overhangs are left to bridging infill.
//
// Rings are emitted outermost first in a pinned collection: the outer ring
// touches supported material, each following ring rests on the previous
// one, so anchored paths always print before cantilevered ones.
func (g *Generator) extraPerimetersOnOverhangs(infill geom.ExPolygons) (extrusion.Entity, geom.ExPolygons) {
	if len(g.LowerSlices) == 0 || len(infill) == 0 {
		return nil, infill
	}

	overhangs := clip.DifferenceEx(infill, g.LowerSlices)
	if len(overhangs) == 0 {
		return nil, infill
	}

	spacing := float64(g.PerimeterFlow.ScaledSpacing())
	totalArea := infill.Area()

	group := &extrusion.Collection{NoSort: true}
	reduced := infill
	for _, island := range overhangs {
		area := island.Area()
		perimeter := island.Contour.Length()
		if perimeter <= 0 || area <= 0 {
			continue
		}
		// Mean unsupported width stands in for the unsupported span.
		span := 4 * area / perimeter
		if area >= OverhangAreaFraction*totalArea || span >= OverhangSpanFraction*perimeter {
			continue
		}

		// Concentric rings clipped to the island, outermost first; the
		// anchor dependency between successive rings is the 1.5× spacing
		// adjacency the offset step guarantees by construction.
		ringArea := geom.ExPolygons{island}
		covered := geom.Polygons{}
		for len(ringArea) > 0 {
			center := clip.Offset(ringArea.ToPolygons(), -spacing/2, clip.JoinMiter)
			if len(center) == 0 {
				break
			}
			for _, ring := range center {
				if len(ring.Points) < 3 {
					continue
				}
				pts := append(append(geom.Points{}, ring.Points...), ring.Points[0])
				group.Append(&extrusion.Loop{
					Paths: []extrusion.Path{g.pathFor(pts, extrusion.RoleOverhangPerimeter)},
				})
				covered = append(covered, ring)
			}
			ringArea = clip.OffsetEx(ringArea, -spacing, clip.JoinMiter)
		}

		// Slivers the rings could not reach fall back to medial-axis fill.
		if len(covered) > 0 {
			grown := clip.Offset(covered, spacing/2, clip.JoinRound)
			leftover := clip.DifferenceEx(geom.ExPolygons{island}, clip.UnionEx(grown, clip.NonZero))
			w := float64(g.PerimeterFlow.ScaledWidth())
			for _, tp := range medial.AxisAll(leftover, 2*spacing, 0.2*w) {
				if mp := g.thickPolylineToMultiPath(tp, extrusion.RoleGapFill, w/4, w/10); mp != nil {
					group.Append(mp)
				}
			}
		}

		if len(group.Entities) > 0 {
			reduced = clip.DifferenceEx(reduced, geom.ExPolygons{island})
		}
	}

	if group.IsEmpty() {
		return nil, infill
	}
	return group, reduced
}
