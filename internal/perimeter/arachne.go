package perimeter

import (
	"github.com/printforge/slicer/internal/arachne"
	"github.com/printforge/slicer/internal/clip"
	"github.com/printforge/slicer/internal/extrusion"
	"github.com/printforge/slicer/internal/geom"
)

// processArachne runs the variable-width engine: full walls are laid as
// rings, thin features collapse onto the medial axis with width tracking
// the local feature size, and the residual contour is handed to infill.
// Gap fill as a separate pass does not exist here; the collapsed beads
// already cover what the classic engine would patch afterwards.
func (g *Generator) processArachne(surface geom.ExPolygons) Result {
	var res Result
	params := g.arachneParams(g.loopCount())
	lowerGrown := g.lowerGrown()

	walls, inner := g.generateWalls(surface, params)

	maxInset := 0
	for i := range walls {
		if walls[i].Closed && walls[i].Inset > maxInset {
			maxInset = walls[i].Inset
		}
	}

	for _, wi := range arachne.Order(walls, g.Config.ExternalPerimetersFirst) {
		if e := g.wallToEntity(&walls[wi], maxInset, g.detectionPolygons(lowerGrown)); e != nil {
			res.Loops.Append(e)
		}
	}
	if !res.Loops.IsEmpty() {
		res.Loops.Chain(res.Loops.FirstPoint())
	}
	if g.LayerIndex == 0 && g.FirstLayerBrim {
		res.Loops.ReverseOrder()
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

// generateWalls runs the wall generator, splitting the surface into a top
// region that gets a single wall and a rest region with the full count
// when only_one_perimeter_top is set. The split only makes sense when a
// solid top skin will cover the freed area, so it needs top solid layers.
// Both passes start their inset numbering at zero, so ordering by inset
// still interleaves correctly.
func (g *Generator) generateWalls(surface geom.ExPolygons, params arachne.Params) ([]arachne.ExtrusionLine, geom.ExPolygons) {
	if !g.Config.OnlyOnePerimeterTop || g.Config.TopSolidLayers <= 0 || params.WallCount <= 1 || len(g.UpperSlices) == 0 {
		r := arachne.Generate(surface, params)
		return r.Walls, r.InnerContour
	}

	// Top is what the layer above does not cover, grown by one external
	// width so the single wall still overlaps the covered rest.
	margin := float64(g.ExtPerimeterFlow.ScaledWidth())
	top := clip.DifferenceEx(surface, clip.OffsetEx(g.UpperSlices, margin, clip.JoinMiter))
	if len(top) == 0 {
		r := arachne.Generate(surface, params)
		return r.Walls, r.InnerContour
	}
	rest := clip.DifferenceEx(surface, top)

	topParams := params
	topParams.WallCount = 1
	topRes := arachne.Generate(top, topParams)
	restRes := arachne.Generate(rest, params)

	walls := append(restRes.Walls, topRes.Walls...)
	inner := clip.UnionExEx(append(restRes.InnerContour, topRes.InnerContour...))
	return walls, inner
}

// arachneParams maps flows and config onto generator parameters, all in
// scaled units.
func (g *Generator) arachneParams(wallCount int) arachne.Params {
	minFeature := g.Config.ArachneMinFeatureSize
	if minFeature <= 0 {
		minFeature = g.PerimeterFlow.NozzleDiameter / 4
	}
	minBead := g.Config.ArachneMinBeadWidth
	if minBead <= 0 {
		minBead = g.PerimeterFlow.NozzleDiameter * 0.85
	}
	transition := g.Config.ArachneWallTransitionLength
	if transition <= 0 {
		transition = g.PerimeterFlow.NozzleDiameter
	}
	return arachne.Params{
		ExtWidth:         float64(g.ExtPerimeterFlow.ScaledWidth()),
		ExtSpacing:       float64(g.ExtPerimeterFlow.ScaledSpacing()),
		IntWidth:         float64(g.PerimeterFlow.ScaledWidth()),
		IntSpacing:       float64(g.PerimeterFlow.ScaledSpacing()),
		WallCount:        wallCount,
		MinFeatureSize:   minFeature / geom.ScalingFactor,
		MinBeadWidth:     minBead / geom.ScalingFactor,
		TransitionLength: transition / geom.ScalingFactor,
	}
}

// wallToEntity converts one generated wall into an extrusion entity.
// Closed rings become loops with the same role and kind flags the classic
// engine assigns; open collapsed beads become variable-width multi-paths.
func (g *Generator) wallToEntity(w *arachne.ExtrusionLine, maxInset int, lowerGrown geom.Polygons) extrusion.Entity {
	if len(w.Junctions) < 2 {
		return nil
	}
	role := extrusion.RolePerimeter
	if w.Inset == 0 {
		role = extrusion.RoleExternalPerimeter
	}

	if !w.Closed {
		tp := geom.ThickPolyline{}
		for _, j := range w.Junctions {
			tp.Points = append(tp.Points, j.P)
			tp.Widths = append(tp.Widths, j.Width)
		}
		refW := float64(g.PerimeterFlow.ScaledWidth())
		mp := g.thickPolylineToMultiPath(tp, role, refW/4, refW/10)
		if mp == nil {
			return nil
		}
		if lowerGrown != nil {
			mp.Paths = g.splitOpenAtOverhangs(mp.Paths, lowerGrown)
		}
		return mp
	}

	poly := geom.Polygon{Points: w.Points()}
	if len(poly.Points) < 3 {
		return nil
	}
	kind := extrusion.LoopDefault
	if w.Inset == 0 {
		kind = extrusion.LoopExternal
	} else if w.Inset == maxInset && poly.IsCounterClockwise() {
		kind = extrusion.LoopContourInternal
	}
	if g.fuzzyApplies(w.Inset) {
		poly = g.fuzzyPolygon(poly)
	}
	paths := g.splitClosedAtOverhangs(poly, role, lowerGrown)
	if len(paths) == 0 {
		return nil
	}
	return &extrusion.Loop{Paths: paths, Kind: kind}
}

// splitOpenAtOverhangs cuts open beads into supported and overhanging runs
// and re-chains them, biased to start on a supported endpoint.
func (g *Generator) splitOpenAtOverhangs(paths []extrusion.Path, lowerGrown geom.Polygons) []extrusion.Path {
	if !g.Config.OverhangDetection {
		return paths
	}
	var split []extrusion.Path
	for _, p := range paths {
		pl := geom.Polylines{p.Polyline}
		supported := clip.IntersectionPL(pl, lowerGrown)
		overhang := clip.DifferencePL(pl, lowerGrown)
		if len(overhang) == 0 {
			split = append(split, p)
			continue
		}
		for _, s := range supported {
			if s.IsValid() {
				q := p
				q.Polyline = s
				split = append(split, q)
			}
		}
		for _, o := range overhang {
			if o.IsValid() {
				q := p
				q.Polyline = o
				q.Role = extrusion.RoleOverhangPerimeter
				split = append(split, q)
			}
		}
	}
	return chainPaths(split, false)
}
