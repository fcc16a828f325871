package clip

import (
	clipper "github.com/ctessum/go.clipper"

	"github.com/printforge/slicer/internal/geom"
)

// Offset defaults matching the backend's recommended values.
const (
	defaultMiterLimit   = 3.0
	defaultArcTolerance = 50.0 // scaled units, ~0.05 µm over-tessellation bound
)

func newOffsetter() *clipper.ClipperOffset {
	co := clipper.NewClipperOffset()
	co.MiterLimit = defaultMiterLimit
	co.ArcTolerance = defaultArcTolerance
	return co
}

// Offset grows (delta > 0) or shrinks (delta < 0) closed polygons.
func Offset(pp geom.Polygons, delta float64, join JoinStyle) geom.Polygons {
	if len(pp) == 0 {
		return nil
	}
	co := newOffsetter()
	co.AddPaths(toPaths(pp), join.clipper(), clipper.EtClosedPolygon)
	return fromPaths(co.Execute(delta))
}

// OffsetEx offsets polygons-with-holes and re-normalizes the result into
// expolygons.
func OffsetEx(exs geom.ExPolygons, delta float64, join JoinStyle) geom.ExPolygons {
	return UnionEx(Offset(exs.ToPolygons(), delta, join), NonZero)
}

// Offset2 applies two consecutive offsets. A shrink-then-grow pair removes
// features narrower than the shrink distance, a grow-then-shrink pair fills
// gaps narrower than the grow distance.
func Offset2(pp geom.Polygons, delta1, delta2 float64, join JoinStyle) geom.Polygons {
	return Offset(Offset(pp, delta1, join), delta2, join)
}

// Offset2Ex is Offset2 with expolygon output.
func Offset2Ex(pp geom.Polygons, delta1, delta2 float64, join JoinStyle) geom.ExPolygons {
	return UnionEx(Offset2(pp, delta1, delta2, join), NonZero)
}

// Opening erodes then dilates by radius, removing slivers narrower than
// 2*radius.
func Opening(pp geom.Polygons, radius float64) geom.Polygons {
	return Offset2(pp, -radius, radius, JoinMiter)
}

// OpeningEx is Opening with expolygon output.
func OpeningEx(pp geom.Polygons, radius float64) geom.ExPolygons {
	return Offset2Ex(pp, -radius, radius, JoinMiter)
}

// Closing dilates then erodes by radius, sealing gaps narrower than
// 2*radius.
func Closing(pp geom.Polygons, radius float64) geom.Polygons {
	return Offset2(pp, radius, -radius, JoinMiter)
}

// ClosingEx is Closing with expolygon output.
func ClosingEx(pp geom.Polygons, radius float64) geom.ExPolygons {
	return Offset2Ex(pp, radius, -radius, JoinMiter)
}

// OffsetLine expands an open polyline into the polygon covered by a stroke
// of the given half-width.
func OffsetLine(pl geom.Polyline, halfWidth float64) geom.Polygons {
	if !pl.IsValid() {
		return nil
	}
	co := newOffsetter()
	co.AddPath(toOpenPath(pl), clipper.JtSquare, clipper.EtOpenButt)
	return fromPaths(co.Execute(halfWidth))
}

// OffsetLines strokes a set of open polylines and unions the result.
func OffsetLines(pls geom.Polylines, halfWidth float64) geom.Polygons {
	co := newOffsetter()
	added := false
	for _, pl := range pls {
		if pl.IsValid() {
			co.AddPath(toOpenPath(pl), clipper.JtSquare, clipper.EtOpenButt)
			added = true
		}
	}
	if !added {
		return nil
	}
	return Union(fromPaths(co.Execute(halfWidth)), NonZero)
}

// Clean removes vertices that deviate less than distance from the contour,
// dropping polygons that degenerate in the process.
func Clean(pp geom.Polygons, distance float64) geom.Polygons {
	out := make(geom.Polygons, 0, len(pp))
	for _, p := range pp {
		pts := geom.SimplifyClosed(p.Points, distance)
		if len(pts) >= 3 {
			out = append(out, geom.Polygon{Points: pts})
		}
	}
	return out
}
