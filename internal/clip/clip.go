// Package clip adapts the Clipper polygon algebra library to the slicer's
// geometry types. It is the single entry point for boolean set operations,
// polygon offsetting, morphological opening/closing and open-polyline
// clipping; no other package touches the clipping backend directly.
package clip

import (
	clipper "github.com/ctessum/go.clipper"

	"github.com/printforge/slicer/internal/geom"
)

// FillRule selects the winding rule for boolean operations.
type FillRule int

const (
	// NonZero is the default fill rule for well-oriented slicer polygons.
	NonZero FillRule = iota
	// EvenOdd is used by the even-odd slicing mode.
	EvenOdd
	// Positive keeps only positively wound regions; the "close holes"
	// slicing mode maps to it.
	Positive
)

func (fr FillRule) clipper() clipper.PolyFillType {
	switch fr {
	case EvenOdd:
		return clipper.PftEvenOdd
	case Positive:
		return clipper.PftPositive
	default:
		return clipper.PftNonZero
	}
}

// JoinStyle selects the offset join geometry.
type JoinStyle int

const (
	JoinMiter JoinStyle = iota
	JoinRound
	JoinSquare
)

func (js JoinStyle) clipper() clipper.JoinType {
	switch js {
	case JoinRound:
		return clipper.JtRound
	case JoinSquare:
		return clipper.JtSquare
	default:
		return clipper.JtMiter
	}
}

func toPath(p geom.Polygon) clipper.Path {
	out := make(clipper.Path, 0, len(p.Points))
	for _, pt := range p.Points {
		out = append(out, &clipper.IntPoint{X: clipper.CInt(pt.X), Y: clipper.CInt(pt.Y)})
	}
	return out
}

func toPaths(pp geom.Polygons) clipper.Paths {
	out := make(clipper.Paths, 0, len(pp))
	for _, p := range pp {
		if len(p.Points) >= 3 {
			out = append(out, toPath(p))
		}
	}
	return out
}

func toOpenPath(pl geom.Polyline) clipper.Path {
	out := make(clipper.Path, 0, len(pl.Points))
	for _, pt := range pl.Points {
		out = append(out, &clipper.IntPoint{X: clipper.CInt(pt.X), Y: clipper.CInt(pt.Y)})
	}
	return out
}

func fromPath(p clipper.Path) geom.Polygon {
	pts := make(geom.Points, 0, len(p))
	for _, ip := range p {
		pts = append(pts, geom.Point{X: geom.Coord(ip.X), Y: geom.Coord(ip.Y)})
	}
	return geom.Polygon{Points: pts}
}

func fromPaths(pp clipper.Paths) geom.Polygons {
	out := make(geom.Polygons, 0, len(pp))
	for _, p := range pp {
		if len(p) >= 3 {
			out = append(out, fromPath(p))
		}
	}
	return out
}

func fromOpenPaths(pp clipper.Paths) geom.Polylines {
	out := make(geom.Polylines, 0, len(pp))
	for _, p := range pp {
		if len(p) < 2 {
			continue
		}
		pts := make(geom.Points, 0, len(p))
		for _, ip := range p {
			pts = append(pts, geom.Point{X: geom.Coord(ip.X), Y: geom.Coord(ip.Y)})
		}
		out = append(out, geom.Polyline{Points: pts})
	}
	return out
}

func execute(subject, clips geom.Polygons, op clipper.ClipType, fr FillRule) geom.Polygons {
	c := clipper.NewClipper(0)
	c.AddPaths(toPaths(subject), clipper.PtSubject, true)
	if clips != nil {
		c.AddPaths(toPaths(clips), clipper.PtClip, true)
	}
	sol, ok := c.Execute1(op, fr.clipper(), fr.clipper())
	if !ok {
		return nil
	}
	return fromPaths(sol)
}

func executeEx(subject, clips geom.Polygons, op clipper.ClipType, fr FillRule) geom.ExPolygons {
	c := clipper.NewClipper(0)
	c.AddPaths(toPaths(subject), clipper.PtSubject, true)
	if clips != nil {
		c.AddPaths(toPaths(clips), clipper.PtClip, true)
	}
	tree, ok := c.Execute2(op, fr.clipper(), fr.clipper())
	if !ok {
		return nil
	}
	return exPolygonsFromTree(tree)
}

// exPolygonsFromTree converts a Clipper PolyTree into polygons-with-holes.
// Outer nodes become contours, their immediate children holes; deeper
// islands recurse.
func exPolygonsFromTree(tree *clipper.PolyTree) geom.ExPolygons {
	var out geom.ExPolygons
	var walk func(nodes []*clipper.PolyNode)
	walk = func(nodes []*clipper.PolyNode) {
		for _, node := range nodes {
			if node.IsHole() {
				// A hole at this level belongs to its parent contour; only
				// recurse into islands nested inside the hole.
				walk(node.Childs())
				continue
			}
			ex := geom.ExPolygon{Contour: fromPath(node.Contour())}
			if ex.Contour.IsClockwise() {
				ex.Contour.Reverse()
			}
			for _, child := range node.Childs() {
				if child.IsHole() {
					hole := fromPath(child.Contour())
					if hole.IsCounterClockwise() {
						hole.Reverse()
					}
					ex.Holes = append(ex.Holes, hole)
				}
			}
			if len(ex.Contour.Points) >= 3 {
				out = append(out, ex)
			}
			walk(node.Childs())
		}
	}
	walk(tree.Childs())
	return out
}

// Union merges a polygon set under the given fill rule.
func Union(pp geom.Polygons, fr FillRule) geom.Polygons {
	return execute(pp, nil, clipper.CtUnion, fr)
}

// UnionEx merges a polygon set into polygons-with-holes.
func UnionEx(pp geom.Polygons, fr FillRule) geom.ExPolygons {
	return executeEx(pp, nil, clipper.CtUnion, fr)
}

// UnionExEx merges expolygon sets into a normalized expolygon set.
func UnionExEx(sets ...geom.ExPolygons) geom.ExPolygons {
	var pp geom.Polygons
	for _, s := range sets {
		pp = append(pp, s.ToPolygons()...)
	}
	return UnionEx(pp, NonZero)
}

// Intersection returns subject ∩ clips.
func Intersection(subject, clips geom.Polygons) geom.Polygons {
	return execute(subject, clips, clipper.CtIntersection, NonZero)
}

// IntersectionEx returns subject ∩ clips as polygons-with-holes.
func IntersectionEx(subject, clips geom.ExPolygons) geom.ExPolygons {
	return executeEx(subject.ToPolygons(), clips.ToPolygons(), clipper.CtIntersection, NonZero)
}

// Difference returns subject − clips.
func Difference(subject, clips geom.Polygons) geom.Polygons {
	return execute(subject, clips, clipper.CtDifference, NonZero)
}

// DifferenceEx returns subject − clips as polygons-with-holes.
func DifferenceEx(subject, clips geom.ExPolygons) geom.ExPolygons {
	return executeEx(subject.ToPolygons(), clips.ToPolygons(), clipper.CtDifference, NonZero)
}

// IntersectionPL clips open polylines to the area covered by clips.
func IntersectionPL(subject geom.Polylines, clips geom.Polygons) geom.Polylines {
	return executeOpen(subject, clips, clipper.CtIntersection)
}

// DifferencePL keeps the parts of open polylines outside clips.
func DifferencePL(subject geom.Polylines, clips geom.Polygons) geom.Polylines {
	return executeOpen(subject, clips, clipper.CtDifference)
}

func executeOpen(subject geom.Polylines, clips geom.Polygons, op clipper.ClipType) geom.Polylines {
	c := clipper.NewClipper(0)
	for _, pl := range subject {
		if pl.IsValid() {
			c.AddPath(toOpenPath(pl), clipper.PtSubject, false)
		}
	}
	c.AddPaths(toPaths(clips), clipper.PtClip, true)
	tree, ok := c.Execute2(op, clipper.PftNonZero, clipper.PftNonZero)
	if !ok {
		return nil
	}
	return fromOpenPaths(c.OpenPathsFromPolyTree(tree))
}
