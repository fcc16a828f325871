package perimeter

import (
	"github.com/printforge/slicer/internal/clip"
	"github.com/printforge/slicer/internal/config"
	"github.com/printforge/slicer/internal/extrusion"
	"github.com/printforge/slicer/internal/geom"
)

// loop is a node in the classic engine's depth-ranked contour hierarchy.
// Children are strictly nested inside their parent; depth 0 is the
// outermost external perimeter.
type loop struct {
	polygon   geom.Polygon
	isContour bool // CCW contour, CW hole
	depth     int
	children  []*loop
}

// nestLoops arranges the flat per-onion-layer loop list into a forest.
// Holes attach to the innermost loop containing their first point;
// contours attach, deepest first, to the smallest enclosing contour at a
// shallower depth. The returned roots are the depth-0 contours.
func nestLoops(all []*loop) []*loop {
	var contours, holes []*loop
	for _, l := range all {
		if l.isContour {
			contours = append(contours, l)
		} else {
			holes = append(holes, l)
		}
	}

	for _, h := range holes {
		var best *loop
		for _, c := range contours {
			if !c.polygon.Contains(h.polygon.FirstPoint()) {
				continue
			}
			if best == nil || c.depth > best.depth ||
				(c.depth == best.depth && absf(c.polygon.Area()) < absf(best.polygon.Area())) {
				best = c
			}
		}
		if best != nil {
			best.children = append(best.children, h)
		}
	}

	// Deepest-to-shallowest so children find parents that already exist
	// as independent nodes.
	byDepthDesc := append([]*loop(nil), contours...)
	for i := 0; i < len(byDepthDesc); i++ {
		for j := i + 1; j < len(byDepthDesc); j++ {
			if byDepthDesc[j].depth > byDepthDesc[i].depth {
				byDepthDesc[i], byDepthDesc[j] = byDepthDesc[j], byDepthDesc[i]
			}
		}
	}

	var roots []*loop
	for _, c := range byDepthDesc {
		if c.depth == 0 {
			roots = append(roots, c)
			continue
		}
		var best *loop
		for _, p := range contours {
			if p == c || p.depth >= c.depth {
				continue
			}
			if !p.polygon.Contains(c.polygon.FirstPoint()) {
				continue
			}
			if best == nil || absf(p.polygon.Area()) < absf(best.polygon.Area()) {
				best = p
			}
		}
		if best != nil {
			best.children = append(best.children, c)
		} else {
			roots = append(roots, c)
		}
	}
	return roots
}

// hasChildContour reports whether any direct child is a contour.
func (l *loop) hasChildContour() bool {
	for _, c := range l.children {
		if c.isContour {
			return true
		}
	}
	return false
}

// traverseLoops converts the loop forest into extrusion loops depth-first,
// children before parent, so inner walls print before the wall enclosing
// them. Thin walls join the same candidate set; the final print order is
// decided by nearest-neighbour chaining at the call site.
func (g *Generator) traverseLoops(roots []*loop, lowerGrown geom.Polygons, out *extrusion.Collection) {
	for _, l := range roots {
		g.traverseLoops(l.children, lowerGrown, out)
		if el := g.loopToExtrusion(l, lowerGrown); el != nil {
			out.Append(el)
		}
	}
}

// loopToExtrusion builds one extrusion loop, applying fuzzy skin and
// splitting at overhangs.
func (g *Generator) loopToExtrusion(l *loop, lowerGrown geom.Polygons) *extrusion.Loop {
	if len(l.polygon.Points) < 3 {
		return nil
	}
	role := extrusion.RolePerimeter
	kind := extrusion.LoopDefault
	if l.depth == 0 {
		role = extrusion.RoleExternalPerimeter
		kind = extrusion.LoopExternal
	} else if l.isContour && !l.hasChildContour() {
		kind = extrusion.LoopContourInternal
	}

	poly := l.polygon
	if g.fuzzyApplies(l.depth) {
		poly = g.fuzzyPolygon(poly)
	}

	paths := g.splitClosedAtOverhangs(poly, role, lowerGrown)
	if len(paths) == 0 {
		return nil
	}
	return &extrusion.Loop{Paths: paths, Kind: kind}
}

func (g *Generator) fuzzyApplies(depth int) bool {
	switch g.Config.FuzzySkin {
	case config.FuzzySkinExternal:
		return depth == 0
	case config.FuzzySkinAll:
		return true
	default:
		return false
	}
}

// splitClosedAtOverhangs cuts a closed wall centerline into supported and
// overhanging runs and re-chains them into one continuous cycle. With
// detection off (or no lower layer) the loop stays one path.
func (g *Generator) splitClosedAtOverhangs(poly geom.Polygon, role extrusion.Role, lowerGrown geom.Polygons) []extrusion.Path {
	closedPts := append(append(geom.Points{}, poly.Points...), poly.Points[0])

	if !g.Config.OverhangDetection || lowerGrown == nil {
		return []extrusion.Path{g.pathFor(closedPts, role)}
	}

	pl := geom.Polylines{{Points: closedPts}}
	supported := clip.IntersectionPL(pl, lowerGrown)
	overhang := clip.DifferencePL(pl, lowerGrown)

	if len(overhang) == 0 {
		return []extrusion.Path{g.pathFor(closedPts, role)}
	}
	if len(supported) == 0 {
		return []extrusion.Path{g.pathFor(closedPts, extrusion.RoleOverhangPerimeter)}
	}

	var paths []extrusion.Path
	for _, p := range supported {
		if p.IsValid() {
			paths = append(paths, g.pathFor(p.Points, role))
		}
	}
	for _, p := range overhang {
		if p.IsValid() {
			paths = append(paths, g.pathFor(p.Points, extrusion.RoleOverhangPerimeter))
		}
	}
	return chainPaths(paths, true)
}

// chainPaths links path fragments into one continuous run by nearest
// endpoints, reversing fragments as needed (boolean clipping scrambles
// direction). For open chains the start is biased to an endpoint that
// occurs only once and is not an overhang, so a single continuous pass
// begins on anchored material whenever geometrically possible.
func chainPaths(paths []extrusion.Path, closed bool) []extrusion.Path {
	if len(paths) <= 1 {
		return paths
	}

	start := 0
	if !closed {
		occurrences := make(map[geom.Point]int)
		for i := range paths {
			occurrences[paths[i].FirstPoint()]++
			occurrences[paths[i].LastPoint()]++
		}
		bestScore := -1
		for i := range paths {
			for _, end := range []geom.Point{paths[i].FirstPoint(), paths[i].LastPoint()} {
				if occurrences[end] != 1 {
					continue
				}
				score := 1
				if paths[i].Role != extrusion.RoleOverhangPerimeter {
					score = 2
				}
				if score > bestScore {
					bestScore = score
					start = i
					if end == paths[i].LastPoint() {
						paths[i].Reverse()
					}
				}
			}
		}
	}

	remaining := append([]extrusion.Path(nil), paths...)
	first := remaining[start]
	remaining = append(remaining[:start], remaining[start+1:]...)
	out := []extrusion.Path{first}
	pos := first.LastPoint()

	for len(remaining) > 0 {
		best, bestDist, rev := -1, -1.0, false
		for i := range remaining {
			df := pos.DistanceSqTo(remaining[i].FirstPoint())
			dl := pos.DistanceSqTo(remaining[i].LastPoint())
			if bestDist < 0 || df < bestDist {
				best, bestDist, rev = i, df, false
			}
			if dl < bestDist {
				best, bestDist, rev = i, dl, true
			}
		}
		next := remaining[best]
		remaining = append(remaining[:best], remaining[best+1:]...)
		if rev {
			next.Reverse()
		}
		out = append(out, next)
		pos = next.LastPoint()
	}
	return out
}
