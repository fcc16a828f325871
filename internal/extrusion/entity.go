package extrusion

import (
	"github.com/printforge/slicer/internal/geom"
)

// Entity is the closed set of toolpath kinds: *Path, *Loop, *MultiPath and
// *Collection. Collections exclusively own their children; entities are
// moved, never shared, as they flow through ordering.
type Entity interface {
	// Length returns the extruded length in scaled units.
	Length() float64
	// FirstPoint returns where extrusion starts.
	FirstPoint() geom.Point
	// LastPoint returns where extrusion ends.
	LastPoint() geom.Point
	// IsEmpty reports whether the entity extrudes nothing.
	IsEmpty() bool

	isEntity()
}

// Path is one open extrusion move sequence at constant flow.
type Path struct {
	Polyline geom.Polyline
	Role     Role

	// MM3PerMM is the filament volume per mm of path, Width and Height the
	// layer cross-section in mm.
	MM3PerMM float64
	Width    float64
	Height   float64

	// Speed overrides the role's default print speed when > 0, in mm/s.
	Speed float64
}

func (p *Path) isEntity() {}

// Length returns the path length.
func (p *Path) Length() float64 { return p.Polyline.Length() }

// FirstPoint returns the first vertex.
func (p *Path) FirstPoint() geom.Point { return p.Polyline.FirstPoint() }

// LastPoint returns the last vertex.
func (p *Path) LastPoint() geom.Point { return p.Polyline.LastPoint() }

// IsEmpty reports whether the path has fewer than two points.
func (p *Path) IsEmpty() bool { return !p.Polyline.IsValid() }

// Reverse flips the travel direction in place.
func (p *Path) Reverse() { p.Polyline.Reverse() }

// Clone returns a deep copy.
func (p *Path) Clone() *Path {
	c := *p
	c.Polyline = p.Polyline.Clone()
	return &c
}

// MultiPath is a contiguous run of paths with differing flows, extruded
// without retraction between them. The perimeter engine uses it for
// variable-width thin walls and gap fill.
type MultiPath struct {
	Paths []Path
}

func (m *MultiPath) isEntity() {}

// Length returns the summed path length.
func (m *MultiPath) Length() float64 {
	var l float64
	for i := range m.Paths {
		l += m.Paths[i].Length()
	}
	return l
}

// FirstPoint returns the start of the first path.
func (m *MultiPath) FirstPoint() geom.Point { return m.Paths[0].FirstPoint() }

// LastPoint returns the end of the last path.
func (m *MultiPath) LastPoint() geom.Point { return m.Paths[len(m.Paths)-1].LastPoint() }

// IsEmpty reports whether no sub-path extrudes anything.
func (m *MultiPath) IsEmpty() bool {
	for i := range m.Paths {
		if !m.Paths[i].IsEmpty() {
			return false
		}
	}
	return true
}

// Reverse flips the run and each sub-path in place.
func (m *MultiPath) Reverse() {
	for i, j := 0, len(m.Paths)-1; i < j; i, j = i+1, j-1 {
		m.Paths[i], m.Paths[j] = m.Paths[j], m.Paths[i]
	}
	for i := range m.Paths {
		m.Paths[i].Reverse()
	}
}

// LoopKind distinguishes loop positions that ordering cares about.
type LoopKind int

const (
	// LoopDefault is any ordinary perimeter loop.
	LoopDefault LoopKind = iota
	// LoopContourInternal marks an internal perimeter that is a contour
	// with no deeper contour inside it; infill ordering starts from it.
	LoopContourInternal
	// LoopExternal marks the outermost wall of an island.
	LoopExternal
)

// Loop is a closed cyclic sequence of paths. The last point of the final
// path coincides with the first point of the first path.
type Loop struct {
	Paths []Path
	Kind  LoopKind
}

func (l *Loop) isEntity() {}

// Length returns the loop circumference.
func (l *Loop) Length() float64 {
	var s float64
	for i := range l.Paths {
		s += l.Paths[i].Length()
	}
	return s
}

// FirstPoint returns the seam point.
func (l *Loop) FirstPoint() geom.Point { return l.Paths[0].Polyline.FirstPoint() }

// LastPoint equals FirstPoint for a well-formed loop.
func (l *Loop) LastPoint() geom.Point { return l.Paths[len(l.Paths)-1].Polyline.LastPoint() }

// IsEmpty reports whether the loop has no valid paths.
func (l *Loop) IsEmpty() bool {
	for i := range l.Paths {
		if !l.Paths[i].IsEmpty() {
			return false
		}
	}
	return true
}

// Polygon returns the loop outline as a closed polygon.
func (l *Loop) Polygon() geom.Polygon {
	var pts geom.Points
	for i := range l.Paths {
		pp := l.Paths[i].Polyline.Points
		if i > 0 && len(pp) > 0 {
			pp = pp[1:] // joint duplicated between paths
		}
		pts = append(pts, pp...)
	}
	if len(pts) > 1 && pts[0] == pts[len(pts)-1] {
		pts = pts[:len(pts)-1]
	}
	return geom.Polygon{Points: pts}
}

// IsCounterClockwise reports the loop orientation.
func (l *Loop) IsCounterClockwise() bool { return l.Polygon().IsCounterClockwise() }

// Reverse inverts the loop orientation in place.
func (l *Loop) Reverse() {
	for i, j := 0, len(l.Paths)-1; i < j; i, j = i+1, j-1 {
		l.Paths[i], l.Paths[j] = l.Paths[j], l.Paths[i]
	}
	for i := range l.Paths {
		l.Paths[i].Reverse()
	}
}

// SplitAtVertex rotates the loop in place so it starts at the given vertex.
// It reports whether the vertex was found on the loop.
func (l *Loop) SplitAtVertex(pt geom.Point) bool {
	for pi := range l.Paths {
		pts := l.Paths[pi].Polyline.Points
		for vi, v := range pts {
			if v == pt {
				l.rotate(pi, vi)
				return true
			}
		}
	}
	return false
}

// SplitAtNearest rotates the loop to start at the existing vertex closest
// to pt.
func (l *Loop) SplitAtNearest(pt geom.Point) {
	bestPath, bestVert, bestDist := 0, 0, -1.0
	for pi := range l.Paths {
		for vi, v := range l.Paths[pi].Polyline.Points {
			if d := pt.DistanceSqTo(v); bestDist < 0 || d < bestDist {
				bestPath, bestVert, bestDist = pi, vi, d
			}
		}
	}
	if bestDist >= 0 {
		l.rotate(bestPath, bestVert)
	}
}

// rotate re-seams the loop at vertex vi of path pi.
func (l *Loop) rotate(pi, vi int) {
	if pi == 0 && vi == 0 {
		return
	}
	// Split path pi at vertex vi into head/tail, then rebuild the cyclic
	// path order starting at the tail.
	src := l.Paths[pi]
	head, tail := src, src
	head.Polyline = geom.Polyline{Points: append(geom.Points{}, src.Polyline.Points[:vi+1]...)}
	tail.Polyline = geom.Polyline{Points: append(geom.Points{}, src.Polyline.Points[vi:]...)}

	out := make([]Path, 0, len(l.Paths)+1)
	if tail.Polyline.IsValid() {
		out = append(out, tail)
	}
	out = append(out, l.Paths[pi+1:]...)
	out = append(out, l.Paths[:pi]...)
	if head.Polyline.IsValid() {
		out = append(out, head)
	}
	l.Paths = out
}

// ClipEnd shortens the loop by the given length measured back from its end
// and returns the clipped paths as an open run. Hides the seam stop blob by
// under-extruding the final approach.
func (l *Loop) ClipEnd(distance float64) []Path {
	out := append([]Path(nil), l.Paths...)
	for distance > 0 && len(out) > 0 {
		last := &out[len(out)-1]
		length := last.Length()
		if length <= distance {
			distance -= length
			out = out[:len(out)-1]
			continue
		}
		last.Polyline = clipPolylineEnd(last.Polyline, distance)
		break
	}
	return out
}

// clipPolylineEnd removes the trailing distance from a polyline.
func clipPolylineEnd(pl geom.Polyline, distance float64) geom.Polyline {
	pts := append(geom.Points{}, pl.Points...)
	for distance > 0 && len(pts) >= 2 {
		a, b := pts[len(pts)-2], pts[len(pts)-1]
		seg := a.DistanceTo(b)
		if seg <= distance {
			distance -= seg
			pts = pts[:len(pts)-1]
			continue
		}
		t := (seg - distance) / seg
		pts[len(pts)-1] = a.Lerp(b, t)
		break
	}
	return geom.Polyline{Points: pts}
}

// Clone returns a deep copy of the loop.
func (l *Loop) Clone() *Loop {
	c := &Loop{Kind: l.Kind, Paths: make([]Path, len(l.Paths))}
	for i := range l.Paths {
		c.Paths[i] = *l.Paths[i].Clone()
	}
	return c
}
