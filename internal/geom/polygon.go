package geom

// Polygon is a closed contour. The closing segment from the last point back
// to the first is implicit. Counter-clockwise polygons are contours,
// clockwise polygons are holes.
type Polygon struct {
	Points Points
}

// Polygons is a flat set of contours with no containment semantics.
type Polygons []Polygon

// Area returns the signed area of the polygon in scaled units squared.
// Positive for counter-clockwise orientation.
func (p Polygon) Area() float64 {
	n := len(p.Points)
	if n < 3 {
		return 0
	}
	var a float64
	j := n - 1
	for i := 0; i < n; i++ {
		a += (float64(p.Points[j].X) + float64(p.Points[i].X)) *
			(float64(p.Points[j].Y) - float64(p.Points[i].Y))
		j = i
	}
	return -a / 2
}

// IsCounterClockwise reports whether the polygon is a contour (CCW).
func (p Polygon) IsCounterClockwise() bool { return p.Area() > 0 }

// IsClockwise reports whether the polygon is a hole (CW).
func (p Polygon) IsClockwise() bool { return p.Area() < 0 }

// Reverse flips the polygon orientation in place.
func (p *Polygon) Reverse() { p.Points.Reverse() }

// Clone returns a deep copy.
func (p Polygon) Clone() Polygon {
	pts := make(Points, len(p.Points))
	copy(pts, p.Points)
	return Polygon{Points: pts}
}

// FirstPoint returns the first vertex.
func (p Polygon) FirstPoint() Point { return p.Points[0] }

// Length returns the perimeter length.
func (p Polygon) Length() float64 {
	n := len(p.Points)
	if n < 2 {
		return 0
	}
	var l float64
	for i := 0; i < n; i++ {
		l += p.Points[i].DistanceTo(p.Points[(i+1)%n])
	}
	return l
}

// Contains reports whether pt lies strictly inside the polygon, using a
// ray-casting parity test. Points on the boundary may report either way.
func (p Polygon) Contains(pt Point) bool {
	n := len(p.Points)
	if n < 3 {
		return false
	}
	inside := false
	j := n - 1
	for i := 0; i < n; i++ {
		pi, pj := p.Points[i], p.Points[j]
		if (pi.Y > pt.Y) != (pj.Y > pt.Y) {
			x := float64(pj.X-pi.X)*float64(pt.Y-pi.Y)/float64(pj.Y-pi.Y) + float64(pi.X)
			if float64(pt.X) < x {
				inside = !inside
			}
		}
		j = i
	}
	return inside
}

// BoundingBox returns the polygon's bounding box.
func (p Polygon) BoundingBox() BoundingBox { return NewBoundingBox(p.Points) }

// SplitAtIndex opens the closed polygon into a polyline starting and ending
// at vertex i.
func (p Polygon) SplitAtIndex(i int) Polyline {
	n := len(p.Points)
	pts := make(Points, 0, n+1)
	pts = append(pts, p.Points[i:]...)
	pts = append(pts, p.Points[:i]...)
	pts = append(pts, p.Points[i])
	return Polyline{Points: pts}
}

// SplitAtFirstPoint opens the polygon into a polyline at vertex 0.
func (p Polygon) SplitAtFirstPoint() Polyline { return p.SplitAtIndex(0) }

// SplitAtNearest opens the polygon at the vertex closest to pt.
func (p Polygon) SplitAtNearest(pt Point) Polyline {
	i := pt.NearestIndex(p.Points)
	if i < 0 {
		i = 0
	}
	return p.SplitAtIndex(i)
}

// Clone returns a deep copy of the polygon set.
func (pp Polygons) Clone() Polygons {
	out := make(Polygons, len(pp))
	for i, p := range pp {
		out[i] = p.Clone()
	}
	return out
}

// BoundingBox returns the bounding box of the whole set.
func (pp Polygons) BoundingBox() BoundingBox {
	var bb BoundingBox
	for _, p := range pp {
		bb.Merge(p.BoundingBox())
	}
	return bb
}

// Area returns the sum of signed areas.
func (pp Polygons) Area() float64 {
	var a float64
	for _, p := range pp {
		a += p.Area()
	}
	return a
}

// TotalLength returns the summed perimeter length of the set.
func (pp Polygons) TotalLength() float64 {
	var l float64
	for _, p := range pp {
		l += p.Length()
	}
	return l
}

// ToPolylines opens every polygon at its first vertex.
func (pp Polygons) ToPolylines() Polylines {
	out := make(Polylines, 0, len(pp))
	for _, p := range pp {
		out = append(out, p.SplitAtFirstPoint())
	}
	return out
}

// KeepLargestContour discards all but the polygon with the largest absolute
// area. Used by spiral vase slicing, which tolerates a single contour only.
func (pp Polygons) KeepLargestContour() Polygons {
	if len(pp) <= 1 {
		return pp
	}
	best, bestArea := 0, -1.0
	for i, p := range pp {
		if a := abs(p.Area()); a > bestArea {
			best, bestArea = i, a
		}
	}
	return Polygons{pp[best]}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
