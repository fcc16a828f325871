package geom

// ExPolygon is a polygon with holes: one CCW contour and zero or more CW
// holes, all strictly inside the contour.
type ExPolygon struct {
	Contour Polygon
	Holes   Polygons
}

// ExPolygons is a set of disjoint polygons-with-holes.
type ExPolygons []ExPolygon

// Area returns the contour area minus the hole areas.
func (ex ExPolygon) Area() float64 {
	a := ex.Contour.Area()
	for _, h := range ex.Holes {
		a += h.Area() // holes are CW, negative area
	}
	return a
}

// IsEmpty reports whether the contour is degenerate.
func (ex ExPolygon) IsEmpty() bool { return len(ex.Contour.Points) < 3 }

// Contains reports whether pt lies inside the contour and outside all holes.
func (ex ExPolygon) Contains(pt Point) bool {
	if !ex.Contour.Contains(pt) {
		return false
	}
	for _, h := range ex.Holes {
		if h.Contains(pt) {
			return false
		}
	}
	return true
}

// BoundingBox returns the contour's bounding box.
func (ex ExPolygon) BoundingBox() BoundingBox { return ex.Contour.BoundingBox() }

// ToPolygons flattens the expolygon into a contour-plus-holes set.
func (ex ExPolygon) ToPolygons() Polygons {
	out := make(Polygons, 0, 1+len(ex.Holes))
	out = append(out, ex.Contour)
	out = append(out, ex.Holes...)
	return out
}

// Clone returns a deep copy.
func (ex ExPolygon) Clone() ExPolygon {
	return ExPolygon{Contour: ex.Contour.Clone(), Holes: ex.Holes.Clone()}
}

// Area returns the total enclosed area of the set.
func (exs ExPolygons) Area() float64 {
	var a float64
	for _, ex := range exs {
		a += ex.Area()
	}
	return a
}

// IsEmpty reports whether no expolygon in the set has a valid contour.
func (exs ExPolygons) IsEmpty() bool {
	for _, ex := range exs {
		if !ex.IsEmpty() {
			return false
		}
	}
	return true
}

// ToPolygons flattens the set into plain polygons.
func (exs ExPolygons) ToPolygons() Polygons {
	var out Polygons
	for _, ex := range exs {
		out = append(out, ex.ToPolygons()...)
	}
	return out
}

// BoundingBox returns the bounding box of the set.
func (exs ExPolygons) BoundingBox() BoundingBox {
	var bb BoundingBox
	for _, ex := range exs {
		bb.Merge(ex.BoundingBox())
	}
	return bb
}

// Clone returns a deep copy of the set.
func (exs ExPolygons) Clone() ExPolygons {
	out := make(ExPolygons, len(exs))
	for i, ex := range exs {
		out[i] = ex.Clone()
	}
	return out
}

// Simplify returns the set with every contour and hole simplified to the
// given tolerance. Degenerate results are dropped.
func (exs ExPolygons) Simplify(tolerance float64) ExPolygons {
	out := make(ExPolygons, 0, len(exs))
	for _, ex := range exs {
		c := SimplifyClosed(ex.Contour.Points, tolerance)
		if len(c) < 3 {
			continue
		}
		simplified := ExPolygon{Contour: Polygon{Points: c}}
		for _, h := range ex.Holes {
			if hp := SimplifyClosed(h.Points, tolerance); len(hp) >= 3 {
				simplified.Holes = append(simplified.Holes, Polygon{Points: hp})
			}
		}
		out = append(out, simplified)
	}
	return out
}
