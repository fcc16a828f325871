package geom

// Polyline is an open point sequence.
type Polyline struct {
	Points Points
}

// Polylines is a set of open polylines.
type Polylines []Polyline

// FirstPoint returns the first vertex.
func (pl Polyline) FirstPoint() Point { return pl.Points[0] }

// LastPoint returns the last vertex.
func (pl Polyline) LastPoint() Point { return pl.Points[len(pl.Points)-1] }

// IsValid reports whether the polyline has at least two points.
func (pl Polyline) IsValid() bool { return len(pl.Points) >= 2 }

// IsClosed reports whether first and last points coincide.
func (pl Polyline) IsClosed() bool {
	return len(pl.Points) >= 3 && pl.Points[0] == pl.Points[len(pl.Points)-1]
}

// Length returns the polyline length.
func (pl Polyline) Length() float64 {
	var l float64
	for i := 1; i < len(pl.Points); i++ {
		l += pl.Points[i-1].DistanceTo(pl.Points[i])
	}
	return l
}

// Reverse flips the traversal direction in place.
func (pl *Polyline) Reverse() { pl.Points.Reverse() }

// Clone returns a deep copy.
func (pl Polyline) Clone() Polyline {
	pts := make(Points, len(pl.Points))
	copy(pts, pl.Points)
	return Polyline{Points: pts}
}

// Append extends pl with the points of other, dropping a duplicated joint.
func (pl *Polyline) Append(other Polyline) {
	pts := other.Points
	if len(pl.Points) > 0 && len(pts) > 0 && pl.LastPoint() == pts[0] {
		pts = pts[1:]
	}
	pl.Points = append(pl.Points, pts...)
}

// ThickLine is a single segment with independent widths at both endpoints.
type ThickLine struct {
	A, B   Point
	AWidth Coord
	BWidth Coord
}

// Length returns the segment length.
func (tl ThickLine) Length() float64 { return tl.A.DistanceTo(tl.B) }

// ThickPolyline is a polyline annotated with a width at every vertex,
// produced by medial-axis extraction and consumed by variable-width
// extrusion conversion.
type ThickPolyline struct {
	Points Points
	Widths []Coord // one width per point
}

// ThickPolylines is a set of thick polylines.
type ThickPolylines []ThickPolyline

// IsValid reports whether the thick polyline has at least two points and a
// width for each of them.
func (tp ThickPolyline) IsValid() bool {
	return len(tp.Points) >= 2 && len(tp.Widths) == len(tp.Points)
}

// Length returns the centerline length.
func (tp ThickPolyline) Length() float64 {
	return Polyline{Points: tp.Points}.Length()
}

// Reverse flips the thick polyline in place, keeping widths attached to
// their points.
func (tp *ThickPolyline) Reverse() {
	tp.Points.Reverse()
	for i, j := 0, len(tp.Widths)-1; i < j; i, j = i+1, j-1 {
		tp.Widths[i], tp.Widths[j] = tp.Widths[j], tp.Widths[i]
	}
}

// ThickLines decomposes the thick polyline into per-segment thick lines
// with endpoint widths interpolated from the vertex widths.
func (tp ThickPolyline) ThickLines() []ThickLine {
	if !tp.IsValid() {
		return nil
	}
	out := make([]ThickLine, 0, len(tp.Points)-1)
	for i := 1; i < len(tp.Points); i++ {
		out = append(out, ThickLine{
			A:      tp.Points[i-1],
			B:      tp.Points[i],
			AWidth: tp.Widths[i-1],
			BWidth: tp.Widths[i],
		})
	}
	return out
}
