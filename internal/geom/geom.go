// Package geom provides the scaled-integer 2D geometry types shared by all
// slicing stages: points, polygons, polygons-with-holes, polylines and
// variable-width (thick) polylines, plus bounding boxes, convex hulls and
// polyline simplification.
//
// Coordinates are int64 in units of 1e-6 mm so that polygon clipping is
// exact. Scale and Unscale convert between millimetres and scaled units.
package geom

import "math"

// ScalingFactor converts scaled integer units to millimetres.
const ScalingFactor = 1e-6

// Epsilon is the geometric noise floor in millimetres; ScaledEpsilon is the
// same distance in scaled units.
const (
	Epsilon       = 1e-4
	ScaledEpsilon = Coord(Epsilon / ScalingFactor)
)

// Coord is a scaled coordinate.
type Coord = int64

// Scale converts millimetres to scaled units, rounding to the nearest unit.
func Scale(mm float64) Coord {
	if mm < 0 {
		return Coord(mm/ScalingFactor - 0.5)
	}
	return Coord(mm/ScalingFactor + 0.5)
}

// Unscale converts scaled units to millimetres.
func Unscale(c Coord) float64 { return float64(c) * ScalingFactor }

// Point is a 2D point in scaled coordinates.
type Point struct {
	X, Y Coord
}

// Points is an ordered point sequence.
type Points []Point

// Pt is shorthand for constructing a Point.
func Pt(x, y Coord) Point { return Point{X: x, Y: y} }

// PtMM constructs a Point from millimetre coordinates.
func PtMM(x, y float64) Point { return Point{X: Scale(x), Y: Scale(y)} }

// Add returns p+q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Sub returns p-q.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Neg returns -p.
func (p Point) Neg() Point { return Point{-p.X, -p.Y} }

// Dot returns the dot product of p and q treated as vectors.
func (p Point) Dot(q Point) float64 {
	return float64(p.X)*float64(q.X) + float64(p.Y)*float64(q.Y)
}

// Cross returns the z-component of the cross product of p and q.
func (p Point) Cross(q Point) float64 {
	return float64(p.X)*float64(q.Y) - float64(p.Y)*float64(q.X)
}

// Norm returns the Euclidean length of p treated as a vector.
func (p Point) Norm() float64 { return math.Hypot(float64(p.X), float64(p.Y)) }

// NormSq returns the squared Euclidean length of p treated as a vector.
func (p Point) NormSq() float64 {
	return float64(p.X)*float64(p.X) + float64(p.Y)*float64(p.Y)
}

// DistanceTo returns the distance between p and q.
func (p Point) DistanceTo(q Point) float64 { return p.Sub(q).Norm() }

// DistanceSqTo returns the squared distance between p and q.
func (p Point) DistanceSqTo(q Point) float64 { return p.Sub(q).NormSq() }

// Lerp returns the point at parameter t on the segment p→q.
func (p Point) Lerp(q Point, t float64) Point {
	return Point{
		X: p.X + Coord(math.Round(float64(q.X-p.X)*t)),
		Y: p.Y + Coord(math.Round(float64(q.Y-p.Y)*t)),
	}
}

// ProjectOntoSegment returns the closest point to p on segment a→b.
func (p Point) ProjectOntoSegment(a, b Point) Point {
	ab := b.Sub(a)
	den := ab.NormSq()
	if den == 0 {
		return a
	}
	t := p.Sub(a).Dot(ab) / den
	if t <= 0 {
		return a
	}
	if t >= 1 {
		return b
	}
	return a.Lerp(b, t)
}

// DistanceToSegment returns the distance from p to segment a→b.
func (p Point) DistanceToSegment(a, b Point) float64 {
	return p.DistanceTo(p.ProjectOntoSegment(a, b))
}

// NearestIndex returns the index of the point in pts closest to p,
// or -1 for an empty slice.
func (p Point) NearestIndex(pts Points) int {
	best, bestDist := -1, math.MaxFloat64
	for i, q := range pts {
		if d := p.DistanceSqTo(q); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// Reverse reverses pts in place.
func (pts Points) Reverse() {
	for i, j := 0, len(pts)-1; i < j; i, j = i+1, j-1 {
		pts[i], pts[j] = pts[j], pts[i]
	}
}
