package geom

import "math"

// BoundingBox is an axis-aligned box in scaled coordinates.
// The zero value is undefined; use NewBoundingBox or Merge onto a box with
// Defined == false.
type BoundingBox struct {
	Min, Max Point
	Defined  bool
}

// NewBoundingBox returns the bounding box of pts.
func NewBoundingBox(pts Points) BoundingBox {
	var bb BoundingBox
	for _, p := range pts {
		bb.MergePoint(p)
	}
	return bb
}

// MergePoint extends the box to contain p.
func (bb *BoundingBox) MergePoint(p Point) {
	if !bb.Defined {
		bb.Min, bb.Max, bb.Defined = p, p, true
		return
	}
	bb.Min.X = min(bb.Min.X, p.X)
	bb.Min.Y = min(bb.Min.Y, p.Y)
	bb.Max.X = max(bb.Max.X, p.X)
	bb.Max.Y = max(bb.Max.Y, p.Y)
}

// Merge extends the box to contain other.
func (bb *BoundingBox) Merge(other BoundingBox) {
	if !other.Defined {
		return
	}
	bb.MergePoint(other.Min)
	bb.MergePoint(other.Max)
}

// Inflated returns the box grown by d on every side.
func (bb BoundingBox) Inflated(d Coord) BoundingBox {
	if !bb.Defined {
		return bb
	}
	return BoundingBox{
		Min:     Point{bb.Min.X - d, bb.Min.Y - d},
		Max:     Point{bb.Max.X + d, bb.Max.Y + d},
		Defined: true,
	}
}

// Overlaps reports whether the two boxes intersect.
func (bb BoundingBox) Overlaps(other BoundingBox) bool {
	if !bb.Defined || !other.Defined {
		return false
	}
	return !(bb.Max.X < other.Min.X || bb.Min.X > other.Max.X ||
		bb.Max.Y < other.Min.Y || bb.Min.Y > other.Max.Y)
}

// Contains reports whether p lies inside the box (inclusive).
func (bb BoundingBox) Contains(p Point) bool {
	return bb.Defined &&
		p.X >= bb.Min.X && p.X <= bb.Max.X &&
		p.Y >= bb.Min.Y && p.Y <= bb.Max.Y
}

// Size returns the box dimensions.
func (bb BoundingBox) Size() Point {
	if !bb.Defined {
		return Point{}
	}
	return bb.Max.Sub(bb.Min)
}

// Center returns the box center.
func (bb BoundingBox) Center() Point {
	return Point{(bb.Min.X + bb.Max.X) / 2, (bb.Min.Y + bb.Max.Y) / 2}
}

// BoundingBox3 is an axis-aligned box in 3D millimetre coordinates, used for
// volume-region overlap pruning during region resolution.
type BoundingBox3 struct {
	MinX, MinY, MinZ float64
	MaxX, MaxY, MaxZ float64
	Defined          bool
}

// MergePoint3 extends the box to contain (x, y, z).
func (bb *BoundingBox3) MergePoint3(x, y, z float64) {
	if !bb.Defined {
		bb.MinX, bb.MinY, bb.MinZ = x, y, z
		bb.MaxX, bb.MaxY, bb.MaxZ = x, y, z
		bb.Defined = true
		return
	}
	bb.MinX = math.Min(bb.MinX, x)
	bb.MinY = math.Min(bb.MinY, y)
	bb.MinZ = math.Min(bb.MinZ, z)
	bb.MaxX = math.Max(bb.MaxX, x)
	bb.MaxY = math.Max(bb.MaxY, y)
	bb.MaxZ = math.Max(bb.MaxZ, z)
}

// ContainsZ reports whether z lies within the box's vertical extent.
func (bb BoundingBox3) ContainsZ(z float64) bool {
	return bb.Defined && bb.MinZ <= z && z <= bb.MaxZ
}

// OverlapsXY reports whether the horizontal footprints of two boxes
// intersect.
func (bb BoundingBox3) OverlapsXY(other BoundingBox3) bool {
	if !bb.Defined || !other.Defined {
		return false
	}
	return !(bb.MaxX < other.MinX || bb.MinX > other.MaxX ||
		bb.MaxY < other.MinY || bb.MinY > other.MaxY)
}
