package layer

import (
	"github.com/printforge/slicer/internal/config"
	"github.com/printforge/slicer/internal/extrusion"
	"github.com/printforge/slicer/internal/geom"
)

// PrintRegion groups per-region configuration shared read-only by every
// LayerRegion bound to it. ID indexes the object's region table and is
// stable for a print generation.
type PrintRegion struct {
	ID     int
	Config config.Region
}

// LayerRegion binds one layer to one print region: the region's share of
// the layer's slice, and the extrusions generated from it.
type LayerRegion struct {
	Region *PrintRegion

	// Slices is the region's resolved share of the layer cross-section.
	Slices Surfaces

	// Perimeters and GapFills are filled in by the wall engine; Fills by
	// infill generation.
	Perimeters extrusion.Collection
	GapFills   extrusion.Collection
	Fills      extrusion.Collection

	// FillBoundary is the residual area handed to infill after wall
	// generation.
	FillBoundary geom.ExPolygons
}

// Layer is one slab of the sliced object.
type Layer struct {
	// Index is the position in the object's layer stack, 0 at the bed.
	Index int

	// PrintZ is the top of the slab in mm (nozzle Z when printing it);
	// SliceZ is the mid-slab height the cross-section was taken at.
	PrintZ float64
	SliceZ float64
	Height float64

	// LSlices is the union of all region slices, used for travel planning,
	// overhang detection against the layer below, and brim/skirt growth.
	LSlices geom.ExPolygons

	// Regions holds one entry per print region present on this layer, in
	// region-table order.
	Regions []*LayerRegion
}

// Region returns the layer's LayerRegion for the given region ID, or nil.
func (l *Layer) Region(id int) *LayerRegion {
	for _, lr := range l.Regions {
		if lr.Region.ID == id {
			return lr
		}
	}
	return nil
}

// HasExtrusions reports whether any region produced toolpaths.
func (l *Layer) HasExtrusions() bool {
	for _, lr := range l.Regions {
		if !lr.Perimeters.IsEmpty() || !lr.GapFills.IsEmpty() || !lr.Fills.IsEmpty() {
			return true
		}
	}
	return false
}

// Stack is the arena owning an object's layers. Adjacency is by index, not
// by owning pointers, so trimming from either end never leaves a dangling
// link.
type Stack struct {
	Layers []*Layer
}

// Lower returns the layer below index i, or nil at the bottom.
func (s *Stack) Lower(i int) *Layer {
	if i <= 0 || i > len(s.Layers) {
		return nil
	}
	return s.Layers[i-1]
}

// Upper returns the layer above index i, or nil at the top.
func (s *Stack) Upper(i int) *Layer {
	if i < 0 || i+1 >= len(s.Layers) {
		return nil
	}
	return s.Layers[i+1]
}

// Len returns the layer count.
func (s *Stack) Len() int { return len(s.Layers) }

// TrimTop drops empty layers from the top of the stack and reports how many
// were removed.
func (s *Stack) TrimTop() int {
	n := 0
	for len(s.Layers) > 0 {
		top := s.Layers[len(s.Layers)-1]
		if len(top.LSlices) > 0 {
			break
		}
		s.Layers = s.Layers[:len(s.Layers)-1]
		n++
	}
	return n
}

// SliceZs returns the mid-slab slicing heights for a stack of uniform
// layers: first layer of firstHeight, then count-1 layers of height.
// Heights strictly increase.
func SliceZs(firstHeight, height float64, count int) []float64 {
	zs := make([]float64, count)
	for i := range zs {
		if i == 0 {
			zs[i] = firstHeight / 2
		} else {
			zs[i] = firstHeight + height*(float64(i)-0.5)
		}
	}
	return zs
}

// NewStack builds a stack of empty layers with print and slice heights for
// a uniform layer schedule.
func NewStack(firstHeight, height float64, count int) *Stack {
	s := &Stack{Layers: make([]*Layer, count)}
	zs := SliceZs(firstHeight, height, count)
	for i := range s.Layers {
		h := height
		printZ := firstHeight + height*float64(i)
		if i == 0 {
			h = firstHeight
			printZ = firstHeight
		}
		s.Layers[i] = &Layer{
			Index:  i,
			PrintZ: printZ,
			SliceZ: zs[i],
			Height: h,
		}
	}
	return s
}
