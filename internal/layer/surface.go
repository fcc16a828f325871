// Package layer defines the per-layer slicing results: the layer stack, the
// per-region surface sets it carries, and the static tables mapping model
// volumes to print regions across Z ranges.
package layer

import "github.com/printforge/slicer/internal/geom"

// SurfaceType classifies a slice surface by what covers it above and below.
// Fresh slices start as Internal; surface detection retypes them later.
type SurfaceType int

const (
	// Internal is covered by material above and below.
	Internal SurfaceType = iota
	// InternalSolid is internal but printed solid (shell thickening).
	InternalSolid
	// InternalBridge spans internal air.
	InternalBridge
	// Bottom faces the bed or support.
	Bottom
	// BottomBridge faces air and bridges over it.
	BottomBridge
	// Top faces air above.
	Top
)

// Surface is one polygon-with-holes tagged with its type.
type Surface struct {
	Type SurfaceType
	Ex   geom.ExPolygon
}

// Surfaces is a surface set.
type Surfaces []Surface

// NewSurfaces wraps every expolygon with the given type.
func NewSurfaces(typ SurfaceType, exs geom.ExPolygons) Surfaces {
	out := make(Surfaces, 0, len(exs))
	for _, ex := range exs {
		out = append(out, Surface{Type: typ, Ex: ex})
	}
	return out
}

// ExPolygons returns the bare geometry of the whole set.
func (ss Surfaces) ExPolygons() geom.ExPolygons {
	out := make(geom.ExPolygons, 0, len(ss))
	for _, s := range ss {
		out = append(out, s.Ex)
	}
	return out
}

// Polygons flattens the set into contours and holes.
func (ss Surfaces) Polygons() geom.Polygons {
	return ss.ExPolygons().ToPolygons()
}

// ByType returns the geometry of surfaces matching typ.
func (ss Surfaces) ByType(typ SurfaceType) geom.ExPolygons {
	var out geom.ExPolygons
	for _, s := range ss {
		if s.Type == typ {
			out = append(out, s.Ex)
		}
	}
	return out
}

// Area returns the summed enclosed area.
func (ss Surfaces) Area() float64 {
	return ss.ExPolygons().Area()
}

// IsEmpty reports whether no surface carries a valid contour.
func (ss Surfaces) IsEmpty() bool {
	return ss.ExPolygons().IsEmpty()
}
