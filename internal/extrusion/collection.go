package extrusion

import (
	"github.com/printforge/slicer/internal/geom"
)

// Collection is an ordered bag of entities. It expresses both flat lists
// and nested contour/children structure (a child collection groups the
// entities that must stay together during ordering).
type Collection struct {
	Entities []Entity

	// NoSort pins the current order; chaining recurses into children but
	// never reorders a pinned collection.
	NoSort bool
}

func (c *Collection) isEntity() {}

// Append adds an entity, dropping empty ones.
func (c *Collection) Append(e Entity) {
	if e == nil || e.IsEmpty() {
		return
	}
	c.Entities = append(c.Entities, e)
}

// Length returns the summed extruded length.
func (c *Collection) Length() float64 {
	var s float64
	for _, e := range c.Entities {
		s += e.Length()
	}
	return s
}

// FirstPoint returns the start of the first non-empty entity.
func (c *Collection) FirstPoint() geom.Point {
	for _, e := range c.Entities {
		if !e.IsEmpty() {
			return e.FirstPoint()
		}
	}
	return geom.Point{}
}

// LastPoint returns the end of the last non-empty entity.
func (c *Collection) LastPoint() geom.Point {
	for i := len(c.Entities) - 1; i >= 0; i-- {
		if !c.Entities[i].IsEmpty() {
			return c.Entities[i].LastPoint()
		}
	}
	return geom.Point{}
}

// IsEmpty reports whether nothing in the collection extrudes.
func (c *Collection) IsEmpty() bool {
	for _, e := range c.Entities {
		if !e.IsEmpty() {
			return false
		}
	}
	return true
}

// ReverseOrder reverses the emission order without touching the entities
// themselves. Used when a brim requires printing outside-in.
func (c *Collection) ReverseOrder() {
	for i, j := 0, len(c.Entities)-1; i < j; i, j = i+1, j-1 {
		c.Entities[i], c.Entities[j] = c.Entities[j], c.Entities[i]
	}
}

// Flatten returns the leaf entities (paths, loops, multipaths) in order,
// dissolving nested collections.
func (c *Collection) Flatten() []Entity {
	var out []Entity
	for _, e := range c.Entities {
		if child, ok := e.(*Collection); ok {
			out = append(out, child.Flatten()...)
		} else {
			out = append(out, e)
		}
	}
	return out
}

// Chain reorders the collection's entities greedily by travel distance from
// start, reversing open paths when their far end is closer. Loops are not
// re-seamed here (seam placement happens at emission); their nearest vertex
// stands in for travel-distance purposes. Child collections are chained
// recursively as atomic groups. Returns the position after the last entity.
func (c *Collection) Chain(start geom.Point) geom.Point {
	if c.NoSort {
		for _, e := range c.Entities {
			if child, ok := e.(*Collection); ok {
				start = child.Chain(start)
			} else if !e.IsEmpty() {
				start = e.LastPoint()
			}
		}
		return start
	}

	remaining := append([]Entity(nil), c.Entities...)
	ordered := make([]Entity, 0, len(remaining))
	pos := start
	for len(remaining) > 0 {
		best, bestDist, bestReverse := -1, -1.0, false
		for i, e := range remaining {
			if e.IsEmpty() {
				continue
			}
			d, rev := entryDistance(e, pos)
			if bestDist < 0 || d < bestDist {
				best, bestDist, bestReverse = i, d, rev
			}
		}
		if best < 0 {
			break
		}
		e := remaining[best]
		remaining = append(remaining[:best], remaining[best+1:]...)
		if bestReverse {
			reverseEntity(e)
		}
		if child, ok := e.(*Collection); ok {
			pos = child.Chain(pos)
		} else {
			pos = e.LastPoint()
		}
		ordered = append(ordered, e)
	}
	c.Entities = ordered
	return pos
}

// entryDistance returns the travel cost to begin extruding e from pos and
// whether e should be reversed to achieve it.
func entryDistance(e Entity, pos geom.Point) (float64, bool) {
	switch v := e.(type) {
	case *Loop:
		poly := v.Polygon()
		i := pos.NearestIndex(poly.Points)
		if i < 0 {
			return 0, false
		}
		return pos.DistanceTo(poly.Points[i]), false
	case *Path:
		df, dl := pos.DistanceTo(v.FirstPoint()), pos.DistanceTo(v.LastPoint())
		return min(df, dl), dl < df
	case *MultiPath:
		df, dl := pos.DistanceTo(v.FirstPoint()), pos.DistanceTo(v.LastPoint())
		return min(df, dl), dl < df
	case *Collection:
		if v.IsEmpty() {
			return 0, false
		}
		return pos.DistanceTo(v.FirstPoint()), false
	}
	return 0, false
}

func reverseEntity(e Entity) {
	switch v := e.(type) {
	case *Path:
		v.Reverse()
	case *MultiPath:
		v.Reverse()
	}
	// Loops and collections keep their orientation; hole/contour winding
	// is meaningful and must survive ordering.
}
