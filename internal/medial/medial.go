// Package medial extracts variable-width centerlines from narrow polygons.
// Thin walls and gap fill convert the resulting thick polylines into
// extrusion paths whose width follows the local feature width.
//
// The axis is approximated by scanning the polygon across its narrow
// direction and chaining the span midpoints. For the elongated slivers
// this package is fed (gap candidates and thin-wall remainders the wall
// engine has already isolated) the approximation tracks the true medial
// axis closely; it does not attempt branch topology at junctions.
package medial

import (
	"sort"

	"github.com/printforge/slicer/internal/geom"
)

// Axis returns the centerlines of ex whose local width lies in
// [minWidth, maxWidth], all distances in scaled units. Fragments shorter
// than maxWidth are dropped as extraction noise.
func Axis(ex geom.ExPolygon, maxWidth, minWidth float64) geom.ThickPolylines {
	bb := ex.BoundingBox()
	if !bb.Defined {
		return nil
	}
	size := bb.Size()

	// Scan along the longer bbox axis; spans then cut across the thin
	// direction. A transposed polygon is scanned in Y and flipped back.
	transpose := size.Y > size.X
	polys := ex.ToPolygons()
	if transpose {
		polys = transposePolygons(polys)
		bb = polys.BoundingBox()
	}

	step := maxWidth / 2
	if step < float64(geom.ScaledEpsilon) {
		step = float64(geom.ScaledEpsilon)
	}

	type span struct {
		lo, hi float64
	}
	type chain struct {
		tp   geom.ThickPolyline
		last span
		open bool
	}
	var chains []*chain
	var done geom.ThickPolylines

	finish := func(c *chain) {
		if len(c.tp.Points) >= 2 && c.tp.Length() >= maxWidth {
			done = append(done, c.tp)
		}
	}

	for x := float64(bb.Min.X) + step/2; x <= float64(bb.Max.X); x += step {
		spans := scanSpans(polys, x)

		// Keep only spans representing thin features.
		kept := spans[:0]
		for _, s := range spans {
			w := s.hi - s.lo
			if w >= minWidth && w <= maxWidth*1.05 {
				kept = append(kept, s)
			}
		}

		matched := make([]bool, len(chains))
		var next []*chain
		for _, s := range kept {
			var best *chain
			for ci, c := range chains {
				if matched[ci] || !c.open {
					continue
				}
				if s.lo <= c.last.hi && s.hi >= c.last.lo {
					best = c
					matched[ci] = true
					break
				}
			}
			mid := geom.Point{X: geom.Coord(x), Y: geom.Coord((s.lo + s.hi) / 2)}
			w := geom.Coord(s.hi - s.lo)
			if best == nil {
				best = &chain{open: true}
			}
			best.tp.Points = append(best.tp.Points, mid)
			best.tp.Widths = append(best.tp.Widths, w)
			best.last = span{lo: s.lo, hi: s.hi}
			next = append(next, best)
		}
		for ci, c := range chains {
			if !matched[ci] {
				finish(c)
			}
		}
		chains = next
	}
	for _, c := range chains {
		finish(c)
	}

	if transpose {
		for i := range done {
			for j := range done[i].Points {
				p := done[i].Points[j]
				done[i].Points[j] = geom.Point{X: p.Y, Y: p.X}
			}
		}
	}
	return done
}

// AxisAll runs Axis over every expolygon in the set.
func AxisAll(exs geom.ExPolygons, maxWidth, minWidth float64) geom.ThickPolylines {
	var out geom.ThickPolylines
	for _, ex := range exs {
		out = append(out, Axis(ex, maxWidth, minWidth)...)
	}
	return out
}

// scanSpans intersects the vertical line at x with the polygon set and
// returns the inside intervals by even-odd parity. Contours and holes both
// contribute crossings, so holes split spans naturally.
func scanSpans(polys geom.Polygons, x float64) []struct{ lo, hi float64 } {
	var ys []float64
	for _, p := range polys {
		n := len(p.Points)
		for i := 0; i < n; i++ {
			a, b := p.Points[i], p.Points[(i+1)%n]
			ax, bx := float64(a.X), float64(b.X)
			if (ax > x) == (bx > x) {
				continue
			}
			t := (x - ax) / (bx - ax)
			ys = append(ys, float64(a.Y)+(float64(b.Y)-float64(a.Y))*t)
		}
	}
	if len(ys) < 2 {
		return nil
	}
	sort.Float64s(ys)
	spans := make([]struct{ lo, hi float64 }, 0, len(ys)/2)
	for i := 0; i+1 < len(ys); i += 2 {
		spans = append(spans, struct{ lo, hi float64 }{ys[i], ys[i+1]})
	}
	return spans
}

func transposePolygons(polys geom.Polygons) geom.Polygons {
	out := make(geom.Polygons, len(polys))
	for i, p := range polys {
		pts := make(geom.Points, len(p.Points))
		for j, pt := range p.Points {
			pts[j] = geom.Point{X: pt.Y, Y: pt.X}
		}
		out[i] = geom.Polygon{Points: pts}
	}
	return out
}
