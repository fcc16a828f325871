package perimeter

import (
	"math"
	"math/rand"

	"github.com/printforge/slicer/internal/geom"
)

// fuzzyPolygon displaces a wall centerline outward by random amounts to
// texture the surface. The generator is seeded from the layer index and
// the polygon's first vertex, so re-slicing reproduces the same skin.
func (g *Generator) fuzzyPolygon(poly geom.Polygon) geom.Polygon {
	thickness := g.Config.FuzzySkinThickness / geom.ScalingFactor
	pointDist := g.Config.FuzzySkinPointDistance / geom.ScalingFactor
	if thickness <= 0 || pointDist <= 0 || len(poly.Points) < 3 {
		return poly
	}

	seed := int64(g.LayerIndex)<<32 ^ int64(poly.Points[0].X) ^ int64(poly.Points[0].Y)<<16
	rng := rand.New(rand.NewSource(seed))

	n := len(poly.Points)
	out := geom.Points{}
	// Budget until the next inserted point; randomized around pointDist so
	// the texture does not alias across layers.
	until := pointDist * (0.75 + 0.5*rng.Float64())

	for i := 0; i < n; i++ {
		a := poly.Points[i]
		b := poly.Points[(i+1)%n]
		segLen := a.DistanceTo(b)
		if segLen == 0 {
			continue
		}
		// Outward normal of a CCW contour edge points right of travel.
		nx := float64(b.Y-a.Y) / segLen
		ny := -float64(b.X-a.X) / segLen

		pos := 0.0
		for pos+until < segLen {
			pos += until
			t := pos / segLen
			base := a.Lerp(b, t)
			d := (rng.Float64() - 0.5) * thickness
			out = append(out, geom.Point{
				X: base.X + geom.Coord(math.Round(nx*d)),
				Y: base.Y + geom.Coord(math.Round(ny*d)),
			})
			until = pointDist * (0.75 + 0.5*rng.Float64())
		}
		until -= segLen - pos
	}
	if len(out) < 3 {
		return poly
	}
	return geom.Polygon{Points: out}
}
