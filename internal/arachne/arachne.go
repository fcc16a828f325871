// Package arachne computes variable-width contour-parallel wall toolpaths.
// Given an island and bead parameters it returns ordered wall centerlines
// whose width varies with the local feature size, plus the residual inner
// contour available for infill.
//
// Full walls are laid as constant-width rings; where the remaining area is
// too narrow for another full bead, the centerline collapses onto the
// medial axis and the bead width follows the feature width down to the
// configured minimum. Features below the minimum feature size vanish.
package arachne

import (
	"sort"

	"github.com/printforge/slicer/internal/clip"
	"github.com/printforge/slicer/internal/geom"
	"github.com/printforge/slicer/internal/medial"
)

// Junction is one centerline vertex with its local bead width, both in
// scaled units.
type Junction struct {
	P     geom.Point
	Width geom.Coord
}

// ExtrusionLine is one wall centerline at a given inset depth. Closed
// lines are rings; open lines are collapsed thin-feature beads.
type ExtrusionLine struct {
	Junctions []Junction
	Inset     int
	Closed    bool
}

// Points returns the bare centerline vertices.
func (el *ExtrusionLine) Points() geom.Points {
	out := make(geom.Points, len(el.Junctions))
	for i, j := range el.Junctions {
		out[i] = j.P
	}
	return out
}

// Length returns the centerline length.
func (el *ExtrusionLine) Length() float64 {
	var l float64
	for i := 1; i < len(el.Junctions); i++ {
		l += el.Junctions[i-1].P.DistanceTo(el.Junctions[i].P)
	}
	if el.Closed && len(el.Junctions) > 2 {
		l += el.Junctions[len(el.Junctions)-1].P.DistanceTo(el.Junctions[0].P)
	}
	return l
}

// Params are the bead widths and spacings in scaled units plus the wall
// count. Spacing is the centerline-to-centerline distance between
// neighboring walls.
type Params struct {
	ExtWidth   float64
	ExtSpacing float64
	IntWidth   float64
	IntSpacing float64
	WallCount  int

	// MinFeatureSize is the narrowest feature that still gets a bead;
	// MinBeadWidth clamps how thin a collapsed bead may extrude.
	MinFeatureSize float64
	MinBeadWidth   float64

	// TransitionLength bounds how fast a bead may change width along its
	// centerline.
	TransitionLength float64
}

// Result is the generated wall set plus the residual infill contour.
type Result struct {
	Walls        []ExtrusionLine
	InnerContour geom.ExPolygons
}

// Generate computes walls for every island in the surface. Islands are
// processed independently; their walls share the inset numbering.
func Generate(surface geom.ExPolygons, p Params) Result {
	var res Result
	if p.WallCount <= 0 {
		res.InnerContour = surface
		return res
	}
	for _, island := range surface {
		generateIsland(island, p, &res)
	}
	return res
}

// insetDelta returns the inward distance from the previous centerline (or
// the island boundary for inset 0) to this wall's centerline. The ladder
// matches the classic engine so both produce the same residual contour.
func insetDelta(p Params, inset int) float64 {
	switch inset {
	case 0:
		return p.ExtWidth / 2
	case 1:
		return (p.ExtSpacing + p.IntSpacing) / 2
	default:
		return p.IntSpacing
	}
}

func generateIsland(island geom.ExPolygon, p Params, res *Result) {
	// last is the region bounded by the previous wall's centerline.
	last := geom.ExPolygons{island}
	walls := 0

	for inset := 0; inset < p.WallCount && len(last) > 0; inset++ {
		delta := insetDelta(p, inset)
		width := p.ExtWidth
		if inset > 0 {
			width = p.IntWidth
		}

		center := clip.OffsetEx(last, -delta, clip.JoinMiter)

		// Whatever part of last disappears under the inset is too narrow
		// for a full ring there; lay it as a collapsed medial-axis bead.
		regrown := clip.Offset(center.ToPolygons(), delta+float64(geom.ScaledEpsilon), clip.JoinMiter)
		thin := clip.DifferenceEx(last, clip.UnionEx(regrown, clip.NonZero))
		res.Walls = append(res.Walls, collapseThin(thin, p, inset)...)

		if len(center) == 0 {
			last = nil
			break
		}
		for _, poly := range center.ToPolygons() {
			if len(poly.Points) >= 3 {
				res.Walls = append(res.Walls, ringLine(poly, geom.Coord(width), inset))
			}
		}
		walls++
		last = center
	}

	if len(last) > 0 {
		// Residual contour sits half an internal spacing inside the last
		// centerline (half an external spacing when only one wall fit).
		lastOffset := p.IntSpacing / 2
		if walls <= 1 {
			lastOffset = p.ExtSpacing / 2
		}
		res.InnerContour = append(res.InnerContour, clip.OffsetEx(last, -lastOffset, clip.JoinMiter)...)
	}
}

// ringLine converts a closed centerline polygon into a constant-width
// wall.
func ringLine(poly geom.Polygon, width geom.Coord, inset int) ExtrusionLine {
	line := ExtrusionLine{Inset: inset, Closed: true}
	line.Junctions = make([]Junction, len(poly.Points))
	for i, pt := range poly.Points {
		line.Junctions[i] = Junction{P: pt, Width: width}
	}
	return line
}

// collapseThin converts too-narrow remainders into medial-axis beads with
// width clamped to [MinBeadWidth, IntWidth] and slope-limited transitions.
func collapseThin(thin geom.ExPolygons, p Params, inset int) []ExtrusionLine {
	if len(thin) == 0 {
		return nil
	}
	maxW := p.IntWidth
	if inset == 0 {
		maxW = p.ExtWidth
	}
	var out []ExtrusionLine
	for _, tp := range medial.AxisAll(thin, maxW, p.MinFeatureSize) {
		line := ExtrusionLine{Inset: inset}
		for i, pt := range tp.Points {
			w := tp.Widths[i]
			if float64(w) < p.MinBeadWidth {
				w = geom.Coord(p.MinBeadWidth)
			}
			if float64(w) > maxW {
				w = geom.Coord(maxW)
			}
			line.Junctions = append(line.Junctions, Junction{P: pt, Width: w})
		}
		if len(line.Junctions) >= 2 {
			smoothTransitions(&line, p.TransitionLength, maxW)
			out = append(out, line)
		}
	}
	return out
}

// smoothTransitions limits the width slope along the line so a full
// width swing takes at least transitionLength of travel.
func smoothTransitions(line *ExtrusionLine, transitionLength, maxW float64) {
	if transitionLength <= 0 || len(line.Junctions) < 2 {
		return
	}
	slope := maxW / transitionLength
	for i := 1; i < len(line.Junctions); i++ {
		d := line.Junctions[i-1].P.DistanceTo(line.Junctions[i].P)
		limit := float64(line.Junctions[i-1].Width) + slope*d
		if float64(line.Junctions[i].Width) > limit {
			line.Junctions[i].Width = geom.Coord(limit)
		}
	}
	for i := len(line.Junctions) - 2; i >= 0; i-- {
		d := line.Junctions[i].P.DistanceTo(line.Junctions[i+1].P)
		limit := float64(line.Junctions[i+1].Width) + slope*d
		if float64(line.Junctions[i].Width) > limit {
			line.Junctions[i].Width = geom.Coord(limit)
		}
	}
}

// Order returns the emission order of walls as indices into the slice.
// By default deeper insets print first so the external wall lands on
// settled neighbors; externalFirst inverts that. Walls at equal depth keep
// their generation order.
func Order(walls []ExtrusionLine, externalFirst bool) []int {
	idx := make([]int, len(walls))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ia, ib := walls[idx[a]].Inset, walls[idx[b]].Inset
		if externalFirst {
			return ia < ib
		}
		return ia > ib
	})
	return idx
}
