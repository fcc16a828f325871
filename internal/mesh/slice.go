package mesh

import (
	"sort"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/printforge/slicer/internal/cancel"
	"github.com/printforge/slicer/internal/clip"
	"github.com/printforge/slicer/internal/config"
	"github.com/printforge/slicer/internal/geom"
	"github.com/printforge/slicer/internal/parallel"
)

// SliceParams controls one volume's slicing pass.
type SliceParams struct {
	Mode config.SlicingMode

	// ClosingRadius heals hairline cracks in the cross-sections, in mm.
	ClosingRadius float64

	// ExtraOffset grows every cross-section outward, in mm. Used for the
	// positive half of XY size compensation.
	ExtraOffset float64

	// ForceLargestAbove, when >= 0, overrides Mode with the
	// largest-contour-only mode for every Z index at or above it. Spiral
	// vase needs a single continuous contour above its solid bottom.
	ForceLargestAbove int
}

// DefaultSliceParams returns regular slicing with no compensation.
func DefaultSliceParams() SliceParams {
	return SliceParams{Mode: config.SliceRegular, ForceLargestAbove: -1}
}

// SliceVolume cuts the volume at every Z height (mm, sorted ascending) and
// returns one polygon set per height. Heights outside the volume yield
// empty sets. The facet walk per Z runs on the pool; the result slot for
// each Z index is written by exactly one task.
func SliceVolume(v *Volume, zs []float64, params SliceParams, pool *parallel.WorkerPool, tok *cancel.Token) ([]geom.ExPolygons, error) {
	out := make([]geom.ExPolygons, len(zs))
	if len(zs) == 0 || len(v.Mesh.Triangles) == 0 {
		return out, tok.Err()
	}

	// Transform once; all plane intersections below work on these.
	verts := make([]r3.Vec, len(v.Mesh.Vertices))
	for i, p := range v.Mesh.Vertices {
		verts[i] = v.Transform.Apply(p)
	}

	// Bucket facets by the Z indices they span so each layer only visits
	// facets that can intersect it.
	buckets := bucketFacets(v.Mesh.Triangles, verts, zs)

	err := parallel.For(pool, len(zs), tok, func(i int) {
		mode := params.Mode
		if params.ForceLargestAbove >= 0 && i >= params.ForceLargestAbove {
			mode = config.SlicePositiveLargestContour
		}
		out[i] = sliceAt(v.Mesh.Triangles, verts, buckets[i], zs[i], mode, params)
	})
	return out, err
}

func bucketFacets(tris [][3]int, verts []r3.Vec, zs []float64) [][]int {
	buckets := make([][]int, len(zs))
	for fi, tri := range tris {
		zmin := verts[tri[0]].Z
		zmax := zmin
		for _, vi := range tri[1:] {
			z := verts[vi].Z
			if z < zmin {
				zmin = z
			}
			if z > zmax {
				zmax = z
			}
		}
		lo := sort.SearchFloat64s(zs, zmin)
		for i := lo; i < len(zs) && zs[i] <= zmax; i++ {
			buckets[i] = append(buckets[i], fi)
		}
	}
	return buckets
}

// sliceAt intersects the candidate facets with the plane z and assembles
// the resulting segments into polygons under the requested mode.
func sliceAt(tris [][3]int, verts []r3.Vec, facets []int, z float64, mode config.SlicingMode, params SliceParams) geom.ExPolygons {
	type segment struct {
		a, b geom.Point
	}
	var segs []segment

	// Memoize edge/plane intersections by vertex-index pair so both facets
	// sharing an edge get the bitwise-identical point, which makes segment
	// chaining exact.
	edgeCut := make(map[[2]int]geom.Point)
	cut := func(i, j int) geom.Point {
		key := [2]int{i, j}
		if j < i {
			key = [2]int{j, i}
		}
		if p, ok := edgeCut[key]; ok {
			return p
		}
		a, b := verts[key[0]], verts[key[1]]
		t := (z - a.Z) / (b.Z - a.Z)
		p := geom.Point{
			X: geom.Scale(a.X + (b.X-a.X)*t),
			Y: geom.Scale(a.Y + (b.Y-a.Y)*t),
		}
		edgeCut[key] = p
		return p
	}

	for _, fi := range facets {
		tri := tris[fi]
		// A vertex exactly on the plane counts as above, which keeps every
		// crossing facet contributing exactly zero or one segment and
		// avoids degenerate point-contacts.
		above := func(vi int) bool { return verts[vi].Z >= z }

		var cuts []geom.Point
		for e := 0; e < 3; e++ {
			i, j := tri[e], tri[(e+1)%3]
			if above(i) != above(j) {
				cuts = append(cuts, cut(i, j))
			}
		}
		if len(cuts) != 2 || cuts[0] == cuts[1] {
			continue
		}

		// Orient the segment so the solid interior lies on its left; outer
		// contours then chain counter-clockwise. The in-plane direction
		// with interior-left is z-axis cross facet-normal.
		n := facetNormal(verts, tri)
		d := geom.Point{X: geom.Scale(-n.Y), Y: geom.Scale(n.X)}
		s := segment{a: cuts[0], b: cuts[1]}
		if s.b.Sub(s.a).Dot(d) < 0 {
			s.a, s.b = s.b, s.a
		}
		segs = append(segs, s)
	}
	if len(segs) == 0 {
		return nil
	}

	// Chain segments end-to-start into closed loops. A manifold mesh
	// chains exactly thanks to the memoized edge cuts; anything left open
	// is dropped as noise.
	next := make(map[geom.Point][]int, len(segs))
	for i, s := range segs {
		next[s.a] = append(next[s.a], i)
	}
	used := make([]bool, len(segs))
	var loops geom.Polygons
	for i := range segs {
		if used[i] {
			continue
		}
		used[i] = true
		pts := geom.Points{segs[i].a, segs[i].b}
		closed := false
		for {
			tail := pts[len(pts)-1]
			if tail == pts[0] {
				closed = true
				break
			}
			found := -1
			for _, j := range next[tail] {
				if !used[j] {
					found = j
					break
				}
			}
			if found < 0 {
				break
			}
			used[found] = true
			pts = append(pts, segs[found].b)
		}
		if closed && len(pts) >= 4 {
			loops = append(loops, geom.Polygon{Points: pts[:len(pts)-1]})
		}
	}
	if len(loops) == 0 {
		return nil
	}

	var exs geom.ExPolygons
	switch mode {
	case config.SliceEvenOdd:
		exs = clip.UnionEx(loops, clip.EvenOdd)
	case config.SliceCloseHoles:
		exs = clip.UnionEx(loops, clip.Positive)
	case config.SlicePositiveLargestContour:
		exs = keepLargest(clip.UnionEx(loops, clip.Positive))
	default:
		exs = clip.UnionEx(loops, clip.NonZero)
	}

	if params.ClosingRadius > 0 {
		exs = clip.ClosingEx(exs.ToPolygons(), params.ClosingRadius/geom.ScalingFactor)
	}
	if params.ExtraOffset > 0 {
		exs = clip.OffsetEx(exs, params.ExtraOffset/geom.ScalingFactor, clip.JoinMiter)
	}
	return exs
}

func facetNormal(verts []r3.Vec, tri [3]int) r3.Vec {
	a, b, c := verts[tri[0]], verts[tri[1]], verts[tri[2]]
	return r3.Cross(r3.Sub(b, a), r3.Sub(c, a))
}

func keepLargest(exs geom.ExPolygons) geom.ExPolygons {
	if len(exs) <= 1 {
		return exs
	}
	best, bestArea := 0, -1.0
	for i, ex := range exs {
		if a := ex.Contour.Area(); a > bestArea {
			best, bestArea = i, a
		}
	}
	return geom.ExPolygons{exs[best]}
}
