package slicing

import (
	"sort"

	"github.com/printforge/slicer/internal/cancel"
	"github.com/printforge/slicer/internal/clip"
	"github.com/printforge/slicer/internal/geom"
	"github.com/printforge/slicer/internal/layer"
	"github.com/printforge/slicer/internal/mesh"
	"github.com/printforge/slicer/internal/parallel"
)

// ResolveRegions composits the per-volume slices into per-region slices.
// The result is indexed [regionID][zIndex]; at any Z the region sets are
// mutually exclusive in XY. Modifier volumes steal area from their parent
// part, negative volumes subtract from everything before them, and a later
// model part wins over an earlier one where they overlap.
func ResolveRegions(sr *layer.SharedRegions, vslices []VolumeSlices, zs []float64, pool *parallel.WorkerPool, tok *cancel.Token) ([][]geom.ExPolygons, error) {
	byRegion := make([][]geom.ExPolygons, len(sr.Regions))
	for i := range byRegion {
		byRegion[i] = make([]geom.ExPolygons, len(zs))
	}

	sliceOf := func(v *mesh.Volume, zi int) geom.ExPolygons {
		// vslices is sorted by volume sequence; binary search on it.
		lo := sort.Search(len(vslices), func(i int) bool {
			return vslices[i].Volume.Seq >= v.Seq
		})
		if lo < len(vslices) && vslices[lo].Volume == v {
			return vslices[lo].Slices[zi]
		}
		return nil
	}

	err := parallel.For(pool, len(zs), tok, func(zi int) {
		z := zs[zi]
		rng := sr.RangeAt(z)
		if rng == nil {
			return
		}

		// Fast path: one plain model part feeding one region, no boolean
		// work needed.
		if len(rng.Regions) == 1 && rng.Regions[0].Volume.Type == mesh.ModelPart {
			vr := rng.Regions[0]
			if vr.BBox.ContainsZ(z) {
				byRegion[vr.RegionID][zi] = sliceOf(vr.Volume, zi)
			}
			return
		}
		resolveComplex(rng, zi, z, sliceOf, byRegion)
	})
	return byRegion, err
}

// fragment is one volume's surviving contribution to a region at one Z.
type fragment struct {
	regionID  int
	volumeSeq int
	vrIndex   int
	polys     geom.Polygons
	negative  bool
	modifier  bool
}

func resolveComplex(rng *layer.LayerRangeRegions, zi int, z float64, sliceOf func(*mesh.Volume, int) geom.ExPolygons, byRegion [][]geom.ExPolygons) {
	var frags []fragment
	for vri, vr := range rng.Regions {
		if !vr.BBox.ContainsZ(z) {
			continue
		}
		exs := sliceOf(vr.Volume, zi)
		if len(exs) == 0 {
			continue
		}
		f := fragment{
			regionID:  vr.RegionID,
			volumeSeq: vr.Volume.Seq,
			vrIndex:   vri,
			polys:     exs.ToPolygons(),
			negative:  vr.Volume.Type == mesh.NegativeVolume,
			modifier:  vr.Volume.Type == mesh.ParameterModifier,
		}

		switch {
		case f.modifier:
			// A modifier only exists where its parent does: clip to the
			// parent's current area and carve that area out of the parent.
			parent := findFragment(frags, vr.Parent)
			if parent == nil || len(parent.polys) == 0 {
				continue
			}
			f.polys = clip.Intersection(f.polys, parent.polys)
			if len(f.polys) == 0 {
				continue
			}
			parent.polys = clip.Difference(parent.polys, f.polys)
		default:
			// Later model parts and negatives mask everything non-negative
			// placed before them, after a cheap XY bbox rejection.
			bb := vr.BBox
			for i := range frags {
				prior := &frags[i]
				if prior.negative || len(prior.polys) == 0 {
					continue
				}
				if !bb.OverlapsXY(rng.Regions[prior.vrIndex].BBox) {
					continue
				}
				prior.polys = clip.Difference(prior.polys, f.polys)
			}
		}
		frags = append(frags, f)
	}

	// Negatives were masks only; everything else is grouped per region in
	// (region, volume) order and healed where one region was split across
	// volumes.
	sort.SliceStable(frags, func(i, j int) bool {
		if frags[i].regionID != frags[j].regionID {
			return frags[i].regionID < frags[j].regionID
		}
		return frags[i].volumeSeq < frags[j].volumeSeq
	})
	for i := 0; i < len(frags); {
		f := frags[i]
		j := i + 1
		for j < len(frags) && frags[j].regionID == f.regionID {
			j++
		}
		var merged geom.Polygons
		sources := 0
		for k := i; k < j; k++ {
			if frags[k].negative || len(frags[k].polys) == 0 {
				continue
			}
			merged = append(merged, frags[k].polys...)
			sources++
		}
		switch {
		case sources == 0:
		case sources == 1:
			byRegion[f.regionID][zi] = clip.UnionEx(merged, clip.NonZero)
		default:
			// Per-volume splitting leaves hairline seams along the shared
			// boundaries; a closing at the noise floor heals them.
			byRegion[f.regionID][zi] = clip.ClosingEx(merged, float64(geom.ScaledEpsilon))
		}
		i = j
	}
}

func findFragment(frags []fragment, vrIndex int) *fragment {
	if vrIndex < 0 {
		return nil
	}
	for i := range frags {
		if frags[i].vrIndex == vrIndex {
			return &frags[i]
		}
	}
	return nil
}
