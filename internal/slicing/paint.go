package slicing

import (
	"github.com/printforge/slicer/internal/cancel"
	"github.com/printforge/slicer/internal/clip"
	"github.com/printforge/slicer/internal/geom"
	"github.com/printforge/slicer/internal/parallel"
)

// PaintProvider supplies the per-layer paint masks recorded by the user.
// Masks returns one mask set per layer; the inner index is the paint
// target (one per extruder for multi-material paint, exactly one for fuzzy
// skin paint). Empty masks mean the layer is unpainted.
type PaintProvider interface {
	Masks(tok *cancel.Token) ([][]geom.ExPolygons, error)
}

// ApplyPaint redistributes painted areas between regions. byRegion is the
// region-resolved slice stack indexed [regionID][layer]; target maps each
// mask index to the region that painted areas move into. maxWidth, in mm,
// confines the transfer to a band of that depth along the outline (0 means
// unlimited), matching the segmentation-width behavior of painted
// multi-material regions. Paint only moves area: the union over regions is
// preserved up to the morphological cleanup radius.
//
// A region's own mask is never subtracted from it: trimming a region by
// its own paint boundary is unreliable at clipping precision and produces
// self-cancellation slivers.
func ApplyPaint(byRegion [][]geom.ExPolygons, provider PaintProvider, target []int, maxWidth float64, pool *parallel.WorkerPool, tok *cancel.Token) error {
	if provider == nil || len(target) == 0 {
		return tok.Err()
	}
	masks, err := provider.Masks(tok)
	if err != nil {
		return err
	}
	if len(masks) == 0 {
		return tok.Err()
	}
	layers := len(byRegion[0])

	// Per-task scratch is created inside the task body; tasks share only
	// the disjoint per-layer output slots.
	return parallel.For(pool, layers, tok, func(li int) {
		layerMasks := masksAt(masks, li, len(target))
		if layerMasks == nil {
			return
		}

		type accum struct {
			polys   geom.Polygons
			sources int
		}
		acc := make([]accum, len(target))
		remainder := make([]geom.Polygons, len(byRegion))
		touched := make([]bool, len(byRegion))

		for r := range byRegion {
			parent := byRegion[r][li]
			if len(parent) == 0 {
				continue
			}
			parentPolys := parent.ToPolygons()
			parentBB := parent.BoundingBox()

			// With a segmentation width, paint only reaches a band along the
			// parent's outline; the core beyond it keeps its region.
			var band geom.Polygons
			if maxWidth > 0 {
				band = clip.Difference(parentPolys,
					clip.Offset(parentPolys, -maxWidth/geom.ScalingFactor, clip.JoinMiter))
			}

			var steal geom.Polygons
			for m := range target {
				if target[m] == r {
					continue // own mask: never trim by self
				}
				mask := layerMasks[m]
				if len(mask) == 0 || !mask.BoundingBox().Overlaps(parentBB) {
					continue
				}
				stolen := clip.Intersection(parentPolys, mask.ToPolygons())
				if band != nil {
					stolen = clip.Intersection(stolen, band)
				}
				if len(stolen) > 0 {
					acc[m].polys = append(acc[m].polys, stolen...)
					acc[m].sources++
					steal = append(steal, stolen...)
				}
			}
			if len(steal) == 0 {
				continue
			}
			rem := clip.Difference(parentPolys, steal)
			// Repeated subtraction leaves sub-resolution slivers; an
			// opening at the noise floor removes them.
			remainder[r] = clip.Opening(rem, float64(geom.ScaledEpsilon))
			touched[r] = true
		}

		// Rebuild every region that gained or lost area.
		gained := make([]geom.Polygons, len(byRegion))
		multi := make([]bool, len(byRegion))
		for m := range target {
			if acc[m].sources == 0 {
				continue
			}
			q := target[m]
			if len(gained[q]) > 0 || acc[m].sources > 1 {
				multi[q] = true
			}
			gained[q] = append(gained[q], acc[m].polys...)
		}
		for q := range byRegion {
			if !touched[q] && len(gained[q]) == 0 {
				continue
			}
			var polys geom.Polygons
			if touched[q] {
				polys = append(polys, remainder[q]...)
			} else {
				polys = append(polys, byRegion[q][li].ToPolygons()...)
			}
			polys = append(polys, gained[q]...)
			if multi[q] {
				// Contributions from several sources may abut along mask
				// boundaries; closing heals the joint seams.
				byRegion[q][li] = clip.ClosingEx(polys, float64(geom.ScaledEpsilon))
			} else {
				byRegion[q][li] = clip.UnionEx(polys, clip.NonZero)
			}
		}
	})
}

func masksAt(masks [][]geom.ExPolygons, li, targets int) []geom.ExPolygons {
	if li >= len(masks) || len(masks[li]) == 0 {
		return nil
	}
	layerMasks := masks[li]
	any := false
	for _, m := range layerMasks {
		if len(m) > 0 {
			any = true
			break
		}
	}
	if !any {
		return nil
	}
	// Tolerate providers that emit fewer mask slots than targets.
	if len(layerMasks) < targets {
		padded := make([]geom.ExPolygons, targets)
		copy(padded, layerMasks)
		return padded
	}
	return layerMasks
}
