package slicing

import (
	"github.com/printforge/slicer/internal/cancel"
	"github.com/printforge/slicer/internal/clip"
	"github.com/printforge/slicer/internal/geom"
	"github.com/printforge/slicer/internal/parallel"
)

// Compensate applies negative XY size compensation and first-layer
// elephant-foot compensation to the resolved region slices. Positive XY
// compensation was already applied during mesh slicing; only shrinks
// remain for this pass.
//
// On the first layer both compensations act in sequence: the outline is
// shrunk by the XY amount and then by the elephant-foot amount. A raft
// lifts the object off the bed, so raft layers disable the elephant-foot
// pass. The returned warning is non-empty when a compensation had to be
// dropped.
func Compensate(byRegion [][]geom.ExPolygons, params Params, pool *parallel.WorkerPool, tok *cancel.Token) (string, error) {
	xy := params.Object.XYSizeCompensation
	foot := params.Object.ElefantFootCompensation
	if params.Object.RaftLayers > 0 {
		foot = 0
	}

	warn := ""
	if params.Painted && xy != 0 {
		// Painted boundaries already encode exact region splits; offsetting
		// them would shift the paint off its geometry. Elephant foot still
		// applies, it shrinks the merged outline only.
		warn = "XY size compensation is not applied to painted objects"
		xy = 0
	}
	shrink := 0.0
	if xy < 0 {
		shrink = -xy
	}
	if shrink <= 0 && foot <= 0 {
		return warn, tok.Err()
	}

	layers := 0
	if len(byRegion) > 0 {
		layers = len(byRegion[0])
	}
	err := parallel.For(pool, layers, tok, func(li int) {
		delta := shrink
		if li == 0 {
			delta += foot
		}
		if delta <= 0 {
			return
		}

		var present []int
		for r := range byRegion {
			if len(byRegion[r][li]) > 0 {
				present = append(present, r)
			}
		}
		switch len(present) {
		case 0:
		case 1:
			r := present[0]
			byRegion[r][li] = clip.OffsetEx(byRegion[r][li], -delta/geom.ScalingFactor, clip.JoinMiter)
		default:
			// Shrinking regions independently would open gaps along their
			// shared boundaries. Shrink the merged outline instead and trim
			// every region against it, so only the true object boundary
			// moves.
			trimmed := clip.OffsetEx(LSlices(byRegion, li), -delta/geom.ScalingFactor, clip.JoinMiter)
			for _, r := range present {
				byRegion[r][li] = clip.IntersectionEx(byRegion[r][li], trimmed)
			}
		}
	})
	return warn, err
}

// LSlices builds the merged per-layer slice used for travel planning and
// overhang detection: the union of every region's share at that layer.
func LSlices(byRegion [][]geom.ExPolygons, li int) geom.ExPolygons {
	var all geom.Polygons
	count := 0
	var last geom.ExPolygons
	for r := range byRegion {
		if len(byRegion[r][li]) > 0 {
			all = append(all, byRegion[r][li].ToPolygons()...)
			last = byRegion[r][li]
			count++
		}
	}
	if count == 0 {
		return nil
	}
	if count == 1 {
		return last
	}
	return clip.UnionEx(all, clip.NonZero)
}
