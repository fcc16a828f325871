package gcode

import (
	"math/rand"

	"github.com/printforge/slicer/internal/config"
	"github.com/printforge/slicer/internal/extrusion"
	"github.com/printforge/slicer/internal/geom"
)

// SeamMergeDistance is how close in mm an aligned seam snaps to the seam of
// the layer below before a fresh position is chosen. Empirically tuned.
var SeamMergeDistance = 3.0

// SeamPlacer rotates closed loops so extrusion starts at a low-visibility
// vertex and sequential seams stay spatially close. One placer serves one
// object for the whole job; it remembers the previous seam per alignment.
type SeamPlacer struct {
	mode config.SeamPosition

	lastSeam geom.Point
	haveSeam bool
	rng      *rand.Rand
}

// NewSeamPlacer returns a placer for the given strategy. Random placement
// is seeded deterministically so re-slicing reproduces identical output.
func NewSeamPlacer(mode config.SeamPosition, seed int64) *SeamPlacer {
	return &SeamPlacer{mode: mode, rng: rand.New(rand.NewSource(seed))}
}

// Place rotates the loop in place to its seam vertex and returns that
// vertex. prev is the nozzle position before the loop starts.
func (s *SeamPlacer) Place(l *extrusion.Loop, layerIndex int, prev geom.Point, havePrev bool) geom.Point {
	switch s.mode {
	case config.SeamRear:
		l.SplitAtNearest(rearMost(l))

	case config.SeamRandom:
		poly := l.Polygon()
		if n := len(poly.Points); n > 0 {
			l.SplitAtVertex(poly.Points[s.rng.Intn(n)])
		}

	case config.SeamAligned:
		if s.haveSeam {
			l.SplitAtNearest(s.lastSeam)
			// Too far from the previous seam means a different feature;
			// restart alignment at the nearest vertex to the nozzle.
			if havePrev && l.FirstPoint().DistanceTo(s.lastSeam)*geom.ScalingFactor > SeamMergeDistance {
				l.SplitAtNearest(prev)
			}
		} else if havePrev {
			l.SplitAtNearest(prev)
		}

	default: // SeamNearest
		if havePrev {
			l.SplitAtNearest(prev)
		}
	}

	seam := l.FirstPoint()
	s.lastSeam = seam
	s.haveSeam = true
	return seam
}

// rearMost returns the loop vertex with the largest Y, ties broken by X so
// the choice is stable across runs.
func rearMost(l *extrusion.Loop) geom.Point {
	poly := l.Polygon()
	best := poly.Points[0]
	for _, p := range poly.Points[1:] {
		if p.Y > best.Y || (p.Y == best.Y && p.X < best.X) {
			best = p
		}
	}
	return best
}
