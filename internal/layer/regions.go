package layer

import (
	"sort"

	"github.com/printforge/slicer/internal/config"
	"github.com/printforge/slicer/internal/geom"
	"github.com/printforge/slicer/internal/mesh"
)

// VolumeRegion links one model volume to the print region it feeds within
// a layer range, with the transformed 3D bounds used for overlap pruning.
type VolumeRegion struct {
	Volume   *mesh.Volume
	RegionID int
	BBox     geom.BoundingBox3

	// Parent indexes the enclosing VolumeRegion within the same range when
	// Volume is a modifier, -1 otherwise.
	Parent int
}

// LayerRangeRegions lists the volume regions active over one closed-open
// Z interval. Ranges never overlap and are sorted ascending.
type LayerRangeRegions struct {
	ZMin, ZMax float64
	Regions    []VolumeRegion
}

// ContainsZ reports whether z falls in the half-open range [ZMin, ZMax).
func (lr *LayerRangeRegions) ContainsZ(z float64) bool {
	return z >= lr.ZMin && z < lr.ZMax
}

// SharedRegions is the read-only volume-to-region mapping built once per
// print object and consulted by every slicing stage.
type SharedRegions struct {
	Regions []*PrintRegion
	Ranges  []LayerRangeRegions
}

// RangeAt returns the layer range containing z, or nil.
func (sr *SharedRegions) RangeAt(z float64) *LayerRangeRegions {
	for i := range sr.Ranges {
		if sr.Ranges[i].ContainsZ(z) {
			return &sr.Ranges[i]
		}
	}
	return nil
}

// RegionSpec assigns a config to a Z span of one volume. A spec with
// ZMax <= ZMin applies to the volume's whole extent.
type RegionSpec struct {
	Volume     *mesh.Volume
	Config     config.Region
	ZMin, ZMax float64
}

// BuildShared derives the shared region tables from per-volume region
// specs. Volumes are ordered by their sequence numbers so compositing
// follows the object's volume list; modifiers are parented to the closest
// preceding model part whose bounds overlap them.
func BuildShared(specs []RegionSpec) *SharedRegions {
	ordered := append([]RegionSpec(nil), specs...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Volume.Seq < ordered[j].Volume.Seq
	})

	sr := &SharedRegions{}
	// Deduplicate identical configs into shared PrintRegions.
	regionID := func(cfg config.Region) int {
		for _, r := range sr.Regions {
			if r.Config == cfg {
				return r.ID
			}
		}
		r := &PrintRegion{ID: len(sr.Regions), Config: cfg}
		sr.Regions = append(sr.Regions, r)
		return r.ID
	}

	// Collect the Z breakpoints introduced by ranged specs.
	var cuts []float64
	var zmin, zmax float64
	first := true
	for _, s := range ordered {
		bb := s.Volume.BoundingBox()
		if first {
			zmin, zmax, first = bb.MinZ, bb.MaxZ, false
		} else {
			if bb.MinZ < zmin {
				zmin = bb.MinZ
			}
			if bb.MaxZ > zmax {
				zmax = bb.MaxZ
			}
		}
		if s.ZMax > s.ZMin {
			cuts = append(cuts, s.ZMin, s.ZMax)
		}
	}
	if first {
		return sr
	}
	cuts = append(cuts, zmin, zmax+geom.Epsilon)
	sort.Float64s(cuts)
	uniq := cuts[:1]
	for _, c := range cuts[1:] {
		if c > uniq[len(uniq)-1]+geom.Epsilon {
			uniq = append(uniq, c)
		}
	}

	for i := 0; i+1 < len(uniq); i++ {
		lo, hi := uniq[i], uniq[i+1]
		rng := LayerRangeRegions{ZMin: lo, ZMax: hi}
		for _, s := range ordered {
			if s.ZMax > s.ZMin && (s.ZMax <= lo || s.ZMin >= hi) {
				continue
			}
			bb := s.Volume.BoundingBox()
			if bb.MaxZ <= lo || bb.MinZ >= hi {
				continue
			}
			vr := VolumeRegion{
				Volume:   s.Volume,
				RegionID: regionID(s.Config),
				BBox:     bb,
				Parent:   -1,
			}
			if s.Volume.Type == mesh.ParameterModifier {
				for pi := len(rng.Regions) - 1; pi >= 0; pi-- {
					p := &rng.Regions[pi]
					if p.Volume.Type == mesh.ModelPart && p.BBox.OverlapsXY(vr.BBox) {
						vr.Parent = pi
						break
					}
				}
			}
			rng.Regions = append(rng.Regions, vr)
		}
		if len(rng.Regions) > 0 {
			sr.Ranges = append(sr.Ranges, rng)
		}
	}
	return sr
}
