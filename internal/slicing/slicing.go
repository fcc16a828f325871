// Package slicing turns model volumes into per-region, per-layer polygon
// stacks: it slices every volume across the layer heights, composits the
// per-volume results into mutually exclusive region slices, reassigns
// painted sub-regions, and applies size compensation.
package slicing

import (
	"sort"

	"github.com/printforge/slicer/internal/cancel"
	"github.com/printforge/slicer/internal/config"
	"github.com/printforge/slicer/internal/geom"
	"github.com/printforge/slicer/internal/layer"
	"github.com/printforge/slicer/internal/mesh"
	"github.com/printforge/slicer/internal/parallel"
)

// Params bundles the read-only configuration consumed by the slicing
// stages.
type Params struct {
	Print  *config.Print
	Object *config.Object

	// SpiralBottom is the first Z index forced to a single contour when
	// spiral vase is active; below it the bottom is sliced normally.
	SpiralBottom int

	// Painted disables positive XY compensation: painted sub-regions
	// already encode exact boundaries, offsetting them would shift the
	// paint masks off their geometry.
	Painted bool
}

// VolumeSlices transiently associates one volume with its per-Z polygon
// stack. It exists only between volume slicing and region resolution.
type VolumeSlices struct {
	Volume *mesh.Volume
	Slices []geom.ExPolygons
}

// SliceVolumes slices every model-part, negative and modifier volume of
// the shared region tables across all Z heights. Volumes that slice empty
// at every height are dropped. Results are ordered by volume sequence so
// later stages can address them by binary search.
func SliceVolumes(sr *layer.SharedRegions, zs []float64, params Params, pool *parallel.WorkerPool, tok *cancel.Token) ([]VolumeSlices, error) {
	volumes := distinctVolumes(sr)

	var out []VolumeSlices
	for _, v := range volumes {
		if err := tok.Err(); err != nil {
			return nil, err
		}
		if !v.Type.IsSliced() {
			continue
		}

		sp := mesh.DefaultSliceParams()
		sp.Mode = sliceMode(params.Object.SlicingMode)
		sp.ClosingRadius = params.Object.SliceClosingRadius
		if (v.Type == mesh.ModelPart || v.Type == mesh.ParameterModifier) && !params.Painted {
			if c := params.Object.XYSizeCompensation; c > 0 {
				sp.ExtraOffset = c
			}
		}
		if params.Print.SpiralVase && v.Type == mesh.ModelPart {
			sp.ForceLargestAbove = params.SpiralBottom
		}

		slices, err := sliceVolumeRanges(sr, v, zs, sp, pool, tok)
		if err != nil {
			return nil, err
		}
		empty := true
		for _, s := range slices {
			if len(s) > 0 {
				empty = false
				break
			}
		}
		if !empty {
			out = append(out, VolumeSlices{Volume: v, Slices: slices})
		}
	}
	return out, tok.Err()
}

func sliceMode(m config.SlicingMode) config.SlicingMode {
	// CloseHoles is implemented as positive-fill slicing.
	if m == config.SliceCloseHoles {
		return config.SliceCloseHoles
	}
	return m
}

// sliceVolumeRanges restricts slicing to the Z sub-ranges the volume
// actually contributes to. With a single layer range (the common case) the
// mesh slicer runs over the whole Z array directly.
func sliceVolumeRanges(sr *layer.SharedRegions, v *mesh.Volume, zs []float64, sp mesh.SliceParams, pool *parallel.WorkerPool, tok *cancel.Token) ([]geom.ExPolygons, error) {
	if len(sr.Ranges) <= 1 {
		return mesh.SliceVolume(v, zs, sp, pool, tok)
	}

	var subZs []float64
	var subIdx []int
	for i, z := range zs {
		rng := sr.RangeAt(z)
		if rng == nil {
			continue
		}
		for _, vr := range rng.Regions {
			if vr.Volume == v {
				subZs = append(subZs, z)
				subIdx = append(subIdx, i)
				break
			}
		}
	}

	out := make([]geom.ExPolygons, len(zs))
	if len(subZs) == 0 {
		return out, tok.Err()
	}
	// Spiral-mode index override is relative to the full Z array; remap it
	// onto the filtered one.
	if sp.ForceLargestAbove >= 0 {
		forced := sort.SearchInts(subIdx, sp.ForceLargestAbove)
		sp.ForceLargestAbove = forced
	}
	sub, err := mesh.SliceVolume(v, subZs, sp, pool, tok)
	if err != nil {
		return nil, err
	}
	for k, i := range subIdx {
		out[i] = sub[k]
	}
	return out, nil
}

// distinctVolumes collects the unique volumes referenced by the shared
// region tables, ordered by their stable IDs.
func distinctVolumes(sr *layer.SharedRegions) []*mesh.Volume {
	seen := make(map[*mesh.Volume]bool)
	var out []*mesh.Volume
	for _, rng := range sr.Ranges {
		for _, vr := range rng.Regions {
			if !seen[vr.Volume] {
				seen[vr.Volume] = true
				out = append(out, vr.Volume)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Seq < out[j].Seq
	})
	return out
}
