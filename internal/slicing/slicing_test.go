package slicing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/printforge/slicer/internal/cancel"
	"github.com/printforge/slicer/internal/clip"
	"github.com/printforge/slicer/internal/config"
	"github.com/printforge/slicer/internal/geom"
	"github.com/printforge/slicer/internal/layer"
	"github.com/printforge/slicer/internal/mesh"
)

func defaultParams() Params {
	p := config.DefaultPrint()
	o := config.DefaultObject()
	return Params{Print: &p, Object: &o}
}

func volumeAt(t *testing.T, name string, typ mesh.VolumeType, seq int, m *mesh.Mesh, dx, dy, dz float64) *mesh.Volume {
	t.Helper()
	v := mesh.NewVolume(name, typ, m)
	v.Seq = seq
	v.Transform = mesh.Translate(dx, dy, dz)
	return v
}

func mmArea(exs geom.ExPolygons) float64 {
	return exs.Area() * geom.ScalingFactor * geom.ScalingFactor
}

func resolve(t *testing.T, specs []layer.RegionSpec, zs []float64) (*layer.SharedRegions, [][]geom.ExPolygons) {
	t.Helper()
	sr := layer.BuildShared(specs)
	params := defaultParams()
	vs, err := SliceVolumes(sr, zs, params, nil, nil)
	require.NoError(t, err)
	byRegion, err := ResolveRegions(sr, vs, zs, nil, nil)
	require.NoError(t, err)
	return sr, byRegion
}

func TestResolve_SingleCube(t *testing.T) {
	cube := volumeAt(t, "cube", mesh.ModelPart, 0, mesh.Box(20, 20, 20), 0, 0, 0)
	zs := layer.SliceZs(0.2, 0.2, 100)

	sr, byRegion := resolve(t, []layer.RegionSpec{{Volume: cube, Config: config.DefaultRegion()}}, zs)
	require.Len(t, sr.Regions, 1)
	require.Len(t, byRegion, 1)

	for zi := range zs {
		require.Len(t, byRegion[0][zi], 1, "layer %d", zi)
		assert.InDelta(t, 400.0, mmArea(byRegion[0][zi]), 0.1, "layer %d", zi)
	}
}

// A modifier sub-box over the top half moves that area into a second
// region; the two regions never overlap and together restore the square.
func TestResolve_ModifierTopHalf(t *testing.T) {
	cube := volumeAt(t, "cube", mesh.ModelPart, 0, mesh.Box(20, 20, 20), 0, 0, 0)
	mod := volumeAt(t, "mod", mesh.ParameterModifier, 1, mesh.Box(20, 20, 10), 0, 0, 10)

	modCfg := config.DefaultRegion()
	modCfg.Perimeters = 5

	zs := layer.SliceZs(0.2, 0.2, 100)
	sr, byRegion := resolve(t, []layer.RegionSpec{
		{Volume: cube, Config: config.DefaultRegion()},
		{Volume: mod, Config: modCfg},
	}, zs)
	require.Len(t, sr.Regions, 2)

	for zi, z := range zs {
		base := byRegion[0][zi]
		over := byRegion[1][zi]
		if z < 10 {
			assert.InDelta(t, 400.0, mmArea(base), 0.1, "lower layer %d", zi)
			assert.Empty(t, over, "lower layer %d", zi)
			continue
		}
		// Upper half: the modifier covers the full square, stealing all of it.
		total := mmArea(base) + mmArea(over)
		assert.InDelta(t, 400.0, total, 0.5, "upper layer %d", zi)
		assert.InDelta(t, 400.0, mmArea(over), 0.5, "upper layer %d", zi)

		overlap := clip.Intersection(base.ToPolygons(), over.ToPolygons())
		assert.Less(t, math.Abs(overlap.Area()), float64(geom.ScaledEpsilon*geom.ScaledEpsilon),
			"regions overlap on layer %d", zi)
	}
}

// A part fully enclosed in a later negative volume slices to nothing over
// the negative's vertical extent and survives outside it.
func TestResolve_NegativeEnclosesPart(t *testing.T) {
	part := volumeAt(t, "part", mesh.ModelPart, 0, mesh.Box(10, 10, 30), 5, 5, 0)
	neg := volumeAt(t, "neg", mesh.NegativeVolume, 1, mesh.Box(20, 20, 10), 0, 0, 10)

	zs := layer.SliceZs(0.2, 0.2, 150)
	_, byRegion := resolve(t, []layer.RegionSpec{
		{Volume: part, Config: config.DefaultRegion()},
		{Volume: neg, Config: config.DefaultRegion()},
	}, zs)

	for zi, z := range zs {
		inNegative := z > 10 && z < 20
		got := byRegion[0][zi]
		if inNegative {
			assert.Empty(t, got, "layer %d (z=%.2f) should be carved away", zi, z)
		} else {
			require.NotEmpty(t, got, "layer %d (z=%.2f) should survive", zi, z)
			assert.InDelta(t, 100.0, mmArea(got), 0.1, "layer %d", zi)
		}
	}
}

// Later model part wins over an earlier one where they overlap.
func TestResolve_LaterVolumeWins(t *testing.T) {
	a := volumeAt(t, "a", mesh.ModelPart, 0, mesh.Box(20, 10, 10), 0, 0, 0)
	b := volumeAt(t, "b", mesh.ModelPart, 1, mesh.Box(10, 10, 10), 10, 0, 0)

	cfgA := config.DefaultRegion()
	cfgB := config.DefaultRegion()
	cfgB.Perimeters = 4

	zs := []float64{5}
	sr, byRegion := resolve(t, []layer.RegionSpec{
		{Volume: a, Config: cfgA},
		{Volume: b, Config: cfgB},
	}, zs)
	require.Len(t, sr.Regions, 2)

	// a loses its right half to b.
	assert.InDelta(t, 100.0, mmArea(byRegion[0][0]), 0.5)
	assert.InDelta(t, 100.0, mmArea(byRegion[1][0]), 0.5)
	overlap := clip.Intersection(byRegion[0][0].ToPolygons(), byRegion[1][0].ToPolygons())
	assert.Less(t, math.Abs(overlap.Area()), float64(geom.ScaledEpsilon*geom.ScaledEpsilon))
}

type staticPaint struct {
	masks [][]geom.ExPolygons
}

func (s *staticPaint) Masks(*cancel.Token) ([][]geom.ExPolygons, error) { return s.masks, nil }

// Paint moves area between regions without creating or destroying it.
func TestApplyPaint_Conservation(t *testing.T) {
	cube := volumeAt(t, "cube", mesh.ModelPart, 0, mesh.Box(20, 20, 2), 0, 0, 0)
	zs := []float64{1}
	_, byRegion := resolve(t, []layer.RegionSpec{{Volume: cube, Config: config.DefaultRegion()}}, zs)

	// Second (initially empty) region as paint target.
	byRegion = append(byRegion, make([]geom.ExPolygons, len(zs)))
	before := mmArea(byRegion[0][0])

	// Paint the left half toward region 1.
	mask := geom.ExPolygons{{Contour: geom.Polygon{Points: geom.Points{
		geom.PtMM(-1, -1), geom.PtMM(10, -1), geom.PtMM(10, 21), geom.PtMM(-1, 21),
	}}}}
	paint := &staticPaint{masks: [][]geom.ExPolygons{{nil, mask}}}

	require.NoError(t, ApplyPaint(byRegion, paint, []int{0, 1}, 0, nil, nil))

	a0 := mmArea(byRegion[0][0])
	a1 := mmArea(byRegion[1][0])
	assert.InDelta(t, before, a0+a1, 0.05, "paint must conserve area")
	assert.InDelta(t, 200.0, a1, 0.5, "half the square moves to region 1")

	overlap := clip.Intersection(byRegion[0][0].ToPolygons(), byRegion[1][0].ToPolygons())
	assert.Less(t, math.Abs(overlap.Area()), float64(geom.ScaledEpsilon*geom.ScaledEpsilon))
}

// A segmentation width confines the transfer to a band along the outline;
// the core of the square keeps its original region.
func TestApplyPaint_SegmentationWidthBand(t *testing.T) {
	cube := volumeAt(t, "cube", mesh.ModelPart, 0, mesh.Box(20, 20, 2), 0, 0, 0)
	zs := []float64{1}
	_, byRegion := resolve(t, []layer.RegionSpec{{Volume: cube, Config: config.DefaultRegion()}}, zs)
	byRegion = append(byRegion, make([]geom.ExPolygons, len(zs)))

	// Paint everything; only a 2 mm rim may actually move.
	mask := geom.ExPolygons{{Contour: geom.Polygon{Points: geom.Points{
		geom.PtMM(-1, -1), geom.PtMM(21, -1), geom.PtMM(21, 21), geom.PtMM(-1, 21),
	}}}}
	paint := &staticPaint{masks: [][]geom.ExPolygons{{nil, mask}}}

	require.NoError(t, ApplyPaint(byRegion, paint, []int{0, 1}, 2.0, nil, nil))

	// Band: 20x20 minus the 16x16 core.
	assert.InDelta(t, 256.0, mmArea(byRegion[0][0]), 1.0)
	assert.InDelta(t, 144.0, mmArea(byRegion[1][0]), 1.0)
}

func TestCompensate_NegativeXY(t *testing.T) {
	cube := volumeAt(t, "cube", mesh.ModelPart, 0, mesh.Box(10, 10, 2), 0, 0, 0)
	zs := []float64{0.5, 1.5}
	_, byRegion := resolve(t, []layer.RegionSpec{{Volume: cube, Config: config.DefaultRegion()}}, zs)

	params := defaultParams()
	obj := *params.Object
	obj.XYSizeCompensation = -0.5
	params.Object = &obj

	warn, err := Compensate(byRegion, params, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, warn)
	// 10x10 shrunk by 0.5 per side → 9x9.
	assert.InDelta(t, 81.0, mmArea(byRegion[0][0]), 0.2)
	assert.InDelta(t, 81.0, mmArea(byRegion[0][1]), 0.2)
}

func TestCompensate_PaintedSkips(t *testing.T) {
	cube := volumeAt(t, "cube", mesh.ModelPart, 0, mesh.Box(10, 10, 2), 0, 0, 0)
	zs := []float64{1}
	_, byRegion := resolve(t, []layer.RegionSpec{{Volume: cube, Config: config.DefaultRegion()}}, zs)

	params := defaultParams()
	obj := *params.Object
	obj.XYSizeCompensation = -0.5
	params.Object = &obj
	params.Painted = true

	warn, err := Compensate(byRegion, params, nil, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, warn, "painted object must warn that compensation is dropped")
	assert.InDelta(t, 100.0, mmArea(byRegion[0][0]), 0.2, "geometry must stay untouched")
}

// Negative XY and elephant foot stack on the first layer instead of
// taking the larger of the two.
func TestCompensate_FirstLayerCumulative(t *testing.T) {
	cube := volumeAt(t, "cube", mesh.ModelPart, 0, mesh.Box(10, 10, 2), 0, 0, 0)
	zs := []float64{0.1, 0.5}
	_, byRegion := resolve(t, []layer.RegionSpec{{Volume: cube, Config: config.DefaultRegion()}}, zs)

	params := defaultParams()
	obj := *params.Object
	obj.XYSizeCompensation = -0.2
	obj.ElefantFootCompensation = 0.3
	params.Object = &obj

	warn, err := Compensate(byRegion, params, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, warn)
	// First layer shrinks by 0.5 per side, the rest by 0.2 only.
	assert.InDelta(t, 81.0, mmArea(byRegion[0][0]), 0.2)
	assert.InDelta(t, 92.16, mmArea(byRegion[0][1]), 0.2)
}

// With several regions on a layer the merged outline shrinks and every
// region is trimmed against it; interior boundaries between regions stay
// put and no area gap opens between them.
func TestCompensate_MultiRegionTrimsMergedOutline(t *testing.T) {
	a := volumeAt(t, "a", mesh.ModelPart, 0, mesh.Box(20, 10, 10), 0, 0, 0)
	b := volumeAt(t, "b", mesh.ModelPart, 1, mesh.Box(10, 10, 10), 10, 0, 0)
	cfgB := config.DefaultRegion()
	cfgB.Perimeters = 4

	zs := []float64{0.1, 5}
	_, byRegion := resolve(t, []layer.RegionSpec{
		{Volume: a, Config: config.DefaultRegion()},
		{Volume: b, Config: cfgB},
	}, zs)

	params := defaultParams()
	obj := *params.Object
	obj.XYSizeCompensation = -0.5
	params.Object = &obj

	warn, err := Compensate(byRegion, params, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, warn, "multi-region layers must compensate, not skip")

	for zi := range zs {
		// 20x10 outline shrunk by 0.5 per side is 19x9; the seam at x=10
		// does not move, so each region keeps a 9.5x9 share.
		assert.InDelta(t, 85.5, mmArea(byRegion[0][zi]), 0.5, "layer %d", zi)
		assert.InDelta(t, 85.5, mmArea(byRegion[1][zi]), 0.5, "layer %d", zi)
		overlap := clip.Intersection(byRegion[0][zi].ToPolygons(), byRegion[1][zi].ToPolygons())
		assert.Less(t, math.Abs(overlap.Area()), float64(geom.ScaledEpsilon*geom.ScaledEpsilon))
	}
}

func TestCompensate_RaftDisablesElephantFoot(t *testing.T) {
	cube := volumeAt(t, "cube", mesh.ModelPart, 0, mesh.Box(10, 10, 2), 0, 0, 0)
	zs := []float64{0.1}
	_, byRegion := resolve(t, []layer.RegionSpec{{Volume: cube, Config: config.DefaultRegion()}}, zs)

	params := defaultParams()
	obj := *params.Object
	obj.ElefantFootCompensation = 0.5
	obj.RaftLayers = 2
	params.Object = &obj

	warn, err := Compensate(byRegion, params, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, warn)
	assert.InDelta(t, 100.0, mmArea(byRegion[0][0]), 0.2, "raft lifts the part off the bed, no squish to counter")
}

// Painted objects drop XY compensation but keep the elephant-foot pass.
func TestCompensate_PaintedKeepsElephantFoot(t *testing.T) {
	cube := volumeAt(t, "cube", mesh.ModelPart, 0, mesh.Box(10, 10, 2), 0, 0, 0)
	zs := []float64{0.1, 0.5}
	_, byRegion := resolve(t, []layer.RegionSpec{{Volume: cube, Config: config.DefaultRegion()}}, zs)

	params := defaultParams()
	obj := *params.Object
	obj.ElefantFootCompensation = 0.4
	params.Object = &obj
	params.Painted = true

	warn, err := Compensate(byRegion, params, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, warn, "no XY compensation requested, nothing to drop")
	assert.InDelta(t, 84.64, mmArea(byRegion[0][0]), 0.3)
	assert.InDelta(t, 100.0, mmArea(byRegion[0][1]), 0.2)
}

func TestSliceVolumes_Canceled(t *testing.T) {
	cube := volumeAt(t, "cube", mesh.ModelPart, 0, mesh.Box(10, 10, 10), 0, 0, 0)
	sr := layer.BuildShared([]layer.RegionSpec{{Volume: cube, Config: config.DefaultRegion()}})
	tok := cancel.New()
	tok.Cancel()
	_, err := SliceVolumes(sr, []float64{5}, defaultParams(), nil, tok)
	require.ErrorIs(t, err, cancel.Canceled)
}
