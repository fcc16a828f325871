package layer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/printforge/slicer/internal/config"
	"github.com/printforge/slicer/internal/geom"
	"github.com/printforge/slicer/internal/mesh"
)

func TestNewStack_Heights(t *testing.T) {
	s := NewStack(0.3, 0.2, 4)
	require.Equal(t, 4, s.Len())

	require.Equal(t, 0.3, s.Layers[0].PrintZ)
	require.Equal(t, 0.3, s.Layers[0].Height)
	require.InDelta(t, 0.15, s.Layers[0].SliceZ, 1e-12)

	require.InDelta(t, 0.5, s.Layers[1].PrintZ, 1e-12)
	require.Equal(t, 0.2, s.Layers[1].Height)
	require.InDelta(t, 0.4, s.Layers[1].SliceZ, 1e-12)

	for i := 1; i < s.Len(); i++ {
		require.Greater(t, s.Layers[i].PrintZ, s.Layers[i-1].PrintZ)
		require.Greater(t, s.Layers[i].SliceZ, s.Layers[i-1].SliceZ)
	}
}

func TestStack_Neighbors(t *testing.T) {
	s := NewStack(0.2, 0.2, 3)

	require.Nil(t, s.Lower(0))
	require.Same(t, s.Layers[0], s.Lower(1))
	require.Same(t, s.Layers[2], s.Upper(1))
	require.Nil(t, s.Upper(2))
}

func TestStack_TrimTop(t *testing.T) {
	s := NewStack(0.2, 0.2, 5)
	square := geom.ExPolygons{{Contour: geom.Polygon{Points: geom.Points{
		geom.PtMM(0, 0), geom.PtMM(10, 0), geom.PtMM(10, 10), geom.PtMM(0, 10),
	}}}}
	s.Layers[0].LSlices = square
	s.Layers[1].LSlices = square

	require.Equal(t, 3, s.TrimTop())
	require.Equal(t, 2, s.Len())
	require.Zero(t, s.TrimTop())
}

func TestBuildShared_DedupesConfigs(t *testing.T) {
	cfg := config.DefaultRegion()
	a := mesh.NewVolume("a", mesh.ModelPart, mesh.Box(10, 10, 10))
	a.Seq = 0
	b := mesh.NewVolume("b", mesh.ModelPart, mesh.Box(10, 10, 10))
	b.Seq = 1

	sr := BuildShared([]RegionSpec{
		{Volume: a, Config: cfg},
		{Volume: b, Config: cfg},
	})
	require.Len(t, sr.Regions, 1, "identical configs share one region")
	require.Len(t, sr.Ranges, 1)
	require.Len(t, sr.Ranges[0].Regions, 2)
}

func TestBuildShared_RangedSpecSplitsZ(t *testing.T) {
	base := config.DefaultRegion()
	thick := base
	thick.Perimeters = 5

	v := mesh.NewVolume("v", mesh.ModelPart, mesh.Box(10, 10, 10))
	sr := BuildShared([]RegionSpec{
		{Volume: v, Config: base},
		{Volume: v, Config: thick, ZMin: 4, ZMax: 6},
	})
	require.Len(t, sr.Regions, 2)
	require.GreaterOrEqual(t, len(sr.Ranges), 3)

	mid := sr.RangeAt(5)
	require.NotNil(t, mid)
	low := sr.RangeAt(2)
	require.NotNil(t, low)
	require.NotEqual(t, low, mid)
}

func TestBuildShared_ModifierParent(t *testing.T) {
	part := mesh.NewVolume("part", mesh.ModelPart, mesh.Box(20, 20, 10))
	part.Seq = 0
	mod := mesh.NewVolume("mod", mesh.ParameterModifier, mesh.Box(10, 10, 10))
	mod.Seq = 1

	thick := config.DefaultRegion()
	thick.Perimeters = 4
	sr := BuildShared([]RegionSpec{
		{Volume: part, Config: config.DefaultRegion()},
		{Volume: mod, Config: thick},
	})
	require.Len(t, sr.Ranges, 1)
	rng := sr.Ranges[0]
	require.Len(t, rng.Regions, 2)
	require.Equal(t, -1, rng.Regions[0].Parent)
	require.Equal(t, 0, rng.Regions[1].Parent, "modifier is parented to the part before it")
}
