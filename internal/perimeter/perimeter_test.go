package perimeter

import (
	"math"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/printforge/slicer/internal/config"
	"github.com/printforge/slicer/internal/extrusion"
	"github.com/printforge/slicer/internal/geom"
)

func square(side float64) geom.ExPolygons {
	h := side / 2
	return geom.ExPolygons{{Contour: geom.Polygon{Points: geom.Points{
		geom.PtMM(-h, -h), geom.PtMM(h, -h), geom.PtMM(h, h), geom.PtMM(-h, h),
	}}}}
}

func strip(x0, y0, x1, y1 float64) geom.ExPolygons {
	return geom.ExPolygons{{Contour: geom.Polygon{Points: geom.Points{
		geom.PtMM(x0, y0), geom.PtMM(x1, y0), geom.PtMM(x1, y1), geom.PtMM(x0, y1),
	}}}}
}

func newTestGenerator(t *testing.T, engine config.PerimeterEngine, perimeters int) *Generator {
	t.Helper()
	cfg := config.DefaultRegion()
	cfg.PerimeterEngine = engine
	cfg.Perimeters = perimeters
	print := config.DefaultPrint()
	object := config.DefaultObject()
	return DefaultGenerator(&cfg, &print, &object, 1, object.LayerHeight)
}

func mmArea(scaled float64) float64 {
	return scaled * geom.ScalingFactor * geom.ScalingFactor
}

// collectLoops flattens the result into closed loops only.
func collectLoops(t *testing.T, c extrusion.Collection) []*extrusion.Loop {
	t.Helper()
	var out []*extrusion.Loop
	for _, e := range c.Flatten() {
		if l, ok := e.(*extrusion.Loop); ok {
			out = append(out, l)
		}
	}
	return out
}

func TestClassic_NestedSquareLoops(t *testing.T) {
	g := newTestGenerator(t, config.EngineClassic, 3)
	res := g.Process(square(20))

	loops := collectLoops(t, res.Loops)
	require.Len(t, loops, 3)

	external, internal := 0, 0
	areas := make([]float64, 0, 3)
	for _, l := range loops {
		switch l.Kind {
		case extrusion.LoopExternal:
			external++
			require.Equal(t, extrusion.RoleExternalPerimeter, l.Paths[0].Role)
		case extrusion.LoopContourInternal:
			internal++
		}
		areas = append(areas, math.Abs(mmArea(l.Polygon().Area())))
	}
	require.Equal(t, 1, external, "exactly one external loop")
	require.Equal(t, 1, internal, "exactly one innermost contour loop")

	// Strict nesting: all three centerline areas differ.
	sort.Float64s(areas)
	for i := 1; i < len(areas); i++ {
		require.Greater(t, areas[i], areas[i-1]+0.5)
	}

	// External centerline sits half an external width inside the boundary.
	extW := g.ExtPerimeterFlow.Width
	wantSide := 20 - extW
	var largest float64
	for _, a := range areas {
		if a > largest {
			largest = a
		}
	}
	require.InDelta(t, wantSide*wantSide, largest, 0.2)

	require.NotEmpty(t, res.Infill)
}

func TestClassic_ExternalFirstOrdering(t *testing.T) {
	g := newTestGenerator(t, config.EngineClassic, 3)
	g.Config.ExternalPerimetersFirst = true
	res := g.Process(square(20))

	loops := collectLoops(t, res.Loops)
	require.NotEmpty(t, loops)
	require.Equal(t, extrusion.LoopExternal, loops[0].Kind)
}

func TestDefaultGenerator_BrimReversesFirstLayer(t *testing.T) {
	cfg := config.DefaultRegion()
	cfg.PerimeterEngine = config.EngineClassic
	cfg.Perimeters = 3
	print := config.DefaultPrint()
	print.BrimWidth = 4
	object := config.DefaultObject()

	g := DefaultGenerator(&cfg, &print, &object, 0, object.FirstLayerHeight)
	require.True(t, g.FirstLayerBrim)
	loops := collectLoops(t, g.Process(square(20)).Loops)
	require.NotEmpty(t, loops)
	require.Equal(t, extrusion.LoopExternal, loops[0].Kind,
		"first layer continues inward from the brim")

	g = DefaultGenerator(&cfg, &print, &object, 1, object.LayerHeight)
	loops = collectLoops(t, g.Process(square(20)).Loops)
	require.NotEmpty(t, loops)
	require.NotEqual(t, extrusion.LoopExternal, loops[0].Kind,
		"later layers print inside out again")
}

func TestClassic_GapFillNarrowSlot(t *testing.T) {
	// A 10 × 1.0 mm strip fits one wall pair; the 0.1 mm core between the
	// walls is a gap, not infill.
	g := newTestGenerator(t, config.EngineClassic, 1)
	res := g.Process(strip(0, 0, 10, 1.0))

	require.False(t, res.GapFill.IsEmpty(), "core must become gap fill")
	require.Empty(t, res.Infill, "no room for regular infill")

	for _, e := range res.GapFill.Flatten() {
		mp, ok := e.(*extrusion.MultiPath)
		require.True(t, ok)
		for _, p := range mp.Paths {
			require.Equal(t, extrusion.RoleGapFill, p.Role)
		}
	}
}

func TestClassic_OverhangSplit(t *testing.T) {
	g := newTestGenerator(t, config.EngineClassic, 1)
	// Lower layer covers only the left half; the right half of the wall
	// prints over air.
	g.LowerSlices = strip(-10, -10, 0, 10)
	res := g.Process(square(20))

	loops := collectLoops(t, res.Loops)
	require.Len(t, loops, 1)

	var overhang, supported int
	for _, p := range loops[0].Paths {
		if p.Role == extrusion.RoleOverhangPerimeter {
			overhang++
		} else {
			supported++
		}
	}
	require.Positive(t, overhang, "right half must be flagged overhang")
	require.Positive(t, supported, "left half must keep the normal role")
}

func TestArachne_NestedSquareLoops(t *testing.T) {
	g := newTestGenerator(t, config.EngineArachne, 3)
	res := g.Process(square(20))

	loops := collectLoops(t, res.Loops)
	require.Len(t, loops, 3)

	internal := 0
	for _, l := range loops {
		if l.Kind == extrusion.LoopContourInternal {
			internal++
		}
	}
	require.Equal(t, 1, internal)
	require.NotEmpty(t, res.Infill)
}

func TestArachne_ThinStripCollapses(t *testing.T) {
	// 0.3 mm strip is too narrow for a ring; it collapses to one
	// variable-width bead on the centerline.
	g := newTestGenerator(t, config.EngineArachne, 2)
	res := g.Process(strip(0, 0, 10, 0.3))

	require.False(t, res.Loops.IsEmpty())
	for _, e := range res.Loops.Flatten() {
		_, isLoop := e.(*extrusion.Loop)
		require.False(t, isLoop, "no closed ring fits a 0.3 mm strip")
	}
	require.Empty(t, res.Infill)
}

func TestEngines_AgreeOnInfillBoundary(t *testing.T) {
	surface := square(20)

	classic := newTestGenerator(t, config.EngineClassic, 2)
	arachneGen := newTestGenerator(t, config.EngineArachne, 2)

	ci := classic.Process(surface).Infill
	ai := arachneGen.Process(surface).Infill

	require.NotEmpty(t, ci)
	require.NotEmpty(t, ai)
	require.InDelta(t, mmArea(ci.Area()), mmArea(ai.Area()), 0.1,
		"both engines must hand infill the same residual area")
}

func TestThickPolylineToMultiPath_SplitsOnWidthJump(t *testing.T) {
	g := newTestGenerator(t, config.EngineClassic, 1)
	w := float64(g.PerimeterFlow.ScaledWidth())

	tp := geom.ThickPolyline{
		Points: geom.Points{
			geom.PtMM(0, 0), geom.PtMM(2, 0), geom.PtMM(4, 0), geom.PtMM(6, 0),
		},
		Widths: []geom.Coord{
			geom.Coord(w), geom.Coord(w), geom.Coord(w), geom.Coord(2 * w),
		},
	}
	mp := g.thickPolylineToMultiPath(tp, extrusion.RoleGapFill, w/4, w/10)
	require.NotNil(t, mp)
	require.Len(t, mp.Paths, 2, "width doubling must start a new path")
	require.Greater(t, mp.Paths[1].Width, mp.Paths[0].Width)
}
