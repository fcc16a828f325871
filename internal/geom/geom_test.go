package geom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScaleRoundTrip(t *testing.T) {
	for _, tt := range []struct {
		mm   float64
		want Coord
	}{
		{0, 0},
		{1, 1000000},
		{-1, -1000000},
		{0.0000005, 1},
		{-0.0000005, -1},
		{12.345678, 12345678},
	} {
		got := Scale(tt.mm)
		require.Equal(t, tt.want, got, "Scale(%v)", tt.mm)
		require.InDelta(t, tt.mm, Unscale(got), ScalingFactor, "Unscale(Scale(%v))", tt.mm)
	}
}

func TestPolygonAreaOrientation(t *testing.T) {
	ccw := Polygon{Points: Points{PtMM(0, 0), PtMM(10, 0), PtMM(10, 10), PtMM(0, 10)}}
	cw := ccw.Clone()
	cw.Reverse()

	require.True(t, ccw.IsCounterClockwise())
	require.True(t, cw.IsClockwise())
	require.InDelta(t, 100, ccw.Area()*ScalingFactor*ScalingFactor, 1e-6)
	require.InDelta(t, -100, cw.Area()*ScalingFactor*ScalingFactor, 1e-6)

	degenerate := Polygon{Points: Points{PtMM(0, 0), PtMM(1, 1)}}
	require.Zero(t, degenerate.Area())
}

func TestPolygonContains(t *testing.T) {
	p := Polygon{Points: Points{PtMM(0, 0), PtMM(10, 0), PtMM(10, 10), PtMM(0, 10)}}
	for _, tt := range []struct {
		name string
		pt   Point
		want bool
	}{
		{"center", PtMM(5, 5), true},
		{"near edge inside", PtMM(9.99, 5), true},
		{"outside right", PtMM(10.01, 5), false},
		{"outside below", PtMM(5, -0.01), false},
		{"far away", PtMM(100, 100), false},
	} {
		require.Equal(t, tt.want, p.Contains(tt.pt), tt.name)
	}
}

func TestPolygonSplitAtNearest(t *testing.T) {
	p := Polygon{Points: Points{PtMM(0, 0), PtMM(10, 0), PtMM(10, 10), PtMM(0, 10)}}
	pl := p.SplitAtNearest(PtMM(11, 11))

	require.Len(t, pl.Points, 5, "open ring repeats the split vertex")
	require.Equal(t, PtMM(10, 10), pl.Points[0])
	require.Equal(t, pl.Points[0], pl.Points[len(pl.Points)-1])
	require.InDelta(t, p.Length(), pl.Length(), 1)
}

func TestConvexHull(t *testing.T) {
	for _, tt := range []struct {
		name     string
		in       Polygons
		wantPts  int
		wantArea float64 // mm²
	}{
		{
			name: "square with interior points",
			in: Polygons{{Points: Points{
				PtMM(0, 0), PtMM(10, 0), PtMM(10, 10), PtMM(0, 10),
				PtMM(5, 5), PtMM(3, 7),
			}}},
			wantPts:  4,
			wantArea: 100,
		},
		{
			name: "two separated squares",
			in: Polygons{
				{Points: Points{PtMM(0, 0), PtMM(10, 0), PtMM(10, 10), PtMM(0, 10)}},
				{Points: Points{PtMM(20, 0), PtMM(30, 0), PtMM(30, 10), PtMM(20, 10)}},
			},
			wantPts:  4,
			wantArea: 300,
		},
		{
			name: "collinear midpoints dropped",
			in: Polygons{{Points: Points{
				PtMM(0, 0), PtMM(5, 0), PtMM(10, 0), PtMM(10, 10), PtMM(0, 10),
			}}},
			wantPts:  4,
			wantArea: 100,
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			hull := ConvexHull(tt.in)
			require.Len(t, hull.Points, tt.wantPts)
			require.True(t, hull.IsCounterClockwise())
			require.InDelta(t, tt.wantArea, hull.Area()*ScalingFactor*ScalingFactor, 1e-3)

			// Every input vertex lies inside or on the hull.
			bb := hull.BoundingBox()
			for _, p := range tt.in {
				for _, pt := range p.Points {
					require.True(t, bb.Contains(pt))
				}
			}
		})
	}

	require.Len(t, ConvexHull(Polygons{{Points: Points{PtMM(0, 0), PtMM(1, 1)}}}).Points, 2,
		"fewer than three points pass through untouched")
}

func TestSimplifyOpen(t *testing.T) {
	tol := Scale(0.05)

	// A straight run with sub-tolerance wobble collapses to its endpoints.
	var wobbly Points
	for i := 0; i <= 100; i++ {
		y := 0.0
		if i%2 == 1 {
			y = 0.01
		}
		wobbly = append(wobbly, PtMM(float64(i)*0.1, y))
	}
	got := SimplifyOpen(wobbly, float64(tol))
	require.Len(t, got, 2)
	require.Equal(t, wobbly[0], got[0])
	require.Equal(t, wobbly[len(wobbly)-1], got[1])

	// A genuine corner survives.
	corner := Points{PtMM(0, 0), PtMM(5, 0), PtMM(5, 5)}
	require.Equal(t, corner, SimplifyOpen(corner, float64(tol)))
}

func TestSimplifyClosed(t *testing.T) {
	// A dense circle of radius 5 keeps its shape within tolerance.
	var circle Points
	for i := 0; i < 360; i++ {
		a := float64(i) * math.Pi / 180
		circle = append(circle, PtMM(5*math.Cos(a), 5*math.Sin(a)))
	}
	in := Polygon{Points: circle}
	out := Polygon{Points: SimplifyClosed(circle, float64(Scale(0.01)))}

	require.Less(t, len(out.Points), len(in.Points))
	require.GreaterOrEqual(t, len(out.Points), 3)
	require.InDelta(t, in.Area(), out.Area(), 0.01*in.Area())
}

func TestBoundingBox(t *testing.T) {
	bb := NewBoundingBox(Points{PtMM(1, 2), PtMM(-3, 4), PtMM(5, -6)})
	require.True(t, bb.Defined)
	require.Equal(t, PtMM(-3, -6), bb.Min)
	require.Equal(t, PtMM(5, 4), bb.Max)

	require.True(t, bb.Contains(PtMM(0, 0)))
	require.False(t, bb.Contains(PtMM(6, 0)))

	grown := bb.Inflated(Scale(1))
	require.True(t, grown.Contains(PtMM(5.5, 4.5)))

	other := NewBoundingBox(Points{PtMM(10, 10), PtMM(20, 20)})
	require.False(t, bb.Overlaps(other))
	require.True(t, grown.Overlaps(bb))

	var undefined BoundingBox
	require.False(t, undefined.Overlaps(bb))
	require.False(t, undefined.Contains(PtMM(0, 0)))
}
