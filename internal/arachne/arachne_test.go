package arachne

import (
	"math"
	"testing"

	"github.com/printforge/slicer/internal/geom"
)

func squareIsland(side float64) geom.ExPolygons {
	return geom.ExPolygons{{Contour: geom.Polygon{Points: geom.Points{
		geom.PtMM(0, 0), geom.PtMM(side, 0), geom.PtMM(side, side), geom.PtMM(0, side),
	}}}}
}

func testParams(walls int) Params {
	w := 0.45 / geom.ScalingFactor
	s := 0.40 / geom.ScalingFactor
	return Params{
		ExtWidth: w, ExtSpacing: s,
		IntWidth: w, IntSpacing: s,
		WallCount:        walls,
		MinFeatureSize:   0.1 / geom.ScalingFactor,
		MinBeadWidth:     0.34 / geom.ScalingFactor,
		TransitionLength: 0.4 / geom.ScalingFactor,
	}
}

func TestGenerate_SquareWallCount(t *testing.T) {
	res := Generate(squareIsland(20), testParams(3))

	var rings int
	byInset := map[int]int{}
	for i := range res.Walls {
		if res.Walls[i].Closed {
			rings++
			byInset[res.Walls[i].Inset]++
		}
	}
	if rings != 3 {
		t.Fatalf("got %d closed walls, want 3", rings)
	}
	for inset := 0; inset < 3; inset++ {
		if byInset[inset] != 1 {
			t.Errorf("inset %d: %d walls, want 1", inset, byInset[inset])
		}
	}
	if len(res.InnerContour) != 1 {
		t.Fatalf("got %d inner contours, want 1", len(res.InnerContour))
	}

	// Inner contour: 20 mm square shrunk by extW/2 + (extS+intS)/2 + intS + intS/2.
	wantSide := 20.0 - 2*(0.225+0.40+0.40+0.20)
	gotArea := res.InnerContour.Area() * geom.ScalingFactor * geom.ScalingFactor
	if math.Abs(gotArea-wantSide*wantSide) > 0.5 {
		t.Errorf("inner contour area = %.2f mm², want %.2f", gotArea, wantSide*wantSide)
	}
}

func TestGenerate_ZeroWalls(t *testing.T) {
	surface := squareIsland(10)
	res := Generate(surface, testParams(0))
	if len(res.Walls) != 0 {
		t.Errorf("got %d walls, want 0", len(res.Walls))
	}
	if len(res.InnerContour) != 1 {
		t.Errorf("surface must pass through untouched")
	}
}

func TestGenerate_ThinStripCollapses(t *testing.T) {
	// 0.6 mm wide strip: too narrow for two 0.45 beads, collapses onto a
	// single variable-width centerline.
	strip := geom.ExPolygons{{Contour: geom.Polygon{Points: geom.Points{
		geom.PtMM(0, 0), geom.PtMM(15, 0), geom.PtMM(15, 0.6), geom.PtMM(0, 0.6),
	}}}}
	res := Generate(strip, testParams(2))

	open := 0
	for i := range res.Walls {
		if !res.Walls[i].Closed {
			open++
			for _, j := range res.Walls[i].Junctions {
				w := geom.Unscale(j.Width)
				if w < 0.33 || w > 0.46 {
					t.Errorf("bead width %.3f mm outside [MinBeadWidth, IntWidth]", w)
				}
			}
		}
	}
	if open == 0 {
		t.Fatal("thin strip produced no collapsed beads")
	}
	if len(res.InnerContour) != 0 {
		t.Errorf("thin strip should leave no infill area")
	}
}

func TestOrder(t *testing.T) {
	walls := []ExtrusionLine{{Inset: 0}, {Inset: 1}, {Inset: 2}}

	deepFirst := Order(walls, false)
	if walls[deepFirst[0]].Inset != 2 || walls[deepFirst[2]].Inset != 0 {
		t.Errorf("default order should print deepest inset first: %v", deepFirst)
	}

	extFirst := Order(walls, true)
	if walls[extFirst[0]].Inset != 0 {
		t.Errorf("externalFirst should print inset 0 first: %v", extFirst)
	}
}

func TestSmoothTransitions(t *testing.T) {
	line := ExtrusionLine{Junctions: []Junction{
		{P: geom.Pt(0, 0), Width: geom.Coord(0.34 / geom.ScalingFactor)},
		{P: geom.Pt(geom.Coord(0.01/geom.ScalingFactor), 0), Width: geom.Coord(0.45 / geom.ScalingFactor)},
	}}
	maxW := 0.45 / geom.ScalingFactor
	smoothTransitions(&line, 0.4/geom.ScalingFactor, maxW)

	// Over 0.01 mm of travel the width may rise by at most maxW/0.4*0.01.
	limit := 0.34/geom.ScalingFactor + maxW/(0.4/geom.ScalingFactor)*(0.01/geom.ScalingFactor)
	if float64(line.Junctions[1].Width) > limit+1 {
		t.Errorf("width transition too fast: %v > %v", line.Junctions[1].Width, limit)
	}
}
