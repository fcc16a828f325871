package medial

import (
	"math"
	"testing"

	"github.com/printforge/slicer/internal/geom"
)

func rect(x0, y0, x1, y1 float64) geom.ExPolygon {
	return geom.ExPolygon{Contour: geom.Polygon{Points: geom.Points{
		geom.PtMM(x0, y0), geom.PtMM(x1, y0), geom.PtMM(x1, y1), geom.PtMM(x0, y1),
	}}}
}

func TestAxis_NarrowSlot(t *testing.T) {
	// 10 mm × 0.3 mm slot: centerline along X at y=0.15, width 0.3.
	slot := rect(0, 0, 10, 0.3)
	maxW := 0.5 / geom.ScalingFactor
	minW := 0.05 / geom.ScalingFactor

	lines := Axis(slot, maxW, minW)
	if len(lines) != 1 {
		t.Fatalf("got %d centerlines, want 1", len(lines))
	}
	tp := lines[0]
	if !tp.IsValid() {
		t.Fatal("invalid thick polyline")
	}
	for i, p := range tp.Points {
		if y := geom.Unscale(p.Y); math.Abs(y-0.15) > 0.01 {
			t.Errorf("point %d: y = %.4f mm, want 0.15", i, y)
		}
		if w := geom.Unscale(tp.Widths[i]); math.Abs(w-0.3) > 0.01 {
			t.Errorf("point %d: width = %.4f mm, want 0.3", i, w)
		}
	}
	if l := tp.Length() * geom.ScalingFactor; l < 9 {
		t.Errorf("centerline length = %.2f mm, want most of 10", l)
	}
}

func TestAxis_VerticalSlot(t *testing.T) {
	slot := rect(0, 0, 0.3, 8)
	maxW := 0.5 / geom.ScalingFactor
	minW := 0.05 / geom.ScalingFactor

	lines := Axis(slot, maxW, minW)
	if len(lines) != 1 {
		t.Fatalf("got %d centerlines, want 1", len(lines))
	}
	for i, p := range lines[0].Points {
		if x := geom.Unscale(p.X); math.Abs(x-0.15) > 0.01 {
			t.Errorf("point %d: x = %.4f mm, want 0.15", i, x)
		}
	}
}

func TestAxis_WideAreaIgnored(t *testing.T) {
	// 10×10 square is far wider than maxWidth everywhere.
	sq := rect(0, 0, 10, 10)
	lines := Axis(sq, 0.5/geom.ScalingFactor, 0.05/geom.ScalingFactor)
	if len(lines) != 0 {
		t.Errorf("got %d centerlines for a wide area, want 0", len(lines))
	}
}

func TestAxis_ShortFragmentDropped(t *testing.T) {
	// Slot shorter than maxWidth is extraction noise.
	slot := rect(0, 0, 0.3, 0.2)
	lines := Axis(slot, 0.5/geom.ScalingFactor, 0.05/geom.ScalingFactor)
	if len(lines) != 0 {
		t.Errorf("got %d centerlines, want 0", len(lines))
	}
}
