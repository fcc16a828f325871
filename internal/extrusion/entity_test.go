package extrusion

import (
	"math"
	"testing"

	"github.com/printforge/slicer/internal/geom"
)

func squareLoop(side geom.Coord, role Role) *Loop {
	pts := geom.Points{
		{X: 0, Y: 0}, {X: side, Y: 0}, {X: side, Y: side}, {X: 0, Y: side}, {X: 0, Y: 0},
	}
	return &Loop{Paths: []Path{{
		Polyline: geom.Polyline{Points: pts},
		Role:     role,
		MM3PerMM: 0.05, Width: 0.45, Height: 0.2,
	}}}
}

func TestLoop_Polygon(t *testing.T) {
	l := squareLoop(1000, RolePerimeter)
	p := l.Polygon()
	if len(p.Points) != 4 {
		t.Fatalf("polygon has %d points, want 4", len(p.Points))
	}
	if !p.IsCounterClockwise() {
		t.Errorf("square loop should be CCW")
	}
	if got := l.Length(); math.Abs(got-4000) > 1e-9 {
		t.Errorf("Length() = %v, want 4000", got)
	}
}

func TestLoop_SplitAtVertex(t *testing.T) {
	l := squareLoop(1000, RolePerimeter)
	if !l.SplitAtVertex(geom.Pt(1000, 1000)) {
		t.Fatal("vertex not found")
	}
	if got := l.FirstPoint(); got != geom.Pt(1000, 1000) {
		t.Errorf("FirstPoint() = %v after split", got)
	}
	if got := l.Length(); math.Abs(got-4000) > 1e-9 {
		t.Errorf("Length() changed by split: %v", got)
	}
	if got := l.LastPoint(); got != geom.Pt(1000, 1000) {
		t.Errorf("loop no longer closed: last = %v", got)
	}
}

func TestLoop_SplitAtMissingVertex(t *testing.T) {
	l := squareLoop(1000, RolePerimeter)
	if l.SplitAtVertex(geom.Pt(17, 17)) {
		t.Error("SplitAtVertex reported success for a point off the loop")
	}
}

func TestLoop_ClipEnd(t *testing.T) {
	l := squareLoop(1000, RolePerimeter)
	paths := l.ClipEnd(500)
	var total float64
	for i := range paths {
		total += paths[i].Length()
	}
	if math.Abs(total-3500) > 1e-6 {
		t.Errorf("clipped length = %v, want 3500", total)
	}
	last := paths[len(paths)-1].Polyline.LastPoint()
	if last != geom.Pt(0, 500) {
		t.Errorf("clip endpoint = %v, want (0,500)", last)
	}
}

func TestCollection_ChainMinimizesTravel(t *testing.T) {
	far := &Path{Polyline: geom.Polyline{Points: geom.Points{{X: 9000, Y: 0}, {X: 9900, Y: 0}}}, Role: RoleGapFill}
	near := &Path{Polyline: geom.Polyline{Points: geom.Points{{X: 2000, Y: 0}, {X: 1000, Y: 0}}}, Role: RoleGapFill}

	c := &Collection{}
	c.Append(far)
	c.Append(near)
	c.Chain(geom.Pt(0, 0))

	if c.Entities[0] != near {
		t.Fatal("chain did not pick the nearest entity first")
	}
	// near's closest endpoint to origin is (1000,0), so it gets reversed.
	if got := near.FirstPoint(); got != geom.Pt(1000, 0) {
		t.Errorf("nearest path not reversed: first = %v", got)
	}
}

func TestCollection_NoSortPreserved(t *testing.T) {
	a := &Path{Polyline: geom.Polyline{Points: geom.Points{{X: 5000, Y: 0}, {X: 6000, Y: 0}}}}
	b := &Path{Polyline: geom.Polyline{Points: geom.Points{{X: 100, Y: 0}, {X: 200, Y: 0}}}}
	c := &Collection{NoSort: true}
	c.Append(a)
	c.Append(b)
	c.Chain(geom.Pt(0, 0))
	if c.Entities[0] != a || c.Entities[1] != b {
		t.Error("NoSort collection was reordered")
	}
}
