package mesh

import (
	"math"
	"testing"

	"github.com/printforge/slicer/internal/cancel"
	"github.com/printforge/slicer/internal/geom"
)

func layerZs(height float64, n int) []float64 {
	zs := make([]float64, n)
	for i := range zs {
		zs[i] = height * (float64(i) + 0.5)
	}
	return zs
}

func TestSliceVolume_Cube(t *testing.T) {
	v := NewVolume("cube", ModelPart, Box(20, 20, 20))
	zs := layerZs(0.2, 100)

	slices, err := SliceVolume(v, zs, DefaultSliceParams(), nil, nil)
	if err != nil {
		t.Fatalf("SliceVolume: %v", err)
	}
	if len(slices) != 100 {
		t.Fatalf("got %d slices, want 100", len(slices))
	}

	wantArea := 400.0 // mm²
	for i, exs := range slices {
		if len(exs) != 1 {
			t.Fatalf("layer %d: got %d expolygons, want 1", i, len(exs))
		}
		area := exs.Area() * geom.ScalingFactor * geom.ScalingFactor
		if math.Abs(area-wantArea) > 0.1 {
			t.Errorf("layer %d: area = %.3f mm², want %.3f", i, area, wantArea)
		}
		if len(exs[0].Holes) != 0 {
			t.Errorf("layer %d: unexpected holes", i)
		}
		if !exs[0].Contour.IsCounterClockwise() {
			t.Errorf("layer %d: contour not CCW", i)
		}
	}
}

func TestSliceVolume_OutsideExtent(t *testing.T) {
	v := NewVolume("cube", ModelPart, Box(10, 10, 5))
	zs := []float64{1, 4.9, 5.1, 20}

	slices, err := SliceVolume(v, zs, DefaultSliceParams(), nil, nil)
	if err != nil {
		t.Fatalf("SliceVolume: %v", err)
	}
	if len(slices[0]) == 0 || len(slices[1]) == 0 {
		t.Errorf("expected non-empty slices inside the volume")
	}
	if len(slices[2]) != 0 || len(slices[3]) != 0 {
		t.Errorf("expected empty slices above the volume")
	}
}

func TestSliceVolume_Idempotent(t *testing.T) {
	v := NewVolume("cube", ModelPart, Box(7, 3, 4))
	zs := layerZs(0.25, 16)

	a, err := SliceVolume(v, zs, DefaultSliceParams(), nil, nil)
	if err != nil {
		t.Fatalf("first slice: %v", err)
	}
	b, err := SliceVolume(v, zs, DefaultSliceParams(), nil, nil)
	if err != nil {
		t.Fatalf("second slice: %v", err)
	}
	for i := range a {
		if len(a[i]) != len(b[i]) {
			t.Fatalf("layer %d: slice counts differ between runs", i)
		}
		for j := range a[i] {
			pa, pb := a[i][j].Contour.Points, b[i][j].Contour.Points
			if len(pa) != len(pb) {
				t.Fatalf("layer %d: contours differ between runs", i)
			}
			for k := range pa {
				if pa[k] != pb[k] {
					t.Fatalf("layer %d: point %d differs between runs", i, k)
				}
			}
		}
	}
}

func TestSliceVolume_Canceled(t *testing.T) {
	v := NewVolume("cube", ModelPart, Box(20, 20, 20))
	tok := cancel.New()
	tok.Cancel()

	_, err := SliceVolume(v, layerZs(0.2, 10), DefaultSliceParams(), nil, tok)
	if err != cancel.Canceled {
		t.Fatalf("err = %v, want cancel.Canceled", err)
	}
}

func TestSliceVolume_ExtraOffset(t *testing.T) {
	v := NewVolume("cube", ModelPart, Box(10, 10, 10))
	params := DefaultSliceParams()
	params.ExtraOffset = 0.5

	slices, err := SliceVolume(v, []float64{5}, params, nil, nil)
	if err != nil {
		t.Fatalf("SliceVolume: %v", err)
	}
	area := slices[0].Area() * geom.ScalingFactor * geom.ScalingFactor
	// 11×11 square with slightly clipped miter corners.
	if area < 115 || area > 122 {
		t.Errorf("compensated area = %.2f mm², want ≈ 121", area)
	}
}

func TestSliceVolume_LargestContourOnly(t *testing.T) {
	// Two disjoint boxes side by side; largest-contour mode keeps one.
	big := Box(10, 10, 10)
	small := NewVolume("small", ModelPart, Box(3, 3, 10))
	small.Transform = Translate(20, 0, 0)
	merged := big.Clone()
	base := len(merged.Vertices)
	for _, p := range small.Mesh.Vertices {
		merged.Vertices = append(merged.Vertices, small.Transform.Apply(p))
	}
	for _, tri := range small.Mesh.Triangles {
		merged.Triangles = append(merged.Triangles, [3]int{tri[0] + base, tri[1] + base, tri[2] + base})
	}
	v := NewVolume("pair", ModelPart, merged)

	params := DefaultSliceParams()
	params.ForceLargestAbove = 0
	slices, err := SliceVolume(v, []float64{5}, params, nil, nil)
	if err != nil {
		t.Fatalf("SliceVolume: %v", err)
	}
	if len(slices[0]) != 1 {
		t.Fatalf("got %d expolygons, want 1", len(slices[0]))
	}
	area := slices[0].Area() * geom.ScalingFactor * geom.ScalingFactor
	if math.Abs(area-100) > 0.1 {
		t.Errorf("kept area = %.2f mm², want 100", area)
	}
}
