package flow

import (
	"math"
	"testing"
)

// =============================================================================
// Spacing Tests
// =============================================================================

func TestFlow_Spacing(t *testing.T) {
	f := New(0.45, 0.2, 0.4)

	want := 0.45 - 0.2*(1.0-0.25*math.Pi)
	if got := f.Spacing(); math.Abs(got-want) > 1e-12 {
		t.Errorf("Spacing() = %v, want %v", got, want)
	}
}

func TestFlow_SpacingBridge(t *testing.T) {
	f := NewBridge(0.4, 0.4)

	if got := f.Spacing(); math.Abs(got-0.45) > 1e-12 {
		t.Errorf("bridge Spacing() = %v, want 0.45", got)
	}
}

func TestFlow_WithSpacingRoundTrip(t *testing.T) {
	f := New(0.45, 0.2, 0.4)
	g := f.WithSpacing(0.40)

	if got := g.Spacing(); math.Abs(got-0.40) > 1e-12 {
		t.Errorf("Spacing() after WithSpacing(0.40) = %v", got)
	}
	if g.Height != f.Height {
		t.Errorf("WithSpacing changed height: %v", g.Height)
	}
}

func TestFlow_SpacingTo(t *testing.T) {
	a := New(0.45, 0.2, 0.4)
	b := New(0.65, 0.2, 0.4)

	want := 0.5 * (a.Spacing() + b.Spacing())
	if got := a.SpacingTo(b); math.Abs(got-want) > 1e-12 {
		t.Errorf("SpacingTo() = %v, want %v", got, want)
	}
}

// =============================================================================
// Volume Tests
// =============================================================================

func TestFlow_MM3PerMM(t *testing.T) {
	f := New(0.45, 0.2, 0.4)

	want := 0.2 * (0.45 - 0.2*(1.0-0.25*math.Pi))
	if got := f.MM3PerMM(); math.Abs(got-want) > 1e-12 {
		t.Errorf("MM3PerMM() = %v, want %v", got, want)
	}
}

func TestFlow_MM3PerMMBridge(t *testing.T) {
	f := NewBridge(0.4, 0.4)

	want := math.Pi * 0.2 * 0.2
	if got := f.MM3PerMM(); math.Abs(got-want) > 1e-12 {
		t.Errorf("bridge MM3PerMM() = %v, want %v", got, want)
	}
}

func TestFlow_ScaledWidth(t *testing.T) {
	f := New(0.45, 0.2, 0.4)

	if got := f.ScaledWidth(); got != 450000 {
		t.Errorf("ScaledWidth() = %d, want 450000", got)
	}
}
