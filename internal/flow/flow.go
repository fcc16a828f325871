// Package flow models the cross-section of an extruded line: its width,
// layer height and the spacing at which adjacent lines touch without
// overlapping or leaving gaps.
package flow

import (
	"math"

	"github.com/printforge/slicer/internal/geom"
)

// A non-bridging line is modeled as a rectangle with two semicircular caps,
// so adjacent lines overlap by height*(1 - pi/4) when laid at width spacing.
const overlapFactor = 1.0 - 0.25*math.Pi

// BridgeExtraSpacing is the extra clearance between adjacent bridge lines
// in mm.
const BridgeExtraSpacing = 0.05

// Flow describes one extrusion line cross-section. Width and Height are in
// mm; a bridging flow is a free-hanging round strand whose width equals its
// diameter.
type Flow struct {
	Width          float64
	Height         float64
	NozzleDiameter float64
	Bridge         bool
}

// New returns a non-bridging flow.
func New(width, height, nozzleDiameter float64) Flow {
	return Flow{Width: width, Height: height, NozzleDiameter: nozzleDiameter}
}

// NewBridge returns a bridging flow for the given strand diameter.
func NewBridge(diameter, nozzleDiameter float64) Flow {
	return Flow{Width: diameter, Height: diameter, NozzleDiameter: nozzleDiameter, Bridge: true}
}

// WithWidth returns a copy of f with the width replaced.
func (f Flow) WithWidth(width float64) Flow {
	f.Width = width
	return f
}

// WithHeight returns a copy of f with the height replaced.
func (f Flow) WithHeight(height float64) Flow {
	f.Height = height
	return f
}

// WithSpacing returns a copy of f whose width is adjusted so that Spacing()
// equals the requested value.
func (f Flow) WithSpacing(spacing float64) Flow {
	if f.Bridge {
		f.Width = spacing - BridgeExtraSpacing
	} else {
		f.Width = spacing + f.Height*overlapFactor
	}
	return f
}

// Spacing returns the center-to-center distance in mm at which two adjacent
// lines of this flow just touch.
func (f Flow) Spacing() float64 {
	if f.Bridge {
		return f.Width + BridgeExtraSpacing
	}
	return f.Width - f.Height*overlapFactor
}

// SpacingTo returns the spacing between a line of this flow and one of
// other, the average of the two spacings.
func (f Flow) SpacingTo(other Flow) float64 {
	return 0.5 * (f.Spacing() + other.Spacing())
}

// CrossSection returns the cross-sectional area in mm².
func (f Flow) CrossSection() float64 {
	if f.Bridge {
		r := 0.5 * f.Width
		return math.Pi * r * r
	}
	// Rectangle with semicircular caps.
	return f.Height * (f.Width - f.Height*overlapFactor)
}

// MM3PerMM returns the filament volume per mm of path, which for a constant
// cross-section equals the cross-sectional area.
func (f Flow) MM3PerMM() float64 { return f.CrossSection() }

// ScaledWidth returns the line width in scaled units.
func (f Flow) ScaledWidth() geom.Coord {
	return geom.Coord(math.Round(f.Width / geom.ScalingFactor))
}

// ScaledSpacing returns the line spacing in scaled units.
func (f Flow) ScaledSpacing() geom.Coord {
	return geom.Coord(math.Round(f.Spacing() / geom.ScalingFactor))
}
