// Package perimeter generates wall toolpaths for one island of one layer
// region: nested fixed-width loops (classic engine) or variable-width
// walls (arachne engine), plus thin-wall and gap-fill paths, overhang
// splitting against the layer below, and the residual infill boundary.
package perimeter

import (
	"math"

	"github.com/printforge/slicer/internal/clip"
	"github.com/printforge/slicer/internal/config"
	"github.com/printforge/slicer/internal/extrusion"
	"github.com/printforge/slicer/internal/flow"
	"github.com/printforge/slicer/internal/geom"
)

// Empirically tuned thresholds inherited from long-standing slicer
// behavior. They are deliberately named and overridable rather than
// re-derived.
var (
	// OverhangAreaFraction is the largest unsupported share of an overhang
	// island that still gets extra supporting perimeter rings.
	OverhangAreaFraction = 0.2

	// OverhangSpanFraction is the largest unsupported span, relative to
	// the island's perimeter, that still gets extra rings.
	OverhangSpanFraction = 0.2

	// InsetOverlapTolerance is the fraction of perimeter overlap accepted
	// before an inset gap counts as a real gap.
	InsetOverlapTolerance = 0.4
)

// Generator computes the walls of one layer region. It is a pure function
// of its fields plus the surface passed to Process; construct one per
// (layer, region) pair.
type Generator struct {
	Config *config.Region
	Print  *config.Print
	Object *config.Object

	LayerIndex  int
	LayerHeight float64

	PerimeterFlow    flow.Flow
	ExtPerimeterFlow flow.Flow
	OverhangFlow     flow.Flow
	SolidInfillFlow  flow.Flow

	// LowerSlices is the layer below's merged slice, nil on the first
	// layer. Overhang detection compares against it.
	LowerSlices geom.ExPolygons

	// UpperSlices is the layer above's merged slice, nil on the top
	// layer. The single-top-perimeter policy carves its top region from
	// what the upper layer does not cover.
	UpperSlices geom.ExPolygons

	// SpiralVase caps the wall count at one continuous external loop.
	SpiralVase bool

	// FirstLayerBrim reverses the wall order on the first layer so
	// printing continues inward from the brim.
	FirstLayerBrim bool

	// Resolution is the path simplification tolerance in mm.
	Resolution float64
}

// Result is the generator's output for one surface.
type Result struct {
	// Loops holds the perimeter loops and thin walls in print order.
	Loops extrusion.Collection

	// GapFill holds variable-width fill for slots between walls.
	GapFill extrusion.Collection

	// Infill is the residual area handed to infill generation.
	Infill geom.ExPolygons
}

// Process generates walls for the surface with the configured engine.
func (g *Generator) Process(surface geom.ExPolygons) Result {
	if g.Config.PerimeterEngine == config.EngineArachne {
		return g.processArachne(surface)
	}
	return g.processClassic(surface)
}

// loopCount returns the requested number of perimeters for this layer.
func (g *Generator) loopCount() int {
	if g.SpiralVase {
		return 1
	}
	n := g.Config.Perimeters
	if n < 0 {
		n = 0
	}
	return n
}

// insetDelta is the inward step from the previous centerline to wall i's
// centerline; shared by both engines so their residual contours agree.
func (g *Generator) insetDelta(i int) float64 {
	ext := g.ExtPerimeterFlow.Spacing() / geom.ScalingFactor
	internal := g.PerimeterFlow.Spacing() / geom.ScalingFactor
	switch i {
	case 0:
		return (g.ExtPerimeterFlow.Width / 2) / geom.ScalingFactor
	case 1:
		return (ext + internal) / 2
	default:
		return internal
	}
}

// finishInfillBoundary turns the residual contour inside the last wall
// into the final infill boundary: simplify to the configured resolution,
// drop slivers narrower than one solid infill line, then grow by the
// configured infill/perimeter overlap.
func (g *Generator) finishInfillBoundary(inner geom.ExPolygons) geom.ExPolygons {
	if len(inner) == 0 {
		return nil
	}
	res := g.Resolution
	if res <= 0 {
		res = 0.0125
	}
	inner = inner.Simplify(res / geom.ScalingFactor)

	solidSpacing := g.SolidInfillFlow.Spacing() / geom.ScalingFactor
	if solidSpacing <= 0 {
		solidSpacing = g.PerimeterFlow.Spacing() / geom.ScalingFactor
	}
	opened := clip.OpeningEx(inner.ToPolygons(), solidSpacing/2)

	overlap := g.PerimeterFlow.Spacing() * g.Config.InfillOverlapPercent / 100 / geom.ScalingFactor
	if overlap > 0 {
		opened = clip.OffsetEx(opened, overlap, clip.JoinMiter)
	}
	return opened
}

// lowerGrown returns the lower layer's footprint grown by the overhang
// tolerance: anything outside it prints over air.
func (g *Generator) lowerGrown() geom.Polygons {
	if len(g.LowerSlices) == 0 {
		return nil
	}
	tol := g.overhangTolerance()
	return clip.Offset(g.LowerSlices.ToPolygons(), tol, clip.JoinMiter)
}

// overhangTolerance is how far past the lower layer a wall centerline may
// reach before it counts as overhanging: half the overhang flow width.
func (g *Generator) overhangTolerance() float64 {
	w := g.OverhangFlow.Width
	if w <= 0 {
		w = g.PerimeterFlow.Width
	}
	return (w / 2) / geom.ScalingFactor
}

// pathFor builds an extrusion path over pts with the flow chosen by role.
func (g *Generator) pathFor(pts geom.Points, role extrusion.Role) extrusion.Path {
	f := g.flowFor(role)
	speed := 0.0
	switch role {
	case extrusion.RoleExternalPerimeter:
		speed = g.Config.ExternalPerimeterSpeed
	case extrusion.RoleOverhangPerimeter:
		speed = g.Config.OverhangSpeed
	case extrusion.RoleGapFill:
		speed = g.Config.GapFillSpeed
	default:
		speed = g.Config.PerimeterSpeed
	}
	return extrusion.Path{
		Polyline: geom.Polyline{Points: pts},
		Role:     role,
		MM3PerMM: f.MM3PerMM(),
		Width:    f.Width,
		Height:   f.Height,
		Speed:    speed,
	}
}

func (g *Generator) flowFor(role extrusion.Role) flow.Flow {
	switch role {
	case extrusion.RoleExternalPerimeter:
		return g.ExtPerimeterFlow
	case extrusion.RoleOverhangPerimeter:
		if g.OverhangFlow.Width > 0 {
			return g.OverhangFlow
		}
		return g.PerimeterFlow
	default:
		return g.PerimeterFlow
	}
}

// widthFlow derives a flow extruding a line of the given scaled width at
// the layer height.
func (g *Generator) widthFlow(width geom.Coord) flow.Flow {
	w := geom.Unscale(width)
	minW := g.PerimeterFlow.NozzleDiameter * 0.4
	if w < minW {
		w = minW
	}
	return flow.New(w, g.LayerHeight, g.PerimeterFlow.NozzleDiameter)
}

// DefaultGenerator wires a generator from config snapshots, deriving the
// wall flows from the region's widths and the nozzle diameter.
func DefaultGenerator(cfg *config.Region, print *config.Print, object *config.Object, layerIndex int, layerHeight float64) *Generator {
	nozzle := print.Nozzle(cfg.PerimeterExtruder)
	pw := cfg.PerimeterExtrusionWidth
	if pw <= 0 {
		pw = nozzle * 1.125
	}
	ew := cfg.ExternalPerimeterWidth
	if ew <= 0 {
		ew = pw
	}
	return &Generator{
		Config:           cfg,
		Print:            print,
		Object:           object,
		LayerIndex:       layerIndex,
		LayerHeight:      layerHeight,
		PerimeterFlow:    flow.New(pw, layerHeight, nozzle),
		ExtPerimeterFlow: flow.New(ew, layerHeight, nozzle),
		OverhangFlow:     flow.NewBridge(nozzle, nozzle),
		SolidInfillFlow:  flow.New(pw, layerHeight, nozzle),
		SpiralVase:       print.SpiralVase && layerIndex >= cfg.BottomSolidLayers,
		FirstLayerBrim:   print.BrimWidth > 0,
		Resolution:       0.0125,
	}
}

// clampWidth keeps a medial-axis width inside printable bounds.
func clampWidth(w geom.Coord, minW, maxW float64) geom.Coord {
	if float64(w) < minW {
		return geom.Coord(math.Round(minW))
	}
	if float64(w) > maxW {
		return geom.Coord(math.Round(maxW))
	}
	return w
}
