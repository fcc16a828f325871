package gcode

import (
	"sort"

	"github.com/printforge/slicer/internal/layer"
)

// LayerTools lists the extruders a layer needs, in emission order.
// Extruder ids are 1-based, matching the configuration surface.
type LayerTools struct {
	PrintZ    float64
	Extruders []int
}

// Has reports whether the layer uses the given extruder.
func (lt LayerTools) Has(extruder int) bool {
	for _, e := range lt.Extruders {
		if e == extruder {
			return true
		}
	}
	return false
}

// ToolOrdering plans extruder usage across the whole stack. Per layer the
// extruder that ended the previous layer goes first, so layer changes do
// not force a tool change.
type ToolOrdering struct {
	Layers []LayerTools
}

// NewToolOrdering derives the plan from the extruders each layer's regions
// reference.
func NewToolOrdering(stack *layer.Stack) ToolOrdering {
	to := ToolOrdering{Layers: make([]LayerTools, stack.Len())}
	last := 0
	for i, l := range stack.Layers {
		lt := LayerTools{PrintZ: l.PrintZ, Extruders: layerExtruders(l)}
		reorderFront(lt.Extruders, last)
		if n := len(lt.Extruders); n > 0 {
			last = lt.Extruders[n-1]
		}
		to.Layers[i] = lt
	}
	return to
}

// At returns the plan for a layer index; out-of-range indices return an
// empty plan.
func (to ToolOrdering) At(index int) LayerTools {
	if index < 0 || index >= len(to.Layers) {
		return LayerTools{}
	}
	return to.Layers[index]
}

// AllExtruders returns every extruder the job uses, ascending.
func (to ToolOrdering) AllExtruders() []int {
	seen := map[int]bool{}
	for _, lt := range to.Layers {
		for _, e := range lt.Extruders {
			seen[e] = true
		}
	}
	out := make([]int, 0, len(seen))
	for e := range seen {
		out = append(out, e)
	}
	sort.Ints(out)
	return out
}

// layerExtruders collects the distinct extruders of one layer, ascending.
func layerExtruders(l *layer.Layer) []int {
	seen := map[int]bool{}
	for _, lr := range l.Regions {
		if lr.Perimeters.IsEmpty() && lr.GapFills.IsEmpty() && lr.Fills.IsEmpty() && lr.Slices.IsEmpty() {
			continue
		}
		cfg := lr.Region.Config
		if !lr.Perimeters.IsEmpty() || !lr.GapFills.IsEmpty() || !lr.Slices.IsEmpty() {
			seen[cfg.PerimeterExtruder] = true
		}
		if !lr.Fills.IsEmpty() {
			seen[cfg.InfillExtruder] = true
			seen[cfg.SolidInfillExtruder] = true
		}
	}
	out := make([]int, 0, len(seen))
	for e := range seen {
		if e >= 1 {
			out = append(out, e)
		}
	}
	sort.Ints(out)
	return out
}

// reorderFront moves want to the front if present, keeping the rest stable.
func reorderFront(extruders []int, want int) {
	for i, e := range extruders {
		if e == want && i > 0 {
			copy(extruders[1:i+1], extruders[:i])
			extruders[0] = want
			return
		}
	}
}
