// Package gcode turns ordered per-layer extrusion entities into machine
// instructions. A single Generator owns the writer state machine (position,
// retraction, active tool) and produces one LayerResult per layer; the
// stateful filters in this package (spiral vase, pressure equalizer,
// cooling, find/replace) rewrite the instruction text of a layer and are
// driven in strict layer order by the streaming pipeline.
package gcode

import "github.com/google/uuid"

// LayerID identifies one generated layer within a print job.
type LayerID struct {
	Object     uuid.UUID
	LayerIndex int
	PrintZ     float64
}

// LayerResult is one unit flowing through the pipeline: the instruction
// text generated for a layer plus the flags the stateful filters key on.
type LayerResult struct {
	ID   LayerID
	Text string

	// SpiralVaseEnable tells the spiral vase filter to rewrite this layer
	// into a continuous Z ramp.
	SpiralVaseEnable bool

	// CoolingBufferFlush tells the cooling filter it may emit everything it
	// has buffered for this layer's object.
	CoolingBufferFlush bool

	// Nop marks a record that carries no work. The pipeline driver no
	// longer depends on these to flush its filters, but the flag is kept so
	// results from partial or resumed jobs stay self-describing.
	Nop bool
}

// NopResult returns a no-work record for the given layer identity.
func NopResult(id LayerID) *LayerResult {
	return &LayerResult{ID: id, Nop: true}
}

// Filter is one stateful rewrite stage. Process consumes a layer in input
// order and returns zero or more layers ready to move on; Flush drains
// whatever the filter still buffers after the last layer.
type Filter interface {
	Process(res *LayerResult) []*LayerResult
	Flush() []*LayerResult
}
