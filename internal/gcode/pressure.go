package gcode

import (
	"math"

	"github.com/printforge/slicer/internal/config"
)

// PressureEqualizer smooths volumetric flow-rate transitions by capping how
// fast the extrusion rate may rise or fall between consecutive moves. It
// buffers exactly one layer: the deceleration pass over layer N needs the
// rate layer N+1 starts with, so N is only released when N+1 arrives (or at
// Flush).
type PressureEqualizer struct {
	slopePos float64 // mm³/s per second, 0 disables the rising cap
	slopeNeg float64
	filArea  float64

	buffered *LayerResult
	// exitRate is the volumetric rate the previously released layer ended
	// with; the next layer's acceleration pass starts from it.
	exitRate float64
}

// NewPressureEqualizer derives the filter from the print profile. The rate
// math reads E words as per-move amounts, so the filter requires relative
// extrusion distances; callers skip it in absolute E mode.
func NewPressureEqualizer(cfg *config.Print) *PressureEqualizer {
	d := 1.75
	if len(cfg.FilamentDiameter) > 0 {
		d = cfg.FilamentDiameter[0]
	}
	return &PressureEqualizer{
		slopePos: cfg.MaxVolumetricRatePos,
		slopeNeg: cfg.MaxVolumetricRateNeg,
		filArea:  math.Pi / 4 * d * d,
	}
}

// Process implements Filter.
func (p *PressureEqualizer) Process(res *LayerResult) []*LayerResult {
	if res.Nop {
		// No-op records carry no moves; release them immediately after
		// anything already buffered.
		out := p.release(p.entryRate(res))
		return append(out, res)
	}
	out := p.release(p.entryRate(res))
	p.buffered = res
	return out
}

// Flush implements Filter: the last buffered layer decelerates to zero.
func (p *PressureEqualizer) Flush() []*LayerResult {
	return p.release(0)
}

// release adjusts and emits the buffered layer, given the rate the next
// layer will start with.
func (p *PressureEqualizer) release(nextRate float64) []*LayerResult {
	if p.buffered == nil {
		return nil
	}
	res := p.buffered
	p.buffered = nil
	res.Text, p.exitRate = p.adjust(res.Text, p.exitRate, nextRate)
	return []*LayerResult{res}
}

// entryRate returns the volumetric rate of the layer's first extruding
// move.
func (p *PressureEqualizer) entryRate(res *LayerResult) float64 {
	var x, y float64
	var haveXY bool
	feed := 0.0
	for _, ln := range splitLines(res.Text) {
		m, ok := ParseMove(ln)
		if !ok {
			continue
		}
		if m.HasF {
			feed = m.F
		}
		if m.IsExtruding() && haveXY && feed > 0 {
			if dist := xyDistance(x, y, m); dist > 0 {
				return m.E * p.filArea / (dist / (feed / 60))
			}
		}
		if m.HasX {
			x = m.X
		}
		if m.HasY {
			y = m.Y
		}
		haveXY = haveXY || (m.HasX && m.HasY)
	}
	return 0
}

// adjust caps the rate slope over one layer's moves: a forward pass limits
// acceleration against the previous layer's exit rate, a backward pass
// limits deceleration against the next layer's entry rate. Only feedrates
// are touched; geometry and extrusion amounts stay as generated.
func (p *PressureEqualizer) adjust(text string, prevRate, nextRate float64) (string, float64) {
	lines := splitLines(text)

	type moveRef struct {
		index int
		m     Move
		dist  float64 // mm along XY, inferred from rate formula below
	}
	var moves []moveRef
	var x, y float64
	var haveXY bool
	feed := 0.0
	for i, ln := range lines {
		m, ok := ParseMove(ln)
		if !ok {
			continue
		}
		if m.HasF {
			feed = m.F
		}
		if m.IsExtruding() && haveXY && feed > 0 {
			mm := m
			mm.F, mm.HasF = feed, true
			moves = append(moves, moveRef{index: i, m: mm, dist: xyDistance(x, y, m)})
		}
		if m.HasX {
			x = m.X
		}
		if m.HasY {
			y = m.Y
		}
		haveXY = haveXY || (m.HasX && m.HasY)
	}
	if len(moves) == 0 {
		return text, prevRate
	}

	rate := func(mv moveRef) float64 {
		if mv.dist <= 0 {
			return 0
		}
		// Volume per move over its duration.
		return mv.m.E * p.filArea / (mv.dist / (mv.m.F / 60))
	}
	timeOf := func(mv moveRef) float64 { return mv.dist / (mv.m.F / 60) }

	// Acceleration cap, front to back.
	if p.slopePos > 0 {
		last := prevRate
		for i := range moves {
			r := rate(moves[i])
			allowed := last + p.slopePos*timeOf(moves[i])
			if r > allowed && allowed > 0 {
				moves[i].m.F *= allowed / r
				r = allowed
			}
			last = r
		}
	}
	// Deceleration cap, back to front.
	if p.slopeNeg > 0 {
		last := nextRate
		for i := len(moves) - 1; i >= 0; i-- {
			r := rate(moves[i])
			allowed := last + p.slopeNeg*timeOf(moves[i])
			if r > allowed && allowed > 0 {
				moves[i].m.F *= allowed / r
				r = allowed
			}
			last = r
		}
	}

	for _, mv := range moves {
		lines[mv.index] = mv.m.String()
	}
	exit := rate(moves[len(moves)-1])
	return joinLines(lines), exit
}
