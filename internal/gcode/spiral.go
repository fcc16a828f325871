package gcode

import "math"

// SpiralVase rewrites enabled layers into a continuous Z ramp: the lone
// layer-change Z move disappears and every extrusion move carries a Z
// interpolated between the previous layer's print Z and this one's, keyed
// to the distance already extruded. Disabled layers pass through and reset
// the ramp base.
type SpiralVase struct {
	prevZ    float64
	havePrev bool
}

// NewSpiralVase returns the filter in its disabled state.
func NewSpiralVase() *SpiralVase { return &SpiralVase{} }

// Process implements Filter.
func (s *SpiralVase) Process(res *LayerResult) []*LayerResult {
	if res.Nop {
		return []*LayerResult{res}
	}
	if !res.SpiralVaseEnable || !s.havePrev {
		s.prevZ = res.ID.PrintZ
		s.havePrev = true
		return []*LayerResult{res}
	}

	res.Text = s.ramp(res.Text, s.prevZ, res.ID.PrintZ)
	s.prevZ = res.ID.PrintZ
	return []*LayerResult{res}
}

// Flush implements Filter; the vase filter holds nothing back.
func (s *SpiralVase) Flush() []*LayerResult { return nil }

// ramp rewrites one layer's text so Z climbs from z0 to z1 across the
// layer's extrusion length.
func (s *SpiralVase) ramp(text string, z0, z1 float64) string {
	lines := splitLines(text)

	// Total XY length of extruding moves; travel moves do not advance Z.
	var total float64
	var x, y float64
	var haveXY bool
	for _, ln := range lines {
		m, ok := ParseMove(ln)
		if !ok {
			continue
		}
		if m.IsExtruding() && haveXY {
			total += xyDistance(x, y, m)
		}
		if m.HasX {
			x = m.X
		}
		if m.HasY {
			y = m.Y
		}
		haveXY = haveXY || (m.HasX && m.HasY)
	}
	if total <= 0 {
		return text
	}

	out := make([]string, 0, len(lines))
	var done float64
	x, y, haveXY = 0, 0, false
	for _, ln := range lines {
		m, ok := ParseMove(ln)
		if !ok {
			out = append(out, ln)
			continue
		}
		switch {
		case m.HasZ && !m.HasX && !m.HasY && !m.HasE:
			// The layer-change Z hop is replaced by the ramp itself.
		case m.IsExtruding() && haveXY:
			done += xyDistance(x, y, m)
			m.Z = z0 + (z1-z0)*(done/total)
			m.HasZ = true
			out = append(out, m.String())
		default:
			out = append(out, ln)
		}
		if m.HasX {
			x = m.X
		}
		if m.HasY {
			y = m.Y
		}
		haveXY = haveXY || (m.HasX && m.HasY)
	}
	return joinLines(out)
}

func xyDistance(x, y float64, m Move) float64 {
	dx, dy := 0.0, 0.0
	if m.HasX {
		dx = m.X - x
	}
	if m.HasY {
		dy = m.Y - y
	}
	return math.Hypot(dx, dy)
}
