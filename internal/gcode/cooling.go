package gcode

import (
	"fmt"
	"strings"

	"github.com/printforge/slicer/internal/config"
)

// Cooling rewrites fan speed and feedrates from per-layer time estimates:
// layers faster than the slowdown threshold get their extrusion feedrates
// scaled so the layer takes long enough to solidify, and the part fan is
// driven between its minimum and maximum from the (adjusted) layer time.
// Bridge sections always get the bridge fan speed.
//
// Layers whose CoolingBufferFlush flag is false are buffered and adjusted
// together with the flushing layer, so an object split across records
// still cools as one unit.
type Cooling struct {
	cfg *config.Print
	buf []*LayerResult
}

// NewCooling returns the filter for one print profile.
func NewCooling(cfg *config.Print) *Cooling { return &Cooling{cfg: cfg} }

// Process implements Filter.
func (c *Cooling) Process(res *LayerResult) []*LayerResult {
	c.buf = append(c.buf, res)
	if !res.CoolingBufferFlush {
		return nil
	}
	return c.drain()
}

// Flush implements Filter.
func (c *Cooling) Flush() []*LayerResult { return c.drain() }

func (c *Cooling) drain() []*LayerResult {
	out := c.buf
	c.buf = nil

	var total float64
	for _, res := range out {
		if !res.Nop {
			total += layerTime(res.Text)
		}
	}

	factor := 1.0
	if c.cfg.Cooling && c.cfg.SlowdownBelowLayerTime > 0 && total > 0 && total < c.cfg.SlowdownBelowLayerTime {
		factor = total / c.cfg.SlowdownBelowLayerTime
	}

	for _, res := range out {
		if res.Nop {
			continue
		}
		res.Text = c.rewrite(res, total/factor, factor)
	}
	return out
}

// layerTime estimates the print time of one layer's text in seconds.
func layerTime(text string) float64 {
	var x, y float64
	var haveXY bool
	feed := 0.0
	var t float64
	for _, ln := range splitLines(text) {
		m, ok := ParseMove(ln)
		if !ok {
			continue
		}
		if m.HasF {
			feed = m.F
		}
		if (m.HasX || m.HasY) && haveXY && feed > 0 {
			t += xyDistance(x, y, m) / (feed / 60)
		}
		if m.HasX {
			x = m.X
		}
		if m.HasY {
			y = m.Y
		}
		haveXY = haveXY || (m.HasX && m.HasY)
	}
	return t
}

// rewrite applies the slowdown factor and injects fan commands.
func (c *Cooling) rewrite(res *LayerResult, adjustedTime, factor float64) string {
	lines := splitLines(res.Text)
	out := make([]string, 0, len(lines)+2)

	fan := c.fanSpeed(res.ID.LayerIndex, adjustedTime)
	out = append(out, fanCommand(fan))

	minFeed := c.cfg.MinPrintSpeed * 60
	bridging := false
	for _, ln := range lines {
		if role, ok := typeComment(ln); ok {
			wantBridge := role == "overhang perimeter" || role == "bridge infill"
			if wantBridge != bridging {
				bridging = wantBridge
				if bridging {
					out = append(out, fanCommand(c.bridgeFan(res.ID.LayerIndex)))
				} else {
					out = append(out, fanCommand(fan))
				}
			}
			out = append(out, ln)
			continue
		}
		m, ok := ParseMove(ln)
		if ok && factor < 1 && m.IsExtruding() && m.HasF {
			f := m.F * factor
			if minFeed > 0 && f < minFeed {
				f = minFeed
			}
			m.F = f
			out = append(out, m.String())
			continue
		}
		out = append(out, ln)
	}
	return joinLines(out)
}

// fanSpeed picks the part fan duty for a layer, 0-100.
func (c *Cooling) fanSpeed(layerIndex int, layerTime float64) int {
	if layerIndex < c.cfg.DisableFanFirstLayers {
		return 0
	}
	if !c.cfg.Cooling {
		if c.cfg.FanAlwaysOn {
			return c.cfg.MinFanSpeed
		}
		return 0
	}
	if c.cfg.FanBelowLayerTime > 0 && layerTime < c.cfg.FanBelowLayerTime {
		// Shorter layers get proportionally more fan.
		t := layerTime / c.cfg.FanBelowLayerTime
		return c.cfg.MaxFanSpeed - int(float64(c.cfg.MaxFanSpeed-c.cfg.MinFanSpeed)*t)
	}
	if c.cfg.FanAlwaysOn {
		return c.cfg.MinFanSpeed
	}
	return 0
}

func (c *Cooling) bridgeFan(layerIndex int) int {
	if layerIndex < c.cfg.DisableFanFirstLayers {
		return 0
	}
	return c.cfg.BridgeFanSpeed
}

// fanCommand formats a fan duty change, 0-100.
func fanCommand(percent int) string {
	if percent <= 0 {
		return "M107"
	}
	return fmt.Sprintf("M106 S%d", percent*255/100)
}

// typeComment extracts the role from a ";TYPE:" comment line.
func typeComment(line string) (string, bool) {
	const prefix = ";TYPE:"
	if !strings.HasPrefix(line, prefix) {
		return "", false
	}
	return line[len(prefix):], true
}
