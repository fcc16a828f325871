package gcode

import (
	"fmt"
	"math"
	"strings"

	"github.com/printforge/slicer/internal/config"
	"github.com/printforge/slicer/internal/extrusion"
	"github.com/printforge/slicer/internal/geom"
)

// retractBeforeTravel is the shortest travel in mm that still triggers a
// retraction.
const retractBeforeTravel = 2.0

// Writer is the instruction emitter state machine: current position, Z,
// extruder, feedrate, fan and retraction state. It is deliberately confined
// to the single ordered generator stage, so it needs no locking.
type Writer struct {
	cfg *config.Print
	buf strings.Builder

	pos     geom.Point
	havePos bool
	z       float64
	lift    float64
	e       float64
	feed    float64 // last emitted feedrate, mm/min
	tool    int
	fan     int

	retracted bool
}

// NewWriter returns a writer for the given print profile with no position.
func NewWriter(cfg *config.Print) *Writer {
	return &Writer{cfg: cfg, tool: -1, fan: -1}
}

// filamentArea returns the filament cross-section of the active tool in mm².
func (w *Writer) filamentArea() float64 {
	d := 1.75
	if w.tool >= 0 && w.tool < len(w.cfg.FilamentDiameter) {
		d = w.cfg.FilamentDiameter[w.tool]
	} else if len(w.cfg.FilamentDiameter) > 0 {
		d = w.cfg.FilamentDiameter[0]
	}
	return math.Pi / 4 * d * d
}

func (w *Writer) multiplier() float64 {
	if w.tool >= 0 && w.tool < len(w.cfg.ExtrusionMultiplier) {
		return w.cfg.ExtrusionMultiplier[w.tool]
	}
	return 1.0
}

// Comment writes a comment line.
func (w *Writer) Comment(text string) {
	w.buf.WriteByte(';')
	w.buf.WriteString(text)
	w.buf.WriteByte('\n')
}

// Raw writes a preformatted line.
func (w *Writer) Raw(line string) {
	w.buf.WriteString(line)
	w.buf.WriteByte('\n')
}

// Preamble emits the job header: units, positioning mode, E mode.
func (w *Writer) Preamble() {
	w.Raw("G21 ; set units to millimeters")
	w.Raw("G90 ; use absolute coordinates")
	if w.cfg.UseRelativeEDistances {
		w.Raw("M83 ; use relative distances for extrusion")
	} else {
		w.Raw("M82 ; use absolute distances for extrusion")
	}
}

// ToolChange selects a 0-based tool if it differs from the active one.
func (w *Writer) ToolChange(tool int) {
	if tool == w.tool {
		return
	}
	w.tool = tool
	fmt.Fprintf(&w.buf, "T%d\n", tool)
	w.resetE()
}

// ToolID returns the active 0-based tool, -1 before the first change.
func (w *Writer) ToolID() int { return w.tool }

// SetFan emits a fan speed change, 0-100 percent.
func (w *Writer) SetFan(percent int) {
	if percent == w.fan {
		return
	}
	w.fan = percent
	if percent <= 0 {
		w.Raw("M107")
		return
	}
	fmt.Fprintf(&w.buf, "M106 S%d\n", int(math.Round(float64(percent)*255/100)))
}

// StartLayer moves to the layer's print Z and marks the layer change.
func (w *Writer) StartLayer(printZ float64) {
	if w.cfg.GCodeComments {
		w.Comment("LAYER_CHANGE")
		w.Comment(fmt.Sprintf("Z:%.3f", printZ))
	}
	w.z = printZ
	fmt.Fprintf(&w.buf, "G1 Z%.3f F%.0f\n", printZ+w.lift, w.cfg.TravelSpeed*60)
}

// Travel moves without extruding, retracting first when the move is long
// enough to ooze.
func (w *Writer) Travel(to geom.Point) {
	if w.havePos && w.pos == to {
		return
	}
	if w.havePos && w.pos.DistanceTo(to)*geom.ScalingFactor > retractBeforeTravel {
		w.Retract()
	}
	fmt.Fprintf(&w.buf, "G1 X%.3f Y%.3f F%.0f\n",
		geom.Unscale(to.X), geom.Unscale(to.Y), w.cfg.TravelSpeed*60)
	w.feed = w.cfg.TravelSpeed * 60
	w.pos = to
	w.havePos = true
}

// ExtrudePath emits the extrusion moves of one path at the given speed in
// mm/s, starting from the path's first point (callers travel there first).
func (w *Writer) ExtrudePath(p *extrusion.Path, speed float64) {
	if p.IsEmpty() {
		return
	}
	w.Unretract()
	if w.cfg.GCodeComments {
		w.Comment("TYPE:" + p.Role.String())
	}
	ePerMM := p.MM3PerMM / w.filamentArea() * w.multiplier()
	feed := speed * 60

	pts := p.Polyline.Points
	for i := 1; i < len(pts); i++ {
		segMM := pts[i-1].DistanceTo(pts[i]) * geom.ScalingFactor
		de := ePerMM * segMM
		fmt.Fprintf(&w.buf, "G1 X%.3f Y%.3f E%s",
			geom.Unscale(pts[i].X), geom.Unscale(pts[i].Y), w.eWord(de))
		if feed != w.feed {
			fmt.Fprintf(&w.buf, " F%.0f", feed)
			w.feed = feed
		}
		w.buf.WriteByte('\n')
	}
	w.pos = pts[len(pts)-1]
	w.havePos = true
}

// Retract pulls filament back and lifts Z if configured.
func (w *Writer) Retract() {
	if w.retracted || w.cfg.RetractLength <= 0 {
		return
	}
	w.retracted = true
	fmt.Fprintf(&w.buf, "G1 E%s F%.0f\n", w.eWord(-w.cfg.RetractLength), w.cfg.RetractSpeed*60)
	if w.cfg.RetractLift > 0 {
		w.lift = w.cfg.RetractLift
		fmt.Fprintf(&w.buf, "G1 Z%.3f F%.0f\n", w.z+w.lift, w.cfg.TravelSpeed*60)
	}
}

// Unretract restores filament after a retraction.
func (w *Writer) Unretract() {
	if !w.retracted {
		return
	}
	w.retracted = false
	if w.lift > 0 {
		w.lift = 0
		fmt.Fprintf(&w.buf, "G1 Z%.3f F%.0f\n", w.z, w.cfg.TravelSpeed*60)
	}
	fmt.Fprintf(&w.buf, "G1 E%s F%.0f\n", w.eWord(w.cfg.RetractLength), w.cfg.RetractSpeed*60)
}

// eWord formats one extrusion amount, handling absolute E accumulation.
func (w *Writer) eWord(de float64) string {
	if w.cfg.UseRelativeEDistances {
		return trimFloat(de, 5)
	}
	w.e += de
	return trimFloat(w.e, 5)
}

// resetE zeroes the absolute E counter after tool changes.
func (w *Writer) resetE() {
	if !w.cfg.UseRelativeEDistances && w.e != 0 {
		w.e = 0
		w.Raw("G92 E0")
	}
}

// Flush returns the accumulated text and resets the buffer, keeping the
// positional state.
func (w *Writer) Flush() string {
	out := w.buf.String()
	w.buf.Reset()
	return out
}

// trimFloat formats v with up to prec decimals, trailing zeros removed.
// Only fractional zeros are trimmed; an integer like 3600 keeps its digits.
func trimFloat(v float64, prec int) string {
	s := fmt.Sprintf("%.*f", prec, v)
	if strings.ContainsRune(s, '.') {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	if s == "-0" || s == "" {
		s = "0"
	}
	return s
}
