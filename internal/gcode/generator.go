package gcode

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/printforge/slicer/internal/cache"
	"github.com/printforge/slicer/internal/config"
	"github.com/printforge/slicer/internal/extrusion"
	"github.com/printforge/slicer/internal/geom"
	"github.com/printforge/slicer/internal/layer"
)

// resolveKey identifies loop geometry for the resolution caches. Two loops
// with equal start, vertex count and length are the same geometry for
// simplification purposes.
type resolveKey struct {
	start  geom.Point
	points int
	length int64
}

// seamKey scopes a seam placer to one region of one object, so seam
// alignment never bleeds across objects sharing a print.
type seamKey struct {
	object uuid.UUID
	region int
}

// Generator produces one LayerResult per layer. A single generator serves
// the whole job, even with several objects interleaved by Z, because the
// machine has exactly one extruder position, tool and fan state. It owns
// the writer state machine and the seam placers, so it must only run on
// the single ordered generator stage of the pipeline.
type Generator struct {
	Print *config.Print

	writer     *Writer
	seam       map[seamKey]*SeamPlacer
	resolution float64
	layerCount int
	object     uuid.UUID
	skirt      *extrusion.Collection

	// Perimeter geometry is cached per layer; skirt and brim recur across
	// layers and hit a job-global cache.
	global *cache.Cache[resolveKey, geom.Points]
	local  *cache.Cache[resolveKey, geom.Points]
}

// NewGenerator returns a generator for a job of layerCount layers.
func NewGenerator(print *config.Print, layerCount int) *Generator {
	return &Generator{
		Print:      print,
		writer:     NewWriter(print),
		seam:       map[seamKey]*SeamPlacer{},
		resolution: 0.0125,
		layerCount: layerCount,
		global:     cache.New[resolveKey, geom.Points](256),
	}
}

// Preamble emits the job header before the first layer.
func (g *Generator) Preamble() string {
	g.writer.Preamble()
	return g.writer.Flush()
}

// SetSkirt hands the generator the skirt and brim paths. They are emitted
// once, at the start of the first non-empty layer.
func (g *Generator) SetSkirt(c extrusion.Collection) {
	if !c.IsEmpty() {
		g.skirt = &c
	}
}

// ProcessLayer emits one layer of the given object. flush marks the
// result as safe for the cooling filter to drain its buffer.
func (g *Generator) ProcessLayer(object uuid.UUID, l *layer.Layer, tools LayerTools, flush bool) *LayerResult {
	g.object = object
	res := &LayerResult{
		ID:                 LayerID{Object: object, LayerIndex: l.Index, PrintZ: l.PrintZ},
		CoolingBufferFlush: flush,
		SpiralVaseEnable:   g.spiralEnabled(l),
	}
	if !l.HasExtrusions() {
		res.Nop = true
		return res
	}

	g.local = cache.New[resolveKey, geom.Points](64)
	g.writer.StartLayer(l.PrintZ)

	for _, extruder := range tools.Extruders {
		g.writer.ToolChange(extruder - 1)
		if g.skirt != nil {
			// Skirt and brim paths carry no region; emitEntity only needs
			// one for loops and these are plain paths.
			g.emitCollection(l, nil, g.skirt)
			g.skirt = nil
		}
		for _, lr := range l.Regions {
			cfg := &lr.Region.Config
			if cfg.PerimeterExtruder == extruder {
				g.emitCollection(l, lr, &lr.Perimeters)
				g.emitCollection(l, lr, &lr.GapFills)
			}
			if cfg.InfillExtruder == extruder || cfg.SolidInfillExtruder == extruder {
				g.emitCollection(l, lr, &lr.Fills)
			}
		}
	}

	res.Text = g.writer.Flush()
	return res
}

// spiralEnabled reports whether this layer is above every region's solid
// bottom, so the vase ramp may engage.
func (g *Generator) spiralEnabled(l *layer.Layer) bool {
	if !g.Print.SpiralVase {
		return false
	}
	for _, lr := range l.Regions {
		if l.Index < lr.Region.Config.BottomSolidLayers {
			return false
		}
	}
	return true
}

func (g *Generator) emitCollection(l *layer.Layer, lr *layer.LayerRegion, c *extrusion.Collection) {
	for _, e := range c.Entities {
		g.emitEntity(l, lr, e)
	}
}

func (g *Generator) emitEntity(l *layer.Layer, lr *layer.LayerRegion, e extrusion.Entity) {
	switch v := e.(type) {
	case *extrusion.Collection:
		g.emitCollection(l, lr, v)
	case *extrusion.Path:
		g.writer.Travel(v.FirstPoint())
		p := *v
		p.Polyline = geom.Polyline{Points: g.resolve(&p)}
		g.writer.ExtrudePath(&p, g.speedFor(l, &p))
	case *extrusion.MultiPath:
		if v.IsEmpty() {
			return
		}
		g.writer.Travel(v.FirstPoint())
		for i := range v.Paths {
			p := v.Paths[i]
			p.Polyline = geom.Polyline{Points: g.resolve(&p)}
			g.writer.ExtrudePath(&p, g.speedFor(l, &p))
		}
	case *extrusion.Loop:
		g.emitLoop(l, lr, v)
	}
}

// emitLoop seams, clips and extrudes one closed loop.
func (g *Generator) emitLoop(l *layer.Layer, lr *layer.LayerRegion, lp *extrusion.Loop) {
	if lp.IsEmpty() {
		return
	}
	key := seamKey{object: g.object, region: lr.Region.ID}
	placer := g.seam[key]
	if placer == nil {
		placer = NewSeamPlacer(lr.Region.Config.SeamPosition, int64(lr.Region.ID)<<32^int64(g.layerCount))
		g.seam[key] = placer
	}
	placer.Place(lp, l.Index, g.writer.pos, g.writer.havePos)
	if lr.Region.Config.StaggerInnerSeams && lp.Kind != extrusion.LoopExternal {
		staggerSeam(lp, l.Index)
	}

	paths := lp.Paths
	if gap := g.Print.SeamGap; gap > 0 {
		paths = lp.ClipEnd(gap / geom.ScalingFactor)
	}
	if len(paths) == 0 {
		return
	}

	g.writer.Travel(paths[0].FirstPoint())
	for i := range paths {
		p := paths[i]
		p.Polyline = geom.Polyline{Points: g.resolve(&p)}
		g.writer.ExtrudePath(&p, g.speedFor(l, &p))
	}
}

// staggerSeam rotates an inner loop's seam a quarter turn further every
// layer so inner seams never stack into a vertical groove the way the
// aligned outer seam deliberately does.
func staggerSeam(l *extrusion.Loop, layerIndex int) {
	poly := l.Polygon()
	n := len(poly.Points)
	if n < 3 {
		return
	}
	l.SplitAtVertex(poly.Points[(layerIndex%4)*n/4])
}

// resolve simplifies a path's vertices to the instruction resolution
// through the role-appropriate cache.
func (g *Generator) resolve(p *extrusion.Path) geom.Points {
	pts := p.Polyline.Points
	if len(pts) < 3 {
		return pts
	}
	key := resolveKey{start: pts[0], points: len(pts), length: int64(p.Polyline.Length())}

	c := g.local
	if p.Role == extrusion.RoleSkirt {
		c = g.global
	}
	if c == nil {
		return simplifyPoints(pts, g.resolution/geom.ScalingFactor)
	}
	return c.GetOrCreate(key, func() geom.Points {
		return simplifyPoints(pts, g.resolution/geom.ScalingFactor)
	})
}

// speedFor resolves the print speed for a path in mm/s.
func (g *Generator) speedFor(l *layer.Layer, p *extrusion.Path) float64 {
	speed := p.Speed
	if speed <= 0 {
		speed = g.Print.MaxPrintSpeed
	}
	if l.Index == 0 && g.Print.FirstLayerSpeed > 0 && speed > g.Print.FirstLayerSpeed {
		speed = g.Print.FirstLayerSpeed
	}
	if g.Print.MaxPrintSpeed > 0 && speed > g.Print.MaxPrintSpeed {
		speed = g.Print.MaxPrintSpeed
	}
	return speed
}

// simplifyPoints is Douglas-Peucker on an open vertex run.
func simplifyPoints(pts geom.Points, tolerance float64) geom.Points {
	return geom.SimplifyOpen(pts, tolerance)
}

// LayerComment formats the per-layer progress comment.
func LayerComment(index, total int) string {
	return fmt.Sprintf("layer %d/%d", index+1, total)
}
