package slicer

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/printforge/slicer/internal/cancel"
	"github.com/printforge/slicer/internal/clip"
	"github.com/printforge/slicer/internal/config"
	"github.com/printforge/slicer/internal/extrusion"
	"github.com/printforge/slicer/internal/flow"
	"github.com/printforge/slicer/internal/gcode"
	"github.com/printforge/slicer/internal/geom"
	"github.com/printforge/slicer/internal/layer"
	"github.com/printforge/slicer/internal/mesh"
	"github.com/printforge/slicer/internal/parallel"
	"github.com/printforge/slicer/internal/perimeter"
	"github.com/printforge/slicer/internal/pipeline"
	"github.com/printforge/slicer/internal/preview"
	"github.com/printforge/slicer/internal/slicing"
)

var (
	// ErrNoLayers is returned when a job has no printable layers: no
	// objects, no model volumes, or geometry entirely below the first
	// layer.
	ErrNoLayers = errors.New("no printable layers")

	// ErrNoExtrusions is returned when layers exist but every one of them
	// sliced or generated empty.
	ErrNoExtrusions = errors.New("nothing to extrude")

	// ErrFirstLayerEmpty is returned when an object's first layer generated
	// no toolpaths, meaning the model floats above the bed.
	ErrFirstLayerEmpty = errors.New("nothing to extrude on the first layer")

	// Canceled is returned from Slice and Export after Cancel was called.
	Canceled = cancel.Canceled
)

// Re-exported configuration and geometry surface. Profiles are parsed
// from TOML; every field left out of a profile keeps its stock default.
type (
	Profile         = config.Full
	RegionConfig    = config.Region
	FindReplaceRule = config.Replace
	Mesh            = mesh.Mesh
	Volume          = mesh.Volume
	VolumeType      = mesh.VolumeType
)

// Volume roles within an object.
const (
	ModelPart         = mesh.ModelPart
	NegativeVolume    = mesh.NegativeVolume
	ParameterModifier = mesh.ParameterModifier
)

// DefaultProfile returns the stock profile for a 0.4 mm nozzle.
func DefaultProfile() Profile { return config.Default() }

// LoadProfile reads a TOML profile file over the stock defaults.
func LoadProfile(path string) (Profile, error) { return config.Load(path) }

// ParseProfile decodes a TOML profile from memory over the stock defaults.
func ParseProfile(data []byte) (Profile, error) { return config.Parse(data) }

// ReadSTL parses a binary or ASCII STL stream into a mesh.
func ReadSTL(r io.Reader) (*Mesh, error) { return mesh.ReadSTL(r) }

// Box returns an axis-aligned box mesh with one corner at the origin.
func Box(sx, sy, sz float64) *Mesh { return mesh.Box(sx, sy, sz) }

// Print is one slicing job: a configuration snapshot, the objects to
// print, and the worker pool the stages run on.
//
// The expected call sequence is New, AddObject/AddVolume, Slice, Export.
// A Print is not safe for concurrent mutation; Cancel and Warnings may be
// called from any goroutine.
type Print struct {
	cfg     Profile
	objects []*PrintObject
	pool    *parallel.WorkerPool
	tok     *cancel.Token

	mu       sync.Mutex
	warnings []string
}

// New validates the profile and prepares a job. Close releases the
// job's worker pool.
func New(cfg Profile) (*Print, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Print{
		cfg:  cfg,
		pool: parallel.NewWorkerPool(cfg.Print.Threads),
		tok:  cancel.New(),
	}, nil
}

// Close shuts down the job's worker pool. The Print must not be used
// afterwards.
func (p *Print) Close() { p.pool.Close() }

// Cancel requests cancellation; a running Slice or Export unwinds with
// Canceled at its next checkpoint. Safe to call from any goroutine.
func (p *Print) Cancel() { p.tok.Cancel() }

// Warnings returns the non-fatal issues accumulated so far, in order.
func (p *Print) Warnings() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.warnings...)
}

func (p *Print) warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	p.mu.Lock()
	p.warnings = append(p.warnings, msg)
	p.mu.Unlock()
	Logger().Warn(msg)
}

// AddObject registers a new, empty object with the job.
func (p *Print) AddObject(name string) *PrintObject {
	o := &PrintObject{
		ID:    uuid.New(),
		Name:  name,
		print: p,
	}
	p.objects = append(p.objects, o)
	return o
}

// PrintObject is one object on the build plate: its model volumes, the
// per-volume region configuration, and, after Slice, the layer stack.
type PrintObject struct {
	ID   uuid.UUID
	Name string

	print   *Print
	volumes []*Volume
	specs   []layer.RegionSpec
	stack   *layer.Stack
	shared  *layer.SharedRegions

	paintCfg   RegionConfig
	paintMasks PaintMasks
}

// PaintMasks returns the areas painted onto one layer as closed contours,
// each a list of XY millimetre pairs. nil means the layer is unpainted.
type PaintMasks func(layerIndex int, sliceZ float64) [][][2]float64

// SetPaint derives an extra region from cfg and moves the painted areas
// into it during slicing, the mechanism behind seam, fuzzy-skin and
// multi-material painting. Painted slicing disables positive XY size
// compensation; mm_segmentation_width confines the transfer to a band
// along the outline.
func (o *PrintObject) SetPaint(cfg RegionConfig, masks PaintMasks) {
	o.paintCfg = cfg
	o.paintMasks = masks
}

// paintProvider adapts millimetre mask contours to the slicing stage.
type paintProvider struct {
	masks PaintMasks
	zs    []float64
}

func (pp *paintProvider) Masks(tok *cancel.Token) ([][]geom.ExPolygons, error) {
	out := make([][]geom.ExPolygons, len(pp.zs))
	for li, z := range pp.zs {
		if err := tok.Err(); err != nil {
			return nil, err
		}
		var polys geom.Polygons
		for _, contour := range pp.masks(li, z) {
			if len(contour) < 3 {
				continue
			}
			pts := make(geom.Points, 0, len(contour))
			for _, xy := range contour {
				pts = append(pts, geom.PtMM(xy[0], xy[1]))
			}
			polys = append(polys, geom.Polygon{Points: pts})
		}
		if len(polys) > 0 {
			out[li] = []geom.ExPolygons{clip.UnionEx(polys, clip.NonZero)}
		}
	}
	return out, nil
}

// AddVolume adds a mesh with the job's default region configuration.
// Volumes composite in insertion order: where two overlap, the later one
// wins.
func (o *PrintObject) AddVolume(name string, typ VolumeType, m *Mesh) *Volume {
	return o.AddVolumeWithConfig(name, typ, m, o.print.cfg.Region)
}

// AddVolumeWithConfig adds a mesh bound to its own region configuration.
// A modifier volume overrides settings where it overlaps the model part
// added before it.
func (o *PrintObject) AddVolumeWithConfig(name string, typ VolumeType, m *Mesh, cfg RegionConfig) *Volume {
	v := mesh.NewVolume(name, typ, m)
	v.Seq = len(o.volumes)
	o.volumes = append(o.volumes, v)
	o.specs = append(o.specs, layer.RegionSpec{Volume: v, Config: cfg})
	return v
}

// AddVolumeSTL reads an STL stream and adds it as a volume with the
// default region configuration.
func (o *PrintObject) AddVolumeSTL(name string, typ VolumeType, r io.Reader) (*Volume, error) {
	m, err := mesh.ReadSTL(r)
	if err != nil {
		return nil, fmt.Errorf("volume %q: %w", name, err)
	}
	return o.AddVolume(name, typ, m), nil
}

// AddRegionRange overrides the region configuration of one volume over a
// Z span. Call after the volume was added; ranges must not overlap.
func (o *PrintObject) AddRegionRange(v *Volume, cfg RegionConfig, zmin, zmax float64) {
	o.specs = append(o.specs, layer.RegionSpec{Volume: v, Config: cfg, ZMin: zmin, ZMax: zmax})
}

// Translate shifts every volume added so far by (x, y, z) in mm. Use it
// to place objects apart on the plate before slicing.
func (o *PrintObject) Translate(x, y, z float64) {
	for _, v := range o.volumes {
		t := v.Transform
		t.Translation.X += x
		t.Translation.Y += y
		t.Translation.Z += z
		v.Transform = t
	}
}

// LayerCount returns the number of layers after Slice, zero before.
func (o *PrintObject) LayerCount() int {
	if o.stack == nil {
		return 0
	}
	return o.stack.Len()
}

// WritePreviewPNG renders one sliced layer's cross-section as a PNG.
// Valid after Slice.
func (o *PrintObject) WritePreviewPNG(w io.Writer, layerIndex int) error {
	if o.stack == nil || layerIndex < 0 || layerIndex >= o.stack.Len() {
		return fmt.Errorf("preview: no sliced layer %d", layerIndex)
	}
	return preview.WritePNG(w, o.stack.Layers[layerIndex].LSlices, preview.DefaultOptions())
}

// Slice runs the geometry half of the job: mesh slicing, region
// resolution, size compensation and wall generation for every object.
// It returns ErrNoLayers when nothing printable remains and
// ErrNoExtrusions when the layers exist but generated no toolpaths.
func (p *Print) Slice() error {
	log := Logger()
	log.Info("slicing started", "objects", len(p.objects))

	for _, o := range p.objects {
		if err := o.slice(p); err != nil {
			return err
		}
		log.Debug("object sliced", "name", o.Name, "layers", o.LayerCount())
	}
	if err := p.tok.Err(); err != nil {
		return err
	}

	layers := 0
	extrusions := false
	for _, o := range p.objects {
		layers += o.LayerCount()
		if o.stack == nil {
			continue
		}
		for _, l := range o.stack.Layers {
			if l.HasExtrusions() {
				extrusions = true
				break
			}
		}
	}
	if layers == 0 {
		return ErrNoLayers
	}
	if !extrusions {
		return ErrNoExtrusions
	}
	for _, o := range p.objects {
		if o.stack == nil || o.stack.Len() == 0 {
			continue
		}
		if !o.stack.Layers[0].HasExtrusions() {
			return fmt.Errorf("%s: %w", o.Name, ErrFirstLayerEmpty)
		}
		// Interior layers without extrusions leave the part above printing
		// on air; survivable, but worth flagging.
		last := 0
		for i, l := range o.stack.Layers {
			if !l.HasExtrusions() {
				continue
			}
			if i > last+1 {
				p.warn("%s: no extrusions between %.3f mm and %.3f mm, the layers above print over a gap",
					o.Name, o.stack.Layers[last].PrintZ, l.PrintZ)
			}
			last = i
		}
	}
	log.Info("slicing finished", "layers", layers)
	return nil
}

func (o *PrintObject) slice(p *Print) error {
	o.shared = layer.BuildShared(o.specs)
	o.stack = &layer.Stack{}
	if len(o.shared.Ranges) == 0 {
		return nil
	}
	paintTarget := -1
	if o.paintMasks != nil {
		paintTarget = len(o.shared.Regions)
		o.shared.Regions = append(o.shared.Regions, &layer.PrintRegion{ID: paintTarget, Config: o.paintCfg})
	}

	maxZ := 0.0
	for _, v := range o.volumes {
		if v.Type != mesh.ModelPart {
			continue
		}
		if bb := v.BoundingBox(); bb.MaxZ > maxZ {
			maxZ = bb.MaxZ
		}
	}
	h := p.cfg.Object.LayerHeight
	fh := p.cfg.Object.FirstLayerHeight
	if fh <= 0 {
		fh = h
	}
	if maxZ <= geom.Epsilon {
		return nil
	}
	count := 1
	if maxZ > fh {
		count += int(math.Ceil((maxZ - fh)/h - 1e-9))
	}

	o.stack = layer.NewStack(fh, h, count)
	zs := layer.SliceZs(fh, h, count)

	params := slicing.Params{
		Print:   &p.cfg.Print,
		Object:  &p.cfg.Object,
		Painted: paintTarget >= 0,
	}
	if p.cfg.Print.SpiralVase {
		for _, r := range o.shared.Regions {
			if r.Config.BottomSolidLayers > params.SpiralBottom {
				params.SpiralBottom = r.Config.BottomSolidLayers
			}
		}
	}

	vslices, err := slicing.SliceVolumes(o.shared, zs, params, p.pool, p.tok)
	if err != nil {
		return err
	}
	byRegion, err := slicing.ResolveRegions(o.shared, vslices, zs, p.pool, p.tok)
	if err != nil {
		return err
	}
	if paintTarget >= 0 {
		provider := &paintProvider{masks: o.paintMasks, zs: zs}
		err = slicing.ApplyPaint(byRegion, provider, []int{paintTarget},
			p.cfg.Object.MMSegmentationWidth, p.pool, p.tok)
		if err != nil {
			return err
		}
	}

	// The first layer's outline before compensation survives as its
	// lslices; skirt, brim and bed adhesion follow the true footprint.
	firstOutline := slicing.LSlices(byRegion, 0)

	warn, err := slicing.Compensate(byRegion, params, p.pool, p.tok)
	if err != nil {
		return err
	}
	if warn != "" {
		p.warn("%s: %s", o.Name, warn)
	}

	for li, l := range o.stack.Layers {
		l.LSlices = slicing.LSlices(byRegion, li)
		for rid, r := range o.shared.Regions {
			exs := byRegion[rid][li]
			if len(exs) == 0 {
				continue
			}
			l.Regions = append(l.Regions, &layer.LayerRegion{
				Region: r,
				Slices: layer.NewSurfaces(layer.Internal, exs),
			})
		}
	}
	if len(o.stack.Layers) > 0 && len(firstOutline) > 0 {
		o.stack.Layers[0].LSlices = firstOutline
	}
	if dropped := o.stack.TrimTop(); dropped > 0 {
		Logger().Debug("empty top layers dropped", "name", o.Name, "count", dropped)
	}
	if o.stack.Len() == 0 {
		return nil
	}

	return parallel.For(p.pool, o.stack.Len(), p.tok, func(i int) {
		l := o.stack.Layers[i]
		var lower, upper geom.ExPolygons
		if ll := o.stack.Lower(i); ll != nil {
			lower = ll.LSlices
		}
		if ul := o.stack.Upper(i); ul != nil {
			upper = ul.LSlices
		}
		for _, lr := range l.Regions {
			gen := perimeter.DefaultGenerator(&lr.Region.Config, &p.cfg.Print, &p.cfg.Object, l.Index, l.Height)
			gen.LowerSlices = lower
			gen.UpperSlices = upper
			res := gen.Process(lr.Slices.ExPolygons())
			lr.Perimeters = res.Loops
			lr.GapFills = res.GapFill
			lr.FillBoundary = res.Infill
		}
	})
}

// layerRef addresses one layer of one object in the export schedule.
type layerRef struct {
	obj   *PrintObject
	index int

	// flush marks the last layer of a Z group; the cooling filter drains
	// its buffer there so objects sharing a Z cool as one unit.
	flush bool
}

func (r layerRef) printZ() float64 { return r.obj.stack.Layers[r.index].PrintZ }

// schedule orders the layers for emission: by ascending Z across objects,
// or object by object when complete_objects is set.
func (p *Print) schedule(objs []*PrintObject) []layerRef {
	var refs []layerRef
	for _, o := range objs {
		for i := 0; i < o.stack.Len(); i++ {
			refs = append(refs, layerRef{obj: o, index: i, flush: p.cfg.Print.CompleteObjects})
		}
	}
	if p.cfg.Print.CompleteObjects {
		return refs
	}
	sort.SliceStable(refs, func(i, j int) bool {
		return refs[i].printZ() < refs[j].printZ()
	})
	for i := range refs {
		if i+1 == len(refs) || refs[i+1].printZ() > refs[i].printZ()+geom.Epsilon {
			refs[i].flush = true
		}
	}
	return refs
}

// filterStage adapts a stateful text filter to a pipeline stage.
type filterStage struct{ f gcode.Filter }

func (s filterStage) Process(res *gcode.LayerResult) ([]*gcode.LayerResult, error) {
	return s.f.Process(res), nil
}

func (s filterStage) Flush() ([]*gcode.LayerResult, error) {
	return s.f.Flush(), nil
}

// Export generates the machine instructions for a sliced job and streams
// them to w. Layer text flows through the ordered filter chain (spiral
// vase, pressure equalizer, cooling, find/replace) while the next layers
// are still being generated.
func (p *Print) Export(w io.Writer) error {
	var objs []*PrintObject
	total := 0
	for _, o := range p.objects {
		if o.LayerCount() > 0 {
			objs = append(objs, o)
			total += o.LayerCount()
		}
	}
	if total == 0 {
		return ErrNoLayers
	}

	stages, err := p.stages(len(objs))
	if err != nil {
		return err
	}

	gen := gcode.NewGenerator(&p.cfg.Print, total)
	gen.SetSkirt(p.skirtBrim(objs))
	tools := make(map[*PrintObject]gcode.ToolOrdering, len(objs))
	for _, o := range objs {
		tools[o] = gcode.NewToolOrdering(o.stack)
	}
	refs := p.schedule(objs)

	if _, err := io.WriteString(w, gen.Preamble()); err != nil {
		return err
	}

	log := Logger()
	log.Info("export started", "layers", len(refs))
	err = pipeline.Run(p.tok, pipeline.Config[*gcode.LayerResult]{
		N: len(refs),
		Produce: func(i int) (*gcode.LayerResult, error) {
			ref := refs[i]
			l := ref.obj.stack.Layers[ref.index]
			return gen.ProcessLayer(ref.obj.ID, l, tools[ref.obj].At(ref.index), ref.flush), nil
		},
		Stages: stages,
		Sink: func(res *gcode.LayerResult) error {
			if res.Nop || res.Text == "" {
				return nil
			}
			_, err := io.WriteString(w, res.Text)
			return err
		},
	})
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, "M107\n"); err != nil {
		return err
	}
	log.Info("export finished")
	return nil
}

// skirtBrim builds the bed adhesion paths printed before the first layer:
// skirt loops around the convex hull of everything on the plate, then brim
// rings growing outward from each first-layer outline. Both end nearest
// the model so printing continues inward.
func (p *Print) skirtBrim(objs []*PrintObject) extrusion.Collection {
	var col extrusion.Collection
	cfg := &p.cfg.Print
	if cfg.Skirts <= 0 && cfg.BrimWidth <= 0 {
		return col
	}

	var first geom.Polygons
	for _, o := range objs {
		first = append(first, o.stack.Layers[0].LSlices.ToPolygons()...)
	}
	if len(first) == 0 {
		return col
	}

	h := p.cfg.Object.FirstLayerHeight
	if h <= 0 {
		h = p.cfg.Object.LayerHeight
	}
	nozzle := cfg.Nozzle(1)
	f := flow.New(nozzle*1.125, h, nozzle)

	appendRings := func(rings geom.Polygons) {
		for _, r := range rings {
			if len(r.Points) < 3 {
				continue
			}
			pts := make(geom.Points, 0, len(r.Points)+1)
			pts = append(pts, r.Points...)
			pts = append(pts, r.Points[0])
			col.Append(&extrusion.Path{
				Polyline: geom.Polyline{Points: pts},
				Role:     extrusion.RoleSkirt,
				MM3PerMM: f.MM3PerMM(),
				Width:    f.Width,
				Height:   f.Height,
				Speed:    cfg.FirstLayerSpeed,
			})
		}
	}

	if cfg.Skirts > 0 {
		hull := geom.ConvexHull(first)
		if len(hull.Points) >= 3 {
			for i := cfg.Skirts - 1; i >= 0; i-- {
				d := cfg.SkirtDistance + cfg.BrimWidth + f.Width/2 + f.Spacing()*float64(i)
				appendRings(clip.Offset(geom.Polygons{hull}, d/geom.ScalingFactor, clip.JoinRound))
			}
		}
	}
	if cfg.BrimWidth > 0 {
		for n := int(cfg.BrimWidth / f.Spacing()); n >= 1; n-- {
			d := f.Width/2 + f.Spacing()*float64(n-1)
			appendRings(clip.Offset(first, d/geom.ScalingFactor, clip.JoinRound))
		}
	}
	return col
}

// stages assembles the filter chain for this profile.
func (p *Print) stages(objects int) ([]pipeline.Stage[*gcode.LayerResult], error) {
	var stages []pipeline.Stage[*gcode.LayerResult]
	if p.cfg.Print.SpiralVase {
		if objects > 1 {
			p.warn("spiral vase disabled: %d objects on the plate", objects)
		} else {
			stages = append(stages, filterStage{gcode.NewSpiralVase()})
		}
	}
	if p.cfg.Print.PressureEqualizer {
		if !p.cfg.Print.UseRelativeEDistances {
			p.warn("pressure equalizer disabled: requires relative extruder distances")
		} else {
			stages = append(stages, filterStage{gcode.NewPressureEqualizer(&p.cfg.Print)})
		}
	}
	stages = append(stages, filterStage{gcode.NewCooling(&p.cfg.Print)})
	if len(p.cfg.Print.FindReplace) > 0 {
		fr, err := gcode.NewFindReplace(p.cfg.Print.FindReplace)
		if err != nil {
			return nil, err
		}
		stages = append(stages, filterStage{fr})
	}
	return stages, nil
}
