// Package config holds the immutable configuration snapshots consumed by
// the slicing, perimeter and G-code stages. A snapshot is taken when a job
// starts; later edits to the source profile never affect a job in flight.
package config

// PerimeterEngine selects the perimeter generation algorithm.
type PerimeterEngine int

const (
	// EngineClassic is the fixed-width concentric inset engine.
	EngineClassic PerimeterEngine = iota
	// EngineArachne is the variable-width wall engine.
	EngineArachne
)

// SlicingMode controls how the planar cut of a volume is interpreted.
type SlicingMode int

const (
	// SliceRegular keeps the mesh winding as is.
	SliceRegular SlicingMode = iota
	// SliceEvenOdd applies the even-odd rule, for self-intersecting shells.
	SliceEvenOdd
	// SliceCloseHoles unions positively wound loops, swallowing holes.
	SliceCloseHoles
	// SlicePositiveLargestContour keeps only the largest contour, used by
	// spiral vase mode.
	SlicePositiveLargestContour
)

// FuzzySkinMode selects which perimeters receive fuzzy skin displacement.
type FuzzySkinMode int

const (
	FuzzySkinNone FuzzySkinMode = iota
	FuzzySkinExternal
	FuzzySkinAll
)

// SeamPosition selects the seam placement strategy for closed loops.
type SeamPosition int

const (
	// SeamAligned places seams near a shared vertical line per object.
	SeamAligned SeamPosition = iota
	// SeamNearest starts each loop at the vertex nearest the travel start.
	SeamNearest
	// SeamRear places seams at the rear-most vertex.
	SeamRear
	// SeamRandom scatters seams pseudo-randomly but deterministically.
	SeamRandom
)

// Region is the per-region configuration snapshot. Multi-material painting
// produces derived regions that differ from their parent only in extruder
// and fuzzy skin settings.
type Region struct {
	Perimeters                  int             `toml:"perimeters"`
	PerimeterEngine             PerimeterEngine `toml:"perimeter_engine"`
	PerimeterExtrusionWidth     float64         `toml:"perimeter_extrusion_width"`
	ExternalPerimeterWidth      float64         `toml:"external_perimeter_extrusion_width"`
	ExternalPerimetersFirst     bool            `toml:"external_perimeters_first"`
	ThinWalls                   bool            `toml:"thin_walls"`
	OnlyOnePerimeterTop         bool            `toml:"only_one_perimeter_top"`
	GapFill                     bool            `toml:"gap_fill"`
	ExtraPerimetersOnOverhangs  bool            `toml:"extra_perimeters_on_overhangs"`
	OverhangDetection           bool            `toml:"overhang_detection"`
	FuzzySkin                   FuzzySkinMode   `toml:"fuzzy_skin"`
	FuzzySkinThickness          float64         `toml:"fuzzy_skin_thickness"`
	FuzzySkinPointDistance      float64         `toml:"fuzzy_skin_point_distance"`
	InfillOverlapPercent        float64         `toml:"infill_overlap_percent"`
	PerimeterExtruder           int             `toml:"perimeter_extruder"`
	InfillExtruder              int             `toml:"infill_extruder"`
	SolidInfillExtruder         int             `toml:"solid_infill_extruder"`
	BottomSolidLayers           int             `toml:"bottom_solid_layers"`
	TopSolidLayers              int             `toml:"top_solid_layers"`
	PerimeterSpeed              float64         `toml:"perimeter_speed"`
	ExternalPerimeterSpeed      float64         `toml:"external_perimeter_speed"`
	OverhangSpeed               float64         `toml:"overhang_speed"`
	GapFillSpeed                float64         `toml:"gap_fill_speed"`
	SeamPosition                SeamPosition    `toml:"seam_position"`
	StaggerInnerSeams           bool            `toml:"stagger_inner_seams"`
	ArachneWallTransitionLength float64         `toml:"wall_transition_length"`
	ArachneMinFeatureSize       float64         `toml:"min_feature_size"`
	ArachneMinBeadWidth         float64         `toml:"min_bead_width"`
}

// Object is the per-object configuration snapshot.
type Object struct {
	LayerHeight             float64     `toml:"layer_height"`
	FirstLayerHeight        float64     `toml:"first_layer_height"`
	XYSizeCompensation      float64     `toml:"xy_size_compensation"`
	ElefantFootCompensation float64     `toml:"elefant_foot_compensation"`
	SliceClosingRadius      float64     `toml:"slice_closing_radius"`
	SlicingMode             SlicingMode `toml:"slicing_mode"`
	RaftLayers              int         `toml:"raft_layers"`
	MMSegmentationWidth     float64     `toml:"mm_segmentation_width"`
}

// Print is the printer and job level configuration snapshot.
type Print struct {
	NozzleDiameter          []float64 `toml:"nozzle_diameter"`
	FilamentDiameter        []float64 `toml:"filament_diameter"`
	ExtrusionMultiplier     []float64 `toml:"extrusion_multiplier"`
	SpiralVase              bool      `toml:"spiral_vase"`
	TravelSpeed             float64   `toml:"travel_speed"`
	FirstLayerSpeed         float64   `toml:"first_layer_speed"`
	MaxPrintSpeed           float64   `toml:"max_print_speed"`
	RetractLength           float64   `toml:"retract_length"`
	RetractSpeed            float64   `toml:"retract_speed"`
	RetractLift             float64   `toml:"retract_lift"`
	UseRelativeEDistances   bool      `toml:"use_relative_e_distances"`
	GCodeComments           bool      `toml:"gcode_comments"`
	SeamGap                 float64   `toml:"seam_gap"`
	PressureEqualizer       bool      `toml:"pressure_equalizer"`
	MaxVolumetricRatePos    float64   `toml:"max_volumetric_extrusion_rate_slope_positive"`
	MaxVolumetricRateNeg    float64   `toml:"max_volumetric_extrusion_rate_slope_negative"`
	Cooling                 bool      `toml:"cooling"`
	FanAlwaysOn             bool      `toml:"fan_always_on"`
	MinFanSpeed             int       `toml:"min_fan_speed"`
	MaxFanSpeed             int       `toml:"max_fan_speed"`
	BridgeFanSpeed          int       `toml:"bridge_fan_speed"`
	DisableFanFirstLayers   int       `toml:"disable_fan_first_layers"`
	FanBelowLayerTime       float64   `toml:"fan_below_layer_time"`
	SlowdownBelowLayerTime  float64   `toml:"slowdown_below_layer_time"`
	MinPrintSpeed           float64   `toml:"min_print_speed"`
	FindReplace             []Replace `toml:"find_replace"`
	CompleteObjects         bool      `toml:"complete_objects"`
	Threads                 int       `toml:"threads"`
	Skirts                  int       `toml:"skirts"`
	SkirtDistance           float64   `toml:"skirt_distance"`
	BrimWidth               float64   `toml:"brim_width"`
}

// Replace is one post-processing substitution applied to the emitted
// G-code stream.
type Replace struct {
	Pattern     string `toml:"pattern"`
	Replacement string `toml:"replacement"`
	Regexp      bool   `toml:"regexp"`
	CaseFold    bool   `toml:"case_insensitive"`
	WholeWord   bool   `toml:"whole_word"`
}

// Full bundles one snapshot of every level.
type Full struct {
	Print  Print  `toml:"print"`
	Object Object `toml:"object"`
	Region Region `toml:"region"`
}

// DefaultRegion returns the stock region profile for a 0.4 mm nozzle.
func DefaultRegion() Region {
	return Region{
		Perimeters:                 2,
		PerimeterEngine:            EngineArachne,
		PerimeterExtrusionWidth:    0.45,
		ExternalPerimeterWidth:     0.45,
		ThinWalls:                  false,
		GapFill:                    true,
		OverhangDetection:          true,
		FuzzySkinThickness:         0.3,
		FuzzySkinPointDistance:     0.8,
		InfillOverlapPercent:       25,
		PerimeterExtruder:          1,
		InfillExtruder:             1,
		SolidInfillExtruder:        1,
		BottomSolidLayers:          4,
		TopSolidLayers:             5,
		PerimeterSpeed:             60,
		ExternalPerimeterSpeed:     30,
		OverhangSpeed:              20,
		GapFillSpeed:               30,
		SeamPosition:               SeamAligned,
		ArachneWallTransitionLength: 0.4,
		ArachneMinFeatureSize:      0.1,
		ArachneMinBeadWidth:        0.34,
	}
}

// DefaultObject returns the stock object profile.
func DefaultObject() Object {
	return Object{
		LayerHeight:        0.2,
		FirstLayerHeight:   0.2,
		SliceClosingRadius: 0.049,
		SlicingMode:        SliceRegular,
	}
}

// DefaultPrint returns the stock print profile.
func DefaultPrint() Print {
	return Print{
		NozzleDiameter:         []float64{0.4},
		FilamentDiameter:       []float64{1.75},
		ExtrusionMultiplier:    []float64{1.0},
		TravelSpeed:            180,
		FirstLayerSpeed:        30,
		MaxPrintSpeed:          200,
		RetractLength:          0.8,
		RetractSpeed:           35,
		UseRelativeEDistances:  true,
		Cooling:                true,
		MinFanSpeed:            35,
		MaxFanSpeed:            100,
		BridgeFanSpeed:         100,
		DisableFanFirstLayers:  1,
		FanBelowLayerTime:      100,
		SlowdownBelowLayerTime: 20,
		MinPrintSpeed:          15,
		Skirts:                 1,
		SkirtDistance:          2,
	}
}

// Default returns the stock full profile.
func Default() Full {
	return Full{
		Print:  DefaultPrint(),
		Object: DefaultObject(),
		Region: DefaultRegion(),
	}
}

// Nozzle returns the nozzle diameter for a 1-based extruder id, falling
// back to the first nozzle.
func (p Print) Nozzle(extruder int) float64 {
	if extruder >= 1 && extruder <= len(p.NozzleDiameter) {
		return p.NozzleDiameter[extruder-1]
	}
	if len(p.NozzleDiameter) > 0 {
		return p.NozzleDiameter[0]
	}
	return 0.4
}
