// Package slicer turns triangle meshes into FDM printer instructions.
//
// A job is a [Print]: a validated configuration snapshot plus one or more
// objects, each built from model volumes (parts, negatives, modifiers).
// [Print.Slice] runs the geometry stages: planar mesh slicing across the
// layer heights, compositing the per-volume cross-sections into mutually
// exclusive region slices, size compensation, and wall generation with
// either the classic fixed-width engine or the variable-width arachne
// engine. [Print.Export] then streams G-code: layers are emitted in Z
// order through an ordered filter chain that rewrites the instruction
// text for spiral vase ramping, pressure equalization, cooling and
// user-defined substitutions.
//
// Minimal use:
//
//	job, err := slicer.New(slicer.DefaultProfile())
//	if err != nil { ... }
//	defer job.Close()
//
//	obj := job.AddObject("cube")
//	obj.AddVolume("cube", slicer.ModelPart, slicer.Box(20, 20, 20))
//
//	if err := job.Slice(); err != nil { ... }
//	if err := job.Export(out); err != nil { ... }
//
// All coordinates are millimetres. Slicing and export are deterministic:
// the same profile and geometry produce byte-identical output.
package slicer
