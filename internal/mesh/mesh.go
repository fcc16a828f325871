// Package mesh holds the triangulated model geometry fed into slicing: the
// triangle mesh itself, the model volumes that carry a mesh plus its role
// within the object, and the planar mesh slicer producing per-Z polygon
// cross-sections.
package mesh

import (
	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/printforge/slicer/internal/geom"
)

// Mesh is an indexed triangle mesh in millimetre coordinates.
type Mesh struct {
	Vertices  []r3.Vec
	Triangles [][3]int
}

// Clone returns a deep copy of the mesh.
func (m *Mesh) Clone() *Mesh {
	out := &Mesh{
		Vertices:  make([]r3.Vec, len(m.Vertices)),
		Triangles: make([][3]int, len(m.Triangles)),
	}
	copy(out.Vertices, m.Vertices)
	copy(out.Triangles, m.Triangles)
	return out
}

// BoundingBox returns the axis-aligned bounds of the transformed mesh.
func (m *Mesh) BoundingBox(t Transform) geom.BoundingBox3 {
	var bb geom.BoundingBox3
	for _, v := range m.Vertices {
		p := t.Apply(v)
		bb.MergePoint3(p.X, p.Y, p.Z)
	}
	return bb
}

// Transform is an affine map applied to mesh vertices: rotation/scale/shear
// in Linear, then a translation.
type Transform struct {
	Linear      [3]r3.Vec // rows of the linear part
	Translation r3.Vec
}

// Identity returns the identity transform.
func Identity() Transform {
	return Transform{
		Linear: [3]r3.Vec{
			{X: 1}, {Y: 1}, {Z: 1},
		},
	}
}

// Translate returns the identity transform shifted by (x, y, z).
func Translate(x, y, z float64) Transform {
	t := Identity()
	t.Translation = r3.Vec{X: x, Y: y, Z: z}
	return t
}

// Apply maps a vertex through the transform.
func (t Transform) Apply(v r3.Vec) r3.Vec {
	return r3.Add(r3.Vec{
		X: r3.Dot(t.Linear[0], v),
		Y: r3.Dot(t.Linear[1], v),
		Z: r3.Dot(t.Linear[2], v),
	}, t.Translation)
}

// VolumeType tags the role a model volume plays in its object.
type VolumeType int

const (
	// ModelPart contributes solid material.
	ModelPart VolumeType = iota
	// NegativeVolume carves material out of every part it overlaps.
	NegativeVolume
	// ParameterModifier overrides region settings where it overlaps its
	// parent part; it adds no geometry of its own.
	ParameterModifier
	// SupportBlocker and SupportEnforcer only steer support generation and
	// are never sliced by the model slicing stage.
	SupportBlocker
	SupportEnforcer
)

// IsModelPart reports whether the type contributes printable geometry.
func (vt VolumeType) IsModelPart() bool { return vt == ModelPart }

// IsSliced reports whether volumes of this type participate in model
// slicing at all.
func (vt VolumeType) IsSliced() bool {
	return vt == ModelPart || vt == NegativeVolume || vt == ParameterModifier
}

// Volume is one mesh within an object. ID is a globally unique handle for
// associating transient slice results; Seq is the volume's position in its
// object's volume list and decides compositing order (a later volume wins
// where volumes overlap).
type Volume struct {
	ID        uuid.UUID
	Seq       int
	Name      string
	Type      VolumeType
	Mesh      *Mesh
	Transform Transform
}

// NewVolume wraps a mesh in a Volume with a fresh identity.
func NewVolume(name string, typ VolumeType, m *Mesh) *Volume {
	return &Volume{
		ID:        uuid.New(),
		Name:      name,
		Type:      typ,
		Mesh:      m,
		Transform: Identity(),
	}
}

// BoundingBox returns the volume's transformed bounds.
func (v *Volume) BoundingBox() geom.BoundingBox3 {
	return v.Mesh.BoundingBox(v.Transform)
}
