// Package extrusion defines the toolpath currency passed from the
// perimeter and infill generators to ordering and G-code emission: paths,
// closed loops, multi-paths and ordered collections, each carrying an
// extrusion role and flow.
//
// Entities form a closed sum type. Traversal is a type switch over
// *Path, *Loop, *MultiPath and *Collection; there are no other kinds.
package extrusion

// Role describes what an extrusion path is for. It selects speed, fan and
// comment handling downstream.
type Role int

const (
	RoleNone Role = iota
	RolePerimeter
	RoleExternalPerimeter
	RoleOverhangPerimeter
	RoleInternalInfill
	RoleSolidInfill
	RoleTopSolidInfill
	RoleBridgeInfill
	RoleGapFill
	RoleSkirt
	RoleSupportMaterial
	RoleSupportMaterialInterface
)

var roleNames = map[Role]string{
	RoleNone:                     "none",
	RolePerimeter:                "perimeter",
	RoleExternalPerimeter:        "external perimeter",
	RoleOverhangPerimeter:        "overhang perimeter",
	RoleInternalInfill:           "infill",
	RoleSolidInfill:              "solid infill",
	RoleTopSolidInfill:           "top solid infill",
	RoleBridgeInfill:             "bridge infill",
	RoleGapFill:                  "gap fill",
	RoleSkirt:                    "skirt",
	RoleSupportMaterial:          "support material",
	RoleSupportMaterialInterface: "support material interface",
}

// String returns the role name used in G-code type comments.
func (r Role) String() string {
	if s, ok := roleNames[r]; ok {
		return s
	}
	return "unknown"
}

// IsPerimeter reports whether the role is any of the wall roles.
func (r Role) IsPerimeter() bool {
	return r == RolePerimeter || r == RoleExternalPerimeter || r == RoleOverhangPerimeter
}

// IsBridge reports whether the role extrudes unsupported strands.
func (r Role) IsBridge() bool {
	return r == RoleOverhangPerimeter || r == RoleBridgeInfill
}
