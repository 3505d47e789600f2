// Package obf decodes OBF binary model files into a Node → Group → Primitive
// tree and a flat table of render-ready meshes.
package obf

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Magic is the 4-byte signature at the start of every OBF file.
const Magic = "OBF\x00"

// NameSize is the fixed width of a node name field.
const NameSize = 32

// Version represents the OBF file version.
type Version struct {
	Major uint8
	Minor uint8
}

// String returns the version as "Major.Minor".
func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// AtLeast returns true if version is >= major.minor.
func (v Version) AtLeast(major, minor uint8) bool {
	if v.Major != major {
		return v.Major > major
	}
	return v.Minor >= minor
}

// Supported reports whether the decoder understands this version (1.0 - 1.1).
func (v Version) Supported() bool {
	return v.Major == 1 && v.Minor <= 1
}

// Topology is the primitive assembly mode of an index buffer.
type Topology uint8

const (
	TopologyTriangles Topology = 0
	TopologyLines     Topology = 1
	TopologyPoints    Topology = 2
)

// Stride returns the number of indices per primitive, or 0 for unknown topologies.
func (t Topology) Stride() int {
	switch t {
	case TopologyTriangles:
		return 3
	case TopologyLines:
		return 2
	case TopologyPoints:
		return 1
	default:
		return 0
	}
}

// String returns a human-readable topology name.
func (t Topology) String() string {
	switch t {
	case TopologyTriangles:
		return "Triangles"
	case TopologyLines:
		return "Lines"
	case TopologyPoints:
		return "Points"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(t))
	}
}

// Layout is the vertex attribute bitmask of a primitive.
type Layout uint8

const (
	AttrPosition Layout = 1 << iota
	AttrNormal
	AttrTexCoord
	AttrColor

	knownAttrs = AttrPosition | AttrNormal | AttrTexCoord | AttrColor
)

// Has reports whether all attributes in a are present.
func (l Layout) Has(a Layout) bool {
	return l&a == a
}

// Stride returns the size in bytes of one packed vertex.
func (l Layout) Stride() int {
	n := 0
	if l.Has(AttrPosition) {
		n += 12
	}
	if l.Has(AttrNormal) {
		n += 12
	}
	if l.Has(AttrTexCoord) {
		n += 8
	}
	if l.Has(AttrColor) {
		n += 4
	}
	return n
}

// String lists the attributes, e.g. "position|normal|texcoord".
func (l Layout) String() string {
	s := ""
	add := func(name string) {
		if s != "" {
			s += "|"
		}
		s += name
	}
	if l.Has(AttrPosition) {
		add("position")
	}
	if l.Has(AttrNormal) {
		add("normal")
	}
	if l.Has(AttrTexCoord) {
		add("texcoord")
	}
	if l.Has(AttrColor) {
		add("color")
	}
	if s == "" {
		return "none"
	}
	return s
}

// MaterialKind tells how a primitive references its texture.
type MaterialKind uint8

const (
	MaterialNone  MaterialKind = 0
	MaterialIndex MaterialKind = 1
	MaterialPath  MaterialKind = 2
)

// Material is a primitive's texture reference: an index into an external
// texture table or an inline path.
type Material struct {
	Kind  MaterialKind
	Index uint32
	Path  string
}

// String returns a short description of the reference.
func (m Material) String() string {
	switch m.Kind {
	case MaterialIndex:
		return fmt.Sprintf("#%d", m.Index)
	case MaterialPath:
		return m.Path
	default:
		return "-"
	}
}

// Key identifies a mesh by its position in the node tree.
type Key struct {
	Node      int
	Group     int
	Primitive int
}

// String returns the key as "node/group/primitive".
func (k Key) String() string {
	return fmt.Sprintf("%d/%d/%d", k.Node, k.Group, k.Primitive)
}

// Less orders keys by node, then group, then primitive.
func (k Key) Less(o Key) bool {
	if k.Node != o.Node {
		return k.Node < o.Node
	}
	if k.Group != o.Group {
		return k.Group < o.Group
	}
	return k.Primitive < o.Primitive
}

// Primitive is the leaf geometry record. Its geometry lives in the Mesh
// stored under the same Key.
type Primitive struct {
	Index       int
	Topology    Topology
	Layout      Layout
	VertexCount int
	IndexCount  int
	IndexWidth  int // 2 or 4 bytes in the file
	Material    Material
}

// Group is a render-state partition. Its texture offsets apply to every
// primitive it owns.
type Group struct {
	Index      int
	OffsetU    float32
	OffsetV    float32
	Primitives []Primitive
}

// TexCoordOffset returns the texture-animation offset as a vector.
func (g *Group) TexCoordOffset() mgl32.Vec2 {
	return mgl32.Vec2{g.OffsetU, g.OffsetV}
}

// Node is a top-level transform unit.
type Node struct {
	Index        int
	Name         string
	HasTransform bool
	Transform    mgl32.Mat4 // identity when HasTransform is false
	Groups       []Group
}
