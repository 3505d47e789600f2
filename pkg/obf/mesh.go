package obf

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// Vertex is one unpacked vertex. Attributes missing from the primitive's
// layout are zero, except Color which defaults to opaque white.
type Vertex struct {
	Position [3]float32
	Normal   [3]float32
	TexCoord [2]float32
	Color    [4]uint8
}

// Bounds holds an axis-aligned bounding box.
type Bounds struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// Center returns the midpoint of the box.
func (b Bounds) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Size returns the box extents.
func (b Bounds) Size() mgl32.Vec3 {
	return b.Max.Sub(b.Min)
}

// Union returns the smallest box containing b and o.
func (b Bounds) Union(o Bounds) Bounds {
	for i := 0; i < 3; i++ {
		b.Min[i] = min(b.Min[i], o.Min[i])
		b.Max[i] = max(b.Max[i], o.Max[i])
	}
	return b
}

func boundsOf(vertices []Vertex) Bounds {
	if len(vertices) == 0 {
		return Bounds{}
	}
	b := Bounds{Min: vertices[0].Position, Max: vertices[0].Position}
	for _, v := range vertices[1:] {
		for i := 0; i < 3; i++ {
			b.Min[i] = min(b.Min[i], v.Position[i])
			b.Max[i] = max(b.Max[i], v.Position[i])
		}
	}
	return b
}

// Drawer receives meshes from Render. Implementations bind whatever graphics
// backend the caller uses.
type Drawer interface {
	Draw(m *Mesh) error
}

// DrawerFunc adapts a function to the Drawer interface.
type DrawerFunc func(m *Mesh) error

// Draw calls f(m).
func (f DrawerFunc) Draw(m *Mesh) error {
	return f(m)
}

// Mesh is the render-ready geometry of one primitive. Buffers are owned by
// the mesh and must not be modified by consumers.
type Mesh struct {
	Key      Key
	Topology Topology
	Layout   Layout
	Material Material
	Vertices []Vertex
	Indices  []uint32
	Bounds   Bounds
}

// Render issues the mesh's draw request to d.
func (m *Mesh) Render(d Drawer) error {
	if d == nil {
		return errors.New("render: nil drawer")
	}
	if err := d.Draw(m); err != nil {
		return errors.Wrapf(err, "render mesh %s", m.Key)
	}
	return nil
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices)
}

// PrimitiveCount returns the number of assembled primitives (triangles,
// lines or points) described by the index buffer.
func (m *Mesh) PrimitiveCount() int {
	stride := m.Topology.Stride()
	if stride == 0 {
		return 0
	}
	return len(m.Indices) / stride
}

// Positions returns the vertex positions as a flat slice.
func (m *Mesh) Positions() [][3]float32 {
	out := make([][3]float32, len(m.Vertices))
	for i := range m.Vertices {
		out[i] = m.Vertices[i].Position
	}
	return out
}

// Equal reports whether two meshes carry the same key, state and geometry.
func (m *Mesh) Equal(o *Mesh) bool {
	if m == nil || o == nil {
		return m == o
	}
	if m.Key != o.Key || m.Topology != o.Topology || m.Layout != o.Layout || m.Material != o.Material {
		return false
	}
	if len(m.Vertices) != len(o.Vertices) || len(m.Indices) != len(o.Indices) {
		return false
	}
	for i := range m.Vertices {
		if m.Vertices[i] != o.Vertices[i] {
			return false
		}
	}
	for i := range m.Indices {
		if m.Indices[i] != o.Indices[i] {
			return false
		}
	}
	return true
}
