package obf

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/Faultbox/desco/pkg/encoding"
)

// The types below describe a file for the in-test writer. Zero values give
// a v1.0 file with triangle primitives and 16-bit indices.

type testFile struct {
	Magic string
	Major uint8
	Minor uint8
	Nodes []testNode
}

type testNode struct {
	Name      string
	Transform *[16]float32
	Groups    []testGroup
}

type testGroup struct {
	U, V  float32
	Prims []testPrim
}

type testPrim struct {
	Topology   Topology
	Layout     Layout
	Vertices   []Vertex
	Indices    []uint32
	IndexWidth uint8
	Material   Material

	// Overrides for corrupting declared counts.
	VertexCount *uint32
	IndexCount  *uint32
}

func (f testFile) bytes() []byte {
	var buf bytes.Buffer
	w := func(v any) { binary.Write(&buf, binary.LittleEndian, v) }

	magic := f.Magic
	if magic == "" {
		magic = Magic
	}
	major := f.Major
	if major == 0 {
		major = 1
	}
	buf.WriteString(magic)
	w(major)
	w(f.Minor)
	w(uint16(0))
	w(uint32(len(f.Nodes)))

	for _, n := range f.Nodes {
		buf.Write(encoding.UTF8ToFixedString(n.Name, NameSize))
		if f.Minor >= 1 {
			if n.Transform != nil {
				w(uint8(nodeHasTransform))
				w(n.Transform[:])
			} else {
				w(uint8(0))
			}
		}
		w(uint32(len(n.Groups)))
		for _, g := range n.Groups {
			w(g.U)
			w(g.V)
			w(uint32(len(g.Prims)))
			for _, p := range g.Prims {
				writeTestPrim(&buf, p)
			}
		}
	}
	return buf.Bytes()
}

func writeTestPrim(buf *bytes.Buffer, p testPrim) {
	w := func(v any) { binary.Write(buf, binary.LittleEndian, v) }

	layout := p.Layout
	if layout == 0 {
		layout = AttrPosition
	}
	width := p.IndexWidth
	if width == 0 {
		width = 2
	}

	w(uint8(p.Topology))
	w(uint8(layout))

	var vb bytes.Buffer
	for _, v := range p.Vertices {
		binary.Write(&vb, binary.LittleEndian, v.Position)
		if layout.Has(AttrNormal) {
			binary.Write(&vb, binary.LittleEndian, v.Normal)
		}
		if layout.Has(AttrTexCoord) {
			binary.Write(&vb, binary.LittleEndian, v.TexCoord)
		}
		if layout.Has(AttrColor) {
			vb.Write(v.Color[:])
		}
	}
	vc := uint32(len(p.Vertices))
	if p.VertexCount != nil {
		vc = *p.VertexCount
	}
	w(vc)
	w(uint32(vb.Len()))
	buf.Write(vb.Bytes())

	w(width)
	ic := uint32(len(p.Indices))
	if p.IndexCount != nil {
		ic = *p.IndexCount
	}
	w(ic)
	w(uint32(len(p.Indices) * int(width)))
	for _, idx := range p.Indices {
		if width == 2 {
			w(uint16(idx))
		} else {
			w(idx)
		}
	}

	w(uint8(p.Material.Kind))
	switch p.Material.Kind {
	case MaterialIndex:
		w(p.Material.Index)
	case MaterialPath:
		path := encoding.UTF8ToShiftJIS(p.Material.Path)
		w(uint16(len(path)))
		buf.Write(path)
	}
}

// quad returns 4 vertices and 2 triangles covering the unit square.
func quad() testPrim {
	return testPrim{
		Layout: AttrPosition | AttrNormal | AttrTexCoord,
		Vertices: []Vertex{
			{Position: [3]float32{0, 0, 0}, Normal: [3]float32{0, 0, 1}, TexCoord: [2]float32{0, 0}},
			{Position: [3]float32{1, 0, 0}, Normal: [3]float32{0, 0, 1}, TexCoord: [2]float32{1, 0}},
			{Position: [3]float32{1, 1, 0}, Normal: [3]float32{0, 0, 1}, TexCoord: [2]float32{1, 1}},
			{Position: [3]float32{0, 1, 0}, Normal: [3]float32{0, 0, 1}, TexCoord: [2]float32{0, 1}},
		},
		Indices:  []uint32{0, 1, 2, 0, 2, 3},
		Material: Material{Kind: MaterialPath, Path: "tex/body.tx2"},
	}
}

// scenarioFile is 1 node, 1 group with offset (0.25, 0), 1 quad primitive.
func scenarioFile() testFile {
	return testFile{
		Nodes: []testNode{{
			Name: "body",
			Groups: []testGroup{{
				U: 0.25, V: 0,
				Prims: []testPrim{quad()},
			}},
		}},
	}
}

// multiFile is a v1.1 file with two nodes, three groups and five primitives.
func multiFile() testFile {
	xf := [16]float32{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 5, 6, 7, 1}
	line := func() testPrim {
		return testPrim{
			Topology: TopologyLines,
			Vertices: []Vertex{{Position: [3]float32{-1, -2, -3}}, {Position: [3]float32{4, 5, 6}}},
			Indices:  []uint32{0, 1},
			Material: Material{Kind: MaterialIndex, Index: 3},
		}
	}
	colored := quad()
	colored.Layout = AttrPosition | AttrColor
	colored.IndexWidth = 4
	for i := range colored.Vertices {
		colored.Vertices[i].Normal = [3]float32{}
		colored.Vertices[i].TexCoord = [2]float32{}
		colored.Vertices[i].Color = [4]uint8{10, 20, 30, uint8(i)}
	}
	colored.Material = Material{}

	return testFile{
		Minor: 1,
		Nodes: []testNode{
			{
				Name:      "プリニー",
				Transform: &xf,
				Groups: []testGroup{
					{U: 0.5, V: 0.125, Prims: []testPrim{quad(), line()}},
					{U: 0, V: -0.5, Prims: []testPrim{colored}},
				},
			},
			{
				Name: "weapon",
				Groups: []testGroup{
					{Prims: []testPrim{quad(), line()}},
				},
			},
		},
	}
}

func u32(v uint32) *uint32 { return &v }

func approx(a, b float32) bool { return math.Abs(float64(a-b)) < 1e-6 }
