package obf

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"
)

// minPrimitiveSize is the size of a primitive record with empty buffers.
const minPrimitiveSize = 1 + 1 + 4 + 4 + 1 + 4 + 4 + 1

// decodePrimitive reads one primitive record and resolves its mesh.
func (d *decoder) decodePrimitive(idx int) (Primitive, *Mesh, error) {
	c := d.cur
	prim := Primitive{Index: idx}

	topology, err := c.ReadU8()
	if err != nil {
		return prim, nil, errors.Wrap(err, "reading topology")
	}
	prim.Topology = Topology(topology)
	if prim.Topology.Stride() == 0 {
		return prim, nil, errors.Wrapf(ErrMalformedPrimitive, "unknown topology %d", topology)
	}

	layout, err := c.ReadU8()
	if err != nil {
		return prim, nil, errors.Wrap(err, "reading attribute layout")
	}
	prim.Layout = Layout(layout)
	if !prim.Layout.Has(AttrPosition) || prim.Layout&^knownAttrs != 0 {
		return prim, nil, errors.Wrapf(ErrMalformedPrimitive, "bad attribute layout 0x%02x", layout)
	}

	if prim.VertexCount, err = d.readCount("vertex"); err != nil {
		return prim, nil, err
	}
	vertexData, err := c.ReadBlob()
	if err != nil {
		return prim, nil, errors.Wrap(err, "reading vertex buffer")
	}
	if want := prim.VertexCount * prim.Layout.Stride(); len(vertexData) != want {
		return prim, nil, errors.Wrapf(ErrMalformedPrimitive,
			"vertex buffer is %d bytes, %d vertices of %s need %d", len(vertexData), prim.VertexCount, prim.Layout, want)
	}

	width, err := c.ReadU8()
	if err != nil {
		return prim, nil, errors.Wrap(err, "reading index width")
	}
	if width != 2 && width != 4 {
		return prim, nil, errors.Wrapf(ErrMalformedPrimitive, "unsupported index width %d", width)
	}
	prim.IndexWidth = int(width)

	if prim.IndexCount, err = d.readCount("index"); err != nil {
		return prim, nil, err
	}
	indexData, err := c.ReadBlob()
	if err != nil {
		return prim, nil, errors.Wrap(err, "reading index buffer")
	}
	if want := prim.IndexCount * prim.IndexWidth; len(indexData) != want {
		return prim, nil, errors.Wrapf(ErrMalformedPrimitive,
			"index buffer is %d bytes, %d indices of width %d need %d", len(indexData), prim.IndexCount, width, want)
	}

	if prim.Material, err = d.decodeMaterial(); err != nil {
		return prim, nil, err
	}

	if stride := prim.Topology.Stride(); prim.IndexCount%stride != 0 {
		return prim, nil, errors.Wrapf(ErrMalformedPrimitive,
			"index count %d is not a multiple of %d for %s", prim.IndexCount, stride, prim.Topology)
	}

	indices := unpackIndices(indexData, prim.IndexWidth, prim.IndexCount)
	for slot, v := range indices {
		if int(v) >= prim.VertexCount {
			return prim, nil, errors.Wrapf(ErrMalformedPrimitive,
				"index %d at slot %d out of range for %d vertices", v, slot, prim.VertexCount)
		}
	}

	vertices := unpackVertices(vertexData, prim.Layout, prim.VertexCount)
	mesh := &Mesh{
		Topology: prim.Topology,
		Layout:   prim.Layout,
		Material: prim.Material,
		Vertices: vertices,
		Indices:  indices,
		Bounds:   boundsOf(vertices),
	}
	return prim, mesh, nil
}

func (d *decoder) decodeMaterial() (Material, error) {
	kind, err := d.cur.ReadU8()
	if err != nil {
		return Material{}, errors.Wrap(err, "reading material kind")
	}
	m := Material{Kind: MaterialKind(kind)}
	switch m.Kind {
	case MaterialNone:
	case MaterialIndex:
		if m.Index, err = d.cur.ReadU32(); err != nil {
			return m, errors.Wrap(err, "reading material index")
		}
	case MaterialPath:
		raw, err := d.cur.ReadString16()
		if err != nil {
			return m, errors.Wrap(err, "reading material path")
		}
		m.Path = d.opts.decodeString(raw)
	default:
		return m, errors.Wrapf(ErrMalformedPrimitive, "unknown material kind %d", kind)
	}
	return m, nil
}

func unpackIndices(data []byte, width, count int) []uint32 {
	out := make([]uint32, count)
	for i := range out {
		if width == 2 {
			out[i] = uint32(binary.LittleEndian.Uint16(data[i*2:]))
		} else {
			out[i] = binary.LittleEndian.Uint32(data[i*4:])
		}
	}
	return out
}

func unpackVertices(data []byte, layout Layout, count int) []Vertex {
	out := make([]Vertex, count)
	f32 := func(off int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(data[off:]))
	}

	off := 0
	for i := range out {
		v := &out[i]
		v.Color = [4]uint8{255, 255, 255, 255}

		v.Position = [3]float32{f32(off), f32(off + 4), f32(off + 8)}
		off += 12
		if layout.Has(AttrNormal) {
			v.Normal = [3]float32{f32(off), f32(off + 4), f32(off + 8)}
			off += 12
		}
		if layout.Has(AttrTexCoord) {
			v.TexCoord = [2]float32{f32(off), f32(off + 4)}
			off += 8
		}
		if layout.Has(AttrColor) {
			copy(v.Color[:], data[off:off+4])
			off += 4
		}
	}
	return out
}
