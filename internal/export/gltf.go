// Package export converts decoded OBF documents to glTF 2.0.
package export

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/Faultbox/desco/pkg/obf"
)

// Options controls the conversion.
type Options struct {
	// ApplyOffsets bakes each group's texture offset into the UVs instead of
	// only recording it in the material extras.
	ApplyOffsets bool
	// Binary selects .glb output in Save regardless of the file extension.
	Binary bool
}

type materialKey struct {
	ref     obf.Material
	offsetU float32
	offsetV float32
}

type builder struct {
	doc       *gltf.Document
	opts      Options
	materials map[materialKey]uint32
	textures  map[string]uint32
}

// GLTF builds a glTF document with one node per OBF node and one glTF
// primitive per OBF primitive.
func GLTF(src *obf.Document, opts Options) (*gltf.Document, error) {
	if src == nil {
		return nil, errors.New("export: nil document")
	}

	b := &builder{
		doc:       gltf.NewDocument(),
		opts:      opts,
		materials: make(map[materialKey]uint32),
		textures:  make(map[string]uint32),
	}
	b.doc.Asset.Generator = "obftool"

	for i := range src.Nodes {
		node := &src.Nodes[i]
		gn := &gltf.Node{
			Name:   node.Name,
			Matrix: [16]float32(node.Transform),
		}
		if gn.Name == "" {
			gn.Name = fmt.Sprintf("node%d", node.Index)
		}

		mesh, err := b.mesh(src, node)
		if err != nil {
			return nil, errors.Wrapf(err, "node %d", node.Index)
		}
		if mesh != nil {
			b.doc.Meshes = append(b.doc.Meshes, mesh)
			gn.Mesh = gltf.Index(uint32(len(b.doc.Meshes) - 1))
		}

		b.doc.Scenes[0].Nodes = append(b.doc.Scenes[0].Nodes, uint32(len(b.doc.Nodes)))
		b.doc.Nodes = append(b.doc.Nodes, gn)
	}

	return b.doc, nil
}

func (b *builder) mesh(src *obf.Document, node *obf.Node) (*gltf.Mesh, error) {
	var prims []*gltf.Primitive
	for gi := range node.Groups {
		group := &node.Groups[gi]
		for pi := range group.Primitives {
			key := obf.Key{Node: node.Index, Group: gi, Primitive: pi}
			m, ok := src.Mesh(key)
			if !ok {
				return nil, errors.Errorf("no mesh for %s", key)
			}
			p, err := b.primitive(group, m)
			if err != nil {
				return nil, errors.Wrapf(err, "group %d primitive %d", gi, pi)
			}
			prims = append(prims, p)
		}
	}
	if len(prims) == 0 {
		return nil, nil
	}
	return &gltf.Mesh{Name: node.Name, Primitives: prims}, nil
}

func (b *builder) primitive(group *obf.Group, m *obf.Mesh) (*gltf.Primitive, error) {
	mode, err := primitiveMode(m.Topology)
	if err != nil {
		return nil, err
	}

	attributes := map[string]uint32{
		"POSITION": modeler.WritePosition(b.doc, m.Positions()),
	}
	if m.Layout.Has(obf.AttrNormal) {
		normals := make([][3]float32, len(m.Vertices))
		for i := range m.Vertices {
			normals[i] = m.Vertices[i].Normal
		}
		attributes["NORMAL"] = modeler.WriteNormal(b.doc, normals)
	}
	if m.Layout.Has(obf.AttrTexCoord) {
		uvs := make([][2]float32, len(m.Vertices))
		for i := range m.Vertices {
			uvs[i] = m.Vertices[i].TexCoord
			if b.opts.ApplyOffsets {
				uvs[i][0] += group.OffsetU
				uvs[i][1] += group.OffsetV
			}
		}
		attributes["TEXCOORD_0"] = modeler.WriteTextureCoord(b.doc, uvs)
	}
	if m.Layout.Has(obf.AttrColor) {
		colors := make([][4]uint8, len(m.Vertices))
		for i := range m.Vertices {
			colors[i] = m.Vertices[i].Color
		}
		attributes["COLOR_0"] = modeler.WriteColor(b.doc, colors)
	}

	p := &gltf.Primitive{
		Attributes: attributes,
		Mode:       mode,
		Material:   gltf.Index(b.material(group, m.Material)),
		Extras: map[string]interface{}{
			"obf_key": m.Key.String(),
		},
	}
	if len(m.Indices) > 0 {
		p.Indices = gltf.Index(modeler.WriteIndices(b.doc, m.Indices))
	}
	return p, nil
}

// material returns the glTF material for a reference under a group offset,
// creating it on first use.
func (b *builder) material(group *obf.Group, ref obf.Material) uint32 {
	key := materialKey{ref: ref}
	if !b.opts.ApplyOffsets {
		key.offsetU, key.offsetV = group.OffsetU, group.OffsetV
	}
	if idx, ok := b.materials[key]; ok {
		return idx
	}

	extras := map[string]interface{}{
		"texcoord_offset": [2]float32{key.offsetU, key.offsetV},
	}
	mat := &gltf.Material{
		Name:        "mat_" + ref.String(),
		DoubleSided: true,
		Extras:      extras,
	}
	switch ref.Kind {
	case obf.MaterialPath:
		mat.PBRMetallicRoughness = &gltf.PBRMetallicRoughness{
			BaseColorTexture: &gltf.TextureInfo{Index: b.texture(ref.Path)},
		}
	case obf.MaterialIndex:
		extras["texture_index"] = ref.Index
	}

	b.doc.Materials = append(b.doc.Materials, mat)
	idx := uint32(len(b.doc.Materials) - 1)
	b.materials[key] = idx
	return idx
}

func (b *builder) texture(path string) uint32 {
	if idx, ok := b.textures[path]; ok {
		return idx
	}
	b.doc.Images = append(b.doc.Images, &gltf.Image{
		Name: filepath.Base(path),
		URI:  filepath.ToSlash(path),
	})
	b.doc.Textures = append(b.doc.Textures, &gltf.Texture{
		Source: gltf.Index(uint32(len(b.doc.Images) - 1)),
	})
	idx := uint32(len(b.doc.Textures) - 1)
	b.textures[path] = idx
	return idx
}

func primitiveMode(t obf.Topology) (gltf.PrimitiveMode, error) {
	switch t {
	case obf.TopologyTriangles:
		return gltf.PrimitiveTriangles, nil
	case obf.TopologyLines:
		return gltf.PrimitiveLines, nil
	case obf.TopologyPoints:
		return gltf.PrimitivePoints, nil
	default:
		return 0, errors.Errorf("unsupported topology %s", t)
	}
}

// Save converts src and writes it to path. Paths ending in .glb, or
// opts.Binary, produce binary glTF.
func Save(src *obf.Document, path string, opts Options) error {
	doc, err := GLTF(src, opts)
	if err != nil {
		return err
	}
	if opts.Binary || strings.EqualFold(filepath.Ext(path), ".glb") {
		return errors.Wrap(gltf.SaveBinary(doc, path), "writing glb")
	}
	return errors.Wrap(gltf.Save(doc, path), "writing gltf")
}

// OutputPath derives an export path for input inside dir.
func OutputPath(input, dir string, binary bool) string {
	ext := ".gltf"
	if binary {
		ext = ".glb"
	}
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	return filepath.Join(dir, base+ext)
}
