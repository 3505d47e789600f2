package obf

import (
	"bytes"
	"io"
	"os"
	"sort"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// headerSize is magic + version + flags + node count.
const headerSize = 4 + 2 + 2 + 4

// minNodeSize is the size of a v1.0 node record with no groups.
const minNodeSize = NameSize + 4

// Document is a decoded OBF file. It is immutable once Load returns and may
// be read from several goroutines.
type Document struct {
	Version Version
	Nodes   []Node

	meshes map[Key]*Mesh
	keys   []Key
}

// Load decodes a complete OBF stream. The reader is only used during the
// call; returned meshes own their buffers.
func Load(r io.Reader, opts ...Option) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "reading OBF stream")
	}
	return Decode(data, opts...)
}

// LoadFile opens path read-only, decodes it and closes it.
func LoadFile(path string, opts ...Option) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening OBF file")
	}
	defer f.Close()

	doc, err := Load(f, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", path)
	}
	return doc, nil
}

// Decode decodes an OBF file held in memory. The returned document does not
// reference data.
func Decode(data []byte, opts ...Option) (*Document, error) {
	o := newOptions(opts)
	if len(data) >= len(Magic) && !bytes.Equal(data[:len(Magic)], []byte(Magic)) {
		return nil, errors.Wrapf(ErrInvalidFormat, "bad magic %q", data[:len(Magic)])
	}
	if len(data) < headerSize {
		return nil, errors.Wrapf(ErrTruncatedData, "file is %d bytes, header needs %d", len(data), headerSize)
	}

	d := &decoder{
		cur:    NewCursor(data),
		opts:   o,
		meshes: make(map[Key]*Mesh),
	}

	doc := &Document{}
	if err := d.decodeHeader(doc); err != nil {
		return nil, err
	}

	count, err := d.readCount("node")
	if err != nil {
		return nil, err
	}

	doc.Nodes = make([]Node, 0, d.capacityHint(count, minNodeSize))
	for i := 0; i < count; i++ {
		if o.onNode != nil {
			o.onNode(i)
		}
		n, err := d.decodeNode(i)
		if err != nil {
			return nil, atNode(err, i)
		}
		doc.Nodes = append(doc.Nodes, n)
	}

	if rest := d.cur.Remaining(); rest > 0 {
		o.logger.Debug("ignoring trailing bytes", zap.Int("bytes", rest))
	}

	doc.meshes = d.meshes
	doc.keys = make([]Key, 0, len(d.meshes))
	for k := range d.meshes {
		doc.keys = append(doc.keys, k)
	}
	sort.Slice(doc.keys, func(i, j int) bool { return doc.keys[i].Less(doc.keys[j]) })

	o.logger.Debug("decoded OBF document",
		zap.Stringer("version", doc.Version),
		zap.Int("nodes", len(doc.Nodes)),
		zap.Int("meshes", len(doc.meshes)))

	return doc, nil
}

func (d *decoder) decodeHeader(doc *Document) error {
	magic, err := d.cur.take(len(Magic))
	if err != nil {
		return errors.Wrap(err, "reading magic")
	}
	if !bytes.Equal(magic, []byte(Magic)) {
		return errors.Wrapf(ErrInvalidFormat, "bad magic %q", magic)
	}

	major, err := d.cur.ReadU8()
	if err != nil {
		return errors.Wrap(err, "reading version")
	}
	minor, err := d.cur.ReadU8()
	if err != nil {
		return errors.Wrap(err, "reading version")
	}
	doc.Version = Version{Major: major, Minor: minor}
	if !doc.Version.Supported() {
		return errors.Wrapf(ErrInvalidFormat, "unsupported version %s", doc.Version)
	}
	d.version = doc.Version

	// Reserved flags
	if err := d.cur.Skip(2); err != nil {
		return errors.Wrap(err, "reading header flags")
	}
	return nil
}

// Meshes returns a snapshot of the mesh table. The map is a copy; the meshes
// are shared and must be treated as read-only.
func (doc *Document) Meshes() map[Key]*Mesh {
	out := make(map[Key]*Mesh, len(doc.meshes))
	for k, m := range doc.meshes {
		out[k] = m
	}
	return out
}

// Keys returns all mesh keys in node, group, primitive order.
func (doc *Document) Keys() []Key {
	return append([]Key(nil), doc.keys...)
}

// Len returns the number of meshes.
func (doc *Document) Len() int {
	return len(doc.meshes)
}

// Mesh returns the mesh stored under k.
func (doc *Document) Mesh(k Key) (*Mesh, bool) {
	m, ok := doc.meshes[k]
	return m, ok
}

// Node returns the node that owns k, or nil.
func (doc *Document) Node(k Key) *Node {
	if k.Node < 0 || k.Node >= len(doc.Nodes) {
		return nil
	}
	return &doc.Nodes[k.Node]
}

// Group returns the group that owns k, or nil.
func (doc *Document) Group(k Key) *Group {
	n := doc.Node(k)
	if n == nil || k.Group < 0 || k.Group >= len(n.Groups) {
		return nil
	}
	return &n.Groups[k.Group]
}

// Primitive returns the primitive record for k, or nil.
func (doc *Document) Primitive(k Key) *Primitive {
	g := doc.Group(k)
	if g == nil || k.Primitive < 0 || k.Primitive >= len(g.Primitives) {
		return nil
	}
	return &g.Primitives[k.Primitive]
}

// Each calls fn for every mesh in key order, stopping at the first error.
func (doc *Document) Each(fn func(k Key, g *Group, m *Mesh) error) error {
	for _, k := range doc.keys {
		if err := fn(k, doc.Group(k), doc.meshes[k]); err != nil {
			return err
		}
	}
	return nil
}

// PrimitiveCount returns the number of primitive records across all nodes.
func (doc *Document) PrimitiveCount() int {
	total := 0
	for _, n := range doc.Nodes {
		for _, g := range n.Groups {
			total += len(g.Primitives)
		}
	}
	return total
}

// TotalVertexCount returns the number of vertices across all meshes.
func (doc *Document) TotalVertexCount() int {
	total := 0
	for _, m := range doc.meshes {
		total += len(m.Vertices)
	}
	return total
}

// TotalIndexCount returns the number of indices across all meshes.
func (doc *Document) TotalIndexCount() int {
	total := 0
	for _, m := range doc.meshes {
		total += len(m.Indices)
	}
	return total
}

// Bounds returns the union of all mesh bounds in model space, ignoring node
// transforms.
func (doc *Document) Bounds() Bounds {
	var b Bounds
	for i, k := range doc.keys {
		if i == 0 {
			b = doc.meshes[k].Bounds
			continue
		}
		b = b.Union(doc.meshes[k].Bounds)
	}
	return b
}

// Equal reports whether two documents have the same tree and mesh geometry.
func (doc *Document) Equal(o *Document) bool {
	if doc == nil || o == nil {
		return doc == o
	}
	if doc.Version != o.Version || len(doc.Nodes) != len(o.Nodes) || len(doc.keys) != len(o.keys) {
		return false
	}
	for i := range doc.Nodes {
		a, b := &doc.Nodes[i], &o.Nodes[i]
		if a.Name != b.Name || a.HasTransform != b.HasTransform || a.Transform != b.Transform || len(a.Groups) != len(b.Groups) {
			return false
		}
		for j := range a.Groups {
			ga, gb := &a.Groups[j], &b.Groups[j]
			if ga.OffsetU != gb.OffsetU || ga.OffsetV != gb.OffsetV || len(ga.Primitives) != len(gb.Primitives) {
				return false
			}
			for p := range ga.Primitives {
				if ga.Primitives[p] != gb.Primitives[p] {
					return false
				}
			}
		}
	}
	for _, k := range doc.keys {
		if !doc.meshes[k].Equal(o.meshes[k]) {
			return false
		}
	}
	return true
}
