package obf

import (
	"github.com/pkg/errors"
)

// minGroupSize is the size of a group record with no primitives.
const minGroupSize = 4 + 4 + 4

// decodeGroup reads a group and its primitives in file order, registering
// each primitive's mesh under (node, idx, primitive).
func (d *decoder) decodeGroup(node, idx int) (Group, error) {
	g := Group{Index: idx}

	var err error
	if g.OffsetU, err = d.cur.ReadF32(); err != nil {
		return g, errors.Wrap(err, "reading texture offset U")
	}
	if g.OffsetV, err = d.cur.ReadF32(); err != nil {
		return g, errors.Wrap(err, "reading texture offset V")
	}

	count, err := d.readCount("primitive")
	if err != nil {
		return g, err
	}

	g.Primitives = make([]Primitive, 0, d.capacityHint(count, minPrimitiveSize))
	for i := 0; i < count; i++ {
		prim, mesh, err := d.decodePrimitive(i)
		if err != nil {
			return g, atPrimitive(err, i)
		}
		mesh.Key = Key{Node: node, Group: idx, Primitive: i}
		d.meshes[mesh.Key] = mesh
		g.Primitives = append(g.Primitives, prim)
	}
	return g, nil
}
