package obf

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// nodeHasTransform is the node flag bit marking an inline 4x4 matrix (v1.1+).
const nodeHasTransform = 0x01

// decodeNode reads one node record and its groups.
func (d *decoder) decodeNode(idx int) (Node, error) {
	n := Node{Index: idx, Transform: mgl32.Ident4()}

	raw, err := d.cur.ReadFixedString(NameSize)
	if err != nil {
		return n, errors.Wrap(err, "reading node name")
	}
	n.Name = d.opts.decodeString(raw)

	if d.version.AtLeast(1, 1) {
		flags, err := d.cur.ReadU8()
		if err != nil {
			return n, errors.Wrap(err, "reading node flags")
		}
		if flags&nodeHasTransform != 0 {
			for i := range n.Transform {
				if n.Transform[i], err = d.cur.ReadF32(); err != nil {
					return n, errors.Wrap(err, "reading node transform")
				}
			}
			n.HasTransform = true
		}
	}

	count, err := d.readCount("group")
	if err != nil {
		return n, err
	}

	n.Groups = make([]Group, 0, d.capacityHint(count, minGroupSize))
	for i := 0; i < count; i++ {
		g, err := d.decodeGroup(idx, i)
		if err != nil {
			return n, atGroup(err, i)
		}
		n.Groups = append(n.Groups, g)
	}

	d.opts.logger.Debug("decoded node",
		zap.Int("node", idx),
		zap.String("name", n.Name),
		zap.Bool("transform", n.HasTransform),
		zap.Int("groups", len(n.Groups)))

	return n, nil
}
