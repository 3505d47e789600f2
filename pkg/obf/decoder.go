package obf

import (
	"github.com/pkg/errors"
)

// decoder walks one OBF buffer. It is discarded once Load returns.
type decoder struct {
	cur     *Cursor
	opts    *options
	version Version
	meshes  map[Key]*Mesh
}

// readCount reads a uint32 element count and checks it against the limit.
func (d *decoder) readCount(what string) (int, error) {
	pos := d.cur.Pos()
	n, err := d.cur.ReadU32()
	if err != nil {
		return 0, errors.Wrapf(err, "reading %s count", what)
	}
	if uint64(n) > uint64(d.opts.maxElements) {
		return 0, errors.Wrapf(ErrOutOfRange, "%s count %d at offset %d exceeds limit %d", what, n, pos, d.opts.maxElements)
	}
	return int(n), nil
}

// capacityHint bounds a preallocation by what the remaining bytes could hold.
func (d *decoder) capacityHint(count, minRecordSize int) int {
	if most := d.cur.Remaining() / minRecordSize; count > most {
		return most
	}
	return count
}
