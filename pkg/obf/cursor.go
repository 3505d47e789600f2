package obf

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"
)

// Cursor is a position-tracked little-endian reader over an in-memory buffer.
// A failed read leaves the position unchanged.
type Cursor struct {
	data []byte
	pos  int
}

// NewCursor returns a cursor positioned at the start of data.
func NewCursor(data []byte) *Cursor {
	return &Cursor{data: data}
}

// Pos returns the current read position.
func (c *Cursor) Pos() int {
	return c.pos
}

// Len returns the size of the underlying buffer.
func (c *Cursor) Len() int {
	return len(c.data)
}

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int {
	return len(c.data) - c.pos
}

// Seek moves the read position to an absolute offset.
// The end of the buffer is a valid target.
func (c *Cursor) Seek(offset int) error {
	if offset < 0 || offset > len(c.data) {
		return errors.Wrapf(ErrOutOfRange, "seek to %d (buffer is %d bytes)", offset, len(c.data))
	}
	c.pos = offset
	return nil
}

// Skip advances the position by n bytes.
func (c *Cursor) Skip(n int) error {
	if _, err := c.take(n); err != nil {
		return err
	}
	return nil
}

func (c *Cursor) take(n int) ([]byte, error) {
	if n < 0 {
		return nil, errors.Wrapf(ErrOutOfRange, "negative read of %d bytes at offset %d", n, c.pos)
	}
	if c.Remaining() < n {
		return nil, errors.Wrapf(ErrTruncatedData, "need %d bytes at offset %d, have %d", n, c.pos, c.Remaining())
	}
	b := c.data[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

// ReadU8 reads one byte.
func (c *Cursor) ReadU8() (uint8, error) {
	b, err := c.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadU16 reads a little-endian uint16.
func (c *Cursor) ReadU16() (uint16, error) {
	b, err := c.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// ReadU32 reads a little-endian uint32.
func (c *Cursor) ReadU32() (uint32, error) {
	b, err := c.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// ReadF32 reads a little-endian IEEE 754 float32.
func (c *Cursor) ReadF32() (float32, error) {
	v, err := c.ReadU32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// ReadFixedString reads n bytes and returns them up to the first NUL.
// The returned slice is a copy.
func (c *Cursor) ReadFixedString(n int) ([]byte, error) {
	b, err := c.take(n)
	if err != nil {
		return nil, err
	}
	for i, ch := range b {
		if ch == 0 {
			b = b[:i]
			break
		}
	}
	return append([]byte(nil), b...), nil
}

// ReadBlob reads a uint32 length followed by that many bytes.
// The returned slice is a copy, so the cursor's buffer may be released afterwards.
func (c *Cursor) ReadBlob() ([]byte, error) {
	start := c.pos
	n, err := c.ReadU32()
	if err != nil {
		return nil, err
	}
	if uint64(n) > uint64(c.Remaining()) {
		c.pos = start
		return nil, errors.Wrapf(ErrTruncatedData, "blob of %d bytes at offset %d, have %d", n, start, c.Remaining()-4)
	}
	b, _ := c.take(int(n))
	return append([]byte(nil), b...), nil
}

// ReadString16 reads a uint16 length followed by that many bytes.
func (c *Cursor) ReadString16() ([]byte, error) {
	start := c.pos
	n, err := c.ReadU16()
	if err != nil {
		return nil, err
	}
	b, err := c.take(int(n))
	if err != nil {
		c.pos = start
		return nil, err
	}
	return append([]byte(nil), b...), nil
}
