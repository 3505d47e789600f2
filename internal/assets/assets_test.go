package assets

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/desco/pkg/obf"
)

// oneTriangle returns a v1.0 file with a single node, group and triangle.
func oneTriangle(name string) []byte {
	var buf bytes.Buffer
	w := func(v any) { binary.Write(&buf, binary.LittleEndian, v) }

	buf.WriteString(obf.Magic)
	w([]uint8{1, 0})
	w(uint16(0))
	w(uint32(1))
	fixed := make([]byte, obf.NameSize)
	copy(fixed, name)
	buf.Write(fixed)
	w(uint32(1))
	w([2]float32{0, 0})
	w(uint32(1))
	w(uint8(obf.TopologyTriangles))
	w(uint8(obf.AttrPosition))
	w(uint32(3))
	w(uint32(36))
	w([9]float32{0, 0, 0, 1, 0, 0, 0, 1, 0})
	w(uint8(2))
	w(uint32(3))
	w(uint32(6))
	w([3]uint16{0, 1, 2})
	w(uint8(obf.MaterialNone))
	return buf.Bytes()
}

func writeModel(t *testing.T, dir, file, node string) string {
	t.Helper()
	path := filepath.Join(dir, file)
	require.NoError(t, os.WriteFile(path, oneTriangle(node), 0o644))
	return path
}

func TestManager_LaterRootsWin(t *testing.T) {
	base := t.TempDir()
	patch := t.TempDir()
	writeModel(t, base, "pc001.obf", "base")
	writeModel(t, patch, "pc001.obf", "patch")
	writeModel(t, base, "pc002.obf", "only")

	m := NewManager(nil)
	require.NoError(t, m.AddRoot(base))
	require.NoError(t, m.AddRoot(patch))

	doc, err := m.Load("pc001.obf")
	require.NoError(t, err)
	assert.Equal(t, "patch", doc.Nodes[0].Name)

	doc, err = m.Load("pc002.obf")
	require.NoError(t, err)
	assert.Equal(t, "only", doc.Nodes[0].Name)
}

func TestManager_CachesDocuments(t *testing.T) {
	dir := t.TempDir()
	path := writeModel(t, dir, "a.obf", "first")

	m := NewManager(nil)
	first, err := m.Load(path)
	require.NoError(t, err)

	// Cached copy survives the file changing on disk.
	writeModel(t, dir, "a.obf", "second")
	again, err := m.Load(path)
	require.NoError(t, err)
	assert.Same(t, first, again)

	hits, misses := m.Stats()
	assert.Equal(t, 1, hits)
	assert.Equal(t, 1, misses)

	m.Invalidate(path)
	fresh, err := m.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "second", fresh.Nodes[0].Name)
}

func TestManager_Errors(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(nil)
	require.NoError(t, m.AddRoot(dir))

	_, err := m.Load("missing.obf")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = m.Load(filepath.Join(dir, "missing.obf"))
	assert.ErrorIs(t, err, ErrNotFound)

	bad := filepath.Join(dir, "bad.obf")
	require.NoError(t, os.WriteFile(bad, []byte("NOPE\x01\x00\x00\x00\x00\x00\x00\x00"), 0o644))
	_, err = m.Load(bad)
	assert.ErrorIs(t, err, obf.ErrInvalidFormat)

	assert.Error(t, m.AddRoot(filepath.Join(dir, "nope")))
	assert.Error(t, m.AddRoot(bad))
}

func TestManager_DecodeOptions(t *testing.T) {
	dir := t.TempDir()
	path := writeModel(t, dir, "a.obf", "name")

	m := NewManager(nil, obf.WithStringDecoder(func(b []byte) string { return "decoded" }))
	doc, err := m.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "decoded", doc.Nodes[0].Name)
}

func TestCache(t *testing.T) {
	c := NewCache()
	_, ok := c.Get("x")
	assert.False(t, ok)

	doc := &obf.Document{}
	c.Set("x", doc)
	got, ok := c.Get("x")
	require.True(t, ok)
	assert.Same(t, doc, got)
	assert.Equal(t, 1, c.Len())

	hits, misses := c.Stats()
	assert.Equal(t, 1, hits)
	assert.Equal(t, 1, misses)

	c.Clear()
	assert.Equal(t, 0, c.Len())
	hits, misses = c.Stats()
	assert.Zero(t, hits)
	assert.Zero(t, misses)
}
