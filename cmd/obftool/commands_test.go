package main

import (
	"bytes"
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/qmuntal/gltf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Faultbox/desco/internal/assets"
	"github.com/Faultbox/desco/internal/config"
	"github.com/Faultbox/desco/internal/export"
	"github.com/Faultbox/desco/pkg/obf"
)

// writeModel writes a v1.0 file with one node named "body" holding one
// triangle in a group offset by (0.25, 0).
func writeModel(t *testing.T, dir string) string {
	t.Helper()

	var buf bytes.Buffer
	w := func(v any) { binary.Write(&buf, binary.LittleEndian, v) }

	buf.WriteString(obf.Magic)
	w([]uint8{1, 0})
	w(uint16(0))
	w(uint32(1))
	name := make([]byte, obf.NameSize)
	copy(name, "body")
	buf.Write(name)
	w(uint32(1))
	w([2]float32{0.25, 0})
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

	path := filepath.Join(dir, "pc001.obf")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func newTestApp(t *testing.T, cfg *config.Config, log *zap.Logger) (*app, *bytes.Buffer) {
	t.Helper()
	if cfg == nil {
		cfg = config.Default()
	}
	if log == nil {
		log = zap.NewNop()
	}
	a, err := newApp(cfg, log)
	require.NoError(t, err)
	out := &bytes.Buffer{}
	a.out = out
	return a, out
}

func TestCmdInfo(t *testing.T) {
	path := writeModel(t, t.TempDir())
	a, out := newTestApp(t, nil, nil)

	require.NoError(t, a.cmdInfo([]string{path}))
	assert.Contains(t, out.String(), "Version:    1.0")
	assert.Contains(t, out.String(), "Primitives: 1")
	assert.Contains(t, out.String(), "Vertices:   3")
}

func TestCmdMeshes(t *testing.T) {
	path := writeModel(t, t.TempDir())
	a, out := newTestApp(t, nil, nil)

	require.NoError(t, a.cmdMeshes([]string{path}))
	lines := bytes.Split(bytes.TrimSpace(out.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)
	assert.Contains(t, string(lines[0]), "KEY")
	row := string(lines[1])
	assert.Contains(t, row, "0/0/0")
	assert.Contains(t, row, "body")
	assert.Contains(t, row, "(0.250, 0.000)")
	assert.Contains(t, row, "Triangles")
}

func TestCmdDump(t *testing.T) {
	path := writeModel(t, t.TempDir())
	a, out := newTestApp(t, nil, nil)

	require.NoError(t, a.cmdDump([]string{"-meshes", path}))
	assert.Contains(t, out.String(), `"body"`)
	assert.Contains(t, out.String(), "mesh 0/0/0:")
}

func TestCmdExport(t *testing.T) {
	t.Run("explicit output", func(t *testing.T) {
		dir := t.TempDir()
		path := writeModel(t, dir)
		a, out := newTestApp(t, nil, nil)

		target := filepath.Join(dir, "custom.gltf")
		require.NoError(t, a.cmdExport([]string{path, target}))
		assert.Contains(t, out.String(), "Exported: "+target)

		doc, err := gltf.Open(target)
		require.NoError(t, err)
		assert.Len(t, doc.Meshes, 1)
		assert.Len(t, doc.Nodes, 1)
	})

	t.Run("output from config", func(t *testing.T) {
		dir := t.TempDir()
		path := writeModel(t, dir)

		cfg := config.Default()
		cfg.Export.OutputDir = filepath.Join(dir, "out")
		cfg.Export.Binary = true
		require.NoError(t, os.MkdirAll(cfg.Export.OutputDir, 0o755))
		a, _ := newTestApp(t, cfg, nil)

		require.NoError(t, a.cmdExport([]string{path}))
		want := export.OutputPath(path, cfg.Export.OutputDir, true)
		assert.Equal(t, filepath.Join(cfg.Export.OutputDir, "pc001.glb"), want)
		_, err := os.Stat(want)
		assert.NoError(t, err)
	})
}

func TestCommandErrors(t *testing.T) {
	a, _ := newTestApp(t, nil, nil)

	assert.ErrorIs(t, a.cmdInfo(nil), errUsage)
	assert.ErrorIs(t, a.cmdMeshes(nil), errUsage)
	assert.ErrorIs(t, a.cmdExport(nil), errUsage)
	assert.ErrorIs(t, a.cmdWatch(context.Background(), nil), errUsage)

	missing := filepath.Join(t.TempDir(), "missing.obf")
	assert.ErrorIs(t, a.cmdInfo([]string{missing}), assets.ErrNotFound)
}

func TestCmdWatch_RendersUntilCancelled(t *testing.T) {
	path := writeModel(t, t.TempDir())
	core, logs := observer.New(zap.InfoLevel)
	a, _ := newTestApp(t, nil, zap.New(core))

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	require.NoError(t, a.cmdWatch(ctx, []string{"-interval", "10ms", path}))

	stopped := logs.FilterMessage("stopped").All()
	require.Len(t, stopped, 1)
	fields := stopped[0].ContextMap()
	assert.Greater(t, fields["frames"], uint64(0))
	assert.Greater(t, fields["draws"], int64(0))
}
