// Package scene owns a decoded OBF document for a render loop and feeds the
// per-group texture animation state to the caller's renderer each frame.
package scene

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/desco/pkg/obf"
)

// timerScale converts elapsed milliseconds into shader timer units.
const timerScale = 1.0 / 16.0

// Uniforms receives per-draw shader state. Implementations map these onto
// whatever uniform API the renderer uses.
type Uniforms interface {
	SetTimer(t float32)
	SetTexCoordOffset(u, v float32)
}

// FrameStats summarizes one Frame call.
type FrameStats struct {
	Meshes   int
	Vertices int
	Indices  int
}

// Scene holds the document currently shown. Swap may be called from another
// goroutine while Frame runs.
type Scene struct {
	mu     sync.RWMutex
	doc    *obf.Document
	source string
	timer  float32
	frames uint64

	log *zap.Logger
}

// New creates a scene showing doc. A nil doc gives an empty scene.
func New(doc *obf.Document, log *zap.Logger) *Scene {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scene{doc: doc, log: log}
}

// Load decodes path and returns a scene showing it.
func Load(path string, log *zap.Logger, opts ...obf.Option) (*Scene, error) {
	doc, err := obf.LoadFile(path, opts...)
	if err != nil {
		return nil, err
	}
	s := New(doc, log)
	s.source = path
	s.log.Info("model loaded",
		zap.String("path", path),
		zap.Int("nodes", len(doc.Nodes)),
		zap.Int("meshes", doc.Len()))
	return s, nil
}

// Document returns the current document, or nil.
func (s *Scene) Document() *obf.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc
}

// Source returns the path the scene was loaded from, if any.
func (s *Scene) Source() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.source
}

// Swap replaces the shown document and returns the previous one.
func (s *Scene) Swap(doc *obf.Document) *obf.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	old := s.doc
	s.doc = doc
	n := 0
	if doc != nil {
		n = doc.Len()
	}
	s.log.Debug("document swapped", zap.Int("meshes", n))
	return old
}

// Advance moves the texture animation timer forward by dt.
func (s *Scene) Advance(dt time.Duration) {
	ms := float32(dt) / float32(time.Millisecond)
	s.mu.Lock()
	s.timer += ms * timerScale
	s.mu.Unlock()
}

// Timer returns the current animation timer value.
func (s *Scene) Timer() float32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.timer
}

// Frames returns the number of completed Frame calls.
func (s *Scene) Frames() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frames
}

// Frame draws every mesh once in key order. Before each mesh the owning
// group's texture offset is pushed to u.
func (s *Scene) Frame(u Uniforms, d obf.Drawer) (FrameStats, error) {
	var stats FrameStats
	if u == nil || d == nil {
		return stats, errors.New("frame: nil uniforms or drawer")
	}

	s.mu.RLock()
	doc, timer := s.doc, s.timer
	s.mu.RUnlock()

	if doc == nil {
		return stats, nil
	}

	u.SetTimer(timer)
	err := doc.Each(func(k obf.Key, g *obf.Group, m *obf.Mesh) error {
		u.SetTexCoordOffset(g.OffsetU, g.OffsetV)
		if err := m.Render(d); err != nil {
			return err
		}
		stats.Meshes++
		stats.Vertices += m.VertexCount()
		stats.Indices += len(m.Indices)
		return nil
	})
	if err != nil {
		s.log.Warn("frame aborted", zap.Error(err), zap.Int("drawn", stats.Meshes))
		return stats, err
	}

	s.mu.Lock()
	s.frames++
	s.mu.Unlock()
	return stats, nil
}
