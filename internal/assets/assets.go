// Package assets handles OBF document lookup and caching.
package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/desco/pkg/obf"
)

// ErrNotFound is returned when no search root holds the requested file.
var ErrNotFound = errors.New("asset not found")

// Manager resolves model names against a list of search roots and caches
// decoded documents.
type Manager struct {
	roots []string
	opts  []obf.Option
	cache *Cache
	log   *zap.Logger
	mu    sync.RWMutex
}

// NewManager creates a new asset manager. Decode options are applied to
// every document it loads.
func NewManager(log *zap.Logger, opts ...obf.Option) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		opts:  opts,
		cache: NewCache(),
		log:   log,
	}
}

// AddRoot adds a search directory.
// Roots are searched in reverse order (last added = highest priority).
func (m *Manager) AddRoot(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("adding root %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("adding root %s: not a directory", dir)
	}

	m.mu.Lock()
	m.roots = append(m.roots, filepath.Clean(dir))
	m.mu.Unlock()

	return nil
}

// Resolve maps name to an existing file. Absolute names and names that exist
// relative to the working directory win over the search roots.
func (m *Manager) Resolve(name string) (string, error) {
	if fileExists(name) {
		return filepath.Clean(name), nil
	}
	if filepath.IsAbs(name) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := len(m.roots) - 1; i >= 0; i-- {
		p := filepath.Join(m.roots[i], name)
		if fileExists(p) {
			return p, nil
		}
	}

	return "", fmt.Errorf("%w: %s", ErrNotFound, name)
}

// Load returns the decoded document for name, decoding it on first use.
func (m *Manager) Load(name string) (*obf.Document, error) {
	path, err := m.Resolve(name)
	if err != nil {
		return nil, err
	}

	if doc, ok := m.cache.Get(path); ok {
		return doc, nil
	}

	doc, err := obf.LoadFile(path, m.opts...)
	if err != nil {
		return nil, err
	}

	m.cache.Set(path, doc)
	m.log.Debug("cached document", zap.String("path", path), zap.Int("meshes", doc.Len()))
	return doc, nil
}

// Invalidate drops the cached document for name so the next Load re-reads it.
func (m *Manager) Invalidate(name string) {
	if path, err := m.Resolve(name); err == nil {
		m.cache.Delete(path)
		return
	}
	m.cache.Delete(filepath.Clean(name))
}

// Stats returns cache statistics.
func (m *Manager) Stats() (hits, misses int) {
	return m.cache.Stats()
}

// Close drops all roots and cached documents.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.roots = nil
	m.cache.Clear()
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Cache is a simple in-memory cache of decoded documents.
type Cache struct {
	data map[string]*obf.Document
	mu   sync.RWMutex

	// Stats
	hits   int
	misses int
}

// NewCache creates a new cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string]*obf.Document),
	}
}

// Get retrieves an item from cache.
func (c *Cache) Get(key string) (*obf.Document, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	doc, ok := c.data[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return doc, ok
}

// Set stores an item in cache.
func (c *Cache) Set(key string, doc *obf.Document) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = doc
}

// Delete removes an item from cache.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
}

// Len returns the number of cached documents.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

// Clear clears the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string]*obf.Document)
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}
