// Package watch reloads an OBF model whenever its file changes on disk.
package watch

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/desco/pkg/obf"
)

// DefaultDebounce is how long to wait after the last write before reloading.
const DefaultDebounce = 200 * time.Millisecond

// Watcher reloads a single file. Failed reloads are logged and the previous
// document stays in use.
type Watcher struct {
	path     string
	debounce time.Duration
	onLoad   func(*obf.Document)
	onError  func(error)
	opts     []obf.Option
	log      *zap.Logger
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period before a reload.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithLogger sets the watcher's logger.
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.log = l
		}
	}
}

// WithDecodeOptions passes options through to obf.LoadFile.
func WithDecodeOptions(opts ...obf.Option) Option {
	return func(w *Watcher) {
		w.opts = append(w.opts, opts...)
	}
}

// WithErrorHandler is called with every failed reload.
func WithErrorHandler(fn func(error)) Option {
	return func(w *Watcher) {
		w.onError = fn
	}
}

// New creates a watcher for path that hands every successfully decoded
// document to onLoad.
func New(path string, onLoad func(*obf.Document), opts ...Option) *Watcher {
	w := &Watcher{
		path:     filepath.Clean(path),
		debounce: DefaultDebounce,
		onLoad:   onLoad,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches until ctx is cancelled. The parent directory is watched so
// editors that replace the file by rename are handled.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "creating file watcher")
	}
	defer fw.Close()

	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return errors.Wrapf(err, "watching %s", filepath.Dir(w.path))
	}
	w.log.Info("watching model", zap.String("path", w.path))

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			w.log.Debug("model changed", zap.Stringer("op", ev.Op))
			timer.Reset(w.debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", zap.Error(err))

		case <-timer.C:
			w.reload()
		}
	}
}

func (w *Watcher) reload() {
	start := time.Now()
	doc, err := obf.LoadFile(w.path, w.opts...)
	if err != nil {
		w.log.Warn("reload failed, keeping previous model", zap.String("path", w.path), zap.Error(err))
		if w.onError != nil {
			w.onError(err)
		}
		return
	}
	w.log.Info("model reloaded",
		zap.String("path", w.path),
		zap.Int("meshes", doc.Len()),
		zap.Duration("took", time.Since(start)))
	if w.onLoad != nil {
		w.onLoad(doc)
	}
}
