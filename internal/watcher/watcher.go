// Package watcher reports edits to the HTML fragments under the sections
// directory so operators see them in the log without restarting.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/edugate/sitecms/pkg/logger"
	"github.com/edugate/sitecms/pkg/metrics"
	"github.com/fsnotify/fsnotify"
)

// Change is one debounced fragment event.
type Change struct {
	Event string // created, modified, deleted, renamed
	Path  string
}

// Handler receives every debounced batch, sorted by path.
type Handler func(changes []Change)

// Watcher follows one directory of fragments.
type Watcher struct {
	fs       *fsnotify.Watcher
	dir      string
	delay    time.Duration
	mu       sync.Mutex
	pending  map[string]Change
	timer    *time.Timer
	handlers []Handler
}

// New starts watching dir. Events for the same file that arrive within delay
// are collapsed into one Change.
func New(dir string, delay time.Duration) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fs watcher: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	return &Watcher{fs: fw, dir: dir, delay: delay, pending: make(map[string]Change)}, nil
}

// AddHandler registers h. Call before Run.
func (w *Watcher) AddHandler(h Handler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers = append(w.handlers, h)
}

// Run consumes events until ctx is done, then closes the underlying watcher.
func (w *Watcher) Run(ctx context.Context) {
	defer w.stop()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.observe(ev)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			logger.Warnf("fragment watcher: %v", err)
		}
	}
}

func (w *Watcher) stop() {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	_ = w.fs.Close()
}

func eventName(op fsnotify.Op) string {
	switch {
	case op.Has(fsnotify.Create):
		return "created"
	case op.Has(fsnotify.Write):
		return "modified"
	case op.Has(fsnotify.Remove):
		return "deleted"
	case op.Has(fsnotify.Rename):
		return "renamed"
	}
	return ""
}

// IsFragment reports whether path names an HTML fragment.
func IsFragment(path string) bool {
	base := filepath.Base(path)
	return strings.EqualFold(filepath.Ext(base), ".html") && !strings.HasPrefix(base, ".")
}

func (w *Watcher) observe(ev fsnotify.Event) {
	name := eventName(ev.Op)
	if name == "" || !IsFragment(ev.Name) {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[ev.Name] = Change{Event: name, Path: ev.Name}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.delay, w.flush)
}

func (w *Watcher) flush() {
	w.mu.Lock()
	if len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}
	batch := make([]Change, 0, len(w.pending))
	for _, c := range w.pending {
		batch = append(batch, c)
	}
	w.pending = make(map[string]Change)
	handlers := append([]Handler(nil), w.handlers...)
	w.mu.Unlock()

	sort.Slice(batch, func(i, j int) bool { return batch[i].Path < batch[j].Path })
	for _, c := range batch {
		metrics.FragmentChanges.WithLabelValues(c.Event).Inc()
		rel, err := filepath.Rel(w.dir, c.Path)
		if err != nil {
			rel = c.Path
		}
		logger.Infof("fragment %s %s", rel, c.Event)
	}
	for _, h := range handlers {
		h(batch)
	}
}
