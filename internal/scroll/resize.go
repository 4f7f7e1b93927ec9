package scroll

import (
	"sync"

	"loopscroll/internal/domain"
)

// ResizeEntry is one observed size change
type ResizeEntry struct {
	Target Element
	Size   domain.Size
}

// ResizeObserver is the host capability for box observation. Observe starts
// delivering entries for target and returns a function that stops it.
type ResizeObserver interface {
	Observe(target Element, callback func([]ResizeEntry)) (stop func())
}

// ResizeWatcher watches one target at a time. Without an observer it never
// fires and Supported reports false.
type ResizeWatcher struct {
	mu       sync.Mutex
	observer ResizeObserver
	stop     func()
}

// NewResizeWatcher creates a watcher on top of observer, which may be nil
func NewResizeWatcher(observer ResizeObserver) *ResizeWatcher {
	return &ResizeWatcher{observer: observer}
}

// Supported reports whether resize observation is available
func (w *ResizeWatcher) Supported() bool {
	return w.observer != nil
}

// Watch observes target, replacing any previous observation
func (w *ResizeWatcher) Watch(target Element, onChange func([]ResizeEntry)) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.unwatchLocked()
	if target == nil || w.observer == nil {
		return
	}
	w.stop = w.observer.Observe(target, onChange)
}

// Unwatch stops the current observation. Safe to call repeatedly.
func (w *ResizeWatcher) Unwatch() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.unwatchLocked()
}

func (w *ResizeWatcher) unwatchLocked() {
	if w.stop != nil {
		w.stop()
		w.stop = nil
	}
}
