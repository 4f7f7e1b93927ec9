package ui

import (
	"sync"

	"loopscroll/internal/scroll"
)

// sizeObserver turns terminal size messages into resize observations for
// the scroll engine.
type sizeObserver struct {
	mu       sync.Mutex
	callback func([]scroll.ResizeEntry)
}

func (o *sizeObserver) Observe(_ scroll.Element, callback func([]scroll.ResizeEntry)) func() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.callback = callback
	return func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		o.callback = nil
	}
}

// notify reports the current size of target to the observer, if any
func (o *sizeObserver) notify(target scroll.Element) {
	o.mu.Lock()
	cb := o.callback
	o.mu.Unlock()
	if cb != nil {
		cb([]scroll.ResizeEntry{{Target: target, Size: scroll.Measure(target)}})
	}
}
