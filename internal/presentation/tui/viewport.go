package tui

import (
	"math"
	"sync"

	"github.com/aretw0/msquare/pkg/scrollstack"
)

// Viewport is an in-memory scroll context. Offsets are in virtual pixels.
type Viewport struct {
	mu        sync.Mutex
	top       float64
	height    float64
	content   float64
	listeners map[int]func()
	nextID    int
}

// NewViewport creates a viewport of the given height over content of the given height.
func NewViewport(height, content float64) *Viewport {
	return &Viewport{
		height:    height,
		content:   content,
		listeners: make(map[int]func()),
	}
}

func (v *Viewport) ScrollTop() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.top
}

func (v *Viewport) ViewportHeight() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.height
}

// Subscribe registers fn for scroll and resize notifications.
func (v *Viewport) Subscribe(fn func()) scrollstack.Subscription {
	v.mu.Lock()
	id := v.nextID
	v.nextID++
	v.listeners[id] = fn
	v.mu.Unlock()

	return scrollstack.NewSubscription(func() {
		v.mu.Lock()
		delete(v.listeners, id)
		v.mu.Unlock()
	})
}

// Listeners reports the number of active subscriptions.
func (v *Viewport) Listeners() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.listeners)
}

// MaxScroll is the largest reachable offset.
func (v *Viewport) MaxScroll() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.maxScrollLocked()
}

func (v *Viewport) maxScrollLocked() float64 {
	return math.Max(0, v.content-v.height)
}

// AtEnd reports whether the viewport cannot scroll further down.
func (v *Viewport) AtEnd() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.top >= v.maxScrollLocked()
}

// ScrollTo moves to top, clamped to the scrollable range. Listeners run only when the offset changed.
func (v *Viewport) ScrollTo(top float64) {
	v.mu.Lock()
	top = math.Min(math.Max(0, top), v.maxScrollLocked())
	if top == v.top {
		v.mu.Unlock()
		return
	}
	v.top = top
	fns := v.snapshotLocked()
	v.mu.Unlock()
	notify(fns)
}

// ScrollBy moves the offset by delta.
func (v *Viewport) ScrollBy(delta float64) {
	v.ScrollTo(v.ScrollTop() + delta)
}

// Resize changes the viewport height, re-clamps the offset and notifies listeners.
func (v *Viewport) Resize(height float64) {
	v.mu.Lock()
	v.height = height
	v.top = math.Min(v.top, v.maxScrollLocked())
	fns := v.snapshotLocked()
	v.mu.Unlock()
	notify(fns)
}

// SetContentHeight changes the scrollable length.
func (v *Viewport) SetContentHeight(content float64) {
	v.mu.Lock()
	v.content = content
	v.top = math.Min(v.top, v.maxScrollLocked())
	v.mu.Unlock()
}

func (v *Viewport) snapshotLocked() []func() {
	fns := make([]func(), 0, len(v.listeners))
	for _, fn := range v.listeners {
		fns = append(fns, fn)
	}
	return fns
}

func notify(fns []func()) {
	for _, fn := range fns {
		fn()
	}
}
