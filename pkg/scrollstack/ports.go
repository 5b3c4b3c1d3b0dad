package scrollstack

import (
	"sync"
	"time"
)

// Transform is the visual state computed for one item on one frame.
type Transform struct {
	// Scale is the render scale, within [BaseScale, 1].
	Scale float64
	// Opacity is the brightness of the item, within [0, 1].
	Opacity float64
	// Top is the anchored (sticky) top offset inside the viewport.
	Top float64
	// TranslateY is how far the item is displaced from its natural position to honour Top.
	TranslateY float64
	// Pinned reports that the item reached its stacked position.
	Pinned bool
	// ScaleProgress and StickyProgress are the interpolation fractions behind Scale and Pinned.
	ScaleProgress  float64
	StickyProgress float64
}

// Identity is the transform of an item that is not stacked at all.
func Identity() Transform {
	return Transform{Scale: 1, Opacity: 1}
}

// Anchor is the rendered box of an item. The engine never creates or destroys it.
type Anchor interface {
	// Top returns the absolute top offset of the box inside the scroll context.
	// ok is false when the box is not laid out yet; the item is then skipped for the frame.
	Top() (top float64, ok bool)
	// Apply writes the computed transform back onto the box.
	Apply(Transform)
}

// ScrollContext is the region whose scroll position drives the stack.
type ScrollContext interface {
	ScrollTop() float64
	ViewportHeight() float64
	// Subscribe registers fn for scroll and resize notifications.
	Subscribe(fn func()) Subscription
}

// Subscription is a listener registration. Close is idempotent.
type Subscription interface {
	Close()
}

// FrameScheduler runs callbacks on the next frame.
type FrameScheduler interface {
	RequestFrame(fn func(now time.Time)) FrameHandle
}

// FrameHandle is a scheduled frame callback. Cancel is idempotent and a no-op once the callback ran.
type FrameHandle interface {
	Cancel()
}

type subscription struct {
	once    sync.Once
	release func()
}

// NewSubscription wraps a release function into an idempotent Subscription.
func NewSubscription(release func()) Subscription {
	return &subscription{release: release}
}

func (s *subscription) Close() {
	s.once.Do(func() {
		if s.release != nil {
			s.release()
		}
	})
}
