package scrollstack_test

import (
	"sync"

	"github.com/aretw0/msquare/pkg/scrollstack"
)

type fakeScroll struct {
	mu     sync.Mutex
	top    float64
	height float64
	subs   map[int]func()
	nextID int
}

func newFakeScroll(height float64) *fakeScroll {
	return &fakeScroll{height: height, subs: make(map[int]func())}
}

func (f *fakeScroll) ScrollTop() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.top
}

func (f *fakeScroll) ViewportHeight() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.height
}

func (f *fakeScroll) Subscribe(fn func()) scrollstack.Subscription {
	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.subs[id] = fn
	f.mu.Unlock()
	return scrollstack.NewSubscription(func() {
		f.mu.Lock()
		delete(f.subs, id)
		f.mu.Unlock()
	})
}

func (f *fakeScroll) listeners() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

// scrollTo moves the offset and fires the listeners like a native scroll event.
func (f *fakeScroll) scrollTo(top float64) {
	f.mu.Lock()
	f.top = top
	fns := make([]func(), 0, len(f.subs))
	for _, fn := range f.subs {
		fns = append(fns, fn)
	}
	f.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

type fakeAnchor struct {
	mu      sync.Mutex
	top     float64
	ok      bool
	applied []scrollstack.Transform
}

func newAnchor(top float64) *fakeAnchor {
	return &fakeAnchor{top: top, ok: true}
}

func (a *fakeAnchor) Top() (float64, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.top, a.ok
}

func (a *fakeAnchor) Apply(t scrollstack.Transform) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.applied = append(a.applied, t)
}

func (a *fakeAnchor) writes() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.applied)
}

func (a *fakeAnchor) last() scrollstack.Transform {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.applied[len(a.applied)-1]
}

func (a *fakeAnchor) setLaidOut(ok bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.ok = ok
}

func itemsFor(anchors ...*fakeAnchor) []scrollstack.Item {
	items := make([]scrollstack.Item, len(anchors))
	for i, a := range anchors {
		items[i] = scrollstack.Item{Content: i, Anchor: a}
	}
	return items
}
