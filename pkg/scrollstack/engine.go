package scrollstack

import (
	"io"
	"log/slog"
	"math"
	"sync"
	"time"
)

// Item is one panel of the stack. Index and Total are assigned by the engine and never change.
type Item struct {
	Index   int
	Total   int
	Content any
	Anchor  Anchor
}

// Engine drives the transforms of a stack of items from the scroll position of its ScrollContext.
type Engine struct {
	cfg    Config
	scroll ScrollContext
	sched  FrameScheduler
	items  []Item

	logger     *slog.Logger
	onComplete func()
	hooks      Hooks
	easing     func(float64) float64

	mu         sync.Mutex
	mounted    bool
	sub        Subscription
	pending    FrameHandle
	pendingSeq uint64
	driver     *Driver
	completed  bool
	transforms []Transform
}

// New creates an unmounted engine. Index and Total of the given items are overwritten with their position.
func New(scroll ScrollContext, sched FrameScheduler, cfg Config, items []Item, opts ...Option) *Engine {
	e := &Engine{
		cfg:    cfg,
		scroll: scroll,
		sched:  sched,
		items:  make([]Item, len(items)),
		easing: ExpoOut,
	}
	for i, it := range items {
		it.Index = i
		it.Total = len(items)
		e.items[i] = it
	}
	e.transforms = make([]Transform, len(items))
	for i := range e.transforms {
		e.transforms[i] = Identity()
	}

	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return e
}

// Items returns a copy of the stack items.
func (e *Engine) Items() []Item {
	out := make([]Item, len(e.items))
	copy(out, e.items)
	return out
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Mount subscribes to the scroll context, starts the smooth-scroll driver when enabled and runs a first pass.
// Mounting a mounted engine is a no-op.
func (e *Engine) Mount() {
	e.mu.Lock()
	if e.mounted {
		e.mu.Unlock()
		return
	}
	e.mounted = true
	e.completed = false
	e.sub = e.scroll.Subscribe(e.schedule)
	if e.cfg.SmoothScroll {
		e.driver = NewDriver(e.scroll, e.sched, e.cfg.SmoothDuration, e.easing, e.schedule)
		e.driver.Start()
	}
	e.mu.Unlock()

	e.logger.Debug("scroll stack mounted", "items", len(e.items), "smooth", e.cfg.SmoothScroll)
	e.Update()
}

// Unmount releases the subscription, cancels the pending frame and stops the driver.
// After it returns no transform is written anymore. Idempotent.
func (e *Engine) Unmount() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.mounted {
		return
	}
	e.mounted = false
	if e.sub != nil {
		e.sub.Close()
		e.sub = nil
	}
	if e.pending != nil {
		e.pending.Cancel()
		e.pending = nil
	}
	if e.driver != nil {
		e.driver.Stop()
		e.driver = nil
	}
	e.logger.Debug("scroll stack unmounted")
}

// Mounted reports whether the engine is mounted.
func (e *Engine) Mounted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mounted
}

// Completed reports whether the completion notification fired during the current mount.
func (e *Engine) Completed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.completed
}

// Transforms returns the transforms computed by the last pass.
func (e *Engine) Transforms() []Transform {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Transform, len(e.transforms))
	copy(out, e.transforms)
	return out
}

// schedule coalesces notifications: the pending frame is replaced, so only the latest one runs.
func (e *Engine) schedule() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.mounted {
		return
	}
	if e.pending != nil {
		e.pending.Cancel()
	}
	e.pendingSeq++
	seq := e.pendingSeq
	e.pending = e.sched.RequestFrame(func(time.Time) {
		e.runFrame(seq)
	})
}

func (e *Engine) runFrame(seq uint64) {
	e.mu.Lock()
	if !e.mounted || seq != e.pendingSeq {
		e.mu.Unlock()
		return
	}
	e.pending = nil
	stats, fire := e.updateLocked()
	e.mu.Unlock()

	e.notify(stats, fire)
}

// Update runs one pass immediately. It does nothing while unmounted.
func (e *Engine) Update() {
	e.mu.Lock()
	if !e.mounted {
		e.mu.Unlock()
		return
	}
	stats, fire := e.updateLocked()
	e.mu.Unlock()

	e.notify(stats, fire)
}

func (e *Engine) notify(stats FrameStats, fire bool) {
	if e.hooks.OnFrame != nil {
		e.hooks.OnFrame(stats)
	}
	if !fire {
		return
	}
	e.logger.Info("scroll stack complete", "items", stats.Items, "scroll_top", stats.ScrollTop)
	if e.onComplete != nil {
		e.onComplete()
	}
	if e.hooks.OnComplete != nil {
		e.hooks.OnComplete()
	}
}

func (e *Engine) updateLocked() (FrameStats, bool) {
	scrollTop := e.scroll.ScrollTop()
	if e.driver != nil {
		scrollTop = e.driver.Position()
	}
	height := e.scroll.ViewportHeight()
	stackPx := e.cfg.StackPosition.Of(height)
	scaleEndPx := e.cfg.ScaleEndPosition.Of(height)

	n := len(e.items)
	tops := make([]float64, n)
	laidOut := make([]bool, n)
	for i, it := range e.items {
		if it.Anchor == nil {
			continue
		}
		tops[i], laidOut[i] = it.Anchor.Top()
	}

	stats := FrameStats{Items: n, ScrollTop: scrollTop}
	allDone := true

	for i, it := range e.items {
		if !laidOut[i] {
			stats.Skipped++
			allDone = false
			continue
		}

		t := Identity()

		if i+1 < n {
			if laidOut[i+1] {
				next := tops[i+1]
				p := Progress(scrollTop, next-height, next-scaleEndPx)
				t.ScaleProgress = p
				t.Scale = math.Min(1, math.Max(e.cfg.BaseScale, 1-p*e.cfg.ItemScale))
				t.Opacity = clamp01(1 - p*e.cfg.ItemDimming)
				if p < 1 {
					allDone = false
				}
			} else {
				allDone = false
			}
		}

		top := tops[i]
		sp := Progress(scrollTop, top-stackPx, top)
		t.StickyProgress = sp
		t.Top = stackPx
		if sp >= 1 {
			t.Pinned = true
			t.Top = stackPx + float64(i)*e.cfg.ItemStackDistance
			stats.Pinned++
		}
		// Sticky positioning: the box never sits above its anchored top.
		t.TranslateY = math.Max(0, t.Top-(top-scrollTop))

		it.Anchor.Apply(t)
		e.transforms[i] = t
	}

	stats.Done = allDone && n > 1
	fire := stats.Done && !e.completed
	if fire {
		e.completed = true
	}
	return stats, fire
}
