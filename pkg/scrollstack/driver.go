package scrollstack

import (
	"sync"
	"time"
)

// Driver keeps a virtual scroll position that eases toward the scroll context's real position,
// giving inertial deceleration instead of an abrupt jump. Its frame loop is held through an explicit
// FrameHandle so that Stop cancels it.
type Driver struct {
	scroll   ScrollContext
	sched    FrameScheduler
	duration time.Duration
	easing   func(float64) float64
	onMove   func()

	mu        sync.Mutex
	running   bool
	handle    FrameHandle
	position  float64
	from      float64
	target    float64
	started   time.Time
	animating bool
}

// NewDriver creates a stopped driver. onMove runs after every frame in which the position changed.
func NewDriver(scroll ScrollContext, sched FrameScheduler, duration time.Duration, easing func(float64) float64, onMove func()) *Driver {
	if easing == nil {
		easing = ExpoOut
	}
	return &Driver{
		scroll:   scroll,
		sched:    sched,
		duration: duration,
		easing:   easing,
		onMove:   onMove,
	}
}

// Start snaps the virtual position to the current scroll offset and begins the frame loop.
func (d *Driver) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return
	}
	d.running = true
	d.position = d.scroll.ScrollTop()
	d.target = d.position
	d.animating = false
	d.handle = d.sched.RequestFrame(d.frame)
}

// Stop cancels the frame loop. Idempotent.
func (d *Driver) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running {
		return
	}
	d.running = false
	if d.handle != nil {
		d.handle.Cancel()
		d.handle = nil
	}
}

// Running reports whether the frame loop is active.
func (d *Driver) Running() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}

// Position is the current virtual scroll offset.
func (d *Driver) Position() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.position
}

func (d *Driver) frame(now time.Time) {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}

	if target := d.scroll.ScrollTop(); target != d.target {
		d.from = d.position
		d.target = target
		d.started = now
		d.animating = true
	}

	moved := false
	if d.animating {
		t := 1.0
		if d.duration > 0 {
			t = clamp01(float64(now.Sub(d.started)) / float64(d.duration))
		}
		next := d.from + (d.target-d.from)*d.easing(t)
		if t >= 1 {
			next = d.target
			d.animating = false
		}
		moved = next != d.position
		d.position = next
	}

	d.handle = d.sched.RequestFrame(d.frame)
	onMove := d.onMove
	d.mu.Unlock()

	if moved && onMove != nil {
		onMove()
	}
}
