package scrollstack

import (
	"sync"
	"sync/atomic"
	"time"
)

// DefaultFrameInterval paces TickerScheduler at roughly 60 frames per second.
const DefaultFrameInterval = 16 * time.Millisecond

type frameRequest struct {
	fn       func(time.Time)
	canceled atomic.Bool
	once     sync.Once
	remove   func(*frameRequest)
}

func (r *frameRequest) Cancel() {
	r.canceled.Store(true)
	r.once.Do(func() {
		if r.remove != nil {
			r.remove(r)
		}
	})
}

type frameQueue struct {
	mu      sync.Mutex
	pending []*frameRequest
}

func (q *frameQueue) push(fn func(time.Time)) *frameRequest {
	req := &frameRequest{fn: fn, remove: q.remove}
	q.mu.Lock()
	q.pending = append(q.pending, req)
	q.mu.Unlock()
	return req
}

func (q *frameQueue) remove(req *frameRequest) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, r := range q.pending {
		if r == req {
			q.pending = append(q.pending[:i], q.pending[i+1:]...)
			return
		}
	}
}

// drain takes the current batch. Requests made while the batch runs land in the next frame.
func (q *frameQueue) drain() []*frameRequest {
	q.mu.Lock()
	defer q.mu.Unlock()
	batch := q.pending
	q.pending = nil
	return batch
}

func (q *frameQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

func run(batch []*frameRequest, now time.Time) int {
	ran := 0
	for _, req := range batch {
		if req.canceled.Load() {
			continue
		}
		req.fn(now)
		ran++
	}
	return ran
}

// TickerScheduler runs frame callbacks on a single goroutine at a fixed interval.
// Callbacks are serialized; they must not call Close.
type TickerScheduler struct {
	queue    frameQueue
	interval time.Duration

	stopCh   chan struct{}
	stopOnce sync.Once
	closed   atomic.Bool
	wg       sync.WaitGroup
}

// NewTickerScheduler starts the frame goroutine. A non-positive interval uses DefaultFrameInterval.
func NewTickerScheduler(interval time.Duration) *TickerScheduler {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	s := &TickerScheduler{
		interval: interval,
		stopCh:   make(chan struct{}),
	}
	s.wg.Add(1)
	go s.loop()
	return s
}

func (s *TickerScheduler) loop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case now := <-ticker.C:
			run(s.queue.drain(), now)
		}
	}
}

// RequestFrame schedules fn for the next tick. After Close the returned handle never fires.
func (s *TickerScheduler) RequestFrame(fn func(time.Time)) FrameHandle {
	if s.closed.Load() {
		req := &frameRequest{}
		req.canceled.Store(true)
		return req
	}
	return s.queue.push(fn)
}

// Pending reports how many callbacks wait for the next tick.
func (s *TickerScheduler) Pending() int {
	return s.queue.len()
}

// Close stops the frame goroutine, waits for it and drops every pending callback. Idempotent.
func (s *TickerScheduler) Close() {
	s.stopOnce.Do(func() {
		s.closed.Store(true)
		close(s.stopCh)
		s.wg.Wait()
		for _, req := range s.queue.drain() {
			req.canceled.Store(true)
		}
	})
}

// ManualScheduler runs frame callbacks only when Flush is called. It drives tests and offline renders.
type ManualScheduler struct {
	queue frameQueue
}

// NewManualScheduler returns an empty scheduler.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

func (s *ManualScheduler) RequestFrame(fn func(time.Time)) FrameHandle {
	return s.queue.push(fn)
}

// Flush runs the callbacks pending at call time and returns how many ran.
func (s *ManualScheduler) Flush(now time.Time) int {
	return run(s.queue.drain(), now)
}

// Pending reports how many callbacks wait for the next Flush.
func (s *ManualScheduler) Pending() int {
	return s.queue.len()
}
