package scrollstack

import "log/slog"

// FrameStats summarizes one pass of the engine.
type FrameStats struct {
	Items     int
	Skipped   int
	Pinned    int
	ScrollTop float64
	Done      bool
}

// Hooks are observability callbacks. They run outside the engine lock.
type Hooks struct {
	OnFrame    func(FrameStats)
	OnComplete func()
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithOnStackComplete registers the one-time completion notification.
func WithOnStackComplete(fn func()) Option {
	return func(e *Engine) {
		e.onComplete = fn
	}
}

// WithHooks registers observability hooks.
func WithHooks(hooks Hooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithEasing replaces the smooth-scroll easing curve (default ExpoOut).
func WithEasing(fn func(float64) float64) Option {
	return func(e *Engine) {
		e.easing = fn
	}
}
