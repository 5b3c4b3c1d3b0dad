/*
Package scrollstack computes the "stacking cards on scroll" effect for an ordered list of items.

The engine is toolkit-agnostic. The host rendering layer supplies three collaborators:

  - ScrollContext: the scrollable region (whole viewport or a bounded container) and its change notifications.
  - Anchor: one rendered box per item, used to measure its top offset and to receive the computed Transform.
  - FrameScheduler: the per-frame callback source (a display refresh, a ticker, or a manual test clock).

Scroll and resize notifications never compute anything synchronously. They schedule at most one pending frame
(latest wins) and the frame callback performs the pass, so the cost is bounded by the frame rate regardless of how
many notifications arrive.

# Lifecycle

	eng := scrollstack.New(viewport, sched, cfg, items,
		scrollstack.WithOnStackComplete(func() { log.Println("stack settled") }),
	)
	eng.Mount()
	defer eng.Unmount()

Unmount releases the scroll subscription, cancels the pending frame and stops the smooth-scroll driver. It is
idempotent and safe to call before the first frame has run.
*/
package scrollstack
