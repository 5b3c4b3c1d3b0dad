package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/aretw0/msquare/internal/presentation/tui"
	"github.com/aretw0/msquare/pkg/scrollstack"
)

// Fallback terminal size when stdout is not a terminal.
const (
	DefaultWidth  = 80
	DefaultHeight = 24
)

// PreviewOptions configures RunPreview.
type PreviewOptions struct {
	Cards  []tui.CardContent
	Stack  scrollstack.Config
	Width  int
	Height int
	// FPS is both the scheduler frame rate and the auto-scroll rate.
	FPS int
	// Step is how many rows the auto-scroll moves per tick.
	Step float64
	// Linger is how long the final frame stays before returning after completion.
	Linger  time.Duration
	Out     io.Writer
	Profile termenv.Profile
	Hooks   scrollstack.Hooks
	Logger  *slog.Logger
}

// TerminalSize reports the size of stdout, or 80x24 when it is not a terminal.
func TerminalSize() (int, int) {
	w, h, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 || h <= 0 {
		return DefaultWidth, DefaultHeight
	}
	return w, h
}

// RunPreview auto-scrolls a deck of cards through the scroll-stack engine and prints every frame.
// It returns when the stack completes, when the viewport cannot scroll further, or when ctx is done.
// The engine is unmounted and the scheduler closed before it returns.
func RunPreview(ctx context.Context, opts PreviewOptions) error {
	if len(opts.Cards) == 0 {
		opts.Cards = tui.FallbackCards
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		opts.Width, opts.Height = TerminalSize()
	}
	if opts.FPS <= 0 {
		opts.FPS = 30
	}
	if opts.Step <= 0 {
		opts.Step = 1
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	// one row is kept free for the status line
	deck := tui.NewDeck(opts.Cards, opts.Stack, opts.Width, opts.Height-1, tui.WithProfile(opts.Profile))
	interval := time.Second / time.Duration(opts.FPS)
	sched := scrollstack.NewTickerScheduler(interval)
	defer sched.Close()

	var outMu sync.Mutex
	ansi := opts.Profile != termenv.Ascii
	draw := func(stats scrollstack.FrameStats) {
		frame := deck.RenderAt(stats.ScrollTop)
		outMu.Lock()
		defer outMu.Unlock()
		if ansi {
			fmt.Fprint(opts.Out, "\x1b[H\x1b[2J")
		}
		fmt.Fprintln(opts.Out, frame)
		fmt.Fprintf(opts.Out, "scroll %4.0f  pinned %d/%d\n", stats.ScrollTop/deck.RowHeight(), stats.Pinned, stats.Items)
	}

	done := make(chan struct{})
	var once sync.Once
	engine := scrollstack.New(deck.Viewport(), sched, opts.Stack, deck.Items(),
		scrollstack.WithLogger(opts.Logger),
		scrollstack.WithOnStackComplete(func() { once.Do(func() { close(done) }) }),
		scrollstack.WithHooks(scrollstack.Hooks{
			OnFrame: func(stats scrollstack.FrameStats) {
				if opts.Hooks.OnFrame != nil {
					opts.Hooks.OnFrame(stats)
				}
				draw(stats)
			},
			OnComplete: opts.Hooks.OnComplete,
		}),
	)
	engine.Mount()
	defer engine.Unmount()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	step := opts.Step * deck.RowHeight()
	viewport := deck.Viewport()

	for {
		select {
		case <-ctx.Done():
			opts.Logger.Info("preview interrupted")
			return nil
		case <-done:
			opts.Logger.Info("preview complete", "items", len(opts.Cards))
			return linger(ctx, opts.Linger)
		case <-ticker.C:
			if viewport.AtEnd() {
				opts.Logger.Warn("preview reached the end before the stack completed")
				return linger(ctx, opts.Linger)
			}
			viewport.ScrollBy(step)
		}
	}
}

func linger(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
	return nil
}
