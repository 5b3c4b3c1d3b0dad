package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/aretw0/msquare/pkg/scrollstack"
)

// DefaultRowHeight is how many virtual pixels one terminal row stands for.
const DefaultRowHeight = 20

// Deck lays cards out in a Viewport and draws frames of the stack as text.
type Deck struct {
	cfg      scrollstack.Config
	width    int
	height   int
	rowPx    float64
	cardRows int
	profile  termenv.Profile
	markdown func(width int) func(string) (string, error)

	viewport *Viewport
	cards    []*Card
	bodies   []string
}

type DeckOption func(*Deck)

// WithProfile forces a colour profile. termenv.Ascii disables styling.
func WithProfile(p termenv.Profile) DeckOption {
	return func(d *Deck) {
		d.profile = p
	}
}

// WithRowHeight changes the virtual pixel height of a row.
func WithRowHeight(px float64) DeckOption {
	return func(d *Deck) {
		if px > 0 {
			d.rowPx = px
		}
	}
}

// WithMarkdown replaces the body renderer. The factory receives the wrap width.
func WithMarkdown(factory func(width int) func(string) (string, error)) DeckOption {
	return func(d *Deck) {
		d.markdown = factory
	}
}

// NewDeck builds one card per content inside a width x height (rows) viewport.
// Cards are separated by the per-item runway of cfg.
func NewDeck(contents []CardContent, cfg scrollstack.Config, width, height int, opts ...DeckOption) *Deck {
	d := &Deck{
		cfg:      cfg,
		width:    max(width, 20),
		height:   max(height, 8),
		rowPx:    DefaultRowHeight,
		profile:  termenv.ColorProfile(),
		markdown: NewRenderer,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.cardRows = min(max(d.height/2, 5), 12)

	viewportPx := float64(d.height) * d.rowPx
	cardPx := float64(d.cardRows) * d.rowPx
	gap := cfg.Runway(1, viewportPx)
	start := cfg.StackPosition.Of(viewportPx)

	var render func(string) (string, error)
	if d.markdown != nil {
		render = d.markdown(d.width - 6)
	}
	lastTop := start
	for i, c := range contents {
		card := NewCard(c)
		top := start + float64(i)*(cardPx+gap)
		card.Layout(top)
		lastTop = top
		d.cards = append(d.cards, card)

		body := c.Body
		if render != nil {
			if out, err := render(c.Body); err == nil {
				body = strings.Trim(out, "\n")
			}
		}
		d.bodies = append(d.bodies, body)
	}

	d.viewport = NewViewport(viewportPx, lastTop+viewportPx)
	return d
}

// Viewport is the scroll context of the deck.
func (d *Deck) Viewport() *Viewport {
	return d.viewport
}

// Cards returns the anchors in display order.
func (d *Deck) Cards() []*Card {
	return d.cards
}

// RowHeight is the virtual pixel height of a row.
func (d *Deck) RowHeight() float64 {
	return d.rowPx
}

// Items wraps the cards as engine items.
func (d *Deck) Items() []scrollstack.Item {
	items := make([]scrollstack.Item, len(d.cards))
	for i, c := range d.cards {
		items[i] = scrollstack.Item{Content: c.Content, Anchor: c}
	}
	return items
}

type frameRow struct {
	text    string
	opacity float64
}

// Render draws the deck at the viewport's current offset.
func (d *Deck) Render() string {
	return d.RenderAt(d.viewport.ScrollTop())
}

// RenderAt draws the deck as seen from scrollTop. Later cards cover earlier ones.
func (d *Deck) RenderAt(scrollTop float64) string {
	rows := make([]frameRow, d.height)
	for i := range rows {
		rows[i].opacity = 1
	}

	for i, card := range d.cards {
		top, ok := card.Top()
		if !ok {
			continue
		}
		t := card.Transform()
		row := int(math.Round((top - scrollTop + t.TranslateY) / d.rowPx))
		if row >= d.height || row+d.cardRows <= 0 {
			continue
		}

		w := int(math.Round(float64(d.width) * t.Scale))
		pad := strings.Repeat(" ", max(0, (d.width-w)/2))
		for j, line := range d.box(i, w) {
			if r := row + j; r >= 0 && r < d.height {
				rows[r] = frameRow{text: pad + line, opacity: t.Opacity}
			}
		}
	}

	var b strings.Builder
	for i, r := range rows {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(d.dim(r.text, r.opacity))
	}
	return b.String()
}

func (d *Deck) box(i, width int) []string {
	inner := d.cardRows - 2
	content := lipgloss.NewStyle().
		Padding(0, 1).
		Width(max(width-2, 4)).
		Height(inner).
		MaxHeight(inner).
		Render(fmt.Sprintf("%d/%d  %s\n\n%s", i+1, len(d.cards), d.cards[i].Content.Title, d.bodies[i]))
	framed := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Render(content)
	return strings.Split(framed, "\n")
}

// dim maps opacity to a grey foreground.
func (d *Deck) dim(text string, opacity float64) string {
	if text == "" || d.profile == termenv.Ascii {
		return text
	}
	level := uint8(math.Round(255 * math.Min(1, math.Max(0, opacity))))
	s := termenv.String(text).Foreground(d.profile.Color(fmt.Sprintf("#%02x%02x%02x", level, level, level)))
	if opacity < 0.75 {
		s = s.Faint()
	}
	return s.String()
}
