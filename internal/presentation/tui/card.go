package tui

import (
	"sync"

	"github.com/aretw0/msquare/pkg/scrollstack"
)

// CardContent is what a card shows. Body is markdown.
type CardContent struct {
	Title string
	Body  string
}

// FallbackCards are shown when there are no projects to preview.
var FallbackCards = []CardContent{
	{
		Title: "Modern Family Home",
		Body:  "**Construction** · A contemporary two-storey residence with open-plan living and timber cladding.",
	},
	{
		Title: "Heritage Brick Restoration",
		Body:  "**Reconstruction** · Careful rebuild of a 1920s brick facade, keeping the original arches.",
	},
	{
		Title: "Luxury Kitchen Remodel",
		Body:  "**Renovation** · Stone worktops, hidden storage and a skylight over the island.",
	},
}

// Card is a rendered box anchored in a Viewport.
type Card struct {
	Content CardContent

	mu        sync.Mutex
	top       float64
	laidOut   bool
	transform scrollstack.Transform
	applied   int
}

// NewCard creates a card that is not laid out yet.
func NewCard(content CardContent) *Card {
	return &Card{Content: content, transform: scrollstack.Identity()}
}

// Layout places the card at top.
func (c *Card) Layout(top float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.top = top
	c.laidOut = true
}

func (c *Card) Top() (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.top, c.laidOut
}

func (c *Card) Apply(t scrollstack.Transform) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transform = t
	c.applied++
}

// Transform returns the last applied transform.
func (c *Card) Transform() scrollstack.Transform {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transform
}

// Applied counts Apply calls.
func (c *Card) Applied() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.applied
}
