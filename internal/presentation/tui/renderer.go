package tui

import (
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a markdown renderer wrapping at width.
// It uses the plain "notty" style so that frame layout stays predictable.
func NewRenderer(width int) func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("notty"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}
