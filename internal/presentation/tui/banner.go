package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []string{
	"  __  __  ____                              ",
	" |  \\/  |/ ___|  __ _ _   _  __ _ _ __ ___ ",
	" | |\\/| |\\___ \\ / _` | | | |/ _` | '__/ _ \\",
	" | |  | | ___) | (_| | |_| | (_| | | |  __/",
	" |_|  |_||____/ \\__, |\\__,_|\\__,_|_|  \\___|",
	"                   |_|                      ",
}

var bannerColors = []string{"#d6d3d1", "#a8a29e", "#78716c", "#57534e", "#44403c", "#292524"}

// PrintBanner writes the MSquare banner in a warm stone gradient.
func PrintBanner(w io.Writer, p termenv.Profile) {
	fmt.Fprintln(w)
	for i, line := range bannerLines {
		fmt.Fprintln(w, termenv.String(line).Foreground(p.Color(bannerColors[i])))
	}
	fmt.Fprintln(w)
}
