package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the gashu banner and version to w.
func PrintBanner(w io.Writer, version string) {
	p := termenv.EnvColorProfile()
	// Transit greens fading into teal
	lines := []struct {
		text  string
		color string
	}{
		{"   __ _  __ _ ___| |__  _   _ ", "#4ade80"},
		{"  / _` |/ _` / __| '_ \\| | | |", "#34d399"},
		{" | (_| | (_| \\__ \\ | | | |_| |", "#2dd4bf"},
		{"  \\__, |\\__,_|___/_| |_|\\__,_|", "#22d3ee"},
		{"  |___/", "#38bdf8"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, termenv.String("  버스 길찾기 도우미 "+version).Faint())
	fmt.Fprintln(w)
}
