package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the murmur banner to w.
func PrintBanner(w io.Writer) {
	out := termenv.NewOutput(w)
	lines := []struct{ text, color string }{
		{"  _ __ ___  _   _ _ __ _ __ ___  _   _ _ __ ", "#818cf8"},
		{" | '_ ` _ \\| | | | '__| '_ ` _ \\| | | | '__|", "#a78bfa"},
		{" | | | | | | |_| | |  | | | | | | |_| | |   ", "#e879f9"},
		{" |_| |_| |_|\\__,_|_|  |_| |_| |_|\\__,_|_|   ", "#fb7185"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w)
}
