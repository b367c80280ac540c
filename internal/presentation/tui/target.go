package tui

import (
	"io"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/muesli/termenv"
)

// Terminal is a text target drawing on a terminal line by line. Appends are
// written as they come; trims erase characters with backspaces, so a reveal
// running backwards stays on screen correctly as long as it does not cross a
// line break.
type Terminal struct {
	mu    sync.Mutex
	out   *termenv.Output
	color termenv.Color
	text  string
}

// TerminalOption configures a Terminal.
type TerminalOption func(*Terminal)

// WithColor sets the foreground color (a hex string or an ANSI index).
func WithColor(c string) TerminalOption {
	return func(t *Terminal) {
		t.color = t.out.Color(c)
	}
}

// NewTerminal creates a target writing to w with the color profile detected for it.
func NewTerminal(w io.Writer, opts ...TerminalOption) *Terminal {
	return NewTerminalOutput(termenv.NewOutput(w), opts...)
}

// NewTerminalOutput creates a target on an existing termenv output.
func NewTerminalOutput(out *termenv.Output, opts ...TerminalOption) *Terminal {
	t := &Terminal{out: out}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// SetText replaces the displayed text. When the new text only extends the old
// one just the difference is written.
func (t *Terminal) SetText(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if strings.HasPrefix(text, t.text) {
		t.write(text[len(t.text):])
	} else {
		t.out.ClearLine()
		t.out.WriteString("\r")
		t.write(text)
	}
	t.text = text
}

// AppendText writes text at the end.
func (t *Terminal) AppendText(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.write(text)
	t.text += text
}

// TrimEnd erases the last n characters.
func (t *Terminal) TrimEnd(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for ; n > 0 && t.text != ""; n-- {
		_, size := utf8.DecodeLastRuneInString(t.text)
		t.text = t.text[:len(t.text)-size]
		t.out.WriteString("\b \b")
	}
}

// Text returns what the target currently shows.
func (t *Terminal) Text() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.text
}

// Break ends the current line and starts the next dialogue on a fresh one.
func (t *Terminal) Break() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.text != "" {
		t.out.WriteString("\n")
	}
	t.text = ""
}

func (t *Terminal) write(s string) {
	if s == "" {
		return
	}
	if t.color == nil {
		t.out.WriteString(s)
		return
	}
	t.out.WriteString(t.out.String(s).Foreground(t.color).String())
}
