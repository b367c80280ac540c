package ports

// TextTarget is a display surface owned by exactly one reader.
// Implementations count characters as runes.
type TextTarget interface {
	// SetText replaces the displayed text.
	SetText(text string)

	// AppendText adds text at the end of the displayed text.
	AppendText(text string)

	// TrimEnd removes the last n characters of the displayed text.
	TrimEnd(n int)

	// Text returns the displayed text.
	Text() string
}
