package processor

import "fmt"

// TextProcessor transforms authored text before it is shown.
// Implementations must be pure: the same input always yields the same output.
type TextProcessor interface {
	Process(text string) (string, error)
}

// Func adapts an ordinary function to a TextProcessor.
type Func func(text string) (string, error)

// Process calls f(text).
func (f Func) Process(text string) (string, error) {
	return f(text)
}

// Apply runs the processors left to right. Nil entries are skipped.
func Apply(text string, processors ...TextProcessor) (string, error) {
	for i, p := range processors {
		if p == nil {
			continue
		}
		out, err := p.Process(text)
		if err != nil {
			return "", fmt.Errorf("text processor %d: %w", i, err)
		}
		text = out
	}
	return text, nil
}
