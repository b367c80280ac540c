package memory

import "sync"

// Buffer implements ports.TextTarget in memory.
// Safe for concurrent use, so a host can read it while the engine writes.
type Buffer struct {
	mu    sync.RWMutex
	runes []rune
}

// NewBuffer creates an empty buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// SetText replaces the buffer content.
func (b *Buffer) SetText(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.runes = []rune(text)
}

// AppendText appends text to the buffer.
func (b *Buffer) AppendText(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.runes = append(b.runes, []rune(text)...)
}

// TrimEnd removes the last n characters. Trimming more than the length empties the buffer.
func (b *Buffer) TrimEnd(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if n <= 0 {
		return
	}
	if n > len(b.runes) {
		n = len(b.runes)
	}
	b.runes = b.runes[:len(b.runes)-n]
}

// Text returns the buffer content.
func (b *Buffer) Text() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return string(b.runes)
}
