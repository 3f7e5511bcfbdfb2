package chat

import (
	"strings"
	"sync"
)

// Input is the text buffer a renderer edits and the session drains on
// submit. It is safe for concurrent use.
type Input struct {
	mu   sync.Mutex
	text string
}

// Set replaces the buffer contents.
func (in *Input) Set(text string) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.text = text
}

// Value returns the buffer contents.
func (in *Input) Value() string {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.text
}

// take returns the buffer and clears it. A buffer that is blank after
// trimming is left untouched and ok is false.
func (in *Input) take() (text string, ok bool) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if strings.TrimSpace(in.text) == "" {
		return "", false
	}
	text, in.text = in.text, ""
	return text, true
}
