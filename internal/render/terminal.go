// Package render prints session snapshots to a terminal.
package render

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"

	"github.com/omochice/chatview/internal/chat"
	"github.com/omochice/chatview/pkg/protocol"
)

// Terminal writes roster changes and new timeline entries as plain lines.
// Render may be called from any goroutine.
type Terminal struct {
	mu      sync.Mutex
	out     io.Writer
	users   []string
	printed int
}

// NewTerminal creates a renderer writing to out.
func NewTerminal(out io.Writer) *Terminal {
	return &Terminal{out: out}
}

// Render prints whatever changed since the previous snapshot. The
// timeline only grows, so entries past the last printed index are new.
func (t *Terminal) Render(vm chat.ViewModel) {
	t.mu.Lock()
	defer t.mu.Unlock()

	names := make([]string, 0, len(vm.Users))
	for _, u := range vm.Users {
		names = append(names, u.Name)
	}
	if !slices.Equal(names, t.users) {
		t.users = names
		fmt.Fprintf(t.out, "*** Users online (%d): %s ***\n", len(names), strings.Join(names, ", "))
	}

	if t.printed > len(vm.Messages) {
		t.printed = 0
	}
	for _, m := range vm.Messages[t.printed:] {
		fmt.Fprintln(t.out, FormatMessage(m))
	}
	t.printed = len(vm.Messages)
}

// FormatMessage renders one timeline entry. Bodies ending in ".gif" are
// shown as an image reference.
func FormatMessage(m protocol.ChatMessage) string {
	body := m.Body
	if strings.HasSuffix(body, ".gif") {
		body = "<image " + body + ">"
	}
	if m.Timestamp == "" {
		return fmt.Sprintf("%s: %s", m.From, body)
	}
	return fmt.Sprintf("[%s] %s: %s", m.Timestamp, m.From, body)
}
