package render_test

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/go-cmp/cmp"
	"github.com/omochice/chatview/internal/chat"
	"github.com/omochice/chatview/internal/render"
	"github.com/omochice/chatview/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func typeText(m tea.Model, text string) tea.Model {
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return m
}

func pressEnter(m tea.Model) (tea.Model, tea.Cmd) {
	return m.Update(tea.KeyMsg{Type: tea.KeyEnter})
}

func TestTUI_Snapshot(t *testing.T) {
	m := render.NewTUI("alice", nil)

	model, _ := m.Update(render.Snapshot(chat.ViewModel{
		Users: []chat.UserProfile{chat.NewUserProfile("alice"), chat.NewUserProfile("bob")},
		Messages: []protocol.ChatMessage{
			{From: "bob", Body: "hi alice", Timestamp: "10.00.00"},
			{From: "ghost", Body: "https://example.com/boo.gif"},
		},
	}))

	view := model.View()
	assert.Contains(t, view, "Users (2)")
	assert.Contains(t, view, "alice")
	assert.Contains(t, view, "[10.00.00] bob: hi alice")
	assert.Contains(t, view, "ghost: <image https://example.com/boo.gif>")
}

func TestTUI_Submit(t *testing.T) {
	var submitted []string
	var m tea.Model = render.NewTUI("alice", func(text string) {
		submitted = append(submitted, text)
	})

	m = typeText(m, "hello")
	m, cmd := pressEnter(m)
	assert.Nil(t, cmd)

	m = typeText(m, "  spaced  ")
	m, _ = pressEnter(m)

	if diff := cmp.Diff([]string{"hello", "  spaced  "}, submitted); diff != "" {
		t.Errorf("submitted mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, m.(*render.TUI).Input())
}

func TestTUI_BlankSubmitKeepsInput(t *testing.T) {
	called := false
	var m tea.Model = render.NewTUI("alice", func(string) { called = true })

	m = typeText(m, "   ")
	m, _ = pressEnter(m)

	assert.False(t, called)
	assert.Equal(t, "   ", m.(*render.TUI).Input())
}

func TestTUI_Quit(t *testing.T) {
	for _, key := range []tea.KeyType{tea.KeyEsc, tea.KeyCtrlC} {
		m := render.NewTUI("alice", nil)

		_, cmd := m.Update(tea.KeyMsg{Type: key})
		require.NotNil(t, cmd, "key %v", key)
		_, ok := cmd().(tea.QuitMsg)
		assert.True(t, ok, "key %v should quit", key)
	}
}

func TestTUI_Resize(t *testing.T) {
	m := render.NewTUI("alice", nil)
	model, _ := m.Update(render.Snapshot(chat.ViewModel{
		Users: []chat.UserProfile{chat.NewUserProfile("alice")},
	}))

	model, _ = model.Update(tea.WindowSizeMsg{Width: 100, Height: 30})

	lines := strings.Split(model.View(), "\n")
	assert.LessOrEqual(t, len(lines), 30, "view must fit the window")
	assert.Contains(t, lines[len(lines)-1], "Message")
}
