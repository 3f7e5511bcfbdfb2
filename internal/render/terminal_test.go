package render_test

import (
	"bytes"
	"testing"

	"github.com/omochice/chatview/internal/chat"
	"github.com/omochice/chatview/internal/render"
	"github.com/omochice/chatview/pkg/protocol"
	"github.com/stretchr/testify/assert"
)

func TestFormatMessage(t *testing.T) {
	tests := []struct {
		name string
		msg  protocol.ChatMessage
		want string
	}{
		{
			name: "text with timestamp",
			msg:  protocol.ChatMessage{From: "alice", Body: "hi", Timestamp: "10.04.05"},
			want: "[10.04.05] alice: hi",
		},
		{
			name: "text without timestamp",
			msg:  protocol.ChatMessage{From: "bob", Body: "yo"},
			want: "bob: yo",
		},
		{
			name: "gif body",
			msg:  protocol.ChatMessage{From: "carol", Body: "https://example.com/cat.gif", Timestamp: "11.00.00"},
			want: "[11.00.00] carol: <image https://example.com/cat.gif>",
		},
		{
			name: "gif in the middle is plain text",
			msg:  protocol.ChatMessage{From: "dave", Body: "a.gif file"},
			want: "dave: a.gif file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, render.FormatMessage(tt.msg))
		})
	}
}

func TestTerminal_Render(t *testing.T) {
	var buf bytes.Buffer
	term := render.NewTerminal(&buf)

	alice := protocol.ChatMessage{From: "alice", Body: "hi", Timestamp: "10.00.00"}
	bob := protocol.ChatMessage{From: "bob", Body: "hey", Timestamp: "10.00.01"}

	term.Render(chat.ViewModel{
		Users: []chat.UserProfile{chat.NewUserProfile("alice"), chat.NewUserProfile("bob")},
	})
	assert.Equal(t, "*** Users online (2): alice, bob ***\n", buf.String())
	buf.Reset()

	term.Render(chat.ViewModel{
		Users:    []chat.UserProfile{chat.NewUserProfile("alice"), chat.NewUserProfile("bob")},
		Messages: []protocol.ChatMessage{alice},
	})
	assert.Equal(t, "[10.00.00] alice: hi\n", buf.String(), "unchanged roster is not reprinted")
	buf.Reset()

	term.Render(chat.ViewModel{
		Users:    []chat.UserProfile{chat.NewUserProfile("bob")},
		Messages: []protocol.ChatMessage{alice, bob},
	})
	assert.Equal(t, "*** Users online (1): bob ***\n[10.00.01] bob: hey\n", buf.String())
	buf.Reset()

	term.Render(chat.ViewModel{
		Users:    []chat.UserProfile{chat.NewUserProfile("bob")},
		Messages: []protocol.ChatMessage{alice, bob},
	})
	assert.Empty(t, buf.String(), "identical snapshot prints nothing")
}

func TestTerminal_RenderEmptyRoster(t *testing.T) {
	var buf bytes.Buffer
	term := render.NewTerminal(&buf)

	term.Render(chat.ViewModel{})
	assert.Empty(t, buf.String(), "empty roster matches the initial state")
}
