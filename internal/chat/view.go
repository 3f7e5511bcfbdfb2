package chat

import (
	"github.com/omochice/chatview/pkg/protocol"
)

// UserProfile is a roster entry as shown by a renderer.
type UserProfile struct {
	Name      string
	AvatarURL string
}

// NewUserProfile derives a profile from a username.
func NewUserProfile(name string) UserProfile {
	return UserProfile{Name: name, AvatarURL: protocol.AvatarURL(name)}
}

// ViewModel is an immutable snapshot of the roster and the timeline.
// A published ViewModel is never modified; callers must not modify it
// either.
type ViewModel struct {
	Users    []UserProfile
	Messages []protocol.ChatMessage
}

// Sender resolves the author of m against the roster by exact name. Unknown
// senders get a profile derived on the fly; the roster is not touched.
func (v ViewModel) Sender(m protocol.ChatMessage) UserProfile {
	for _, u := range v.Users {
		if u.Name == m.From {
			return u
		}
	}
	return NewUserProfile(m.From)
}
