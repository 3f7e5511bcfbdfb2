package protocol

import (
	"encoding/json"
	"fmt"
	"net/url"
)

// AvatarBaseURL is the identicon service used for user avatars.
const AvatarBaseURL = "https://avatars.dicebear.com/api/adventurer-neutral/"

// ChatMessage is the payload carried in Message.Data once the server has
// attributed a sender.
type ChatMessage struct {
	From      string `json:"from"`
	Body      string `json:"message"`
	Timestamp string `json:"timestamp,omitempty"`
}

// OutboundMessage is what a client sends before the server fills in From.
type OutboundMessage struct {
	Body      string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// DecodeChatMessage parses the data field of a message envelope. Keys are
// matched exactly. "from" and "message" are required; a missing or null
// timestamp yields "".
func DecodeChatMessage(data string) (ChatMessage, error) {
	f, err := decodeFields([]byte(data))
	if err != nil {
		return ChatMessage{}, &DecodeError{Err: fmt.Errorf("chat message: %w", err)}
	}

	var m ChatMessage
	for _, field := range []struct {
		key      string
		dst      *string
		required bool
	}{
		{"from", &m.From, true},
		{"message", &m.Body, true},
		{"timestamp", &m.Timestamp, false},
	} {
		ok, err := f.stringField(field.key, field.dst)
		if err != nil {
			return ChatMessage{}, &DecodeError{Err: fmt.Errorf("chat message: %w", err)}
		}
		if !ok && field.required {
			return ChatMessage{}, &DecodeError{Err: fmt.Errorf("chat message: missing field %q", field.key)}
		}
	}
	return m, nil
}

// EncodeChatMessage serializes an attributed chat message for Message.Data.
func EncodeChatMessage(m ChatMessage) (string, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("failed to encode chat message: %w", err)
	}
	return string(data), nil
}

// DecodeOutbound parses a client composed payload.
func DecodeOutbound(data string) (OutboundMessage, error) {
	var m OutboundMessage
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		return OutboundMessage{}, &DecodeError{Err: fmt.Errorf("outbound message: %w", err)}
	}
	return m, nil
}

// EncodeOutbound serializes a client composed payload for Message.Data.
func EncodeOutbound(m OutboundMessage) (string, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("failed to encode outbound message: %w", err)
	}
	return string(data), nil
}

// AvatarURL derives the avatar for a username. The result depends only on
// name.
func AvatarURL(name string) string {
	return AvatarBaseURL + url.PathEscape(name) + ".svg"
}
