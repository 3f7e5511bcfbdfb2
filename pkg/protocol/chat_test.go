package protocol_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/omochice/chatview/pkg/protocol"
)

func TestDecodeChatMessage(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    protocol.ChatMessage
		wantErr bool
	}{
		{
			name: "full message",
			data: `{"from":"alice","message":"hi","timestamp":"10:00"}`,
			want: protocol.ChatMessage{From: "alice", Body: "hi", Timestamp: "10:00"},
		},
		{
			name: "timestamp absent",
			data: `{"from":"alice","message":"hi"}`,
			want: protocol.ChatMessage{From: "alice", Body: "hi"},
		},
		{
			name: "timestamp null",
			data: `{"from":"alice","message":"hi","timestamp":null}`,
			want: protocol.ChatMessage{From: "alice", Body: "hi"},
		},
		{
			name: "wrong case timestamp is an unknown key",
			data: `{"from":"alice","message":"hi","Timestamp":"10:00"}`,
			want: protocol.ChatMessage{From: "alice", Body: "hi"},
		},
		{
			name: "extra fields ignored",
			data: `{"from":"bob","message":"yo","room":"x"}`,
			want: protocol.ChatMessage{From: "bob", Body: "yo"},
		},
		{name: "not json", data: "not-json", wantErr: true},
		{name: "missing from", data: `{"message":"hi"}`, wantErr: true},
		{name: "missing message", data: `{"from":"alice"}`, wantErr: true},
		{name: "composed payload without from", data: `{"message":"hi","timestamp":"10.00.00"}`, wantErr: true},
		{name: "wrong type", data: `{"from":1,"message":"hi"}`, wantErr: true},
		{name: "empty", data: "", wantErr: true},
		{name: "wrong case keys", data: `{"FROM":"a","Message":"hi"}`, wantErr: true},
		{name: "wrong case from", data: `{"From":"a","message":"hi"}`, wantErr: true},
		{name: "null from", data: `{"from":null,"message":"hi"}`, wantErr: true},
		{name: "wrong type timestamp", data: `{"from":"a","message":"hi","timestamp":5}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := protocol.DecodeChatMessage(tt.data)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodeChatMessage() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				var decodeErr *protocol.DecodeError
				if !errors.As(err, &decodeErr) {
					t.Errorf("DecodeChatMessage() error = %T, want *protocol.DecodeError", err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("DecodeChatMessage() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestChatMessage_RoundTrip(t *testing.T) {
	original := protocol.ChatMessage{From: "alice", Body: "hello", Timestamp: "10.00.00"}

	data, err := protocol.EncodeChatMessage(original)
	if err != nil {
		t.Fatalf("EncodeChatMessage() error = %v", err)
	}

	decoded, err := protocol.DecodeChatMessage(data)
	if err != nil {
		t.Fatalf("DecodeChatMessage() error = %v", err)
	}
	if decoded != original {
		t.Errorf("round trip = %+v, want %+v", decoded, original)
	}
}

func TestEncodeOutbound(t *testing.T) {
	data, err := protocol.EncodeOutbound(protocol.OutboundMessage{Body: "hello", Timestamp: "10.00.00"})
	if err != nil {
		t.Fatalf("EncodeOutbound() error = %v", err)
	}

	want := `{"message":"hello","timestamp":"10.00.00"}`
	if data != want {
		t.Errorf("EncodeOutbound() = %s, want %s", data, want)
	}
	if strings.Contains(data, `"from"`) {
		t.Errorf("EncodeOutbound() = %s, must not carry from", data)
	}

	got, err := protocol.DecodeOutbound(data)
	if err != nil {
		t.Fatalf("DecodeOutbound() error = %v", err)
	}
	if got.Body != "hello" || got.Timestamp != "10.00.00" {
		t.Errorf("DecodeOutbound() = %+v", got)
	}
}

func TestAvatarURL(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"alice", "https://avatars.dicebear.com/api/adventurer-neutral/alice.svg"},
		{"bob smith", "https://avatars.dicebear.com/api/adventurer-neutral/bob%20smith.svg"},
		{"a/b", "https://avatars.dicebear.com/api/adventurer-neutral/a%2Fb.svg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := protocol.AvatarURL(tt.name); got != tt.want {
				t.Errorf("AvatarURL(%q) = %v, want %v", tt.name, got, tt.want)
			}
			if protocol.AvatarURL(tt.name) != protocol.AvatarURL(tt.name) {
				t.Errorf("AvatarURL(%q) is not stable", tt.name)
			}
		})
	}
}
