package chat_test

import (
	"sync"

	"github.com/omochice/chatview/internal/chat"
)

// mockChannel is a mock implementation of chat.Channel for testing.
type mockChannel struct {
	mu        sync.Mutex
	submitted []string
	submitErr error
}

func (m *mockChannel) Submit(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.submitErr != nil {
		return m.submitErr
	}
	m.submitted = append(m.submitted, text)
	return nil
}

func (m *mockChannel) GetSubmitted() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.submitted...)
}

// Compile-time check that mockChannel implements chat.Channel
var _ chat.Channel = (*mockChannel)(nil)
