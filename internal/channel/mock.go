package channel

import (
	"context"
	"sync"

	"github.com/matthewhand/hivepace/pkg/message"
)

// MockChannel is a test double that implements Channel and TypingChannel.
// It records sent messages and typing signals, and lets tests inject
// inbound messages via SimulateMessage.
type MockChannel struct {
	name      string
	allowList *AllowList

	mu     sync.Mutex
	inbox  func(msg message.InboundMessage) error
	sent   []message.OutboundMessage
	typing []message.Chat

	// SendFunc, if set, is called instead of the default recording behavior.
	SendFunc func(ctx context.Context, msg message.OutboundMessage) error
}

var (
	_ Channel       = (*MockChannel)(nil)
	_ TypingChannel = (*MockChannel)(nil)
)

// NewMockChannel creates a MockChannel with the given name and an optional
// allow-list. Pass nil for allowList to deny all inbound messages.
func NewMockChannel(name string, allowList *AllowList) *MockChannel {
	return &MockChannel{name: name, allowList: allowList}
}

// Name implements Channel.
func (m *MockChannel) Name() string {
	return m.name
}

// Start implements Channel.
func (m *MockChannel) Start(context.Context) error {
	return nil
}

// Stop implements Channel.
func (m *MockChannel) Stop(context.Context) error {
	return nil
}

// Send records the outbound message. If SendFunc is set, it delegates to it.
func (m *MockChannel) Send(ctx context.Context, msg message.OutboundMessage) error {
	if m.SendFunc != nil {
		return m.SendFunc(ctx, msg)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

// SendTyping records the chat that received a typing indicator.
func (m *MockChannel) SendTyping(_ context.Context, chat message.Chat) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.typing = append(m.typing, chat)
	return nil
}

// SetInbox stores the inbox callback provided by the pipeline.
func (m *MockChannel) SetInbox(fn func(msg message.InboundMessage) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inbox = fn
}

// SimulateMessage pushes an inbound message through the allow-list and
// into the inbox. It returns ErrDenied if the sender is not allowed, and
// ErrNoInbox if SetInbox has not been called.
func (m *MockChannel) SimulateMessage(msg message.InboundMessage) error {
	m.mu.Lock()
	al := m.allowList
	inbox := m.inbox
	m.mu.Unlock()

	if !al.IsAllowed(msg) {
		return ErrDenied
	}
	if inbox == nil {
		return ErrNoInbox
	}

	msg.Channel = m.name
	return inbox(msg)
}

// SentMessages returns a copy of all outbound messages recorded by Send.
func (m *MockChannel) SentMessages() []message.OutboundMessage {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := make([]message.OutboundMessage, len(m.sent))
	copy(cp, m.sent)
	return cp
}

// TypingChats returns a copy of all chats that received typing indicators.
func (m *MockChannel) TypingChats() []message.Chat {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := make([]message.Chat, len(m.typing))
	copy(cp, m.typing)
	return cp
}

// Reset clears recorded sends and typing signals.
func (m *MockChannel) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = nil
	m.typing = nil
}
