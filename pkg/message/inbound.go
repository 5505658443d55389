package message

import "time"

// InboundMessage represents a human message received from a channel.
type InboundMessage struct {
	ID         string    `json:"id"`
	Channel    string    `json:"channel"`
	Sender     Sender    `json:"sender"`
	Chat       Chat      `json:"chat"`
	Text       string    `json:"text"`
	ReceivedAt time.Time `json:"received_at"`
}

// IsGroup reports whether the message was sent in a group chat.
func (m *InboundMessage) IsGroup() bool {
	return m.Chat.IsGroup()
}

// IsDirectMessage reports whether the message is a direct message.
func (m *InboundMessage) IsDirectMessage() bool {
	return m.Chat.IsDirectMessage()
}
