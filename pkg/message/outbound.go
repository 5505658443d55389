package message

// OutboundMessage represents one message to be sent through a channel.
// A multi-part reply becomes several OutboundMessages, one per segment.
type OutboundMessage struct {
	Channel   string `json:"channel"`
	Chat      Chat   `json:"chat"`
	Text      string `json:"text"`
	ReplyToID string `json:"reply_to_id,omitempty"`
}

// NewTextMessage creates an outbound message for the given chat.
func NewTextMessage(chat Chat, text string) OutboundMessage {
	return OutboundMessage{Chat: chat, Text: text}
}
