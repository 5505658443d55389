// Package history persists conversation traffic in SQLite: every inbound
// message and every delivered segment, keyed by conversation. The store
// backs the admin surface and the retention job; the pacing engine itself
// keeps its activity state in memory.
package history

import (
	"time"

	"github.com/matthewhand/hivepace/pkg/message"
)

// Direction marks which way a traffic entry flowed.
type Direction string

const (
	// DirectionIn is a message received from the platform.
	DirectionIn Direction = "in"
	// DirectionOut is a segment the engine delivered.
	DirectionOut Direction = "out"
)

// Entry is one recorded message in a conversation.
type Entry struct {
	Conversation string
	Direction    Direction
	Sender       string
	Text         string
	CreatedAt    time.Time
}

// ConversationKey derives the stable storage key for a chat on a channel.
// The same key feeds the pacing engine, so paced delivery and persisted
// history agree on conversation identity.
func ConversationKey(channel string, chat message.Chat) string {
	return channel + ":" + chat.ID
}
