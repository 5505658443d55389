// Package channel defines the bridge between messaging platforms and the
// ingestion pipeline: the Channel interface, typing indicators, outbound
// chunking for platform length limits, and allow-list filtering.
package channel

import (
	"context"

	"github.com/matthewhand/hivepace/pkg/message"
)

// Channel is the bridge between a messaging platform and the ingestion
// pipeline. A channel receives messages from its platform and pushes them
// to the pipeline via the inbox callback; it receives outbound segments
// through Send.
//
// Channels may optionally implement TypingChannel when the platform has a
// native "composing" indicator.
type Channel interface {
	// Name is the channel identifier used in message routing ("telegram",
	// "discord", ...).
	Name() string

	// Start connects the channel to its platform. The context bounds the
	// connection attempt, not the channel's lifetime.
	Start(ctx context.Context) error

	// Stop disconnects from the platform and releases resources.
	Stop(ctx context.Context) error

	// Send delivers an outbound message to the platform.
	Send(ctx context.Context, msg message.OutboundMessage) error

	// SetInbox gives the channel a function to push inbound messages to
	// the pipeline. Called during wiring, before Start.
	SetInbox(fn func(msg message.InboundMessage) error)
}

// TypingChannel is implemented by channels whose platform supports a
// typing indicator. The delivery engine signals it repeatedly while a
// reply is pending.
type TypingChannel interface {
	// SendTyping shows the indicator once; platforms auto-expire it, so
	// the caller re-signals on a cadence.
	SendTyping(ctx context.Context, chat message.Chat) error
}
