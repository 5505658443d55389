package channel

import (
	"context"
	"fmt"
	"sync"

	"github.com/matthewhand/hivepace/pkg/message"
)

// Dispatcher routes outbound messages and typing signals to the correct
// registered channel. Messages exceeding the configured platform length
// limit are chunked before delivery.
type Dispatcher struct {
	chunk ChunkConfig

	mu       sync.RWMutex
	channels map[string]Channel
}

// NewDispatcher creates an empty Dispatcher. The chunk config applies to
// every outbound message; a zero MaxLength disables chunking.
func NewDispatcher(chunk ChunkConfig) *Dispatcher {
	return &Dispatcher{
		chunk:    chunk,
		channels: make(map[string]Channel),
	}
}

// Register adds a channel under its own name. Returns ErrDuplicateChannel
// if the name is already taken.
func (d *Dispatcher) Register(ch Channel) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	name := ch.Name()
	if _, exists := d.channels[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateChannel, name)
	}
	d.channels[name] = ch
	return nil
}

// Get returns the channel registered under name, or false if none.
func (d *Dispatcher) Get(name string) (Channel, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ch, ok := d.channels[name]
	return ch, ok
}

// Send dispatches an outbound message to the channel identified by
// msg.Channel, splitting it first when it exceeds the platform length
// limit. Returns ErrNoChannel if no channel is registered under that name.
func (d *Dispatcher) Send(ctx context.Context, msg message.OutboundMessage) error {
	d.mu.RLock()
	ch, ok := d.channels[msg.Channel]
	d.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrNoChannel, msg.Channel)
	}

	for _, part := range SplitMessage(msg, d.chunk) {
		if err := ch.Send(ctx, part); err != nil {
			return err
		}
	}
	return nil
}

// SendTyping shows the typing indicator on the named channel's chat. It
// is a no-op for channels without native typing support, so callers can
// signal unconditionally.
func (d *Dispatcher) SendTyping(ctx context.Context, name string, chat message.Chat) error {
	d.mu.RLock()
	ch, ok := d.channels[name]
	d.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrNoChannel, name)
	}
	tc, ok := ch.(TypingChannel)
	if !ok {
		return nil
	}
	return tc.SendTyping(ctx, chat)
}

// Channels returns the names of all registered channels.
func (d *Dispatcher) Channels() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	names := make([]string, 0, len(d.channels))
	for name := range d.channels {
		names = append(names, name)
	}
	return names
}
