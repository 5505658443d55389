// Package ingest connects channels to the delivery engine. For every
// inbound message it records channel activity, persists the traffic,
// asks the responder for a reply, and schedules the reply's paced
// delivery back through the dispatcher.
package ingest

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/matthewhand/hivepace/internal/channel"
	"github.com/matthewhand/hivepace/internal/history"
	"github.com/matthewhand/hivepace/internal/pacing"
	"github.com/matthewhand/hivepace/pkg/message"
)

// Sentinel errors for pipeline construction and operation.
var (
	ErrNoResponder  = errors.New("ingest: responder is required")
	ErrNoScheduler  = errors.New("ingest: scheduler is required")
	ErrNoDispatcher = errors.New("ingest: dispatcher is required")
	ErrStopped      = errors.New("ingest: pipeline stopped")
)

// Responder produces the reply text for an inbound message. The recent
// conversation entries are provided as context; an empty reply means
// nothing is sent.
type Responder interface {
	Respond(ctx context.Context, msg message.InboundMessage, recent []history.Entry) (string, error)
}

// ResponderFunc adapts a function to the Responder interface.
type ResponderFunc func(ctx context.Context, msg message.InboundMessage, recent []history.Entry) (string, error)

// Respond implements Responder.
func (f ResponderFunc) Respond(ctx context.Context, msg message.InboundMessage, recent []history.Entry) (string, error) {
	return f(ctx, msg, recent)
}

// Config controls pipeline behavior.
type Config struct {
	// HistoryContext is the number of recent traffic entries handed to
	// the responder. Zero means the default of 20.
	HistoryContext int `yaml:"history_context"`
}

func (c *Config) defaults() {
	if c.HistoryContext == 0 {
		c.HistoryContext = 20
	}
}

// Pipeline is the inbound side of the runtime. Channels push messages
// into it via the Inbox callback; replies flow back out through the
// dispatcher, paced by the scheduler.
type Pipeline struct {
	cfg        Config
	sched      *pacing.Scheduler
	dispatcher *channel.Dispatcher
	store      *history.Store
	responder  Responder
	logger     *slog.Logger

	mu      sync.Mutex
	stopped bool
	wg      sync.WaitGroup
}

// NewPipeline wires a Pipeline. The history store is optional; without
// one the responder receives no conversation context and traffic is not
// persisted.
func NewPipeline(cfg Config, sched *pacing.Scheduler, dispatcher *channel.Dispatcher, store *history.Store, responder Responder, logger *slog.Logger) (*Pipeline, error) {
	if sched == nil {
		return nil, ErrNoScheduler
	}
	if dispatcher == nil {
		return nil, ErrNoDispatcher
	}
	if responder == nil {
		return nil, ErrNoResponder
	}
	if logger == nil {
		logger = slog.Default()
	}
	cfg.defaults()

	return &Pipeline{
		cfg:        cfg,
		sched:      sched,
		dispatcher: dispatcher,
		store:      store,
		responder:  responder,
		logger:     logger,
	}, nil
}

// Inbox returns the callback channels push inbound messages into.
func (p *Pipeline) Inbox() func(msg message.InboundMessage) error {
	return p.HandleInbound
}

// HandleInbound processes one inbound message: activity is recorded and
// traffic persisted synchronously, then the reply is produced and
// scheduled on a separate goroutine so the channel's receive loop is
// never blocked by response generation.
func (p *Pipeline) HandleInbound(msg message.InboundMessage) error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return ErrStopped
	}
	p.wg.Add(1)
	p.mu.Unlock()

	if msg.ReceivedAt.IsZero() {
		msg.ReceivedAt = time.Now()
	}
	conversation := history.ConversationKey(msg.Channel, msg.Chat)

	p.sched.RecordIncoming(conversation, msg.ReceivedAt)

	if p.store != nil {
		if err := p.store.AppendInbound(context.Background(), msg); err != nil {
			p.logger.Error("persist inbound message failed",
				"conversation", conversation, "error", err)
		}
	}

	go func() {
		defer p.wg.Done()
		p.respond(msg, conversation)
	}()
	return nil
}

// respond produces the reply and hands it to the scheduler. Everything
// between message receipt and reply readiness counts as processing
// time, so slow generation does not stack on top of the deliberate
// delay.
func (p *Pipeline) respond(msg message.InboundMessage, conversation string) {
	ctx := context.Background()

	var recent []history.Entry
	if p.store != nil {
		var err error
		recent, err = p.store.Recent(ctx, conversation, p.cfg.HistoryContext)
		if err != nil {
			p.logger.Error("load conversation context failed",
				"conversation", conversation, "error", err)
		}
	}

	reply, err := p.responder.Respond(ctx, msg, recent)
	if err != nil {
		p.logger.Error("responder failed",
			"conversation", conversation, "error", err)
		return
	}
	if reply == "" {
		return
	}

	job, err := p.sched.Schedule(ctx, pacing.Request{
		ChannelID:  conversation,
		Text:       reply,
		Processing: time.Since(msg.ReceivedAt),
		Send:       p.sendFunc(msg),
		Typing:     p.typingFunc(msg),
	})
	if err != nil {
		p.logger.Error("schedule delivery failed",
			"conversation", conversation, "error", err)
		return
	}
	p.logger.Debug("reply scheduled",
		"conversation", conversation, "job", job.ID)
}

// sendFunc binds an inbound message to a segment sender: each segment
// goes out as its own platform message, with the first segment quoting
// the message it answers.
func (p *Pipeline) sendFunc(msg message.InboundMessage) pacing.SendFunc {
	return func(ctx context.Context, seg pacing.Segment) error {
		out := message.OutboundMessage{
			Channel: msg.Channel,
			Chat:    msg.Chat,
			Text:    seg.Text,
		}
		if seg.Index == 0 {
			out.ReplyToID = msg.ID
		}

		if err := p.dispatcher.Send(ctx, out); err != nil {
			return err
		}

		if p.store != nil {
			if err := p.store.AppendOutbound(context.Background(), out, time.Now()); err != nil {
				p.logger.Error("persist outbound segment failed",
					"conversation", history.ConversationKey(msg.Channel, msg.Chat), "error", err)
			}
		}
		return nil
	}
}

func (p *Pipeline) typingFunc(msg message.InboundMessage) pacing.TypingFunc {
	return func(ctx context.Context) error {
		return p.dispatcher.SendTyping(ctx, msg.Channel, msg.Chat)
	}
}

// Stop rejects new inbound messages and waits for in-flight responders
// to finish scheduling, bounded by ctx. Pending deliveries are owned by
// the scheduler and are shut down with it.
func (p *Pipeline) Stop(ctx context.Context) error {
	p.mu.Lock()
	p.stopped = true
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
