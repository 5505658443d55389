// Package pacing implements humanized reply delivery: adaptive delays
// derived from recent channel activity, segmentation of raw reply text,
// typing-indicator coordination during waits, and per-channel sequential
// delivery. The engine performs no network I/O itself; send and typing
// functions are injected by the platform-integration layer.
package pacing

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// SendFunc delivers one segment to the platform.
type SendFunc func(ctx context.Context, seg Segment) error

// Request describes one reply delivery.
type Request struct {
	// ChannelID identifies the conversation; deliveries on the same ID
	// serialize, distinct IDs run independently.
	ChannelID string

	// Text is the raw reply to segment and deliver.
	Text string

	// Processing is the time already spent producing the reply. It is
	// credited against the first segment's pause.
	Processing time.Duration

	// Send is required; Typing is optional (nil disables indicators).
	Send   SendFunc
	Typing TypingFunc
}

// Result is the terminal outcome of a delivery job. Exactly one of the
// three states holds: fully delivered (Err nil), cancelled (Cancelled
// true, Err is ErrCancelled), or failed (Err wraps the send error).
// SegmentsSent counts segments delivered before the terminal state;
// already-sent segments are never retracted.
type Result struct {
	JobID         string
	ChannelID     string
	SegmentsTotal int
	SegmentsSent  int
	Cancelled     bool
	Err           error
}

// Job is the handle to an in-flight delivery.
type Job struct {
	ID string

	channelID string
	ctx       context.Context
	req       Request
	segments  []Segment

	cancelOnce sync.Once
	cancelled  chan struct{}
	done       chan struct{}
	result     Result
}

// Cancel requests cooperative cancellation: pending waits and the typing
// loop stop immediately, and no further segments are sent. An in-flight
// send is allowed to complete; its segment still counts as sent.
func (j *Job) Cancel() {
	j.cancelOnce.Do(func() { close(j.cancelled) })
}

// Done is closed when the job reaches a terminal state.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Wait blocks until the job finishes or ctx expires.
func (j *Job) Wait(ctx context.Context) (Result, error) {
	select {
	case <-j.done:
		return j.result, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Result returns the outcome. Only valid after Done is closed.
func (j *Job) Result() Result {
	return j.result
}

// interrupted reports whether the job was cancelled or its context expired.
func (j *Job) interrupted() bool {
	select {
	case <-j.cancelled:
		return true
	case <-j.ctx.Done():
		return true
	default:
		return false
	}
}

// Scheduler orchestrates per-channel delivery: it segments reply text,
// computes an adaptive pause per segment, runs the typing loop during
// waits, sends strictly in order, and feeds its own sends back into the
// activity tracker so consecutive segments pace off each other.
//
// A lazily created worker goroutine serializes deliveries per channel
// and exits when its queue drains; channels never block one another.
// New deliveries on a busy channel queue FIFO behind the active one up
// to Config.QueueSize, then are rejected with ErrQueueFull.
type Scheduler struct {
	cfg     Config
	calc    Calculator
	tracker *ActivityTracker
	clock   Clock
	logger  *slog.Logger
	metrics *Metrics

	mu      sync.Mutex
	workers map[string]*channelWorker
	closed  bool
	wg      sync.WaitGroup
}

type channelWorker struct {
	active *Job
	queue  []*Job
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock replaces the wall clock, letting tests drive time.
func WithClock(c Clock) Option {
	return func(s *Scheduler) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics sets the metrics collectors.
func WithMetrics(m *Metrics) Option {
	return func(s *Scheduler) {
		if m != nil {
			s.metrics = m
		}
	}
}

// NewScheduler creates a Scheduler. Zero config fields get defaults;
// an invalid config fails here, never per delivery. Each Scheduler owns
// its activity state, so independent instances stay fully isolated.
func NewScheduler(cfg Config, opts ...Option) (*Scheduler, error) {
	cfg.defaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Scheduler{
		cfg:     cfg,
		calc:    NewCalculator(cfg),
		tracker: NewActivityTracker(cfg.ActivityWindow),
		clock:   SystemClock(),
		logger:  slog.Default(),
		workers: make(map[string]*channelWorker),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = NewMetrics(nil)
	}
	return s, nil
}

// RecordIncoming registers a human message on the channel. The upstream
// ingestion layer calls this for every inbound message, whether or not
// a reply is being scheduled.
func (s *Scheduler) RecordIncoming(channelID string, ts time.Time) {
	s.tracker.RecordIncoming(channelID, ts)
}

// ActiveChannels returns the number of channels with a running delivery
// worker.
func (s *Scheduler) ActiveChannels() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.workers)
}

// TrackedChannels returns the number of channels with recorded activity.
func (s *Scheduler) TrackedChannels() int {
	return s.tracker.Channels()
}

// Schedule enqueues a delivery and returns its handle. The returned
// Job finishes asynchronously; use Wait or Done to observe the outcome.
func (s *Scheduler) Schedule(ctx context.Context, req Request) (*Job, error) {
	if req.ChannelID == "" {
		return nil, fmt.Errorf("pacing: channel id is required")
	}
	if req.Send == nil {
		return nil, fmt.Errorf("pacing: send function is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	job := &Job{
		ID:        uuid.NewString(),
		channelID: req.ChannelID,
		ctx:       ctx,
		req:       req,
		segments:  s.segment(req.Text),
		cancelled: make(chan struct{}),
		done:      make(chan struct{}),
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	w, ok := s.workers[req.ChannelID]
	if !ok {
		w = &channelWorker{queue: []*Job{job}}
		s.workers[req.ChannelID] = w
		s.metrics.ActiveWorkers.Inc()
		s.wg.Add(1)
		go s.runWorker(req.ChannelID, w)
	} else {
		if len(w.queue) >= s.cfg.QueueSize {
			s.mu.Unlock()
			return nil, fmt.Errorf("%w: %s", ErrQueueFull, req.ChannelID)
		}
		w.queue = append(w.queue, job)
	}
	s.mu.Unlock()

	s.logger.Debug("delivery scheduled",
		"job", job.ID, "channel", req.ChannelID, "segments", len(job.segments))
	return job, nil
}

// Close cancels every active and queued delivery and waits for all
// channel workers to exit. Schedule returns ErrClosed afterwards.
func (s *Scheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	var pending []*Job
	for _, w := range s.workers {
		if w.active != nil {
			pending = append(pending, w.active)
		}
		pending = append(pending, w.queue...)
	}
	s.mu.Unlock()

	for _, j := range pending {
		j.Cancel()
	}
	s.wg.Wait()
}

// runWorker drains one channel's queue sequentially, then retires.
func (s *Scheduler) runWorker(channelID string, w *channelWorker) {
	defer s.wg.Done()
	for {
		s.mu.Lock()
		if len(w.queue) == 0 {
			delete(s.workers, channelID)
			s.metrics.ActiveWorkers.Dec()
			s.mu.Unlock()
			return
		}
		job := w.queue[0]
		w.queue = w.queue[1:]
		w.active = job
		s.mu.Unlock()

		s.deliver(job)

		s.mu.Lock()
		w.active = nil
		s.mu.Unlock()
	}
}

// deliver walks a job's segments in order. Cancellation is checked
// before every wait and before every send.
func (s *Scheduler) deliver(job *Job) {
	res := Result{JobID: job.ID, ChannelID: job.channelID, SegmentsTotal: len(job.segments)}
	defer func() {
		job.result = res
		close(job.done)
	}()

	for _, seg := range job.segments {
		if job.interrupted() {
			s.markCancelled(&res, job)
			return
		}

		wait := s.segmentDelay(job, seg)
		s.metrics.DelaySeconds.Observe(wait.Seconds())

		if wait > 0 && !s.pause(job, wait) {
			s.markCancelled(&res, job)
			return
		}

		if job.interrupted() {
			s.markCancelled(&res, job)
			return
		}

		if err := job.req.Send(job.ctx, seg); err != nil {
			res.Err = fmt.Errorf("pacing: send segment %d on %s: %w", seg.Index, job.channelID, err)
			s.metrics.DeliveriesFailed.Inc()
			s.logger.Error("segment send failed; halting delivery",
				"job", job.ID, "channel", job.channelID,
				"segment", seg.Index, "sent", res.SegmentsSent, "error", err)
			return
		}

		res.SegmentsSent++
		s.metrics.SegmentsSent.Inc()
		s.tracker.RecordSend(job.channelID, s.clock.Now())
	}

	s.metrics.DeliveriesDone.Inc()
	s.logger.Debug("delivery complete",
		"job", job.ID, "channel", job.channelID, "segments", res.SegmentsSent)
}

func (s *Scheduler) markCancelled(res *Result, job *Job) {
	res.Cancelled = true
	res.Err = ErrCancelled
	s.metrics.DeliveriesCancelled.Inc()
	s.logger.Debug("delivery cancelled",
		"job", job.ID, "channel", job.channelID, "sent", res.SegmentsSent)
}

// pause waits for the given duration while the typing loop runs.
// Returns false when the job was interrupted mid-wait. The typing loop
// is fully stopped before pause returns, so no indicator can race the
// following send.
func (s *Scheduler) pause(job *Job, wait time.Duration) bool {
	stop := func() {}
	if job.req.Typing != nil {
		stop = StartTyping(job.ctx, s.clock, wait, s.cfg.TypingCadence,
			s.instrumentTyping(job.req.Typing), s.logger)
	}
	defer stop()

	select {
	case <-job.ctx.Done():
		return false
	case <-job.cancelled:
		return false
	case <-s.clock.After(wait):
		return true
	}
}

func (s *Scheduler) instrumentTyping(fn TypingFunc) TypingFunc {
	return func(ctx context.Context) error {
		s.metrics.TypingSignals.Inc()
		return fn(ctx)
	}
}

// segmentDelay computes the pause before one segment from fresh tracker
// state. Processing time is credited only against the first segment;
// later segments take the simulated typing time as a floor and always
// add the inter-part delay.
func (s *Scheduler) segmentDelay(job *Job, seg Segment) time.Duration {
	now := s.clock.Now()
	chars := utf8.RuneCountInString(seg.Text)
	since, seen := s.tracker.TimeSinceLast(job.channelID, now)

	in := DelayInput{
		SinceLast:      since,
		HasHistory:     seen,
		SegmentChars:   chars,
		RecentActivity: s.tracker.RecentCount(job.channelID, now),
	}
	if seg.Index == 0 {
		in.Processing = job.req.Processing
	}

	d := s.calc.Compute(in)
	if seg.Index > 0 {
		if rd := s.calc.ReadingDelay(chars); rd > d {
			d = rd
		}
		d += s.cfg.InterPartDelay
	}
	return d
}

// segment splits reply text, falling back to one untouched segment if
// the splitter panics. A reply that segments to nothing yields an empty
// job that completes immediately.
func (s *Scheduler) segment(text string) []Segment {
	segs, ok := s.safeSplit(text)
	if ok {
		return segs
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return []Segment{{Index: 0, Text: text}}
}

func (s *Scheduler) safeSplit(text string) (segs []Segment, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("segmentation panic; falling back to a single segment", "panic", r)
			segs, ok = nil, false
		}
	}()
	return SplitReply(text, SegmentOptions{MaxSegments: s.cfg.MaxLinesPerResponse}), true
}
