package app

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/matthewhand/hivepace/internal/channel"
	"github.com/matthewhand/hivepace/internal/config"
	"github.com/matthewhand/hivepace/internal/pacing"
	"github.com/matthewhand/hivepace/pkg/message"
)

func configLog(level, format string) config.LogConfig {
	return config.LogConfig{Level: level, Format: format}
}

// fastPacing keeps every delay near zero so wiring tests complete fast.
func fastPacing() pacing.Config {
	return pacing.Config{
		MinDelay:            time.Millisecond,
		MaxDelay:            5 * time.Millisecond,
		DecayRate:           -0.5,
		BaseDelay:           time.Millisecond,
		PerChar:             time.Nanosecond,
		MaxReading:          2 * time.Millisecond,
		InterPartDelay:      time.Millisecond,
		TypingCadence:       time.Hour,
		MaxLinesPerResponse: 10,
		ActivityWindow:      time.Minute,
		ActivityGrowthBase:  1.15,
		SizeReferenceChars:  120,
		QueueSize:           8,
	}
}

func TestBuildServices_Minimal(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{Version: "1", Pacing: fastPacing()}
	mock := channel.NewMockChannel("mock", channel.NewAllowList([]string{"alice"}, nil))

	svcs, err := buildServices(context.Background(), cfg, buildLogger(configLog("error", "text")),
		[]channel.Channel{mock}, echoResponder())
	if err != nil {
		t.Fatalf("buildServices: %v", err)
	}
	t.Cleanup(func() { svcs.stop(context.Background()) })

	if svcs.store != nil {
		t.Error("store should be nil without history.path")
	}
	if _, ok := svcs.dispatcher.Get("mock"); !ok {
		t.Error("mock channel not registered with dispatcher")
	}
}

func TestBuildServices_InvalidPacing(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{Version: "1"}
	cfg.Pacing.DecayRate = 0.5

	_, err := buildServices(context.Background(), cfg, buildLogger(configLog("error", "text")), nil, echoResponder())
	if err == nil {
		t.Fatal("expected error for invalid pacing config")
	}
}

func TestServices_StartStopLifecycle(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{Version: "1", Pacing: fastPacing()}
	cfg.History.Path = filepath.Join(t.TempDir(), "traffic.db")
	cfg.History.Retention = 24 * time.Hour
	cfg.Gateway.Bind = "127.0.0.1:0"

	svcs, err := buildServices(context.Background(), cfg, buildLogger(configLog("error", "text")),
		nil, echoResponder())
	if err != nil {
		t.Fatalf("buildServices: %v", err)
	}

	if svcs.store == nil {
		t.Fatal("store should be open with history.path set")
	}
	jobs := svcs.cron.Jobs()
	if len(jobs) != 2 || jobs[0] != "history_retention" || jobs[1] != "store_maintenance" {
		t.Errorf("cron jobs = %v, want retention and maintenance", jobs)
	}

	if err := svcs.start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	svcs.stop(ctx)
}

func TestBuildServices_ConfigAllowListFiltersInbox(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{Version: "1", Pacing: fastPacing()}
	cfg.Channels.AllowedUsers = []string{"alice"}

	// The channel's own list admits both senders; the config-level list
	// must still reject mallory before the pipeline sees the message.
	mock := channel.NewMockChannel("mock", channel.NewAllowList([]string{"alice", "mallory"}, nil))

	svcs, err := buildServices(context.Background(), cfg, buildLogger(configLog("error", "text")),
		[]channel.Channel{mock}, echoResponder())
	if err != nil {
		t.Fatalf("buildServices: %v", err)
	}
	t.Cleanup(func() { svcs.stop(context.Background()) })

	denied := message.InboundMessage{
		ID:     "m1",
		Sender: message.Sender{ID: "mallory"},
		Chat:   message.Chat{ID: "c1", Type: message.ChatDM},
		Text:   "hi",
	}
	if err := mock.SimulateMessage(denied); !errors.Is(err, channel.ErrDenied) {
		t.Errorf("mallory: err = %v, want ErrDenied", err)
	}

	allowed := denied
	allowed.ID = "m2"
	allowed.Sender = message.Sender{ID: "alice"}
	if err := mock.SimulateMessage(allowed); err != nil {
		t.Errorf("alice: unexpected error: %v", err)
	}
}

func TestServices_EchoEndToEnd(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{Version: "1", Pacing: fastPacing()}
	mock := channel.NewMockChannel("mock", channel.NewAllowList([]string{"alice"}, nil))

	svcs, err := buildServices(context.Background(), cfg, buildLogger(configLog("error", "text")),
		[]channel.Channel{mock}, echoResponder())
	if err != nil {
		t.Fatalf("buildServices: %v", err)
	}
	t.Cleanup(func() { svcs.stop(context.Background()) })

	msg := message.InboundMessage{
		ID:     "m1",
		Sender: message.Sender{ID: "alice"},
		Chat:   message.Chat{ID: "c1", Type: message.ChatDM},
		Text:   "ping",
	}
	if err := mock.SimulateMessage(msg); err != nil {
		t.Fatalf("simulate: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if sent := mock.SentMessages(); len(sent) > 0 {
			if sent[0].Text != "ping" {
				t.Errorf("echo text = %q, want %q", sent[0].Text, "ping")
			}
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("no echoed message delivered before deadline")
}
