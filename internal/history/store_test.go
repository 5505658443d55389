package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/matthewhand/hivepace/pkg/message"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func inbound(channel, chatID, sender, text string, at time.Time) message.InboundMessage {
	return message.InboundMessage{
		Channel:    channel,
		Sender:     message.Sender{ID: sender},
		Chat:       message.Chat{ID: chatID, Type: message.ChatDM},
		Text:       text,
		ReceivedAt: at,
	}
}

func TestConversationKey(t *testing.T) {
	t.Parallel()
	got := ConversationKey("telegram", message.Chat{ID: "42"})
	if got != "telegram:42" {
		t.Errorf("key = %q, want %q", got, "telegram:42")
	}
}

func TestAppendAndRecent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	if err := s.AppendInbound(ctx, inbound("tg", "42", "alice", "hello", base)); err != nil {
		t.Fatalf("append inbound: %v", err)
	}
	out := message.OutboundMessage{Channel: "tg", Chat: message.Chat{ID: "42"}, Text: "hi there"}
	if err := s.AppendOutbound(ctx, out, base.Add(time.Second)); err != nil {
		t.Fatalf("append outbound: %v", err)
	}

	entries, err := s.Recent(ctx, "tg:42", 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].Direction != DirectionIn || entries[0].Text != "hello" || entries[0].Sender != "alice" {
		t.Errorf("first entry = %+v", entries[0])
	}
	if entries[1].Direction != DirectionOut || entries[1].Text != "hi there" {
		t.Errorf("second entry = %+v", entries[1])
	}
	if !entries[0].CreatedAt.Equal(base) {
		t.Errorf("created_at = %v, want %v", entries[0].CreatedAt, base)
	}
}

func TestRecentLimitReturnsLatestInOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	for i, text := range []string{"one", "two", "three", "four"} {
		msg := inbound("tg", "1", "alice", text, base.Add(time.Duration(i)*time.Second))
		if err := s.AppendInbound(ctx, msg); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	entries, err := s.Recent(ctx, "tg:1", 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(entries) != 2 || entries[0].Text != "three" || entries[1].Text != "four" {
		t.Fatalf("entries = %+v, want the last two in order", entries)
	}
}

func TestRecentZeroLimit(t *testing.T) {
	s := newTestStore(t)
	entries, err := s.Recent(context.Background(), "tg:1", 0)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if entries != nil {
		t.Errorf("entries = %v, want nil", entries)
	}
}

func TestCountPerConversation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	_ = s.AppendInbound(ctx, inbound("tg", "1", "alice", "a", now))
	_ = s.AppendInbound(ctx, inbound("tg", "1", "alice", "b", now))
	_ = s.AppendInbound(ctx, inbound("tg", "2", "bob", "c", now))

	got, err := s.Count(ctx, "tg:1")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if got != 2 {
		t.Errorf("count = %d, want 2", got)
	}
}

func TestCountSinceAcrossConversations(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	_ = s.AppendInbound(ctx, inbound("tg", "1", "alice", "old", base))
	_ = s.AppendInbound(ctx, inbound("tg", "1", "alice", "new", base.Add(2*time.Hour)))
	_ = s.AppendInbound(ctx, inbound("dc", "9", "bob", "also new", base.Add(3*time.Hour)))

	got, err := s.CountSince(ctx, base.Add(time.Hour))
	if err != nil {
		t.Fatalf("count since: %v", err)
	}
	if got != 2 {
		t.Errorf("count = %d, want 2", got)
	}
}

func TestConversationsListsDistinctKeys(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	_ = s.AppendInbound(ctx, inbound("tg", "1", "alice", "a", now))
	_ = s.AppendInbound(ctx, inbound("tg", "1", "alice", "b", now))
	_ = s.AppendInbound(ctx, inbound("dc", "9", "bob", "c", now))

	keys, err := s.Conversations(ctx)
	if err != nil {
		t.Fatalf("conversations: %v", err)
	}
	if len(keys) != 2 || keys[0] != "dc:9" || keys[1] != "tg:1" {
		t.Errorf("keys = %v, want [dc:9 tg:1]", keys)
	}
}

func TestPruneBeforeRemovesOldEntries(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	_ = s.AppendInbound(ctx, inbound("tg", "1", "alice", "old", base))
	_ = s.AppendInbound(ctx, inbound("tg", "1", "alice", "new", base.Add(time.Hour)))

	pruned, err := s.PruneBefore(ctx, base.Add(30*time.Minute))
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if pruned != 1 {
		t.Errorf("pruned = %d, want 1", pruned)
	}

	entries, err := s.Recent(ctx, "tg:1", 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(entries) != 1 || entries[0].Text != "new" {
		t.Errorf("entries = %+v, want only the new entry", entries)
	}
}

func TestCheckpoint(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_ = s.AppendInbound(ctx, inbound("tg", "1", "alice", "a", time.Now()))
	if err := s.Checkpoint(ctx); err != nil {
		t.Fatalf("checkpoint: %v", err)
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")
	ctx := context.Background()

	s1, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	_ = s1.AppendInbound(ctx, inbound("tg", "1", "alice", "persisted", time.Now()))
	if err := s1.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	s2, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = s2.Close() }()

	count, err := s2.Count(ctx, "tg:1")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Errorf("count after reopen = %d, want 1", count)
	}
}
