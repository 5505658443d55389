package channel

import (
	"strings"
	"testing"

	"github.com/matthewhand/hivepace/pkg/message"
)

func textMsg(text string) message.OutboundMessage {
	return message.OutboundMessage{
		Channel: "test",
		Chat:    message.Chat{ID: "chat-1"},
		Text:    text,
	}
}

func TestSplitMessage_NoChunkingWhenDisabled(t *testing.T) {
	t.Parallel()
	msg := textMsg("hello world")
	result := SplitMessage(msg, ChunkConfig{MaxLength: 0})
	if len(result) != 1 {
		t.Fatalf("expected 1 message, got %d", len(result))
	}
}

func TestSplitMessage_ShortMessageUnchanged(t *testing.T) {
	t.Parallel()
	msg := textMsg("hello world")
	result := SplitMessage(msg, ChunkConfig{MaxLength: 100})
	if len(result) != 1 {
		t.Fatalf("expected 1 message, got %d", len(result))
	}
	if result[0].Text != "hello world" {
		t.Errorf("text mismatch: %q", result[0].Text)
	}
}

func TestSplitMessage_SplitsLongText(t *testing.T) {
	t.Parallel()
	text := strings.Repeat("a", 100) + "\n" + strings.Repeat("b", 100)
	msg := textMsg(text)
	result := SplitMessage(msg, ChunkConfig{MaxLength: 110})
	if len(result) < 2 {
		t.Fatalf("expected >= 2 chunks, got %d", len(result))
	}
	for i, r := range result {
		if len(r.Text) > 110 {
			t.Errorf("chunk %d exceeds max length: %d > 110", i, len(r.Text))
		}
	}
}

func TestSplitMessage_PreservesCodeBlocks(t *testing.T) {
	t.Parallel()
	code := "```\nfunc main() {\n\tfmt.Println(\"hello\")\n}\n```"
	text := "Before\n" + code + "\nAfter"
	msg := textMsg(text)
	// MaxLength large enough to hold the code block but not everything.
	result := SplitMessage(msg, ChunkConfig{MaxLength: len(code) + 10, PreserveBlocks: true})

	// The code block should appear intact in one chunk.
	found := false
	for _, r := range result {
		if strings.Contains(r.Text, code) {
			found = true
			break
		}
	}
	if !found {
		t.Error("code block was split across chunks")
	}
}

func TestSplitMessage_ReplyToIDOnFirstChunkOnly(t *testing.T) {
	t.Parallel()
	msg := message.OutboundMessage{
		Channel:   "test-ch",
		Chat:      message.Chat{ID: "chat-1"},
		ReplyToID: "msg-99",
		Text:      strings.Repeat("x", 200),
	}
	result := SplitMessage(msg, ChunkConfig{MaxLength: 100})
	if len(result) < 2 {
		t.Fatalf("expected >= 2 chunks, got %d", len(result))
	}
	if result[0].ReplyToID != "msg-99" {
		t.Errorf("first chunk ReplyToID = %q, want %q", result[0].ReplyToID, "msg-99")
	}
	for i, r := range result[1:] {
		if r.ReplyToID != "" {
			t.Errorf("chunk %d carries ReplyToID %q, want empty", i+1, r.ReplyToID)
		}
		if r.Channel != "test-ch" || r.Chat.ID != "chat-1" {
			t.Errorf("chunk %d lost routing metadata", i+1)
		}
	}
}

func TestSplitText_ForceSplitLongLine(t *testing.T) {
	t.Parallel()
	long := strings.Repeat("x", 250)
	msg := textMsg(long)
	result := SplitMessage(msg, ChunkConfig{MaxLength: 100})
	if len(result) < 3 {
		t.Fatalf("expected >= 3 chunks for 250 char line with max 100, got %d", len(result))
	}
	var rebuilt string
	for _, r := range result {
		rebuilt += r.Text
	}
	if rebuilt != long {
		t.Errorf("reconstructed text length = %d, want %d", len(rebuilt), len(long))
	}
}

func TestSplitMessage_EmptyText(t *testing.T) {
	t.Parallel()
	msg := textMsg("")
	result := SplitMessage(msg, ChunkConfig{MaxLength: 100})
	if len(result) != 1 {
		t.Fatalf("expected 1 message for empty text, got %d", len(result))
	}
}
