package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/matthewhand/hivepace/pkg/message"

	_ "modernc.org/sqlite" // SQLite driver registration
)

const defaultBusyTimeout = 5000 // milliseconds

// Store is a SQLite-backed conversation traffic log.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the SQLite database at path. The
// database uses WAL mode, a 5 s busy timeout, and a single connection
// (SQLite serialises writes). The schema is migrated automatically.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("history: create directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open %s: %w", path, err)
	}

	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("history: enable WAL: %w", err)
	}
	if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA busy_timeout=%d", defaultBusyTimeout)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("history: set busy_timeout: %w", err)
	}

	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// AppendInbound records a message received from the platform.
func (s *Store) AppendInbound(ctx context.Context, msg message.InboundMessage) error {
	return s.append(ctx, Entry{
		Conversation: ConversationKey(msg.Channel, msg.Chat),
		Direction:    DirectionIn,
		Sender:       msg.Sender.ID,
		Text:         msg.Text,
		CreatedAt:    msg.ReceivedAt,
	})
}

// AppendOutbound records a delivered segment.
func (s *Store) AppendOutbound(ctx context.Context, msg message.OutboundMessage, sentAt time.Time) error {
	return s.append(ctx, Entry{
		Conversation: ConversationKey(msg.Channel, msg.Chat),
		Direction:    DirectionOut,
		Text:         msg.Text,
		CreatedAt:    sentAt,
	})
}

func (s *Store) append(ctx context.Context, e Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO traffic (conversation, seq, direction, sender, text, created_at)
		VALUES (?, COALESCE((SELECT MAX(seq) FROM traffic WHERE conversation = ?), 0) + 1,
		        ?, ?, ?, ?)`,
		e.Conversation, e.Conversation,
		string(e.Direction), e.Sender, e.Text, e.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("history: append traffic: %w", err)
	}
	return nil
}

// Recent returns the n most recent entries for a conversation in
// chronological order.
func (s *Store) Recent(ctx context.Context, conversation string, n int) ([]Entry, error) {
	if n <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT conversation, direction, sender, text, created_at
		FROM traffic
		WHERE conversation = ?
		ORDER BY seq DESC
		LIMIT ?`,
		conversation, n,
	)
	if err != nil {
		return nil, fmt.Errorf("history: recent: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: recent rows: %w", err)
	}

	slices.Reverse(entries)
	return entries, nil
}

// Count returns the number of entries stored for a conversation.
func (s *Store) Count(ctx context.Context, conversation string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM traffic WHERE conversation = ?", conversation,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("history: count traffic: %w", err)
	}
	return count, nil
}

// CountSince returns the number of entries recorded at or after since,
// across all conversations.
func (s *Store) CountSince(ctx context.Context, since time.Time) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM traffic WHERE created_at >= ?", since.UTC().Format(time.RFC3339Nano),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("history: count since: %w", err)
	}
	return count, nil
}

// Conversations returns the distinct conversation keys in the store.
func (s *Store) Conversations(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT conversation FROM traffic ORDER BY conversation")
	if err != nil {
		return nil, fmt.Errorf("history: list conversations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("history: scan conversation: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: conversation rows: %w", err)
	}
	return keys, nil
}

// PruneBefore deletes entries created before cutoff and returns how many
// rows were removed.
func (s *Store) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM traffic WHERE created_at < ?", cutoff.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("history: prune traffic: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("history: prune rows affected: %w", err)
	}
	return n, nil
}

// Checkpoint flushes the write-ahead log back into the main database.
func (s *Store) Checkpoint(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return fmt.Errorf("history: wal checkpoint: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// scanner abstracts *sql.Row and *sql.Rows for shared scan logic.
type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(sc scanner) (Entry, error) {
	var (
		e         Entry
		direction string
		createdAt string
	)
	if err := sc.Scan(&e.Conversation, &direction, &e.Sender, &e.Text, &createdAt); err != nil {
		return e, fmt.Errorf("history: scan entry: %w", err)
	}

	e.Direction = Direction(direction)
	ts, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return e, fmt.Errorf("history: parse created_at: %w", err)
	}
	e.CreatedAt = ts
	return e, nil
}
