// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: Provides message/presence persistence with automatic schema creation

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// timeLayout is RFC 3339 with fixed-width nanoseconds. The fixed width keeps
// lexical order identical to chronological order, which the summary query and
// the per-sender ordering index rely on.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger

	// lastAssigned tracks the most recent timestamp handed out per sender so
	// that timestamps stay strictly increasing even when the wall clock does
	// not advance between two near-simultaneous turns.
	mu           sync.Mutex
	lastAssigned map[string]time.Time
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{
		db:           db,
		logger:       logger,
		lastAssigned: make(map[string]time.Time),
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS messages (
			id        TEXT PRIMARY KEY,
			sender    TEXT NOT NULL,
			body      TEXT NOT NULL,
			direction TEXT NOT NULL,
			timestamp TEXT NOT NULL,

			CHECK (direction IN ('inbound', 'outbound'))
		);

		CREATE INDEX IF NOT EXISTS idx_messages_sender_timestamp
			ON messages(sender, timestamp);

		CREATE TABLE IF NOT EXISTS sender_presence (
			sender         TEXT PRIMARY KEY,
			first_seen_at  TEXT NOT NULL,
			last_active_at TEXT NOT NULL
		);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("executing schema: %w", err)
	}
	return nil
}

// nextTimestamp assigns the write timestamp for a sender's next message.
// Strictly after any timestamp previously assigned to the same sender.
func (s *SQLiteStore) nextTimestamp(sender string) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := time.Now().UTC()
	if last, ok := s.lastAssigned[sender]; ok && !ts.After(last) {
		ts = last.Add(time.Nanosecond)
	}
	s.lastAssigned[sender] = ts
	return ts
}

// AppendMessage writes a new immutable message for the sender.
func (s *SQLiteStore) AppendMessage(ctx context.Context, sender, body string, direction Direction) (*Message, error) {
	msg := &Message{
		ID:        uuid.New().String(),
		Sender:    sender,
		Body:      body,
		Direction: direction,
		Timestamp: s.nextTimestamp(sender),
	}

	query := `
		INSERT INTO messages (id, sender, body, direction, timestamp)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		msg.ID,
		msg.Sender,
		msg.Body,
		string(msg.Direction),
		msg.Timestamp.Format(timeLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting message: %w", err)
	}

	s.logger.Debug("saved message",
		"message_id", msg.ID,
		"sender", msg.Sender,
		"direction", msg.Direction,
	)
	return msg, nil
}

// ListMessages retrieves all messages for a sender, ordered by timestamp ASC.
func (s *SQLiteStore) ListMessages(ctx context.Context, sender string) ([]*Message, error) {
	query := `
		SELECT id, sender, body, direction, timestamp
		FROM messages
		WHERE sender = ?
		ORDER BY timestamp ASC
	`

	rows, err := s.db.QueryContext(ctx, query, sender)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	messages := []*Message{}
	for rows.Next() {
		msg := &Message{}
		var direction, timestampStr string

		if err := rows.Scan(&msg.ID, &msg.Sender, &msg.Body, &direction, &timestampStr); err != nil {
			return nil, fmt.Errorf("scanning message row: %w", err)
		}

		msg.Direction = Direction(direction)
		msg.Timestamp, err = time.Parse(timeLayout, timestampStr)
		if err != nil {
			return nil, fmt.Errorf("parsing timestamp: %w", err)
		}

		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating message rows: %w", err)
	}
	return messages, nil
}

// UpsertPresence creates or refreshes the presence row for a sender.
// FirstSeenAt is set only on creation; LastActiveAt is always bumped.
func (s *SQLiteStore) UpsertPresence(ctx context.Context, sender string) error {
	now := time.Now().UTC().Format(timeLayout)

	query := `
		INSERT INTO sender_presence (sender, first_seen_at, last_active_at)
		VALUES (?, ?, ?)
		ON CONFLICT(sender) DO UPDATE SET last_active_at = excluded.last_active_at
	`
	if _, err := s.db.ExecContext(ctx, query, sender, now, now); err != nil {
		return fmt.Errorf("upserting presence: %w", err)
	}
	return nil
}

// GetPresence retrieves the presence row for a sender.
func (s *SQLiteStore) GetPresence(ctx context.Context, sender string) (*SenderPresence, error) {
	query := `
		SELECT sender, first_seen_at, last_active_at
		FROM sender_presence
		WHERE sender = ?
	`

	p := &SenderPresence{}
	var firstSeenStr, lastActiveStr string

	err := s.db.QueryRowContext(ctx, query, sender).Scan(&p.Sender, &firstSeenStr, &lastActiveStr)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying presence: %w", err)
	}

	if p.FirstSeenAt, err = time.Parse(timeLayout, firstSeenStr); err != nil {
		return nil, fmt.Errorf("parsing first_seen_at: %w", err)
	}
	if p.LastActiveAt, err = time.Parse(timeLayout, lastActiveStr); err != nil {
		return nil, fmt.Errorf("parsing last_active_at: %w", err)
	}
	return p, nil
}

// ListThreadSummaries produces one row per sender that has at least one
// message, carrying that sender's most recent message, ordered newest first.
func (s *SQLiteStore) ListThreadSummaries(ctx context.Context) ([]*ThreadSummary, error) {
	query := `
		SELECT m.sender, m.body, m.timestamp, stats.message_count
		FROM messages m
		JOIN (
			SELECT sender, MAX(timestamp) AS last_ts, COUNT(*) AS message_count
			FROM messages
			GROUP BY sender
		) stats ON stats.sender = m.sender AND stats.last_ts = m.timestamp
		ORDER BY m.timestamp DESC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying thread summaries: %w", err)
	}
	defer rows.Close()

	summaries := []*ThreadSummary{}
	for rows.Next() {
		sum := &ThreadSummary{}
		var timestampStr string

		if err := rows.Scan(&sum.Sender, &sum.LastMessageBody, &timestampStr, &sum.MessageCount); err != nil {
			return nil, fmt.Errorf("scanning summary row: %w", err)
		}

		sum.LastMessageAt, err = time.Parse(timeLayout, timestampStr)
		if err != nil {
			return nil, fmt.Errorf("parsing timestamp: %w", err)
		}

		summaries = append(summaries, sum)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating summary rows: %w", err)
	}
	return summaries, nil
}

// CountMessages returns the number of messages stored for a sender.
func (s *SQLiteStore) CountMessages(ctx context.Context, sender string) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM messages WHERE sender = ?`, sender,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting messages: %w", err)
	}
	return count, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
