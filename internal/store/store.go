// ABOUTME: Store interface and data types for wagate persistence
// ABOUTME: Defines Message, SenderPresence, ThreadSummary and the Store interface

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// Direction indicates who produced a message.
type Direction string

const (
	// DirectionInbound marks a message received from the remote sender.
	DirectionInbound Direction = "inbound"
	// DirectionOutbound marks a reply we produced (automated or manual).
	DirectionOutbound Direction = "outbound"
)

// Message is one turn in a conversation thread. Messages are immutable once
// written and are never deleted; the timestamp is assigned by the store at
// write time and is strictly increasing per sender.
type Message struct {
	ID        string
	Sender    string
	Body      string
	Direction Direction
	Timestamp time.Time
}

// SenderPresence is denormalized first-seen/last-active metadata for a sender.
// It is an index for operator views, not authoritative for conversation content.
type SenderPresence struct {
	Sender       string
	FirstSeenAt  time.Time
	LastActiveAt time.Time
}

// ThreadSummary is one row of the operator overview: the most recent message
// for a sender plus how many messages the thread holds. Derived on demand,
// never persisted.
type ThreadSummary struct {
	Sender          string
	LastMessageBody string
	LastMessageAt   time.Time
	MessageCount    int64
}

// Store defines the interface for message and presence persistence
type Store interface {
	// AppendMessage writes a new immutable message with a server-assigned
	// timestamp and returns it. A write failure is always surfaced.
	AppendMessage(ctx context.Context, sender, body string, direction Direction) (*Message, error)

	// ListMessages returns all messages for a sender ordered by timestamp
	// ascending. An unknown sender yields an empty slice, not an error.
	ListMessages(ctx context.Context, sender string) ([]*Message, error)

	// UpsertPresence creates the presence row for a sender if absent (setting
	// FirstSeenAt) and unconditionally bumps LastActiveAt. Idempotent.
	UpsertPresence(ctx context.Context, sender string) error

	// GetPresence returns the presence row for a sender, or ErrNotFound.
	GetPresence(ctx context.Context, sender string) (*SenderPresence, error)

	// ListThreadSummaries returns one summary per sender with at least one
	// message, ordered by last activity descending.
	ListThreadSummaries(ctx context.Context) ([]*ThreadSummary, error)

	// CountMessages returns how many messages a sender's thread holds.
	CountMessages(ctx context.Context, sender string) (int64, error)

	// Close releases any resources held by the store
	Close() error
}
