// Package store provides persistent storage for wagate using SQLite.
//
// # Data Models
//
//   - Message: One chat message with sender, body, direction, and timestamp
//   - SenderPresence: First-seen and last-active times per sender
//   - ThreadSummary: Per-sender rollup for thread listings
//
// A thread is not stored as a row of its own; it is the set of messages
// sharing a sender, ordered by timestamp.
//
// # Ordering
//
// Timestamps are assigned by the store, not by callers, and are strictly
// increasing per sender even when appends land within the same clock tick.
// They are persisted in a fixed-width UTC format so lexical comparison in
// SQL matches chronological order.
//
// # SQLite Configuration
//
// The store uses SQLite with WAL mode for concurrent reads:
//
//	PRAGMA journal_mode=WAL;
//
// Tests use the :memory: database.
//
// # Error Handling
//
//   - ErrNotFound: Requested entity does not exist
//
// All other errors are wrapped with operation context using fmt.Errorf %w.
package store
