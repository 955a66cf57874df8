// Package journal persists a local record of publish attempts. The journal
// is an embedded bolthold store so a field device keeps its history across
// restarts without any external service.
package journal

import (
	"context"
	"fmt"
	"time"

	"github.com/timshannon/bolthold"
)

// Entry is one journaled publish attempt. OK reports whether the broker
// acknowledged the publish; Error carries the failure text when it did not.
type Entry struct {
	ID       uint64 `boltholdKey:"ID"`
	At       time.Time
	DeviceID string
	Type     string `boltholdIndex:"Type"`
	Topic    string
	Payload  []byte
	OK       bool
	Error    string
}

// Store is an append-only journal backed by a bolthold file.
type Store struct {
	store *bolthold.Store
}

// Open opens (or creates) the journal file at path.
func Open(path string) (*Store, error) {
	store, err := bolthold.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}
	return &Store{store: store}, nil
}

// Append writes an entry under the next sequence number. The assigned ID is
// written back into e.
func (s *Store) Append(ctx context.Context, e *Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.store.Insert(bolthold.NextSequence(), e); err != nil {
		return fmt.Errorf("appending journal entry: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var entries []Entry
	q := (&bolthold.Query{}).SortBy("ID").Reverse().Limit(limit)
	if err := s.store.Find(&entries, q); err != nil {
		return nil, fmt.Errorf("reading journal: %w", err)
	}
	return entries, nil
}

// ByType returns up to limit entries of one message type, newest first.
func (s *Store) ByType(ctx context.Context, messageType string, limit int) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var entries []Entry
	q := bolthold.Where("Type").Eq(messageType).Index("Type").
		SortBy("ID").Reverse().Limit(limit)
	if err := s.store.Find(&entries, q); err != nil {
		return nil, fmt.Errorf("reading journal by type: %w", err)
	}
	return entries, nil
}

// Count reports the total number of journaled entries.
func (s *Store) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	n, err := s.store.Count(&Entry{}, nil)
	if err != nil {
		return 0, fmt.Errorf("counting journal entries: %w", err)
	}
	return n, nil
}

// Close releases the underlying store.
func (s *Store) Close() error {
	return s.store.Close()
}
