// Package recent keeps the "recently opened" configurations.
//
// The list lives in a kv.Store as a single CBOR blob and is always rewritten
// whole.
package recent

import (
	"errors"
	"fmt"
	"sync"

	"vga-app/codec"
	"vga-app/kv"
)

// Store reads and writes the recents list.
type Store struct {
	mu sync.Mutex
	kv kv.Store
}

func NewStore(store kv.Store) *Store {
	return &Store{kv: store}
}

// List returns the persisted list, most recent first. A list that was never
// written is empty, not an error.
func (s *Store) List() ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Get returns the entry at index.
func (s *Store) Get(index int) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := s.load()
	if err != nil {
		return Entry{}, err
	}
	if index < 0 || index >= len(entries) {
		return Entry{}, fmt.Errorf("index %d: %w", index, ErrIndexOutOfRange)
	}
	return entries[index], nil
}

// Upsert moves the entry with the same source to the front, replacing its
// name and icon with the new ones, or inserts a new entry at the front. The
// list is then truncated to MaxEntries.
func (s *Store) Upsert(entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return err
	}

	updated := make([]Entry, 0, len(entries)+1)
	updated = append(updated, entry)
	for _, e := range entries {
		if e.Source.Same(entry.Source) {
			continue
		}
		updated = append(updated, e)
	}
	if len(updated) > MaxEntries {
		updated = updated[:MaxEntries]
	}
	return s.save(updated)
}

// Remove deletes the entry at index, keeping the others in order.
func (s *Store) Remove(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return err
	}
	if index < 0 || index >= len(entries) {
		return fmt.Errorf("index %d: %w", index, ErrIndexOutOfRange)
	}
	entries = append(entries[:index], entries[index+1:]...)
	return s.save(entries)
}

// load reads the list. Caller must hold s.mu.
func (s *Store) load() ([]Entry, error) {
	data, err := s.kv.Get(Key)
	if errors.Is(err, kv.ErrNotFound) {
		return []Entry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading recents: %w", err)
	}
	var entries []Entry
	if err := codec.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decoding recents: %w", err)
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}

// save writes the whole list. Caller must hold s.mu.
func (s *Store) save(entries []Entry) error {
	data, err := codec.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encoding recents: %w", err)
	}
	if err := s.kv.Set(Key, data); err != nil {
		return fmt.Errorf("writing recents: %w", err)
	}
	return nil
}
