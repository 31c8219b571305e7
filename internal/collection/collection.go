// Package collection holds the server-resident set of space marines.
package collection

import (
	"slices"
	"sync"
	"time"

	"github.com/d2verb/legion/internal/marine"
)

// Store is an insertion-ordered collection of records keyed by ID.
//
// IDs are allocated as one past the highest ID the store has ever seen, so an
// ID is never reused within the lifetime of a Store even after removal.
type Store struct {
	mu       sync.Mutex
	items    []*marine.SpaceMarine // insertion order
	index    map[int64]int         // id -> position in items
	lastID   int64
	initTime time.Time
}

// New creates an empty store.
func New() *Store {
	return &Store{
		index:    make(map[int64]int),
		initTime: time.Now(),
	}
}

// InitTime returns when the store was created.
func (s *Store) InitTime() time.Time {
	return s.initTime
}

// Load replaces the contents with persisted records, keeping their IDs.
// Records with a non-positive or duplicate ID receive a fresh one; nil
// records are dropped.
// It returns the number of records that were re-assigned.
func (s *Store) Load(records []*marine.SpaceMarine) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = s.items[:0]
	s.index = make(map[int64]int, len(records))

	records = slices.DeleteFunc(slices.Clone(records), func(r *marine.SpaceMarine) bool {
		return r == nil
	})
	for _, r := range records {
		if r.ID > s.lastID {
			s.lastID = r.ID
		}
	}

	reassigned := 0
	for _, r := range records {
		if _, dup := s.index[r.ID]; r.ID <= 0 || dup {
			s.lastID++
			r.ID = s.lastID
			reassigned++
		}
		s.index[r.ID] = len(s.items)
		s.items = append(s.items, r)
	}
	return reassigned
}

// Insert assigns a fresh ID to m, appends it and returns the ID.
func (s *Store) Insert(m *marine.SpaceMarine) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastID++
	m.ID = s.lastID
	s.index[m.ID] = len(s.items)
	s.items = append(s.items, m)
	return m.ID
}

// Get returns the record with the given ID.
func (s *Store) Get(id int64) (*marine.SpaceMarine, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		return nil, false
	}
	return s.items[i], true
}

// Replace swaps the record stored under id for m, keeping the ID and
// insertion position. It reports whether id was present.
func (s *Store) Replace(id int64, m *marine.SpaceMarine) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		return false
	}
	m.ID = id
	s.items[i] = m
	return true
}

// Remove deletes the record with the given ID and reports whether it existed.
func (s *Store) Remove(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		return false
	}
	s.removeAt(i)
	return true
}

// RemoveAt deletes the record at the given insertion position.
func (s *Store) RemoveAt(pos int) (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if pos < 0 || pos >= len(s.items) {
		return 0, false
	}
	id := s.items[pos].ID
	s.removeAt(pos)
	return id, true
}

// RemoveIf deletes every record matching pred and returns how many were removed.
func (s *Store) RemoveIf(pred func(*marine.SpaceMarine) bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.items[:0]
	removed := 0
	for _, m := range s.items {
		if pred(m) {
			removed++
			continue
		}
		kept = append(kept, m)
	}
	clear(s.items[len(kept):])
	s.items = kept
	s.reindex()
	return removed
}

// All returns the records in insertion order. The returned slice is a copy.
func (s *Store) All() []*marine.SpaceMarine {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*marine.SpaceMarine, len(s.items))
	copy(out, s.items)
	return out
}

// Len returns the number of records.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// removeAt must be called with mu held.
func (s *Store) removeAt(pos int) {
	copy(s.items[pos:], s.items[pos+1:])
	s.items[len(s.items)-1] = nil
	s.items = s.items[:len(s.items)-1]
	s.reindex()
}

func (s *Store) reindex() {
	clear(s.index)
	for i, m := range s.items {
		s.index[m.ID] = i
	}
}
