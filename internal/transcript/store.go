// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package transcript holds the reconstructed message log of one conversation.
package transcript

import (
	"cmp"
	"slices"
	"sync"

	"github.com/jeranaias/agentview/internal/model"
)

// =============================================================================
// RESULT
// =============================================================================

// Result reports what a mutation did.
type Result int

const (
	// Inserted means the message was new.
	Inserted Result = iota

	// Replaced means an existing message with the same id was overwritten.
	Replaced

	// Unchanged means an identical message was already present.
	Unchanged

	// DroppedEmpty means the message had no displayable content.
	DroppedEmpty
)

// String returns the result name.
func (r Result) String() string {
	switch r {
	case Inserted:
		return "inserted"
	case Replaced:
		return "replaced"
	case Unchanged:
		return "unchanged"
	case DroppedEmpty:
		return "dropped_empty"
	default:
		return "unknown"
	}
}

// Changed reports whether the store contents were modified.
func (r Result) Changed() bool {
	return r == Inserted || r == Replaced
}

// =============================================================================
// STORE
// =============================================================================

// entry pairs a message with its arrival sequence for stable ordering.
type entry struct {
	msg model.Message
	seq uint64
}

// Store is an id-keyed message log. It holds exactly one message per id.
// Store is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry
	nextSeq uint64
	version uint64
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{entries: make(map[string]*entry)}
}

// Upsert inserts msg or replaces the message with the same id.
// Applying the same message twice leaves the store as applying it once.
// A message with empty content is never inserted, and never overwrites an
// existing one.
func (s *Store) Upsert(msg model.Message) Result {
	if msg.IsEmpty() {
		return DroppedEmpty
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.putLocked(msg)
}

// AppendLocal adds an optimistic message authored on this side.
func (s *Store) AppendLocal(msg model.Message) Result {
	msg.Local = true
	return s.Upsert(msg)
}

// Seed replaces the whole collection. Duplicate ids keep the last value at
// the position of their first occurrence; empty messages are skipped.
// It returns the number of messages stored.
func (s *Store) Seed(msgs []model.Message) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]*entry, len(msgs))
	s.nextSeq = 0
	for _, m := range msgs {
		if m.IsEmpty() {
			continue
		}
		s.putLocked(m)
	}
	s.version++
	return len(s.entries)
}

// Clear empties the store.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]*entry)
	s.nextSeq = 0
	s.version++
}

func (s *Store) putLocked(msg model.Message) Result {
	if e, ok := s.entries[msg.ID]; ok {
		if e.msg.Equal(msg) {
			return Unchanged
		}
		e.msg = msg
		s.version++
		return Replaced
	}

	s.entries[msg.ID] = &entry{msg: msg, seq: s.nextSeq}
	s.nextSeq++
	s.version++
	return Inserted
}

// =============================================================================
// QUERIES
// =============================================================================

// Get returns the message with the given id.
func (s *Store) Get(id string) (model.Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[id]
	if !ok {
		return model.Message{}, false
	}
	return e.msg, true
}

// Len returns the number of stored messages.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Version increases on every change. Callers compare it to skip redraws.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// OrderedView returns the messages accepted by keep, sorted ascending by
// CreatedAt. Ties keep arrival order. A nil keep accepts everything.
func (s *Store) OrderedView(keep func(model.Message) bool) []model.Message {
	s.mu.RLock()
	matched := make([]*entry, 0, len(s.entries))
	for _, e := range s.entries {
		if keep == nil || keep(e.msg) {
			matched = append(matched, e)
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(matched, func(a, b *entry) int {
		if c := a.msg.CreatedAt.Compare(b.msg.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.seq, b.seq)
	})

	out := make([]model.Message, len(matched))
	for i, e := range matched {
		out[i] = e.msg
	}
	return out
}
