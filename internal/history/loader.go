// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package history loads and normalizes past conversation messages.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/jeranaias/agentview/internal/model"
	"github.com/jeranaias/agentview/internal/transcript"
)

// Fetcher is the part of the transport the loader needs.
type Fetcher interface {
	FetchHistory(ctx context.Context, agentID string, limit int) ([]model.HistoryEntry, error)
}

// =============================================================================
// NORMALIZATION
// =============================================================================

// Normalize converts history entries into transcript messages. Entries that
// resolve to no content are left out. now dates entries without a usable
// created_at.
func Normalize(entries []model.HistoryEntry, delivery model.Delivery, now time.Time) []model.Message {
	out := make([]model.Message, 0, len(entries))
	for _, e := range entries {
		msg, ok := normalizeEntry(e, delivery, now)
		if !ok || msg.IsEmpty() {
			continue
		}
		out = append(out, msg)
	}
	return out
}

func normalizeEntry(e model.HistoryEntry, delivery model.Delivery, now time.Time) (model.Message, bool) {
	msg := model.Message{
		ID:        e.ID,
		Role:      e.Role,
		Kind:      model.KindPlain,
		CreatedAt: model.ParseTimestamp(e.CreatedAt, now),
		WireType:  e.MessageType,
	}
	if msg.ID == "" {
		return msg, false
	}

	switch {
	case e.Role == model.RoleUser:
		text, ok := userText(e.RawText())
		if !ok {
			return msg, false
		}
		msg.Content = model.Text(text)

	case e.Role == model.RoleAssistant && len(e.ToolCalls) > 0:
		msg.Content = model.Text(assistantText(e, delivery))

	default:
		msg.Content = model.Text(e.RawText())
	}
	return msg, true
}

// userText unwraps the user envelope. Text that is not JSON is used as is.
// Any JSON value other than an object with a string message field drops the
// entry, including bare strings and numbers.
func userText(raw string) (string, bool) {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return raw, true
	}
	env, ok := v.(map[string]any)
	if !ok {
		return "", false
	}
	msg, ok := env["message"].(string)
	return msg, ok
}

// assistantText returns the delivered text of the entry's delivery call, or
// the raw text when there is no such call or its arguments cannot be read.
func assistantText(e model.HistoryEntry, delivery model.Delivery) string {
	for _, tc := range e.ToolCalls {
		call := tc.Call()
		if call.Name != delivery.Call {
			continue
		}
		args, err := call.Args()
		if err != nil {
			return e.RawText()
		}
		text, _ := args[delivery.Arg].(string)
		return text
	}
	return e.RawText()
}

// =============================================================================
// LOADER
// =============================================================================

// Loader fetches a page of history and seeds a transcript store with it.
type Loader struct {
	fetcher  Fetcher
	delivery model.Delivery
	pageSize int
	now      func() time.Time
	logger   *log.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithPageSize sets how many messages are fetched.
func WithPageSize(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.pageSize = n
		}
	}
}

// WithDelivery sets the delivery call used to unwrap assistant messages.
func WithDelivery(d model.Delivery) Option {
	return func(l *Loader) { l.delivery = d }
}

// WithClock sets the clock used for entries without a date.
func WithClock(now func() time.Time) Option {
	return func(l *Loader) { l.now = now }
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(l *Loader) { l.logger = logger }
}

// NewLoader creates a loader reading from fetcher.
func NewLoader(fetcher Fetcher, opts ...Option) *Loader {
	l := &Loader{
		fetcher:  fetcher,
		delivery: model.DefaultDelivery,
		pageSize: model.HistoryPageSize,
		now:      time.Now,
		logger:   log.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load fetches the agent's history and replaces the store's contents with it.
// On a transport error the store is left untouched and the error returned.
func (l *Loader) Load(ctx context.Context, store *transcript.Store, agentID string) (int, error) {
	entries, err := l.fetcher.FetchHistory(ctx, agentID, l.pageSize)
	if err != nil {
		l.logger.Printf("HISTORY_ERROR | agent=%s err=%v", agentID, err)
		return 0, fmt.Errorf("load history for %s: %w", agentID, err)
	}

	msgs := Normalize(entries, l.delivery, l.now())
	n := store.Seed(msgs)
	l.logger.Printf("HISTORY_LOADED | agent=%s fetched=%d kept=%d", agentID, len(entries), n)
	return n, nil
}
