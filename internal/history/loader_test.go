// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package history

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jeranaias/agentview/internal/model"
	"github.com/jeranaias/agentview/internal/transcript"
)

var now = time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

func deliveryCall(args string) model.HistoryToolCall {
	var tc model.HistoryToolCall
	tc.Function.Name = "send_message"
	tc.Function.Arguments = json.RawMessage(args)
	return tc
}

func otherCall(name string) model.HistoryToolCall {
	var tc model.HistoryToolCall
	tc.Function.Name = name
	tc.Function.Arguments = json.RawMessage(`"{}"`)
	return tc
}

// =============================================================================
// NORMALIZE TESTS
// =============================================================================

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		entry model.HistoryEntry
		want  string
		drop  bool
	}{
		{
			name:  "delivery extraction",
			entry: model.HistoryEntry{ID: "1", Role: model.RoleAssistant, ToolCalls: []model.HistoryToolCall{deliveryCall(`"{\"message\":\"hi\"}"`)}},
			want:  "hi",
		},
		{
			name:  "delivery with object arguments",
			entry: model.HistoryEntry{ID: "2", Role: model.RoleAssistant, ToolCalls: []model.HistoryToolCall{deliveryCall(`{"message":"obj"}`)}},
			want:  "obj",
		},
		{
			name: "delivery found among other calls",
			entry: model.HistoryEntry{ID: "3", Role: model.RoleAssistant, Text: strPtr("thinking"), ToolCalls: []model.HistoryToolCall{
				otherCall("archival_memory_search"),
				deliveryCall(`"{\"message\":\"second\"}"`),
			}},
			want: "second",
		},
		{
			name:  "no delivery call falls back to text",
			entry: model.HistoryEntry{ID: "4", Role: model.RoleAssistant, Text: strPtr("inner thought"), ToolCalls: []model.HistoryToolCall{otherCall("core_memory_append")}},
			want:  "inner thought",
		},
		{
			name:  "undecodable delivery arguments fall back to text",
			entry: model.HistoryEntry{ID: "5", Role: model.RoleAssistant, Text: strPtr("raw"), ToolCalls: []model.HistoryToolCall{deliveryCall(`"{broken"`)}},
			want:  "raw",
		},
		{
			name:  "user envelope",
			entry: model.HistoryEntry{ID: "6", Role: model.RoleUser, Text: strPtr(`{"type":"user_message","message":"hello","time":"now"}`)},
			want:  "hello",
		},
		{
			name:  "user envelope without message is dropped",
			entry: model.HistoryEntry{ID: "7", Role: model.RoleUser, Text: strPtr(`{"type":"heartbeat","reason":"timer"}`)},
			drop:  true,
		},
		{
			name:  "user envelope with null message is dropped",
			entry: model.HistoryEntry{ID: "8", Role: model.RoleUser, Text: strPtr(`{"type":"user_message","message":null}`)},
			drop:  true,
		},
		{
			name:  "user text that is a JSON string is dropped",
			entry: model.HistoryEntry{ID: "8a", Role: model.RoleUser, Text: strPtr(`"hello"`)},
			drop:  true,
		},
		{
			name:  "user text that is a JSON number is dropped",
			entry: model.HistoryEntry{ID: "8b", Role: model.RoleUser, Text: strPtr(`42`)},
			drop:  true,
		},
		{
			name:  "user envelope with non-string message is dropped",
			entry: model.HistoryEntry{ID: "8c", Role: model.RoleUser, Text: strPtr(`{"message":7}`)},
			drop:  true,
		},
		{
			name:  "user text that is not an envelope",
			entry: model.HistoryEntry{ID: "9", Role: model.RoleUser, Text: strPtr("plain words")},
			want:  "plain words",
		},
		{
			name:  "tool role keeps raw text",
			entry: model.HistoryEntry{ID: "10", Role: model.RoleTool, Text: strPtr(`{"status":"OK"}`)},
			want:  `{"status":"OK"}`,
		},
		{
			name:  "missing text is dropped",
			entry: model.HistoryEntry{ID: "11", Role: model.RoleAssistant},
			drop:  true,
		},
		{
			name:  "missing id is dropped",
			entry: model.HistoryEntry{Role: model.RoleAssistant, Text: strPtr("orphan")},
			drop:  true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Normalize([]model.HistoryEntry{tc.entry}, model.DefaultDelivery, now)
			if tc.drop {
				require.Empty(t, got)
				return
			}
			require.Len(t, got, 1)
			require.Equal(t, tc.want, got[0].DisplayText(model.DefaultDelivery))
			require.Equal(t, model.KindPlain, got[0].Kind)
			require.Equal(t, tc.entry.Role, got[0].Role)
		})
	}
}

func TestNormalize_Timestamps(t *testing.T) {
	got := Normalize([]model.HistoryEntry{
		{ID: "a", Role: model.RoleAssistant, Text: strPtr("x"), CreatedAt: "2024-09-30T08:15:00"},
		{ID: "b", Role: model.RoleAssistant, Text: strPtr("y")},
	}, model.DefaultDelivery, now)

	require.Len(t, got, 2)
	require.Equal(t, time.Date(2024, 9, 30, 8, 15, 0, 0, time.UTC), got[0].CreatedAt)
	require.Equal(t, now, got[1].CreatedAt)
}

// =============================================================================
// LOADER TESTS
// =============================================================================

type fakeFetcher struct {
	entries []model.HistoryEntry
	err     error
	agentID string
	limit   int
}

func (f *fakeFetcher) FetchHistory(_ context.Context, agentID string, limit int) ([]model.HistoryEntry, error) {
	f.agentID = agentID
	f.limit = limit
	return f.entries, f.err
}

func quietLogger() *log.Logger { return log.New(io.Discard, "", 0) }

func TestLoader_SeedsStore(t *testing.T) {
	fetcher := &fakeFetcher{entries: []model.HistoryEntry{
		{ID: "1", Role: model.RoleUser, Text: strPtr(`{"message":"question"}`), CreatedAt: "2024-10-01T10:00:00"},
		{ID: "2", Role: model.RoleAssistant, ToolCalls: []model.HistoryToolCall{deliveryCall(`"{\"message\":\"answer\"}"`)}, CreatedAt: "2024-10-01T10:00:01"},
		{ID: "2", Role: model.RoleAssistant, ToolCalls: []model.HistoryToolCall{deliveryCall(`"{\"message\":\"answer v2\"}"`)}, CreatedAt: "2024-10-01T10:00:01"},
		{ID: "3", Role: model.RoleSystem, Text: strPtr(""), CreatedAt: "2024-10-01T09:00:00"},
	}}
	store := transcript.NewStore()
	store.Upsert(model.Message{ID: "stale", Content: model.Text("old"), Kind: model.KindPlain})

	loader := NewLoader(fetcher, WithLogger(quietLogger()), WithClock(func() time.Time { return now }))
	n, err := loader.Load(context.Background(), store, "agent-1")
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Equal(t, "agent-1", fetcher.agentID)
	require.Equal(t, model.HistoryPageSize, fetcher.limit)

	view := store.OrderedView(nil)
	require.Len(t, view, 2)
	require.Equal(t, "question", view[0].DisplayText(model.DefaultDelivery))
	require.Equal(t, "answer v2", view[1].DisplayText(model.DefaultDelivery))
}

func TestLoader_ErrorLeavesStore(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("connection refused")}
	store := transcript.NewStore()
	store.Upsert(model.Message{ID: "keep", Content: model.Text("x"), Kind: model.KindPlain})

	_, err := NewLoader(fetcher, WithLogger(quietLogger())).Load(context.Background(), store, "a")
	require.ErrorIs(t, err, fetcher.err)
	require.Equal(t, 1, store.Len())
}

func TestLoader_Options(t *testing.T) {
	fetcher := &fakeFetcher{entries: []model.HistoryEntry{
		{ID: "1", Role: model.RoleAssistant, ToolCalls: []model.HistoryToolCall{{}}},
	}}
	fetcher.entries[0].ToolCalls[0].Function.Name = "reply"
	fetcher.entries[0].ToolCalls[0].Function.Arguments = json.RawMessage(`{"text":"custom"}`)

	store := transcript.NewStore()
	loader := NewLoader(fetcher,
		WithPageSize(50),
		WithDelivery(model.Delivery{Call: "reply", Arg: "text"}),
		WithLogger(quietLogger()),
	)
	_, err := loader.Load(context.Background(), store, "a")
	require.NoError(t, err)
	require.Equal(t, 50, fetcher.limit)

	msg, ok := store.Get("1")
	require.True(t, ok)
	require.Equal(t, "custom", msg.DisplayText(model.DefaultDelivery))
}
