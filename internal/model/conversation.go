// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for transcripts and messages.
package model

import (
	"encoding/json"
	"strings"
	"time"
)

// HistoryPageSize is the number of historical messages fetched when a
// conversation is opened.
const HistoryPageSize = 1000

// =============================================================================
// AGENT TYPE
// =============================================================================

// Agent is a conversational agent exposed by the backend. Each agent owns
// exactly one conversation.
type Agent struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
}

// FilterAgents returns the agents whose name contains query, ignoring case.
// An empty query returns all agents.
func FilterAgents(agents []Agent, query string) []Agent {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return agents
	}
	var out []Agent
	for _, a := range agents {
		if strings.Contains(strings.ToLower(a.Name), query) {
			out = append(out, a)
		}
	}
	return out
}

// =============================================================================
// HISTORY WIRE TYPES
// =============================================================================

// HistoryEntry is a raw message object as returned by the history endpoint.
type HistoryEntry struct {
	ID          string            `json:"id"`
	Role        Role              `json:"role"`
	Text        *string           `json:"text"`
	ToolCalls   []HistoryToolCall `json:"tool_calls,omitempty"`
	MessageType string            `json:"message_type,omitempty"`
	CreatedAt   string            `json:"created_at"`
}

// RawText returns the text field, or "" when absent.
func (e HistoryEntry) RawText() string {
	if e.Text == nil {
		return ""
	}
	return *e.Text
}

// HistoryToolCall is a tool invocation attached to a history entry.
type HistoryToolCall struct {
	ID       string `json:"id,omitempty"`
	Type     string `json:"type,omitempty"`
	Function struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	} `json:"function"`
}

// Call converts the wire form into a ToolCall content value.
func (c HistoryToolCall) Call() ToolCall {
	return ToolCall{Name: c.Function.Name, Arguments: c.Function.Arguments}
}

// =============================================================================
// TIMESTAMPS
// =============================================================================

// timestampLayouts lists the accepted date formats, most specific first.
// The backend emits ISO timestamps with and without a zone offset.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	time.RFC1123,
	time.RFC1123Z,
}

// ParseTimestamp normalizes a backend date to UTC. Zone-less values are
// read as UTC. Empty or unparseable input returns fallback.
func ParseTimestamp(raw string, fallback time.Time) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback.UTC()
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}
	return fallback.UTC()
}
