// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for transcripts and messages.
package model

import (
	"encoding/json"
	"strings"
	"time"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Agent"
	case RoleSystem:
		return "System"
	case RoleTool:
		return "Tool"
	default:
		return string(r)
	}
}

// =============================================================================
// KIND TYPE
// =============================================================================

// Kind describes how a message's content is interpreted.
type Kind string

const (
	KindPlain             Kind = "plain"
	KindInternalReasoning Kind = "internal_reasoning"
	KindToolCall          Kind = "tool_call"
	KindToolResult        Kind = "tool_result"
)

// IsToolActivity reports whether the kind is a tool call or a tool result.
func (k Kind) IsToolActivity() bool {
	return k == KindToolCall || k == KindToolResult
}

// =============================================================================
// CONTENT VARIANTS
// =============================================================================

// Content is the closed set of message payloads. The concrete type always
// agrees with the message Kind: Text for plain and internal reasoning,
// ToolCall for tool calls, ToolResult for tool results.
type Content interface {
	// IsEmpty reports whether there is nothing to display.
	IsEmpty() bool

	// String renders the content as plain text.
	String() string

	content()
}

// Text is plain or reasoning text.
type Text string

func (t Text) IsEmpty() bool  { return strings.TrimSpace(string(t)) == "" }
func (t Text) String() string { return string(t) }
func (Text) content()         {}

// ToolCall is a structured function invocation.
type ToolCall struct {
	Name string `json:"name"`

	// Arguments holds the raw argument document. Backends send it either as
	// a JSON object or as a JSON string that itself contains an object.
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

func (c ToolCall) IsEmpty() bool { return c.Name == "" && len(c.Arguments) == 0 }
func (ToolCall) content()        {}

// String renders the call as name(arguments).
func (c ToolCall) String() string {
	args, err := c.Args()
	if err != nil || len(args) == 0 {
		return c.Name + "()"
	}
	b, err := json.Marshal(args)
	if err != nil {
		return c.Name + "()"
	}
	return c.Name + "(" + string(b) + ")"
}

// Args decodes the argument mapping.
func (c ToolCall) Args() (map[string]any, error) {
	if len(c.Arguments) == 0 {
		return map[string]any{}, nil
	}

	raw := []byte(c.Arguments)

	// Arguments encoded as a JSON string: unwrap first
	var inner string
	if err := json.Unmarshal(raw, &inner); err == nil {
		raw = []byte(inner)
	}

	var args map[string]any
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, err
	}
	return args, nil
}

// ToolResult is the output of a tool invocation.
type ToolResult struct {
	// Raw is the JSON value exactly as received.
	Raw json.RawMessage `json:"raw,omitempty"`
}

func (r ToolResult) IsEmpty() bool {
	s := strings.TrimSpace(string(r.Raw))
	return s == "" || s == "null" || s == `""`
}

func (ToolResult) content() {}

// String returns the result as text, unquoting plain string results.
func (r ToolResult) String() string {
	var s string
	if err := json.Unmarshal(r.Raw, &s); err == nil {
		return s
	}
	return string(r.Raw)
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message is a single transcript entry.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Kind      Kind      `json:"kind"`
	Content   Content   `json:"-"`
	CreatedAt time.Time `json:"created_at"`

	// WireType is the message type the backend reported, kept for display
	// of kinds the classifier does not know.
	WireType string `json:"wire_type,omitempty"`

	// Local marks an optimistic message authored on this side.
	Local bool `json:"local,omitempty"`
}

// IsEmpty reports whether the message carries no displayable content.
func (m Message) IsEmpty() bool {
	return m.Content == nil || m.Content.IsEmpty()
}

// Equal reports whether two messages carry the same state.
func (m Message) Equal(o Message) bool {
	if m.ID != o.ID || m.Role != o.Role || m.Kind != o.Kind ||
		!m.CreatedAt.Equal(o.CreatedAt) || m.WireType != o.WireType || m.Local != o.Local {
		return false
	}
	if m.Content == nil || o.Content == nil {
		return m.Content == nil && o.Content == nil
	}
	return contentKey(m.Content) == contentKey(o.Content)
}

func contentKey(c Content) string {
	switch v := c.(type) {
	case Text:
		return "t:" + string(v)
	case ToolCall:
		return "c:" + v.Name + ":" + string(v.Arguments)
	case ToolResult:
		return "r:" + string(v.Raw)
	default:
		return ""
	}
}

// =============================================================================
// DELIVERY CALL
// =============================================================================

// Delivery names the tool call an agent uses to send text to the user.
type Delivery struct {
	Call string
	Arg  string
}

// DefaultDelivery is the backend's default delivery call.
var DefaultDelivery = Delivery{Call: "send_message", Arg: "message"}

// Extract returns the delivered text if call is the delivery call.
// ok is false when the call is some other function; a delivery call whose
// arguments cannot be decoded yields ("", true).
func (d Delivery) Extract(call ToolCall) (text string, ok bool) {
	if call.Name != d.Call {
		return "", false
	}
	args, err := call.Args()
	if err != nil {
		return "", true
	}
	s, _ := args[d.Arg].(string)
	return s, true
}

// DisplayText returns the text to render for the message.
func (m Message) DisplayText(d Delivery) string {
	if m.Content == nil {
		return ""
	}
	if call, ok := m.Content.(ToolCall); ok {
		if text, isDelivery := d.Extract(call); isDelivery {
			return text
		}
	}
	return m.Content.String()
}

// IsDelivery reports whether the message is a delivery tool call.
func (m Message) IsDelivery(d Delivery) bool {
	call, ok := m.Content.(ToolCall)
	return ok && m.Kind == KindToolCall && call.Name == d.Call
}

// Preview returns a truncated single-line preview of the message.
// Uses rune-based truncation to handle Unicode correctly.
func (m Message) Preview(d Delivery, maxLen int) string {
	content := strings.ReplaceAll(m.DisplayText(d), "\n", " ")
	runes := []rune(content)
	if len(runes) <= maxLen || maxLen <= 3 {
		return content
	}
	return string(runes[:maxLen-3]) + "..."
}
