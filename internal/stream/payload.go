// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/jeranaias/agentview/internal/model"
)

// =============================================================================
// WIRE MESSAGE TYPES
// =============================================================================

// Wire message_type values emitted by the backend.
const (
	WireReasoning  = "internal_monologue"
	WireToolCall   = "function_call"
	WireToolResult = "function_return"
	WireAssistant  = "assistant_message"
	WireUser       = "user_message"
	WireSystem     = "system_message"
)

// NoResult is the sentinel a tool result carries when the tool returned nothing.
const NoResult = "None"

// =============================================================================
// PAYLOAD VARIANTS
// =============================================================================

// Body is the closed set of decoded payload contents.
type Body interface {
	body()
}

// Reasoning is the agent's internal monologue.
type Reasoning struct {
	Text string
}

// Call is a tool invocation.
type Call struct {
	Call model.ToolCall
}

// Result is the output of a tool invocation.
type Result struct {
	Raw json.RawMessage
}

// Plain is user-visible text.
type Plain struct {
	Text string
}

// Unknown is a payload whose message_type is not recognized. Field holds the
// value of the field named after the type, if present.
type Unknown struct {
	Field json.RawMessage
}

func (Reasoning) body() {}
func (Call) body()      {}
func (Result) body()    {}
func (Plain) body()     {}
func (Unknown) body()   {}

// IsNoResult reports whether the result is the "no result" sentinel.
func (r Result) IsNoResult() bool {
	var s string
	if err := json.Unmarshal(r.Raw, &s); err != nil {
		return false
	}
	return s == NoResult
}

// Payload is one decoded data frame.
type Payload struct {
	ID   string
	Type string
	Date string
	Body Body
}

// =============================================================================
// DECODING
// =============================================================================

// Decode parses the JSON body of a data line.
func Decode(line []byte) (Payload, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(line, &fields); err != nil {
		return Payload{}, err
	}

	p := Payload{
		ID:   scalar(fields["id"]),
		Type: scalar(fields["message_type"]),
		Date: scalar(fields["date"]),
	}
	p.Body = decodeBody(p.Type, fields)
	return p, nil
}

func decodeBody(wireType string, fields map[string]json.RawMessage) Body {
	raw := fields[wireType]

	switch wireType {
	case WireReasoning:
		return Reasoning{Text: text(raw)}
	case WireToolCall:
		return Call{Call: toolCall(raw)}
	case WireToolResult:
		return Result{Raw: raw}
	case WireAssistant, WireUser, WireSystem:
		return Plain{Text: text(raw)}
	default:
		return Unknown{Field: raw}
	}
}

// scalar returns a JSON string or number as text. Anything else is "".
func scalar(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// text returns a JSON string unquoted, null as "", and any other value as
// its compact JSON form.
func text(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		return string(trimmed)
	}
	return buf.String()
}

// toolCall reads {"name": ..., "arguments": ...}. The object may itself be
// sent as a JSON string.
func toolCall(raw json.RawMessage) model.ToolCall {
	var wire struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}

	if err := json.Unmarshal(raw, &wire); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return model.ToolCall{}
		}
		if err := json.Unmarshal([]byte(s), &wire); err != nil {
			return model.ToolCall{Name: strings.TrimSpace(s)}
		}
	}

	if bytes.Equal(bytes.TrimSpace(wire.Arguments), []byte("null")) {
		wire.Arguments = nil
	}
	return model.ToolCall{Name: wire.Name, Arguments: wire.Arguments}
}
