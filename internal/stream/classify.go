// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"time"

	"github.com/jeranaias/agentview/internal/model"
)

// DropReason explains why a payload produced no message.
type DropReason int

const (
	// DropNone means a message was produced.
	DropNone DropReason = iota

	// DropNotContent marks frames without an id or a message_type.
	DropNotContent

	// DropNoResult marks tool results carrying the "no result" sentinel.
	DropNoResult
)

// String returns the reason name used in logs.
func (r DropReason) String() string {
	switch r {
	case DropNone:
		return "none"
	case DropNotContent:
		return "not_content"
	case DropNoResult:
		return "no_result"
	default:
		return "unknown"
	}
}

// Classify maps a payload to a transcript message. now is used when the
// payload has no usable date. The returned message may have empty content;
// the transcript store refuses those.
func Classify(p Payload, now time.Time) (model.Message, DropReason) {
	if p.ID == "" || p.Type == "" {
		return model.Message{}, DropNotContent
	}

	msg := model.Message{
		ID:        p.ID,
		Role:      model.RoleAssistant,
		CreatedAt: model.ParseTimestamp(p.Date, now),
		WireType:  p.Type,
	}

	switch b := p.Body.(type) {
	case Reasoning:
		msg.Kind = model.KindInternalReasoning
		msg.Content = model.Text(b.Text)
	case Call:
		msg.Kind = model.KindToolCall
		msg.Content = b.Call
	case Result:
		if b.IsNoResult() {
			return model.Message{}, DropNoResult
		}
		msg.Kind = model.KindToolResult
		msg.Content = model.ToolResult{Raw: b.Raw}
	case Plain:
		msg.Kind = model.KindPlain
		msg.Content = model.Text(b.Text)
		switch p.Type {
		case WireUser:
			msg.Role = model.RoleUser
		case WireSystem:
			msg.Role = model.RoleSystem
		}
	case Unknown:
		msg.Kind = model.KindPlain
		msg.Content = model.Text(text(b.Field))
	default:
		msg.Kind = model.KindPlain
		msg.Content = model.Text("")
	}

	return msg, DropNone
}
