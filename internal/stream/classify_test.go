// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"testing"
	"time"

	"github.com/jeranaias/agentview/internal/model"
)

var testNow = time.Date(2024, 10, 1, 9, 0, 0, 0, time.UTC)

func mustDecode(t *testing.T, s string) Payload {
	t.Helper()
	p, err := Decode([]byte(s))
	if err != nil {
		t.Fatalf("Decode(%s) error = %v", s, err)
	}
	return p
}

func TestClassify_Kinds(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		wantKind model.Kind
		wantRole model.Role
		wantText string
	}{
		{
			name:     "reasoning",
			payload:  `{"id":"a","message_type":"internal_monologue","internal_monologue":"thinking"}`,
			wantKind: model.KindInternalReasoning,
			wantRole: model.RoleAssistant,
			wantText: "thinking",
		},
		{
			name:     "delivery call",
			payload:  `{"id":"b","message_type":"function_call","function_call":{"name":"send_message","arguments":"{\"message\":\"hello\"}"}}`,
			wantKind: model.KindToolCall,
			wantRole: model.RoleAssistant,
			wantText: "hello",
		},
		{
			name:     "tool result",
			payload:  `{"id":"c","message_type":"function_return","function_return":"42"}`,
			wantKind: model.KindToolResult,
			wantRole: model.RoleAssistant,
			wantText: "42",
		},
		{
			name:     "assistant text",
			payload:  `{"id":"d","message_type":"assistant_message","assistant_message":"hi"}`,
			wantKind: model.KindPlain,
			wantRole: model.RoleAssistant,
			wantText: "hi",
		},
		{
			name:     "user echo",
			payload:  `{"id":"e","message_type":"user_message","user_message":"me"}`,
			wantKind: model.KindPlain,
			wantRole: model.RoleUser,
			wantText: "me",
		},
		{
			name:     "unknown kind reads same-named field",
			payload:  `{"id":"f","message_type":"usage_statistics","usage_statistics":"3 steps"}`,
			wantKind: model.KindPlain,
			wantRole: model.RoleAssistant,
			wantText: "3 steps",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			msg, reason := Classify(mustDecode(t, tc.payload), testNow)
			if reason != DropNone {
				t.Fatalf("reason = %v, want none", reason)
			}
			if msg.Kind != tc.wantKind {
				t.Errorf("Kind = %q, want %q", msg.Kind, tc.wantKind)
			}
			if msg.Role != tc.wantRole {
				t.Errorf("Role = %q, want %q", msg.Role, tc.wantRole)
			}
			if got := msg.DisplayText(model.DefaultDelivery); got != tc.wantText {
				t.Errorf("DisplayText() = %q, want %q", got, tc.wantText)
			}
		})
	}
}

func TestClassify_SentinelDrop(t *testing.T) {
	p := mustDecode(t, `{"id":"x","message_type":"function_return","function_return":"None"}`)
	msg, reason := Classify(p, testNow)
	if reason != DropNoResult {
		t.Errorf("reason = %v, want no_result", reason)
	}
	if msg.ID != "" {
		t.Errorf("dropped payload produced message %q", msg.ID)
	}
}

func TestClassify_NotContent(t *testing.T) {
	tests := []string{
		`{}`,
		`null`,
		`{"message_type":"assistant_message","assistant_message":"no id"}`,
		`{"id":"only-id"}`,
		`{"step_count":3}`,
	}

	for _, s := range tests {
		_, reason := Classify(mustDecode(t, s), testNow)
		if reason != DropNotContent {
			t.Errorf("Classify(%s) reason = %v, want not_content", s, reason)
		}
	}
}

func TestClassify_UnknownKindWithoutFieldIsEmpty(t *testing.T) {
	msg, reason := Classify(mustDecode(t, `{"id":"u","message_type":"mystery"}`), testNow)
	if reason != DropNone {
		t.Fatalf("reason = %v, want none", reason)
	}
	if !msg.IsEmpty() {
		t.Errorf("content = %q, want empty", msg.DisplayText(model.DefaultDelivery))
	}
	if msg.WireType != "mystery" {
		t.Errorf("WireType = %q, want 'mystery'", msg.WireType)
	}
}

func TestClassify_Timestamp(t *testing.T) {
	msg, _ := Classify(mustDecode(t, `{"id":"t","message_type":"assistant_message","assistant_message":"x","date":"2024-10-01T12:00:00+02:00"}`), testNow)
	want := time.Date(2024, 10, 1, 10, 0, 0, 0, time.UTC)
	if !msg.CreatedAt.Equal(want) {
		t.Errorf("CreatedAt = %v, want %v", msg.CreatedAt, want)
	}

	msg, _ = Classify(mustDecode(t, `{"id":"t","message_type":"assistant_message","assistant_message":"x"}`), testNow)
	if !msg.CreatedAt.Equal(testNow) {
		t.Errorf("CreatedAt = %v, want fallback %v", msg.CreatedAt, testNow)
	}
}

func TestDecode_NumericID(t *testing.T) {
	p := mustDecode(t, `{"id":17,"message_type":"assistant_message","assistant_message":"x"}`)
	if p.ID != "17" {
		t.Errorf("ID = %q, want '17'", p.ID)
	}
}

func TestDecode_ToolCallObjectArguments(t *testing.T) {
	p := mustDecode(t, `{"id":"c","message_type":"function_call","function_call":{"name":"send_message","arguments":{"message":"obj"}}}`)
	call, ok := p.Body.(Call)
	if !ok {
		t.Fatalf("Body = %T, want Call", p.Body)
	}
	if text, _ := model.DefaultDelivery.Extract(call.Call); text != "obj" {
		t.Errorf("Extract() = %q, want 'obj'", text)
	}
}

func TestDecode_Invalid(t *testing.T) {
	for _, s := range []string{`{broken`, `[1,2]`, `"string"`} {
		if _, err := Decode([]byte(s)); err == nil {
			t.Errorf("Decode(%s) error = nil, want error", s)
		}
	}
}
