// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transcript

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/jeranaias/agentview/internal/model"
)

func populated() *Store {
	s := NewStore()
	s.Upsert(model.Message{ID: "u", Role: model.RoleUser, Kind: model.KindPlain, Content: model.Text("question"), CreatedAt: base})
	s.Upsert(model.Message{ID: "r", Role: model.RoleAssistant, Kind: model.KindInternalReasoning, Content: model.Text("hmm"), CreatedAt: base.Add(time.Second)})
	s.Upsert(model.Message{ID: "c", Role: model.RoleAssistant, Kind: model.KindToolCall, Content: model.ToolCall{Name: "search", Arguments: json.RawMessage(`{}`)}, CreatedAt: base.Add(2 * time.Second)})
	s.Upsert(model.Message{ID: "t", Role: model.RoleAssistant, Kind: model.KindToolResult, Content: model.ToolResult{Raw: json.RawMessage(`"found"`)}, CreatedAt: base.Add(3 * time.Second)})
	s.Upsert(model.Message{ID: "a", Role: model.RoleAssistant, Kind: model.KindPlain, Content: model.Text("answer"), CreatedAt: base.Add(4 * time.Second)})
	s.Upsert(model.Message{ID: "s", Role: model.RoleSystem, Kind: model.KindPlain, Content: model.Text("system prompt"), CreatedAt: base.Add(-time.Second)})
	s.Upsert(model.Message{ID: "x", Role: model.RoleTool, Kind: model.KindPlain, Content: model.Text("tool output"), CreatedAt: base.Add(5 * time.Second)})
	return s
}

func TestView_Composition(t *testing.T) {
	tests := []struct {
		name  string
		prefs Preferences
		want  []string
	}{
		{"everything", Preferences{ShowReasoning: true, ShowToolActivity: true}, []string{"u", "r", "c", "t", "a"}},
		{"no reasoning", Preferences{ShowReasoning: false, ShowToolActivity: true}, []string{"u", "c", "t", "a"}},
		{"no tools", Preferences{ShowReasoning: true, ShowToolActivity: false}, []string{"u", "r", "a"}},
		{"both off", Preferences{}, []string{"u", "a"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ids(View(populated(), tc.prefs))
			if len(got) != len(tc.want) {
				t.Fatalf("View() = %v, want %v", got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Errorf("View()[%d] = %q, want %q", i, got[i], tc.want[i])
				}
			}
		})
	}
}

func TestDefaultPreferences(t *testing.T) {
	p := DefaultPreferences()
	if !p.ShowReasoning || !p.ShowToolActivity {
		t.Errorf("DefaultPreferences() = %+v, want both enabled", p)
	}
}
