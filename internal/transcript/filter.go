// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transcript

import "github.com/jeranaias/agentview/internal/model"

// Preferences are the user-toggleable visibility settings.
type Preferences struct {
	ShowReasoning    bool `toml:"show_reasoning" json:"show_reasoning"`
	ShowToolActivity bool `toml:"show_tool_activity" json:"show_tool_activity"`
}

// DefaultPreferences shows everything the filter can hide.
func DefaultPreferences() Preferences {
	return Preferences{ShowReasoning: true, ShowToolActivity: true}
}

// Visible reports whether msg belongs in the rendered view.
// System and tool role entries are never shown.
func (p Preferences) Visible(msg model.Message) bool {
	if msg.Role == model.RoleSystem || msg.Role == model.RoleTool {
		return false
	}
	if msg.Kind == model.KindInternalReasoning && !p.ShowReasoning {
		return false
	}
	if msg.Kind.IsToolActivity() && !p.ShowToolActivity {
		return false
	}
	return true
}

// View returns the visible messages of store in display order.
func View(store *Store, prefs Preferences) []model.Message {
	return store.OrderedView(prefs.Visible)
}
