// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"fmt"
	"strings"
)

// View renders the screen: header, transcript viewport, display toggles,
// status line and input.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.header())
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.toggles())
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(inputStyle.Width(max(m.width, 1)).Render(m.input.View()))
	return b.String()
}

func (m Model) header() string {
	st := m.ctrl.Status()
	if st.AgentID == "" {
		return headerStyle.Render("agentview") + dimStyle.Render("no conversation")
	}
	return headerStyle.Render("agentview") +
		dimStyle.Render(fmt.Sprintf("%s | %d messages", st.AgentID, st.Messages))
}

func (m Model) toggles() string {
	prefs := m.ctrl.Preferences()
	return toggleLabel(prefs.ShowReasoning, "thoughts (ctrl+r)") + "  " +
		toggleLabel(prefs.ShowToolActivity, "tools (ctrl+t)")
}

func toggleLabel(on bool, label string) string {
	if on {
		return toggleOnStyle.Render("[x] " + label)
	}
	return toggleOffStyle.Render("[ ] " + label)
}

func (m Model) statusLine() string {
	switch {
	case m.sending:
		return busyStyle.Render(m.spinner.View() + " Processing...")
	case m.failed:
		return errorStyle.Render(m.notice)
	default:
		return dimStyle.Render(m.notice)
	}
}
