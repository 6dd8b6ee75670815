// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// styles.go - Shared styles for agentview commands.
package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/agentview/internal/model"
)

func init() {
	lipgloss.SetColorProfile(GetColorProfile())
}

// =============================================================================
// SHARED STYLES
// =============================================================================

var (
	// TitleStyle is used for command titles and headers
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")) // Cyan

	// LabelStyle is used for field labels
	LabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Width(14)

	// ErrorStyle is used for error messages
	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	// WarningStyle is used for warnings
	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	// SuccessStyle is used for confirmations
	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	// DimStyle is used for secondary information
	DimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("242"))

	// SeparatorStyle is used for dividers
	SeparatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)
)

// =============================================================================
// TRANSCRIPT STYLES
// =============================================================================

var (
	userStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("75")).Bold(true)
	agentStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("141")).Bold(true)
	reasoningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Italic(true)
	toolStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("36"))
)

// roleLabel renders the speaker label for a transcript entry.
func roleLabel(msg model.Message) string {
	switch {
	case msg.Kind == model.KindInternalReasoning:
		return reasoningStyle.Render("thinking")
	case msg.Kind == model.KindToolCall:
		return toolStyle.Render("tool call")
	case msg.Kind == model.KindToolResult:
		return toolStyle.Render("tool result")
	case msg.Role == model.RoleUser:
		return userStyle.Render(msg.Role.DisplayName())
	default:
		return agentStyle.Render(msg.Role.DisplayName())
	}
}

// RenderSeparator renders a horizontal separator line.
func RenderSeparator(width int) string {
	if width <= 0 {
		width = 60
	}
	return SeparatorStyle.Render(strings.Repeat("─", width))
}

// RenderLabel renders a fixed-width field label.
func RenderLabel(label string) string {
	return LabelStyle.Render(label)
}
