// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import "github.com/charmbracelet/lipgloss"

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			Padding(0, 1)

	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	busyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))

	toggleOnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	toggleOffStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))

	inputStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			BorderForeground(lipgloss.Color("240"))
)
