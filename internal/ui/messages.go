// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/agentview/internal/model"
	"github.com/jeranaias/agentview/internal/session"
	"github.com/jeranaias/agentview/internal/transcript"
)

// =============================================================================
// ENGINE MESSAGES
// =============================================================================

// UpdateMsg reports a store mutation in the active conversation.
type UpdateMsg struct {
	AgentID string
	Message model.Message
	Result  transcript.Result
}

// StateMsg reports a send pipeline state transition.
type StateMsg struct {
	AgentID string
	State   session.State
}

// PreferencesMsg replaces the display preferences, e.g. after a config reload.
type PreferencesMsg struct {
	Preferences transcript.Preferences
}

// =============================================================================
// COMMAND RESULTS
// =============================================================================

// openedMsg is the result of opening a conversation.
type openedMsg struct {
	agentID string
	count   int
	err     error
}

// sentMsg is the result of one Send call.
type sentMsg struct {
	err error
}

func openCmd(ctx context.Context, ctrl Controller, agentID string) tea.Cmd {
	return func() tea.Msg {
		n, err := ctrl.Open(ctx, agentID)
		return openedMsg{agentID: agentID, count: n, err: err}
	}
}

func sendCmd(ctx context.Context, ctrl Controller, text string) tea.Cmd {
	return func() tea.Msg {
		return sentMsg{err: ctrl.Send(ctx, text)}
	}
}
