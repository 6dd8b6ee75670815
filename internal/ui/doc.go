// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ui provides the full-screen Bubble Tea interface for agentview.
//
// The Model owns no transcript state. It re-reads the filtered view from a
// Controller (normally a *session.Manager) whenever the store reports a
// mutation, so the screen always reflects the current display filter output.
//
// # Messages
//
// Engine callbacks run on stream goroutines and reach the Model through
// tea.Program.Send:
//
//   - UpdateMsg: a store mutation in the active conversation
//   - StateMsg: the send pipeline changed state
//   - PreferencesMsg: display preferences changed outside the UI
//
// # Keys
//
//   - enter: send the input line, or run a /command
//   - ctrl+r: show or hide internal reasoning
//   - ctrl+t: show or hide tool activity
//   - ctrl+c: interrupt the stream in flight, or quit when idle
//   - pgup/pgdown, up/down: scroll
//   - esc: quit
package ui
