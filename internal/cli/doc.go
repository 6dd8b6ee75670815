// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the agentview command line.
//
// # Commands
//
//   - agents: list agents, optionally filtered by name
//   - history: print or export a conversation's filtered transcript
//   - chat: interactive REPL with progressive rendering of streamed responses
//   - tui: full-screen chat built on internal/ui (also chat --tui)
//   - captures, replay: inspect recorded streams and rebuild transcripts offline
//   - config: show, get and set configuration values
//
// Output is styled with lipgloss and glamour when stdout is a terminal and
// NO_COLOR is unset. Tool call arguments and JSON tool results are
// highlighted with chroma.
package cli
