// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes filtered transcripts to files.
//
// # Supported Formats
//
//   - Markdown: YAML frontmatter, reasoning as quotes, tool activity fenced
//   - HTML: a single page with embedded CSS and escaped content
//   - JSON: machine-readable, one object per message
//
// # Usage
//
//	exp, err := export.New("md", export.DefaultOptions())
//	path, err := export.WriteFile(&export.Transcript{AgentID: id, Messages: msgs}, exp, "")
package export
