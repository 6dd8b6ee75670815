// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared by the config and cli packages.
//
//   - AtomicWriteFile: crash-safe file writing with fsync
//   - TruncateWidth, PadRight: column-aware layout for terminal tables
//   - SingleLine: whitespace folding for one-line previews
package util
