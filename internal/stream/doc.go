// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream turns the raw text of a streamed agent response into
// typed transcript messages.
//
// The wire format is line oriented. Each line is blank, a data line
// ("data: {...}") carrying one JSON payload, or a line containing the
// completion marker DONE. Parsing is split in two stages:
//
//   - Parser/Frames: split a buffer into frames and decode data lines.
//     Malformed lines are skipped and reported through an optional hook.
//   - Classify: map a decoded Payload to a model.Message or a DropReason.
//
// Both stages are pure. Re-running them over a cumulative buffer yields
// the same messages again, which the transcript store absorbs through
// idempotent upserts.
package stream
