// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package capture

const (
	// SchemaVersion tracks the database schema version for migrations
	SchemaVersion = 1
)

// Schema is the SQLite schema of the capture journal.
const Schema = `
CREATE TABLE IF NOT EXISTS metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
) WITHOUT ROWID;

-- One row per streamed send
CREATE TABLE IF NOT EXISTS streams (
    id TEXT PRIMARY KEY,
    agent_id TEXT NOT NULL,
    input TEXT NOT NULL,
    started_at INTEGER NOT NULL,  -- Unix milliseconds
    finished_at INTEGER,          -- NULL while open
    error TEXT,                   -- Transport error, if the stream failed
    bytes INTEGER NOT NULL DEFAULT 0
) WITHOUT ROWID;

CREATE INDEX IF NOT EXISTS idx_streams_started ON streams(started_at);
CREATE INDEX IF NOT EXISTS idx_streams_agent ON streams(agent_id);

-- Raw chunks in arrival order
CREATE TABLE IF NOT EXISTS chunks (
    stream_id TEXT NOT NULL,
    seq INTEGER NOT NULL,
    data BLOB NOT NULL,
    received_at INTEGER NOT NULL,
    PRIMARY KEY (stream_id, seq),
    FOREIGN KEY(stream_id) REFERENCES streams(id) ON DELETE CASCADE
) WITHOUT ROWID;
`

// InitMetadata records the schema version.
const InitMetadata = `
INSERT OR IGNORE INTO metadata (key, value) VALUES ('schema_version', '1');
`
