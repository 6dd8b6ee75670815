// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package capture journals the raw chunks of streamed responses in SQLite
// so a stream can be inspected and replayed without a server.
package capture

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrNotFound = errors.New("capture not found")
	ErrClosed   = errors.New("capture store closed")
)

// =============================================================================
// TYPES
// =============================================================================

// Stream describes one captured send.
type Stream struct {
	ID         string
	AgentID    string
	Input      string
	StartedAt  time.Time
	FinishedAt time.Time // zero while the stream is open
	Error      string
	Bytes      int64
	Chunks     int
}

// Open reports whether the stream never finished.
func (s Stream) Open() bool {
	return s.FinishedAt.IsZero()
}

// =============================================================================
// STORE
// =============================================================================

// Store is a capture journal backed by SQLite. It is safe for concurrent use.
type Store struct {
	db  *sql.DB
	now func() time.Time

	mu     sync.Mutex
	seq    map[string]int
	closed bool
}

// Open opens (creating if needed) the journal at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create capture directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if _, err := db.Exec(InitMetadata); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize metadata: %w", err)
	}

	return &Store{db: db, now: time.Now, seq: make(map[string]int)}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// =============================================================================
// RECORDING
// =============================================================================

// Begin starts a new capture and returns its id.
func (s *Store) Begin(agentID, input string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", ErrClosed
	}

	id := uuid.New().String()
	_, err := s.db.Exec(
		"INSERT INTO streams (id, agent_id, input, started_at) VALUES (?, ?, ?, ?)",
		id, agentID, input, s.now().UnixMilli(),
	)
	if err != nil {
		return "", fmt.Errorf("begin capture: %w", err)
	}
	s.seq[id] = 0
	return id, nil
}

// Append records one chunk of stream id.
func (s *Store) Append(id string, chunk []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	seq, ok := s.seq[id]
	if !ok {
		return fmt.Errorf("append to %s: %w", id, ErrNotFound)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("append to %s: %w", id, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		"INSERT INTO chunks (stream_id, seq, data, received_at) VALUES (?, ?, ?, ?)",
		id, seq, chunk, s.now().UnixMilli(),
	); err != nil {
		return fmt.Errorf("append to %s: %w", id, err)
	}
	if _, err := tx.Exec("UPDATE streams SET bytes = bytes + ? WHERE id = ?", len(chunk), id); err != nil {
		return fmt.Errorf("append to %s: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("append to %s: %w", id, err)
	}

	s.seq[id] = seq + 1
	return nil
}

// Finish marks stream id as ended, recording streamErr if it failed.
func (s *Store) Finish(id string, streamErr error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	var errText sql.NullString
	if streamErr != nil {
		errText = sql.NullString{String: streamErr.Error(), Valid: true}
	}

	res, err := s.db.Exec(
		"UPDATE streams SET finished_at = ?, error = ? WHERE id = ?",
		s.now().UnixMilli(), errText, id,
	)
	if err != nil {
		return fmt.Errorf("finish %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("finish %s: %w", id, ErrNotFound)
	}
	delete(s.seq, id)
	return nil
}

// =============================================================================
// QUERIES
// =============================================================================

const streamColumns = `s.id, s.agent_id, s.input, s.started_at, s.finished_at, s.error, s.bytes,
	(SELECT COUNT(*) FROM chunks c WHERE c.stream_id = s.id)`

// List returns the most recent captures, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Stream, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+streamColumns+" FROM streams s ORDER BY s.started_at DESC, s.id LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("list captures: %w", err)
	}
	defer rows.Close()

	var out []Stream
	for rows.Next() {
		st, err := scanStream(rows)
		if err != nil {
			return nil, fmt.Errorf("list captures: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// Get returns one capture. Ids may be given as a unique prefix.
func (s *Store) Get(ctx context.Context, id string) (Stream, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+streamColumns+" FROM streams s WHERE s.id LIKE ? ESCAPE '\\' LIMIT 2", escapeLike(id)+"%")
	if err != nil {
		return Stream{}, fmt.Errorf("get capture %s: %w", id, err)
	}
	defer rows.Close()

	var found []Stream
	for rows.Next() {
		st, err := scanStream(rows)
		if err != nil {
			return Stream{}, fmt.Errorf("get capture %s: %w", id, err)
		}
		found = append(found, st)
	}
	if err := rows.Err(); err != nil {
		return Stream{}, err
	}

	switch len(found) {
	case 0:
		return Stream{}, fmt.Errorf("get capture %s: %w", id, ErrNotFound)
	case 1:
		return found[0], nil
	default:
		return Stream{}, fmt.Errorf("get capture %s: ambiguous id prefix", id)
	}
}

// Chunks returns the raw chunks of a capture in arrival order.
func (s *Store) Chunks(ctx context.Context, id string) ([][]byte, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT data FROM chunks WHERE stream_id = ? ORDER BY seq", id)
	if err != nil {
		return nil, fmt.Errorf("read chunks of %s: %w", id, err)
	}
	defer rows.Close()

	var out [][]byte
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("read chunks of %s: %w", id, err)
		}
		out = append(out, data)
	}
	return out, rows.Err()
}

// Delete removes a capture and its chunks.
func (s *Store) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete capture %s: %w", id, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE stream_id = ?", id); err != nil {
		return fmt.Errorf("delete capture %s: %w", id, err)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM streams WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete capture %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete capture %s: %w", id, ErrNotFound)
	}
	return tx.Commit()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanStream(row scanner) (Stream, error) {
	var (
		st       Stream
		started  int64
		finished sql.NullInt64
		errText  sql.NullString
	)
	if err := row.Scan(&st.ID, &st.AgentID, &st.Input, &started, &finished, &errText, &st.Bytes, &st.Chunks); err != nil {
		return Stream{}, err
	}
	st.StartedAt = time.UnixMilli(started).UTC()
	if finished.Valid {
		st.FinishedAt = time.UnixMilli(finished.Int64).UTC()
	}
	st.Error = errText.String
	return st, nil
}

func escapeLike(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '%' || r == '_' || r == '\\' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}
