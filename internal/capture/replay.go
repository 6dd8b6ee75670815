// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package capture

import (
	"context"

	"github.com/jeranaias/agentview/internal/letta"
)

// Replayer is a transport that plays back the chunks of one capture.
// The text passed to OpenStream is ignored.
type Replayer struct {
	chunks [][]byte
}

// Replayer loads capture id for playback.
func (s *Store) Replayer(ctx context.Context, id string) (*Replayer, Stream, error) {
	st, err := s.Get(ctx, id)
	if err != nil {
		return nil, Stream{}, err
	}
	chunks, err := s.Chunks(ctx, st.ID)
	if err != nil {
		return nil, Stream{}, err
	}
	return &Replayer{chunks: chunks}, st, nil
}

// NewReplayer plays back the given chunks.
func NewReplayer(chunks [][]byte) *Replayer {
	return &Replayer{chunks: chunks}
}

// OpenStream delivers the captured chunks in order.
func (r *Replayer) OpenStream(ctx context.Context, _ string, _ string, onChunk letta.ChunkFunc) error {
	for _, c := range r.chunks {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := onChunk(c); err != nil {
			return err
		}
	}
	return nil
}
