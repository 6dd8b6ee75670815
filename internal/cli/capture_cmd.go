// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// capture_cmd.go - Stream capture inspection and replay.
package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jeranaias/agentview/internal/capture"
	"github.com/jeranaias/agentview/internal/session"
	"github.com/jeranaias/agentview/internal/transcript"
	"github.com/jeranaias/agentview/internal/util"
)

// captureJSON is the JSON form of a captured stream.
type captureJSON struct {
	ID         string     `json:"id"`
	AgentID    string     `json:"agent_id"`
	Input      string     `json:"input"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Error      string     `json:"error,omitempty"`
	Bytes      int64      `json:"bytes"`
	Chunks     int        `json:"chunks"`
}

func toCaptureJSON(s capture.Stream) captureJSON {
	out := captureJSON{
		ID:        s.ID,
		AgentID:   s.AgentID,
		Input:     s.Input,
		StartedAt: s.StartedAt,
		Error:     s.Error,
		Bytes:     s.Bytes,
		Chunks:    s.Chunks,
	}
	if !s.Open() {
		t := s.FinishedAt
		out.FinishedAt = &t
	}
	return out
}

// withCaptureStore opens the capture journal for the duration of fn.
func withCaptureStore(e *env, fn func(*capture.Store) error) error {
	path, err := e.cfg.CapturePath()
	if err != nil {
		return err
	}
	store, err := capture.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

// =============================================================================
// CAPTURES
// =============================================================================

// HandleCaptures handles "agentview captures [list|show|delete]".
func HandleCaptures(args Args) error {
	e, err := newEnv(args)
	if err != nil {
		return err
	}
	return withCaptureStore(e, func(store *capture.Store) error {
		return runCaptures(context.Background(), e, store)
	})
}

func runCaptures(ctx context.Context, e *env, store *capture.Store) error {
	p := e.args.Parser
	switch p.Subcommand() {
	case "", "list", "ls":
		return listCaptures(ctx, e, store, p.FlagIntOrDefault("limit", 20))

	case "show":
		id, err := e.requireArg(1, "captures show <id>")
		if err != nil {
			return err
		}
		return showCapture(ctx, e, store, id)

	case "delete", "rm":
		id, err := e.requireArg(1, "captures delete <id>")
		if err != nil {
			return err
		}
		st, err := store.Get(ctx, id)
		if err != nil {
			return captureLookupError(id, err)
		}
		if err := store.Delete(ctx, st.ID); err != nil {
			return err
		}
		if !e.args.Quiet {
			fmt.Fprintf(e.out, "%s %s\n", SuccessStyle.Render("Deleted"), st.ID)
		}
		return nil

	default:
		return fmt.Errorf("unknown captures subcommand %q (list, show, delete)", p.Subcommand())
	}
}

func listCaptures(ctx context.Context, e *env, store *capture.Store, limit int) error {
	streams, err := store.List(ctx, limit)
	if err != nil {
		return err
	}

	if e.args.JSON {
		out := make([]captureJSON, 0, len(streams))
		for _, s := range streams {
			out = append(out, toCaptureJSON(s))
		}
		return outputJSON(e.out, out)
	}

	if len(streams) == 0 {
		fmt.Fprintln(e.out, DimStyle.Render("No captured streams."))
		return nil
	}
	for _, s := range streams {
		fmt.Fprintf(e.out, "%s  %s  %s  %s  %s\n",
			TitleStyle.Render(s.ID[:min(8, len(s.ID))]),
			DimStyle.Render(s.StartedAt.Local().Format(time.DateTime)),
			util.PadRight(captureStatus(s), 8),
			util.PadRight(fmt.Sprintf("%d chunks", s.Chunks), 11),
			util.TruncateWidth(util.SingleLine(s.Input), 40))
	}
	return nil
}

func showCapture(ctx context.Context, e *env, store *capture.Store, id string) error {
	st, err := store.Get(ctx, id)
	if err != nil {
		return captureLookupError(id, err)
	}
	chunks, err := store.Chunks(ctx, st.ID)
	if err != nil {
		return err
	}

	if e.args.JSON {
		return outputJSON(e.out, toCaptureJSON(st))
	}

	fmt.Fprintf(e.out, "%s%s\n", RenderLabel("Stream"), st.ID)
	fmt.Fprintf(e.out, "%s%s\n", RenderLabel("Agent"), st.AgentID)
	fmt.Fprintf(e.out, "%s%s\n", RenderLabel("Started"), st.StartedAt.Local().Format(time.DateTime))
	if !st.Open() {
		fmt.Fprintf(e.out, "%s%s\n", RenderLabel("Duration"), st.FinishedAt.Sub(st.StartedAt).Round(time.Millisecond))
	}
	fmt.Fprintf(e.out, "%s%s\n", RenderLabel("Status"), captureStatus(st))
	if st.Error != "" {
		fmt.Fprintf(e.out, "%s%s\n", RenderLabel("Error"), ErrorStyle.Render(st.Error))
	}
	fmt.Fprintf(e.out, "%s%d bytes in %d chunks\n", RenderLabel("Received"), st.Bytes, len(chunks))
	fmt.Fprintf(e.out, "%s%s\n", RenderLabel("Input"), st.Input)
	return nil
}

func captureStatus(s capture.Stream) string {
	switch {
	case s.Open():
		return "open"
	case s.Error != "":
		return "failed"
	default:
		return "done"
	}
}

func captureLookupError(id string, err error) error {
	if errors.Is(err, capture.ErrNotFound) {
		return fmt.Errorf("no captured stream matches %q: %w", id, err)
	}
	return err
}

// =============================================================================
// REPLAY
// =============================================================================

// HandleReplay handles "agentview replay <stream-id> [--raw]".
func HandleReplay(args Args) error {
	e, err := newEnv(args)
	if err != nil {
		return err
	}
	return withCaptureStore(e, func(store *capture.Store) error {
		return runReplay(context.Background(), e, store)
	})
}

// runReplay rebuilds a transcript from captured chunks without the network.
func runReplay(ctx context.Context, e *env, store *capture.Store) error {
	id, err := e.requireArg(0, "replay <stream-id>")
	if err != nil {
		return err
	}

	replayer, st, err := store.Replayer(ctx, id)
	if err != nil {
		return captureLookupError(id, err)
	}

	if e.args.Parser.BoolFlag("raw") {
		chunks, err := store.Chunks(ctx, st.ID)
		if err != nil {
			return err
		}
		for _, c := range chunks {
			e.out.Write(c)
		}
		return nil
	}

	ts := transcript.NewStore()
	pipeline := session.NewPipeline(session.PipelineConfig{
		AgentID:   st.AgentID,
		Store:     ts,
		Transport: replayer,
		Mode:      session.ParseDeliveryMode(e.cfg.Stream.Mode),
		Now:       func() time.Time { return st.StartedAt },
		Logger:    e.logger,
	})
	if err := pipeline.Send(ctx, st.Input); err != nil && !errors.Is(err, session.ErrEmptyInput) {
		return fmt.Errorf("replay of %s failed: %w", st.ID, err)
	}

	view := transcript.View(ts, e.preferences())
	if e.args.JSON {
		return outputJSON(e.out, toJSONMessages(view, e.cfg.Delivery()))
	}
	e.renderer().RenderTranscript(e.out, view)
	return nil
}
