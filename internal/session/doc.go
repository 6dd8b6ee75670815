// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session drives conversations with an agent.
//
// A Pipeline handles one conversation's sends: it appends the user's
// optimistic message, opens a stream through the Transport and feeds every
// chunk through the frame parser and classifier into the transcript store.
// At most one stream is in flight per pipeline.
//
// A Manager owns the active conversation. Opening another conversation
// replaces the store and pipeline and cancels any stream still running for
// the previous one.
//
// # Key Types
//
//   - Pipeline: Send state machine (Idle, Sending)
//   - Manager: Active conversation, history seeding, display preferences
//   - Transport: Stream opener implemented by letta.Client and capture.Replayer
//   - Recorder: Optional raw chunk journal
//
// # Usage
//
//	mgr := session.NewManager(session.ManagerConfig{Transport: client})
//	if _, err := mgr.Open(ctx, agentID); err != nil {
//	    log.Printf("history unavailable: %v", err)
//	}
//	if err := mgr.Send(ctx, "hello"); err != nil && !errors.Is(err, session.ErrInFlight) {
//	    log.Printf("send failed: %v", err)
//	}
//	for _, msg := range mgr.View() {
//	    fmt.Println(msg.Role.DisplayName(), msg.DisplayText(model.DefaultDelivery))
//	}
package session
