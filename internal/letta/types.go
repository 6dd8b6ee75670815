// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package letta

import (
	"time"

	"github.com/jeranaias/agentview/internal/model"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// MessageCreate is one outgoing message in a send request.
type MessageCreate struct {
	Role string `json:"role"`
	Name string `json:"name,omitempty"`
	Text string `json:"text"`
}

// SendRequest is the body of a streaming send.
type SendRequest struct {
	Messages     []MessageCreate `json:"messages"`
	StreamSteps  bool            `json:"stream_steps"`
	StreamTokens bool            `json:"stream_tokens"`
}

// NewSendRequest builds the request for a single user turn.
func NewSendRequest(text string, streamSteps, streamTokens bool) SendRequest {
	return SendRequest{
		Messages:     []MessageCreate{{Role: "user", Name: "human", Text: text}},
		StreamSteps:  streamSteps,
		StreamTokens: streamTokens,
	}
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// agentState is the subset of the server's agent object we read.
type agentState struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
}

func (a agentState) toAgent() model.Agent {
	return model.Agent{
		ID:          a.ID,
		Name:        a.Name,
		Description: a.Description,
		CreatedAt:   model.ParseTimestamp(a.CreatedAt, time.Time{}),
	}
}

// APIError is the error body returned by the server.
type APIError struct {
	Detail string `json:"detail"`
}
