// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package letta

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
)

// chunkSize is the read buffer for streamed responses.
const chunkSize = 32 * 1024

// ChunkFunc receives each raw chunk of a streamed response in arrival order.
// The slice is only valid during the call. Returning an error stops the
// stream.
type ChunkFunc func(chunk []byte) error

// OpenStream sends text to the agent and delivers the response body as raw
// chunks. It returns nil when the server closes the stream.
// Streams are not retried: a partial response cannot be replayed safely.
func (c *Client) OpenStream(ctx context.Context, agentID, text string, onChunk ChunkFunc) error {
	body, err := json.Marshal(NewSendRequest(text, c.config.StreamSteps, c.config.StreamTokens))
	if err != nil {
		return &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to marshal request", Cause: err}
	}

	target := c.config.BaseURL + "/v1/agents/" + url.PathEscape(agentID) + "/messages"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	if err := c.limiter.Wait(ctx); err != nil {
		return wrapTransportError(err)
	}

	// No client timeout: stream lifetime is bounded by ctx
	streamClient := &http.Client{Transport: c.httpClient.Transport}

	resp, err := streamClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return wrapTransportError(ctx.Err())
		}
		return wrapTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}

	buf := make([]byte, chunkSize)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if err := onChunk(buf[:n]); err != nil {
				return err
			}
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return nil
			}
			// A body read cut short by cancellation reports the cause, not the socket error
			if ctx.Err() != nil {
				return wrapTransportError(ctx.Err())
			}
			return wrapTransportError(readErr)
		}
	}
}
