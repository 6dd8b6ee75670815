// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package letta provides the HTTP transport to a Letta agent server.
//
// It lists agents, fetches a conversation's message history and opens
// streaming sends. Streams are handed to the caller as raw byte chunks;
// turning them into messages is the job of the stream package.
//
// # Usage
//
//	client := letta.NewClient()
//	agents, err := client.FetchAgents(ctx)
//	if err != nil {
//	    log.Printf("AGENTS_ERROR | err=%v", err)
//	}
//
//	err = client.OpenStream(ctx, agents[0].ID, "hello", func(chunk []byte) error {
//	    fmt.Print(string(chunk))
//	    return nil
//	})
//
// # Error Handling
//
// All failures are *ClientError values. Use IsNotFound, IsTimeout and
// IsConnection to branch on the category.
package letta
