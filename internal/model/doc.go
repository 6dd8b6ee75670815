// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for transcripts and messages.
//
// This package defines the core domain types shared by the stream parser,
// the transcript store and the history loader.
//
// # Key Types
//
//   - Message: Single transcript entry with id, role, kind, typed content and timestamp
//   - Content: Closed set of payloads (Text, ToolCall, ToolResult)
//   - Kind: plain, internal_reasoning, tool_call, tool_result
//   - Role: Message role enumeration (user, assistant, system, tool)
//   - Delivery: The tool call an agent uses to deliver text to the user
//   - Agent, HistoryEntry: Backend wire objects
//
// # Usage
//
// Render a streamed tool call:
//
//	msg := model.Message{
//	    ID:      "msg-1",
//	    Role:    model.RoleAssistant,
//	    Kind:    model.KindToolCall,
//	    Content: model.ToolCall{Name: "send_message", Arguments: json.RawMessage(`{"message":"hi"}`)},
//	}
//	fmt.Println(msg.DisplayText(model.DefaultDelivery)) // hi
package model
