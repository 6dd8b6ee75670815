// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jeranaias/agentview/internal/model"
)

func TestHighlightJSON(t *testing.T) {
	out := highlightJSON(`{"a":1}`)
	require.Contains(t, out, "\x1b[")
	require.Contains(t, out, `"a"`)
	require.False(t, strings.HasSuffix(out, "\n"))
}

func TestRenderTool(t *testing.T) {
	call := model.Message{
		ID:      "c1",
		Role:    model.RoleAssistant,
		Kind:    model.KindToolCall,
		Content: model.ToolCall{Name: "search", Arguments: json.RawMessage(`{"q":"go"}`)},
	}
	result := model.Message{
		ID:      "r1",
		Role:    model.RoleTool,
		Kind:    model.KindToolResult,
		Content: model.ToolResult{Raw: json.RawMessage(`{"hits":3}`)},
	}
	plainResult := model.Message{
		ID:      "r2",
		Role:    model.RoleTool,
		Kind:    model.KindToolResult,
		Content: model.ToolResult{Raw: json.RawMessage(`"ok"`)},
	}

	t.Run("call with color", func(t *testing.T) {
		out := renderTool(call, call.DisplayText(model.DefaultDelivery), true)
		require.Contains(t, out, "search")
		require.Contains(t, out, `"q"`)
		require.Contains(t, out, "\x1b[")
	})

	t.Run("json result with color", func(t *testing.T) {
		out := renderTool(result, result.DisplayText(model.DefaultDelivery), true)
		require.Contains(t, out, `"hits"`)
		require.Contains(t, out, "\x1b[")
	})

	t.Run("string result is not highlighted", func(t *testing.T) {
		out := renderTool(plainResult, "ok", true)
		require.Contains(t, out, "ok")
		require.NotContains(t, out, `"ok"`)
	})

	t.Run("no color keeps flat text", func(t *testing.T) {
		text := call.DisplayText(model.DefaultDelivery)
		require.Equal(t, toolStyle.Render(text), renderTool(call, text, false))
	})
}
