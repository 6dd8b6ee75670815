// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// highlight.go - JSON syntax highlighting for tool activity.
package cli

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"

	"github.com/jeranaias/agentview/internal/model"
)

// highlightJSON colors a JSON document for a 256-color terminal. The input
// is returned unchanged when highlighting fails.
func highlightJSON(code string) string {
	lexer := lexers.Get("json")
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := chromaStyles.Get("monokai")
	if style == nil {
		style = chromaStyles.Fallback
	}

	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}

	var buf bytes.Buffer
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return code
	}
	return strings.TrimRight(buf.String(), "\n")
}

// toolJSON returns the JSON document shown for a tool call or result, or
// ok=false when the content has none.
func toolJSON(c model.Content) (name, doc string, ok bool) {
	switch v := c.(type) {
	case model.ToolCall:
		args, err := v.Args()
		if err != nil || len(args) == 0 {
			return v.Name, "", false
		}
		b, err := json.Marshal(args)
		if err != nil {
			return v.Name, "", false
		}
		return v.Name, string(b), true
	case model.ToolResult:
		raw := bytes.TrimSpace(v.Raw)
		if !json.Valid(raw) || (len(raw) > 0 && raw[0] == '"') {
			return "", "", false
		}
		return "", string(raw), true
	}
	return "", "", false
}

// renderTool renders tool activity, highlighting any JSON it carries.
func renderTool(msg model.Message, text string, color bool) string {
	if !color {
		return toolStyle.Render(text)
	}
	name, doc, ok := toolJSON(msg.Content)
	if !ok {
		return toolStyle.Render(text)
	}
	if name != "" {
		return toolStyle.Render(name) + " " + highlightJSON(doc)
	}
	return highlightJSON(doc)
}
