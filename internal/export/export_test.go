// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jeranaias/agentview/internal/model"
)

var base = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func sampleTranscript() *Transcript {
	return &Transcript{
		AgentID: "agent-1",
		Messages: []model.Message{
			{ID: "u1", Role: model.RoleUser, Kind: model.KindPlain, Content: model.Text("hello"), CreatedAt: base},
			{ID: "r1", Role: model.RoleAssistant, Kind: model.KindInternalReasoning, Content: model.Text("user greets me"), CreatedAt: base.Add(time.Second)},
			{ID: "t1", Role: model.RoleAssistant, Kind: model.KindToolCall, Content: model.ToolCall{Name: "search", Arguments: json.RawMessage(`{"q":"weather"}`)}, CreatedAt: base.Add(2 * time.Second)},
			{ID: "d1", Role: model.RoleAssistant, Kind: model.KindToolCall, Content: model.ToolCall{Name: "send_message", Arguments: json.RawMessage(`{"message":"hi there"}`)}, CreatedAt: base.Add(3 * time.Second)},
		},
		ExportedAt: base.Add(time.Hour),
	}
}

func TestNew(t *testing.T) {
	for format, ext := range map[string]string{"md": ".md", "Markdown": ".md", "html": ".html", "json": ".json"} {
		exp, err := New(format, nil)
		require.NoError(t, err, format)
		require.Equal(t, ext, exp.FileExtension())
	}

	_, err := New("pdf", nil)
	require.Error(t, err)
}

func TestEmptyTranscript(t *testing.T) {
	for _, format := range []string{"md", "html", "json"} {
		exp, _ := New(format, nil)
		_, err := exp.Export(&Transcript{AgentID: "a"})
		require.ErrorIs(t, err, ErrEmptyTranscript)
		_, err = exp.Export(nil)
		require.ErrorIs(t, err, ErrEmptyTranscript)
	}
}

func TestMarkdownExport(t *testing.T) {
	out, err := NewMarkdownExporter(nil).Export(sampleTranscript())
	require.NoError(t, err)
	doc := string(out)

	require.True(t, strings.HasPrefix(doc, "---\nagent: agent-1\n"))
	require.Contains(t, doc, "messages: 4\n")
	require.Contains(t, doc, "### You <sub>12:00:00</sub>\n\nhello")
	require.Contains(t, doc, "### Reasoning")
	require.Contains(t, doc, "> user greets me")
	require.Contains(t, doc, "```\nsearch({\"q\":\"weather\"})\n```")
	require.Contains(t, doc, "### Agent <sub>12:00:03</sub>\n\nhi there")
	require.NotContains(t, doc, "send_message")
}

func TestMarkdownWithoutMetadata(t *testing.T) {
	opts := &Options{}
	out, err := NewMarkdownExporter(opts).Export(sampleTranscript())
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(out), "# Conversation with agent-1"))
	require.Contains(t, string(out), "### You\n\nhello")
}

func TestEscapeYAML(t *testing.T) {
	require.Equal(t, "plain", escapeYAML("plain"))
	require.Equal(t, `"a: b"`, escapeYAML("a: b"))
	require.Equal(t, `"line\nbreak"`, escapeYAML("line\nbreak"))
	require.Equal(t, `"say \"hi\""`, escapeYAML(`say "hi"`))
}

func TestHTMLEscapesContent(t *testing.T) {
	tr := sampleTranscript()
	tr.AgentID = "<b>agent</b>"
	tr.Messages[0].Content = model.Text("<script>alert(1)</script>\n```js\nif (a < b) {}\n```")

	out, err := NewHTMLExporter(nil).Export(tr)
	require.NoError(t, err)
	doc := string(out)

	require.NotContains(t, doc, "<script>alert")
	require.NotContains(t, doc, "<b>agent</b>")
	require.Contains(t, doc, "&lt;script&gt;alert(1)&lt;/script&gt;")
	require.Contains(t, doc, `<pre><code class="language-js">if (a &lt; b) {}`)
	require.Contains(t, doc, `class="message reasoning"`)
	require.Contains(t, doc, `class="message assistant"`)
	require.Contains(t, doc, "hi there")
	require.Contains(t, doc, `<body class="dark-theme">`)
}

func TestJSONExport(t *testing.T) {
	out, err := NewJSONExporter(nil).Export(sampleTranscript())
	require.NoError(t, err)

	var doc struct {
		AgentID  string `json:"agent_id"`
		Messages []struct {
			ID        string          `json:"id"`
			Kind      string          `json:"kind"`
			Text      string          `json:"text"`
			Tool      string          `json:"tool"`
			Arguments json.RawMessage `json:"arguments"`
		} `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(out, &doc))
	require.Equal(t, "agent-1", doc.AgentID)
	require.Len(t, doc.Messages, 4)
	require.Equal(t, "internal_reasoning", doc.Messages[1].Kind)
	require.Equal(t, "search", doc.Messages[2].Tool)
	require.JSONEq(t, `{"q":"weather"}`, string(doc.Messages[2].Arguments))
	require.Equal(t, "hi there", doc.Messages[3].Text)
}

func TestSanitizeFilename(t *testing.T) {
	require.Equal(t, "a-b-c_d", sanitizeFilename(`a/b:c d`))
	require.Equal(t, "conversation", sanitizeFilename(""))
	require.Len(t, []rune(sanitizeFilename(strings.Repeat("é", 80))), 50)
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.md")

	got, err := WriteFile(sampleTranscript(), NewMarkdownExporter(nil), path)
	require.NoError(t, err)
	require.Equal(t, path, got)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "hi there")

	_, err = WriteFile(&Transcript{}, NewMarkdownExporter(nil), filepath.Join(dir, "empty.md"))
	require.ErrorIs(t, err, ErrEmptyTranscript)
	_, statErr := os.Stat(filepath.Join(dir, "empty.md"))
	require.True(t, os.IsNotExist(statErr))
}

func TestWriteFileDefaultName(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	tr := sampleTranscript()
	tr.AgentID = "my agent/1"
	got, err := WriteFile(tr, NewJSONExporter(nil), "")
	require.NoError(t, err)
	require.Equal(t, "transcript_my_agent-1_20240501_130000.json", got)
	_, err = os.Stat(filepath.Join(dir, got))
	require.NoError(t, err)
}
