// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/jeranaias/agentview/internal/model"
)

var codeBlockRegex = regexp.MustCompile("```([a-zA-Z0-9_+-]*)\n([\\s\\S]*?)```")

// =============================================================================
// HTML EXPORTER
// =============================================================================

// HTMLExporter exports transcripts to a single HTML page with embedded CSS.
type HTMLExporter struct {
	options *Options
}

// NewHTMLExporter creates a new HTML exporter.
func NewHTMLExporter(opts *Options) *HTMLExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &HTMLExporter{options: opts}
}

// Export converts a transcript to HTML.
func (e *HTMLExporter) Export(t *Transcript) ([]byte, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}

	theme := e.options.Theme
	if theme != "light" {
		theme = "dark"
	}

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	sb.WriteString("    <meta charset=\"UTF-8\">\n")
	fmt.Fprintf(&sb, "    <title>%s</title>\n", html.EscapeString("Conversation with "+t.AgentID))
	sb.WriteString("    <meta name=\"generator\" content=\"agentview\">\n")
	fmt.Fprintf(&sb, "    <meta name=\"date\" content=\"%s\">\n", t.ExportedAt.UTC().Format(time.RFC3339))
	sb.WriteString(css)
	sb.WriteString("</head>\n")
	fmt.Fprintf(&sb, "<body class=\"%s-theme\">\n", theme)

	if e.options.IncludeMetadata {
		sb.WriteString("<header>\n")
		fmt.Fprintf(&sb, "  <h1>%s</h1>\n", html.EscapeString(t.AgentID))
		fmt.Fprintf(&sb, "  <p class=\"meta\">%d messages, %s to %s</p>\n",
			len(t.Messages),
			formatTimestamp(t.Messages[0].CreatedAt),
			formatTimestamp(t.Messages[len(t.Messages)-1].CreatedAt))
		sb.WriteString("</header>\n")
	}

	sb.WriteString("<main>\n")
	for _, msg := range t.Messages {
		sb.WriteString(e.renderMessage(msg, t.Delivery))
	}
	sb.WriteString("</main>\n")

	fmt.Fprintf(&sb, "<footer>Exported from agentview on %s</footer>\n", formatTimestamp(t.ExportedAt))
	sb.WriteString("</body>\n</html>\n")
	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for HTML.
func (e *HTMLExporter) FileExtension() string {
	return ".html"
}

// MimeType returns the MIME type for HTML.
func (e *HTMLExporter) MimeType() string {
	return "text/html"
}

func (e *HTMLExporter) renderMessage(msg model.Message, d model.Delivery) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "<div class=\"message %s\">\n", messageClass(msg, d))
	fmt.Fprintf(&sb, "  <div class=\"role\">%s", html.EscapeString(roleLabel(msg, d)))
	if e.options.IncludeTimestamps {
		fmt.Fprintf(&sb, " <span class=\"time\">%s</span>", formatShortTimestamp(msg.CreatedAt))
	}
	sb.WriteString("</div>\n")

	text := msg.DisplayText(d)
	if msg.Kind.IsToolActivity() && !msg.IsDelivery(d) {
		fmt.Fprintf(&sb, "  <pre><code>%s</code></pre>\n", html.EscapeString(text))
	} else {
		fmt.Fprintf(&sb, "  <div class=\"content\">%s</div>\n", formatContent(text))
	}
	sb.WriteString("</div>\n")
	return sb.String()
}

func messageClass(msg model.Message, d model.Delivery) string {
	switch {
	case msg.Kind == model.KindInternalReasoning:
		return "reasoning"
	case msg.IsDelivery(d):
		return "assistant"
	case msg.Kind.IsToolActivity():
		return "tool"
	default:
		return html.EscapeString(strings.ToLower(string(msg.Role)))
	}
}

// formatContent escapes text and renders fenced code blocks. All other
// text is escaped before any markup is added.
func formatContent(content string) string {
	var sb strings.Builder
	last := 0
	for _, loc := range codeBlockRegex.FindAllStringSubmatchIndex(content, -1) {
		sb.WriteString(paragraphs(content[last:loc[0]]))

		lang := content[loc[2]:loc[3]]
		code := content[loc[4]:loc[5]]
		if lang != "" {
			fmt.Fprintf(&sb, "<pre><code class=\"language-%s\">%s</code></pre>", html.EscapeString(lang), html.EscapeString(code))
		} else {
			fmt.Fprintf(&sb, "<pre><code>%s</code></pre>", html.EscapeString(code))
		}
		last = loc[1]
	}
	sb.WriteString(paragraphs(content[last:]))
	return sb.String()
}

func paragraphs(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	escaped := html.EscapeString(s)
	escaped = strings.ReplaceAll(escaped, "\n\n", "</p><p>")
	escaped = strings.ReplaceAll(escaped, "\n", "<br>")
	return "<p>" + escaped + "</p>"
}

const css = `    <style>
      body { font-family: system-ui, sans-serif; max-width: 860px; margin: 0 auto; padding: 1.5rem; line-height: 1.5; }
      .dark-theme { background: #16181d; color: #e3e5e8; }
      .light-theme { background: #fafafa; color: #1d1f23; }
      header h1 { margin-bottom: 0.2rem; }
      .meta, .time, footer { opacity: 0.6; font-size: 0.85rem; }
      .message { border-left: 3px solid #888; padding: 0.4rem 0.9rem; margin: 1rem 0; }
      .message.user { border-color: #3b82f6; }
      .message.assistant { border-color: #10b981; }
      .message.reasoning { border-color: #a855f7; font-style: italic; opacity: 0.8; }
      .message.tool { border-color: #f59e0b; }
      .role { font-weight: 600; }
      pre { background: rgba(127,127,127,0.15); padding: 0.6rem; overflow-x: auto; }
      footer { margin-top: 2rem; text-align: center; }
    </style>
`
