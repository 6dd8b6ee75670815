// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jeranaias/agentview/internal/model"
	"github.com/jeranaias/agentview/internal/util"
)

// ErrEmptyTranscript is returned when there is nothing to export.
var ErrEmptyTranscript = errors.New("transcript has no messages")

// =============================================================================
// TRANSCRIPT
// =============================================================================

// Transcript is a filtered, ordered conversation view ready for export.
type Transcript struct {
	AgentID  string
	Messages []model.Message
	Delivery model.Delivery

	// ExportedAt stamps the document (default: now)
	ExportedAt time.Time
}

func (t *Transcript) validate() error {
	if t == nil || len(t.Messages) == 0 {
		return ErrEmptyTranscript
	}
	if t.Delivery.Call == "" {
		t.Delivery = model.DefaultDelivery
	}
	if t.ExportedAt.IsZero() {
		t.ExportedAt = time.Now()
	}
	return nil
}

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter renders a transcript in one document format.
type Exporter interface {
	Export(t *Transcript) ([]byte, error)

	// FileExtension returns the extension including the dot (e.g., ".md").
	FileExtension() string

	MimeType() string
}

// Options configures export behavior.
type Options struct {
	// IncludeMetadata adds a header with agent id, counts and dates.
	IncludeMetadata bool

	// IncludeTimestamps adds per-message times.
	IncludeTimestamps bool

	// Theme for HTML export ("light" or "dark", default "dark")
	Theme string
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		IncludeMetadata:   true,
		IncludeTimestamps: true,
		Theme:             "dark",
	}
}

// New returns the exporter for format: "md", "markdown", "html" or "json".
func New(format string, opts *Options) (Exporter, error) {
	switch strings.ToLower(format) {
	case "md", "markdown":
		return NewMarkdownExporter(opts), nil
	case "html", "htm":
		return NewHTMLExporter(opts), nil
	case "json":
		return NewJSONExporter(opts), nil
	default:
		return nil, fmt.Errorf("unknown export format %q (md, html, json)", format)
	}
}

// WriteFile exports t to path. An empty path becomes
// transcript_<agent>_<timestamp><ext> in the current directory.
func WriteFile(t *Transcript, exporter Exporter, path string) (string, error) {
	content, err := exporter.Export(t)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}

	if path == "" {
		path = fmt.Sprintf("transcript_%s_%s%s",
			sanitizeFilename(t.AgentID),
			t.ExportedAt.Format("20060102_150405"),
			exporter.FileExtension())
	}

	if err := util.AtomicWriteFile(path, content, 0644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return filepath.Clean(path), nil
}

// =============================================================================
// HELPERS
// =============================================================================

// sanitizeFilename replaces characters that are invalid in filenames.
func sanitizeFilename(s string) string {
	runes := []rune(s)
	if len(runes) > 50 {
		runes = runes[:50]
	}

	out := make([]rune, 0, len(runes))
	for _, r := range runes {
		switch {
		case strings.ContainsRune(`/\:*?"<>|`, r), r < 32, r == 127:
			out = append(out, '-')
		case r == ' ' || r == '\t':
			out = append(out, '_')
		default:
			out = append(out, r)
		}
	}

	if len(out) == 0 {
		return "conversation"
	}
	return string(out)
}

// roleLabel names the speaker of msg.
func roleLabel(msg model.Message, d model.Delivery) string {
	switch {
	case msg.Kind == model.KindInternalReasoning:
		return "Reasoning"
	case msg.IsDelivery(d):
		return model.RoleAssistant.DisplayName()
	case msg.Kind == model.KindToolCall:
		return "Tool call"
	case msg.Kind == model.KindToolResult:
		return "Tool result"
	default:
		return msg.Role.DisplayName()
	}
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05 UTC")
}

func formatShortTimestamp(t time.Time) string {
	return t.UTC().Format("15:04:05")
}
