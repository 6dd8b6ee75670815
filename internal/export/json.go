// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"time"

	"github.com/jeranaias/agentview/internal/model"
)

// =============================================================================
// JSON EXPORTER
// =============================================================================

// JSONExporter exports transcripts as JSON. Options do not apply; the
// document always carries every field.
type JSONExporter struct{}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter(*Options) *JSONExporter {
	return &JSONExporter{}
}

type jsonDocument struct {
	AgentID    string        `json:"agent_id"`
	ExportedAt time.Time     `json:"exported_at"`
	Messages   []jsonMessage `json:"messages"`
}

type jsonMessage struct {
	ID        string          `json:"id"`
	Role      model.Role      `json:"role"`
	Kind      model.Kind      `json:"kind"`
	WireType  string          `json:"wire_type,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	Text      string          `json:"text"`
	Tool      string          `json:"tool,omitempty"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
	Local     bool            `json:"local,omitempty"`
}

// Export converts a transcript to indented JSON.
func (e *JSONExporter) Export(t *Transcript) ([]byte, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}

	doc := jsonDocument{
		AgentID:    t.AgentID,
		ExportedAt: t.ExportedAt.UTC(),
		Messages:   make([]jsonMessage, 0, len(t.Messages)),
	}
	for _, m := range t.Messages {
		jm := jsonMessage{
			ID:        m.ID,
			Role:      m.Role,
			Kind:      m.Kind,
			WireType:  m.WireType,
			CreatedAt: m.CreatedAt.UTC(),
			Text:      m.DisplayText(t.Delivery),
			Local:     m.Local,
		}
		if call, ok := m.Content.(model.ToolCall); ok {
			jm.Tool = call.Name
			if json.Valid(call.Arguments) {
				jm.Arguments = call.Arguments
			}
		}
		doc.Messages = append(doc.Messages, jm)
	}
	return json.MarshalIndent(doc, "", "  ")
}

// FileExtension returns the file extension for JSON.
func (e *JSONExporter) FileExtension() string {
	return ".json"
}

// MimeType returns the MIME type for JSON.
func (e *JSONExporter) MimeType() string {
	return "application/json"
}
