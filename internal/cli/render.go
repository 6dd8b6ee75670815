// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// render.go - Transcript rendering for agentview commands.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/agentview/internal/model"
	"github.com/jeranaias/agentview/internal/transcript"
)

// =============================================================================
// RENDERER
// =============================================================================

// Renderer formats transcript entries for the terminal.
type Renderer struct {
	Delivery model.Delivery
	Markdown bool
	Width    int

	mdOnce sync.Once
	md     *glamour.TermRenderer
}

// NewRenderer creates a renderer. Markdown applies to agent text only.
func NewRenderer(delivery model.Delivery, markdown bool, width int) *Renderer {
	if width <= 0 {
		width = DefaultTerminalWidth
	}
	return &Renderer{Delivery: delivery, Markdown: markdown, Width: width}
}

func (r *Renderer) markdownRenderer() *glamour.TermRenderer {
	r.mdOnce.Do(func() {
		style := glamour.WithAutoStyle()
		if !ColorsEnabled() {
			style = glamour.WithStandardStyle("notty")
		}
		md, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(r.Width-4))
		if err == nil {
			r.md = md
		}
	})
	return r.md
}

// isSpeech reports whether msg is something a participant said, as opposed
// to reasoning or tool activity.
func (r *Renderer) isSpeech(msg model.Message) bool {
	return msg.Kind == model.KindPlain || msg.IsDelivery(r.Delivery)
}

// label returns the speaker label for msg.
func (r *Renderer) label(msg model.Message) string {
	if msg.IsDelivery(r.Delivery) {
		return agentStyle.Render(model.RoleAssistant.DisplayName())
	}
	return roleLabel(msg)
}

// Body returns the rendered content of msg.
func (r *Renderer) Body(msg model.Message) string {
	text := msg.DisplayText(r.Delivery)
	switch {
	case msg.Kind == model.KindInternalReasoning:
		return reasoningStyle.Render(text)
	case !r.isSpeech(msg):
		return renderTool(msg, text, ColorsEnabled())
	case r.Markdown && msg.Role != model.RoleUser:
		if md := r.markdownRenderer(); md != nil {
			if out, err := md.Render(text); err == nil {
				return strings.Trim(out, "\n")
			}
		}
	}
	return text
}

// RenderMessage renders one entry as a label line followed by its body.
func (r *Renderer) RenderMessage(msg model.Message) string {
	ts := DimStyle.Render(msg.CreatedAt.Local().Format("15:04"))
	return fmt.Sprintf("%s %s\n%s\n", r.label(msg), ts, r.Body(msg))
}

// RenderTranscript writes msgs in order.
func (r *Renderer) RenderTranscript(w io.Writer, msgs []model.Message) {
	for i, msg := range msgs {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprint(w, r.RenderMessage(msg))
	}
}

// =============================================================================
// PROGRESSIVE OUTPUT
// =============================================================================

// livePrinter writes store mutations as they arrive. Growth of the entry
// printed last is written as a suffix; anything else starts a new line.
type livePrinter struct {
	mu       sync.Mutex
	w        io.Writer
	r        *Renderer
	visible  func(model.Message) bool
	lastID   string
	printed  string
	wroteAny bool
}

func newLivePrinter(w io.Writer, r *Renderer, visible func(model.Message) bool) *livePrinter {
	return &livePrinter{w: w, r: r, visible: visible}
}

// Update handles one store mutation.
func (p *livePrinter) Update(msg model.Message, res transcript.Result) {
	if !res.Changed() || msg.Local || !p.visible(msg) {
		return
	}
	text := msg.DisplayText(p.r.Delivery)

	p.mu.Lock()
	defer p.mu.Unlock()

	if msg.ID == p.lastID && strings.HasPrefix(text, p.printed) {
		fmt.Fprint(p.w, text[len(p.printed):])
		p.printed = text
		return
	}

	if p.wroteAny {
		fmt.Fprintln(p.w)
	}
	fmt.Fprintf(p.w, "%s %s", p.r.label(msg), text)
	p.lastID, p.printed, p.wroteAny = msg.ID, text, true
}

// End terminates the current line and resets for the next stream.
func (p *livePrinter) End() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.wroteAny {
		fmt.Fprintln(p.w)
	}
	p.lastID, p.printed, p.wroteAny = "", "", false
}

// =============================================================================
// JSON OUTPUT
// =============================================================================

// messageJSON is the JSON form of a transcript entry.
type messageJSON struct {
	ID        string     `json:"id"`
	Role      model.Role `json:"role"`
	Kind      model.Kind `json:"kind"`
	WireType  string     `json:"wire_type,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	Text      string     `json:"text"`
	Local     bool       `json:"local,omitempty"`
}

func toJSONMessages(msgs []model.Message, d model.Delivery) []messageJSON {
	out := make([]messageJSON, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, messageJSON{
			ID:        m.ID,
			Role:      m.Role,
			Kind:      m.Kind,
			WireType:  m.WireType,
			CreatedAt: m.CreatedAt,
			Text:      m.DisplayText(d),
			Local:     m.Local,
		})
	}
	return out
}

// outputJSON writes data as indented JSON.
func outputJSON(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
