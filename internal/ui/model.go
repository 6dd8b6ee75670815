// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/agentview/internal/model"
	"github.com/jeranaias/agentview/internal/session"
	"github.com/jeranaias/agentview/internal/transcript"
)

// Controller is the conversation surface the UI drives. *session.Manager
// implements it.
type Controller interface {
	Open(ctx context.Context, agentID string) (int, error)
	Send(ctx context.Context, input string) error
	View() []model.Message
	Preferences() transcript.Preferences
	SetPreferences(p transcript.Preferences)
	Status() session.Status
}

// Renderer turns one transcript entry into display text.
type Renderer interface {
	RenderMessage(msg model.Message) string
}

// Rows taken by everything except the viewport: header, toggles, status
// and the bordered input.
const chromeHeight = 5

// =============================================================================
// MODEL
// =============================================================================

// Model is the Bubble Tea model for one agentview session.
type Model struct {
	ctx    context.Context
	ctrl   Controller
	render Renderer

	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model

	agentID string
	sending bool
	cancel  context.CancelFunc
	notice  string
	failed  bool

	width, height int
	quitting      bool
}

// New creates a model. agentID, when set, is opened on Init.
func New(ctx context.Context, ctrl Controller, render Renderer, agentID string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Message the agent, or /help"
	ti.CharLimit = 8192
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}

	m := Model{
		ctx:      ctx,
		ctrl:     ctrl,
		render:   render,
		viewport: viewport.New(80, 20),
		input:    ti,
		spinner:  sp,
		agentID:  agentID,
	}
	if agentID == "" {
		m.notice = "No conversation open. Use /open <agent-id>."
	}
	return m
}

// Init opens the initial conversation.
func (m Model) Init() tea.Cmd {
	if m.agentID == "" {
		return textinput.Blink
	}
	return tea.Batch(textinput.Blink, openCmd(m.ctx, m.ctrl, m.agentID))
}

// Update handles a message.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.resize(msg), nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case UpdateMsg, StateMsg:
		m.refresh()
		return m, nil

	case PreferencesMsg:
		m.ctrl.SetPreferences(msg.Preferences)
		m.refresh()
		return m, nil

	case openedMsg:
		m.agentID = msg.agentID
		if msg.err != nil {
			m.setError(fmt.Sprintf("Could not load history for %s: %v", msg.agentID, msg.err))
		} else {
			m.setNotice(fmt.Sprintf("Opened %s (%d messages)", msg.agentID, msg.count))
		}
		m.refresh()
		m.viewport.GotoBottom()
		return m, nil

	case sentMsg:
		m.sending = false
		if m.cancel != nil {
			m.cancel()
			m.cancel = nil
		}
		switch {
		case msg.err == nil:
			m.setNotice("")
		case errors.Is(msg.err, context.Canceled):
			m.setNotice("Interrupted")
		case errors.Is(msg.err, session.ErrNoConversation):
			m.setError("No conversation open. Use /open <agent-id>.")
		default:
			m.setError("Send failed: " + msg.err.Error())
		}
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if !m.sending {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) resize(msg tea.WindowSizeMsg) Model {
	m.width, m.height = msg.Width, msg.Height
	m.viewport.Width = max(msg.Width, 1)
	m.viewport.Height = max(msg.Height-chromeHeight, 1)
	m.input.Width = max(msg.Width-len(m.input.Prompt)-1, 10)
	m.refresh()
	return m
}

// =============================================================================
// KEYS
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		if m.sending {
			m.interrupt()
			return m, nil
		}
		return m.quit()

	case "esc", "ctrl+q":
		return m.quit()

	case "ctrl+r":
		m.toggle(func(p *transcript.Preferences) { p.ShowReasoning = !p.ShowReasoning })
		return m, nil

	case "ctrl+t":
		m.toggle(func(p *transcript.Preferences) { p.ShowToolActivity = !p.ShowToolActivity })
		return m, nil

	case "pgup", "pgdown", "up", "down":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case "enter":
		return m.submit()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	line := strings.TrimSpace(m.input.Value())
	if line == "" {
		return m, nil
	}
	if strings.HasPrefix(line, "/") {
		m.input.Reset()
		return m.command(line)
	}
	// Input stays disabled until the stream in flight ends
	if m.sending {
		return m, nil
	}

	m.input.Reset()
	ctx, cancel := context.WithCancel(m.ctx)
	m.sending, m.cancel = true, cancel
	m.setNotice("")
	return m, tea.Batch(m.spinner.Tick, sendCmd(ctx, m.ctrl, line))
}

func (m Model) command(line string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(line)
	switch strings.ToLower(fields[0]) {
	case "/quit", "/q", "/exit":
		return m.quit()
	case "/thoughts", "/reasoning":
		m.toggle(func(p *transcript.Preferences) { p.ShowReasoning = !p.ShowReasoning })
	case "/tools":
		m.toggle(func(p *transcript.Preferences) { p.ShowToolActivity = !p.ShowToolActivity })
	case "/open":
		if len(fields) < 2 {
			m.setError("Usage: /open <agent-id>")
			break
		}
		if m.sending {
			m.interrupt()
		}
		m.setNotice("Opening " + fields[1] + "...")
		return m, openCmd(m.ctx, m.ctrl, fields[1])
	case "/help":
		m.setNotice("enter send | ctrl+r thoughts | ctrl+t tools | ctrl+c interrupt | /open <agent-id> | esc quit")
	default:
		m.setError("Unknown command " + fields[0])
	}
	return m, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func (m *Model) toggle(change func(*transcript.Preferences)) {
	prefs := m.ctrl.Preferences()
	change(&prefs)
	m.ctrl.SetPreferences(prefs)
	m.refresh()
}

func (m *Model) interrupt() {
	if m.cancel != nil {
		m.cancel()
	}
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.interrupt()
	m.quitting = true
	return m, tea.Quit
}

func (m *Model) setNotice(s string) { m.notice, m.failed = s, false }
func (m *Model) setError(s string)  { m.notice, m.failed = s, true }

// refresh recomputes the filtered view and keeps the viewport pinned to the
// bottom when it already was.
func (m *Model) refresh() {
	atBottom := m.viewport.AtBottom()

	var b strings.Builder
	for i, msg := range m.ctrl.View() {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(m.render.RenderMessage(msg))
	}
	m.viewport.SetContent(b.String())

	if atBottom {
		m.viewport.GotoBottom()
	}
}
