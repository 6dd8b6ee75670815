// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/agentview/internal/model"
	"github.com/jeranaias/agentview/internal/session"
	"github.com/jeranaias/agentview/internal/transcript"
)

// =============================================================================
// TEST DOUBLES
// =============================================================================

type fakeController struct {
	mu       sync.Mutex
	agentID  string
	messages []model.Message
	prefs    transcript.Preferences
	sent     []string
	sendErr  error
	openErr  error
}

func (f *fakeController) Open(_ context.Context, agentID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.openErr != nil {
		return 0, f.openErr
	}
	f.agentID = agentID
	return len(f.messages), nil
}

func (f *fakeController) Send(ctx context.Context, input string) error {
	f.mu.Lock()
	f.sent = append(f.sent, input)
	err := f.sendErr
	f.mu.Unlock()
	if err != nil {
		return err
	}
	return ctx.Err()
}

func (f *fakeController) View() []model.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Message
	for _, m := range f.messages {
		if m.Kind == model.KindInternalReasoning && !f.prefs.ShowReasoning {
			continue
		}
		out = append(out, m)
	}
	return out
}

func (f *fakeController) Preferences() transcript.Preferences {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.prefs
}

func (f *fakeController) SetPreferences(p transcript.Preferences) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prefs = p
}

func (f *fakeController) Status() session.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return session.Status{AgentID: f.agentID, Messages: len(f.messages)}
}

type plainRenderer struct{}

func (plainRenderer) RenderMessage(msg model.Message) string {
	return msg.Role.DisplayName() + ": " + msg.Content.String()
}

func newTestModel(t *testing.T, ctrl *fakeController) Model {
	t.Helper()
	m := New(context.Background(), ctrl, plainRenderer{}, "")
	return update(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out
}

// runSend executes the batch produced by enter and returns the sentMsg.
func runSend(t *testing.T, cmd tea.Cmd) sentMsg {
	t.Helper()
	require.NotNil(t, cmd)
	msg := cmd()
	if sent, ok := msg.(sentMsg); ok {
		return sent
	}
	batch, ok := msg.(tea.BatchMsg)
	require.True(t, ok)
	for _, c := range batch {
		if c == nil {
			continue
		}
		if sent, ok := c().(sentMsg); ok {
			return sent
		}
	}
	t.Fatal("no send command in batch")
	return sentMsg{}
}

func text(id string, kind model.Kind, role model.Role, s string) model.Message {
	return model.Message{ID: id, Role: role, Kind: kind, Content: model.Text(s)}
}

// =============================================================================
// MODEL TESTS
// =============================================================================

func TestModel_InitOpensConversation(t *testing.T) {
	ctrl := &fakeController{messages: []model.Message{text("m1", model.KindPlain, model.RoleAssistant, "hello")}}
	m := New(context.Background(), ctrl, plainRenderer{}, "agent-1")

	cmd := m.Init()
	require.NotNil(t, cmd)

	m = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
	m = update(t, m, openCmd(context.Background(), ctrl, "agent-1")())

	require.Equal(t, "agent-1", ctrl.agentID)
	require.Contains(t, m.notice, "Opened agent-1 (1 messages)")
	require.Contains(t, m.View(), "Agent: hello")
	require.Contains(t, m.View(), "agent-1 | 1 messages")
}

func TestModel_OpenFailureShowsError(t *testing.T) {
	ctrl := &fakeController{openErr: errors.New("boom")}
	m := newTestModel(t, ctrl)

	m = update(t, m, openCmd(context.Background(), ctrl, "agent-x")())

	require.True(t, m.failed)
	require.Contains(t, m.View(), "Could not load history for agent-x: boom")
}

func TestModel_TogglesUpdatePreferences(t *testing.T) {
	ctrl := &fakeController{
		prefs: transcript.DefaultPreferences(),
		messages: []model.Message{
			text("r1", model.KindInternalReasoning, model.RoleAssistant, "thinking hard"),
			text("m1", model.KindPlain, model.RoleAssistant, "answer"),
		},
	}
	m := newTestModel(t, ctrl)
	require.Contains(t, m.View(), "thinking hard")
	require.Contains(t, m.View(), "[x] thoughts (ctrl+r)")

	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})
	require.False(t, ctrl.prefs.ShowReasoning)
	require.NotContains(t, m.View(), "thinking hard")
	require.Contains(t, m.View(), "[ ] thoughts (ctrl+r)")

	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlT})
	require.False(t, ctrl.prefs.ShowToolActivity)
	require.Contains(t, m.View(), "[ ] tools (ctrl+t)")
}

func TestModel_SlashCommandToggles(t *testing.T) {
	ctrl := &fakeController{prefs: transcript.DefaultPreferences()}
	m := newTestModel(t, ctrl)

	m.input.SetValue("/thoughts")
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.False(t, ctrl.prefs.ShowReasoning)
	require.Empty(t, m.input.Value())

	m.input.SetValue("/nope")
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.True(t, m.failed)
	require.Contains(t, m.View(), "Unknown command /nope")
}

func TestModel_SendShowsProcessingUntilDone(t *testing.T) {
	ctrl := &fakeController{agentID: "agent-1"}
	m := newTestModel(t, ctrl)

	m.input.SetValue("  hi there  ")
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)

	require.True(t, m.sending)
	require.Empty(t, m.input.Value())
	require.Contains(t, m.View(), "Processing...")

	sent := runSend(t, cmd)
	require.NoError(t, sent.err)
	require.Equal(t, []string{"hi there"}, ctrl.sent)

	m = update(t, m, sent)
	require.False(t, m.sending)
	require.NotContains(t, m.View(), "Processing...")
}

func TestModel_SecondSendIgnoredWhileSending(t *testing.T) {
	ctrl := &fakeController{agentID: "agent-1"}
	m := newTestModel(t, ctrl)

	m.input.SetValue("first")
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	require.True(t, m.sending)

	m.input.SetValue("second")
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	require.Nil(t, cmd)
	require.Equal(t, "second", m.input.Value())
}

func TestModel_CtrlCInterruptsThenQuits(t *testing.T) {
	ctrl := &fakeController{agentID: "agent-1"}
	m := newTestModel(t, ctrl)

	m.input.SetValue("long question")
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)

	next, quit := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	m = next.(Model)
	require.Nil(t, quit)
	require.False(t, m.quitting)

	sent := runSend(t, cmd)
	require.ErrorIs(t, sent.err, context.Canceled)

	m = update(t, m, sent)
	require.False(t, m.failed)
	require.Contains(t, m.View(), "Interrupted")

	next, quit = m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, quit)
	require.True(t, next.(Model).quitting)
}

func TestModel_SendErrorIsShown(t *testing.T) {
	ctrl := &fakeController{sendErr: session.ErrNoConversation}
	m := newTestModel(t, ctrl)

	m = update(t, m, sentMsg{err: ctrl.sendErr})
	require.True(t, m.failed)
	require.Contains(t, m.View(), "No conversation open")

	m = update(t, m, sentMsg{err: errors.New("stream reset")})
	require.Contains(t, m.View(), "Send failed: stream reset")
}

func TestModel_UpdateMsgRefreshesTranscript(t *testing.T) {
	ctrl := &fakeController{agentID: "agent-1"}
	m := newTestModel(t, ctrl)
	require.NotContains(t, m.View(), "streamed reply")

	msg := text("m9", model.KindPlain, model.RoleAssistant, "streamed reply")
	ctrl.messages = append(ctrl.messages, msg)
	m = update(t, m, UpdateMsg{AgentID: "agent-1", Message: msg, Result: transcript.Inserted})

	require.Contains(t, m.View(), "streamed reply")
}

func TestModel_PreferencesMsgAppliesWatchedConfig(t *testing.T) {
	ctrl := &fakeController{
		prefs:    transcript.DefaultPreferences(),
		messages: []model.Message{text("r1", model.KindInternalReasoning, model.RoleAssistant, "pondering")},
	}
	m := newTestModel(t, ctrl)
	require.Contains(t, m.View(), "pondering")

	m = update(t, m, PreferencesMsg{Preferences: transcript.Preferences{ShowToolActivity: true}})

	require.False(t, ctrl.prefs.ShowReasoning)
	require.NotContains(t, m.View(), "pondering")
}

func TestModel_SpinnerStopsWhenIdle(t *testing.T) {
	m := newTestModel(t, &fakeController{})

	_, cmd := m.Update(m.spinner.Tick())
	require.Nil(t, cmd)
}

func TestModel_EscQuits(t *testing.T) {
	m := newTestModel(t, &fakeController{})

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	require.Empty(t, strings.TrimSpace(next.(Model).View()))
}
