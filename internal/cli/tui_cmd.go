// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// tui_cmd.go - Full-screen chat for agentview.
//
// Command: tui [agent-id]
// Alias:   chat <agent-id> --tui
package cli

import (
	"context"
	"path/filepath"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/agentview/internal/config"
	"github.com/jeranaias/agentview/internal/model"
	"github.com/jeranaias/agentview/internal/session"
	"github.com/jeranaias/agentview/internal/transcript"
	"github.com/jeranaias/agentview/internal/ui"
)

// programRef forwards engine callbacks to a running program. Callbacks can
// fire before Run starts, so sends are dropped until set is called.
type programRef struct {
	mu sync.Mutex
	p  *tea.Program
}

func (r *programRef) set(p *tea.Program) {
	r.mu.Lock()
	r.p = p
	r.mu.Unlock()
}

func (r *programRef) send(msg tea.Msg) {
	r.mu.Lock()
	p := r.p
	r.mu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

// HandleTUI handles "agentview tui [agent-id]" and "agentview chat --tui".
func HandleTUI(args Args) error {
	e, err := newEnv(args)
	if err != nil {
		return err
	}

	// The alternate screen owns stderr, so verbose logs go to a file
	if args.Verbose {
		if dir, err := config.ConfigDir(); err == nil && config.EnsureConfigDir() == nil {
			if f, err := tea.LogToFile(filepath.Join(dir, "tui.log"), ""); err == nil {
				defer f.Close()
				e.logger.SetOutput(f)
			}
		}
	}

	var recorder session.Recorder
	if e.cfg.Capture.Enabled {
		if store := openCaptureStore(e); store != nil {
			defer store.Close()
			recorder = store
		}
	}

	ref := &programRef{}
	mgr := session.NewManager(session.ManagerConfig{
		Transport:   e.client,
		Delivery:    e.cfg.Delivery(),
		PageSize:    e.cfg.History.PageSize,
		Mode:        session.ParseDeliveryMode(e.cfg.Stream.Mode),
		Preferences: e.preferences(),
		Recorder:    recorder,
		Logger:      e.logger,
		OnUpdate: func(agentID string, msg model.Message, res transcript.Result) {
			if res.Changed() {
				ref.send(ui.UpdateMsg{AgentID: agentID, Message: msg, Result: res})
			}
		},
		OnStateChange: func(agentID string, s session.State) {
			ref.send(ui.StateMsg{AgentID: agentID, State: s})
		},
	})
	defer mgr.Close()

	if w := startConfigWatcher(e, func(p transcript.Preferences) {
		ref.send(ui.PreferencesMsg{Preferences: p})
	}); w != nil {
		defer w.Close()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := ui.New(ctx, mgr, e.renderer(), args.Parser.Positional(0))
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	ref.set(p)
	defer ref.set(nil)

	e.logger.Printf("TUI_START | agent=%s", args.Parser.Positional(0))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
