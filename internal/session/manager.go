// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/jeranaias/agentview/internal/history"
	"github.com/jeranaias/agentview/internal/model"
	"github.com/jeranaias/agentview/internal/transcript"
)

// ErrNoConversation is returned by Send when no conversation is open.
var ErrNoConversation = errors.New("no conversation is open")

// Client is the transport the manager needs: history and streaming.
type Client interface {
	Transport
	history.Fetcher
}

// =============================================================================
// MANAGER CONFIGURATION
// =============================================================================

// ManagerConfig holds configuration for the conversation manager.
type ManagerConfig struct {
	Transport Client

	// Delivery is the tool call that carries user-visible text (default: send_message/message)
	Delivery model.Delivery

	// PageSize is the number of history messages fetched on open (default: 1000)
	PageSize int

	// Mode is the transport's chunk semantics.
	Mode DeliveryMode

	// Preferences are the initial display preferences.
	Preferences transcript.Preferences

	Recorder Recorder
	Logger   *log.Logger
	Now      func() time.Time
	NewID    func() string

	// OnUpdate is called for mutations of the active conversation's store.
	OnUpdate func(agentID string, msg model.Message, result transcript.Result)

	// OnStateChange is called when the active pipeline changes state.
	OnStateChange func(agentID string, s State)
}

// =============================================================================
// MANAGER
// =============================================================================

// Manager tracks the active conversation. At most one conversation is open;
// each one gets its own store and pipeline.
type Manager struct {
	mu sync.Mutex

	cfg    ManagerConfig
	loader *history.Loader
	logger *log.Logger

	// Active conversation
	agentID  string
	store    *transcript.Store
	pipeline *Pipeline
	cancel   context.CancelFunc
	openCtx  context.Context

	prefs transcript.Preferences
}

// NewManager creates a conversation manager.
func NewManager(cfg ManagerConfig) *Manager {
	if cfg.Delivery.Call == "" {
		cfg.Delivery = model.DefaultDelivery
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = model.HistoryPageSize
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Manager{
		cfg:    cfg,
		logger: logger,
		prefs:  cfg.Preferences,
		loader: history.NewLoader(cfg.Transport,
			history.WithPageSize(cfg.PageSize),
			history.WithDelivery(cfg.Delivery),
			history.WithClock(cfg.Now),
			history.WithLogger(logger),
		),
	}
}

// Open makes agentID the active conversation and seeds it with history.
// The previous conversation is discarded and its stream, if any, canceled.
// A history failure leaves the conversation open with an empty transcript.
func (m *Manager) Open(ctx context.Context, agentID string) (int, error) {
	m.mu.Lock()
	m.closeLocked()

	store := transcript.NewStore()
	openCtx, cancel := context.WithCancel(context.Background())
	m.agentID = agentID
	m.store = store
	m.openCtx = openCtx
	m.cancel = cancel
	m.pipeline = NewPipeline(PipelineConfig{
		AgentID:   agentID,
		Store:     store,
		Transport: m.cfg.Transport,
		Mode:      m.cfg.Mode,
		Recorder:  m.cfg.Recorder,
		Now:       m.cfg.Now,
		NewID:     m.cfg.NewID,
		Logger:    m.logger,
		OnUpdate: func(msg model.Message, res transcript.Result) {
			if m.isActive(store) && m.cfg.OnUpdate != nil {
				m.cfg.OnUpdate(agentID, msg, res)
			}
		},
		OnStateChange: func(s State) {
			if m.isActive(store) && m.cfg.OnStateChange != nil {
				m.cfg.OnStateChange(agentID, s)
			}
		},
	})
	m.mu.Unlock()

	m.logger.Printf("CONVERSATION_OPEN | agent=%s", agentID)
	return m.loader.Load(ctx, store, agentID)
}

// Reload re-fetches the active conversation's history into its store.
func (m *Manager) Reload(ctx context.Context) (int, error) {
	m.mu.Lock()
	agentID, store := m.agentID, m.store
	m.mu.Unlock()

	if store == nil {
		return 0, ErrNoConversation
	}
	return m.loader.Load(ctx, store, agentID)
}

// Close discards the active conversation.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeLocked()
}

func (m *Manager) closeLocked() {
	if m.cancel != nil {
		m.cancel()
	}
	if m.store != nil {
		m.store.Clear()
	}
	m.agentID = ""
	m.store = nil
	m.pipeline = nil
	m.cancel = nil
	m.openCtx = nil
}

func (m *Manager) isActive(store *transcript.Store) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store == store
}

// Send sends input on the active conversation. The stream stops early if ctx
// is canceled or another conversation is opened.
func (m *Manager) Send(ctx context.Context, input string) error {
	m.mu.Lock()
	p, openCtx := m.pipeline, m.openCtx
	m.mu.Unlock()

	if p == nil {
		return ErrNoConversation
	}

	sendCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(openCtx, cancel)
	defer stop()

	return p.Send(sendCtx, input)
}

// =============================================================================
// VIEW
// =============================================================================

// View returns the active conversation's messages under the current
// preferences, in display order.
func (m *Manager) View() []model.Message {
	m.mu.Lock()
	store, prefs := m.store, m.prefs
	m.mu.Unlock()

	if store == nil {
		return nil
	}
	return transcript.View(store, prefs)
}

// SetPreferences replaces the display preferences.
func (m *Manager) SetPreferences(p transcript.Preferences) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prefs = p
}

// Preferences returns the display preferences.
func (m *Manager) Preferences() transcript.Preferences {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.prefs
}

// Delivery returns the delivery call used for rendering.
func (m *Manager) Delivery() model.Delivery {
	return m.cfg.Delivery
}

// =============================================================================
// STATUS
// =============================================================================

// Status is a snapshot of the manager.
type Status struct {
	AgentID  string
	Messages int
	State    State
	Version  uint64
}

// Status returns the current status.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.store == nil {
		return Status{}
	}
	return Status{
		AgentID:  m.agentID,
		Messages: m.store.Len(),
		State:    m.pipeline.State(),
		Version:  m.store.Version(),
	}
}

// Active returns the active agent id, or "" when none is open.
func (m *Manager) Active() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.agentID
}
