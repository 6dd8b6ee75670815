// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"github.com/jeranaias/agentview/internal/letta"
	"github.com/jeranaias/agentview/internal/model"
	"github.com/jeranaias/agentview/internal/stream"
	"github.com/jeranaias/agentview/internal/transcript"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrEmptyInput is returned when the input is blank. Nothing is sent.
	ErrEmptyInput = errors.New("empty input")

	// ErrInFlight is returned when a stream is already open. Nothing is sent.
	ErrInFlight = errors.New("a message is already being sent")

	// errStreamDone stops the transport once the completion marker is seen.
	errStreamDone = errors.New("stream complete")
)

// =============================================================================
// COLLABORATORS
// =============================================================================

// Transport opens a stream for one user turn and delivers raw chunks until
// the response ends.
type Transport interface {
	OpenStream(ctx context.Context, agentID, text string, onChunk letta.ChunkFunc) error
}

// Recorder journals the raw chunks of each stream.
type Recorder interface {
	Begin(agentID, input string) (string, error)
	Append(streamID string, chunk []byte) error
	Finish(streamID string, streamErr error) error
}

// =============================================================================
// STATE
// =============================================================================

// State is the send state of a pipeline.
type State int

const (
	StateIdle State = iota
	StateSending
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSending:
		return "sending"
	default:
		return "unknown"
	}
}

// DeliveryMode describes what each transport chunk contains.
type DeliveryMode int

const (
	// DeliveryIncremental chunks carry only new bytes.
	DeliveryIncremental DeliveryMode = iota

	// DeliveryCumulative chunks carry everything received so far.
	DeliveryCumulative
)

// ParseDeliveryMode maps a config value to a mode. Unknown values are incremental.
func ParseDeliveryMode(s string) DeliveryMode {
	if strings.EqualFold(strings.TrimSpace(s), "cumulative") {
		return DeliveryCumulative
	}
	return DeliveryIncremental
}

// =============================================================================
// PIPELINE
// =============================================================================

// PipelineConfig holds the dependencies of a Pipeline.
type PipelineConfig struct {
	AgentID   string
	Store     *transcript.Store
	Transport Transport

	// Mode is the transport's chunk semantics (default: incremental)
	Mode DeliveryMode

	// Recorder, if set, receives every raw chunk.
	Recorder Recorder

	// Now and NewID default to time.Now and "local-" + a random UUID.
	Now   func() time.Time
	NewID func() string

	// Logger receives pipeline events. Nil uses log.Default().
	Logger *log.Logger

	// OnUpdate is called after every store mutation made by the pipeline.
	OnUpdate func(msg model.Message, result transcript.Result)

	// OnStateChange is called on every state transition.
	OnStateChange func(State)
}

// Pipeline sends user input and reconciles the streamed response into a
// transcript store.
type Pipeline struct {
	cfg      PipelineConfig
	parser   stream.Parser
	logger   *log.Logger
	inFlight atomic.Bool
}

// NewPipeline creates a pipeline.
func NewPipeline(cfg PipelineConfig) *Pipeline {
	if cfg.Store == nil {
		cfg.Store = transcript.NewStore()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.NewID == nil {
		cfg.NewID = NewLocalID
	}

	p := &Pipeline{cfg: cfg, logger: cfg.Logger}
	if p.logger == nil {
		p.logger = log.Default()
	}
	p.parser = stream.Parser{
		OnMalformed: func(e *stream.DecodeError) {
			p.logger.Printf("FRAME_MALFORMED | agent=%s line=%d err=%v", cfg.AgentID, e.Line, e.Err)
		},
	}
	return p
}

// NewLocalID returns an id for an optimistic message.
func NewLocalID() string {
	return "local-" + uuid.New().String()
}

// AgentID returns the conversation this pipeline sends to.
func (p *Pipeline) AgentID() string {
	return p.cfg.AgentID
}

// Store returns the transcript store the pipeline writes to.
func (p *Pipeline) Store() *transcript.Store {
	return p.cfg.Store
}

// InFlight reports whether a stream is open.
func (p *Pipeline) InFlight() bool {
	return p.inFlight.Load()
}

// State returns the current send state.
func (p *Pipeline) State() State {
	if p.inFlight.Load() {
		return StateSending
	}
	return StateIdle
}

// Send appends input as a local user message and streams the agent's
// response into the store. It blocks until the stream completes or fails.
//
// Blank input returns ErrEmptyInput and a send while another is in flight
// returns ErrInFlight; neither touches the store. Transport failures are
// logged and returned; the pipeline is Idle again either way.
func (p *Pipeline) Send(ctx context.Context, input string) error {
	text := norm.NFC.String(strings.TrimSpace(input))
	if text == "" {
		p.logger.Printf("SEND_SKIPPED | agent=%s reason=empty", p.cfg.AgentID)
		return ErrEmptyInput
	}
	if !p.inFlight.CompareAndSwap(false, true) {
		p.logger.Printf("SEND_SKIPPED | agent=%s reason=in_flight", p.cfg.AgentID)
		return ErrInFlight
	}
	p.stateChanged(StateSending)
	defer func() {
		p.inFlight.Store(false)
		p.stateChanged(StateIdle)
	}()

	local := model.Message{
		ID:        p.cfg.NewID(),
		Role:      model.RoleUser,
		Kind:      model.KindPlain,
		Content:   model.Text(text),
		CreatedAt: p.cfg.Now().UTC(),
		Local:     true,
	}
	p.updated(local, p.cfg.Store.AppendLocal(local))

	p.logger.Printf("SEND_START | agent=%s local_id=%s chars=%d", p.cfg.AgentID, local.ID, len(text))

	run := &streamRun{p: p, mode: p.cfg.Mode}
	run.begin(text)

	start := time.Now()
	err := p.cfg.Transport.OpenStream(ctx, p.cfg.AgentID, text, run.feed)
	if errors.Is(err, errStreamDone) {
		err = nil
	}
	if err == nil && !run.done {
		run.flush()
	}
	run.end(err)

	if err != nil {
		p.logger.Printf("STREAM_ERROR | agent=%s frames=%d err=%v", p.cfg.AgentID, run.frames, err)
		return fmt.Errorf("stream for %s: %w", p.cfg.AgentID, err)
	}

	p.logger.Printf("STREAM_DONE | agent=%s frames=%d messages=%d marker=%t duration=%s",
		p.cfg.AgentID, run.frames, run.messages, run.done, time.Since(start).Round(time.Millisecond))
	return nil
}

func (p *Pipeline) stateChanged(s State) {
	if p.cfg.OnStateChange != nil {
		p.cfg.OnStateChange(s)
	}
}

func (p *Pipeline) updated(msg model.Message, res transcript.Result) {
	if res.Changed() && p.cfg.OnUpdate != nil {
		p.cfg.OnUpdate(msg, res)
	}
}

// =============================================================================
// STREAM RUN
// =============================================================================

// streamRun is the parse state of one open stream. Only complete lines are
// parsed while chunks arrive.
type streamRun struct {
	p    *Pipeline
	mode DeliveryMode

	buf      []byte
	consumed int

	streamID string
	done     bool
	frames   int
	messages int
}

func (r *streamRun) begin(text string) {
	rec := r.p.cfg.Recorder
	if rec == nil {
		return
	}
	id, err := rec.Begin(r.p.cfg.AgentID, text)
	if err != nil {
		r.p.logger.Printf("CAPTURE_ERROR | agent=%s op=begin err=%v", r.p.cfg.AgentID, err)
		return
	}
	r.streamID = id
}

func (r *streamRun) end(streamErr error) {
	if r.streamID == "" {
		return
	}
	if err := r.p.cfg.Recorder.Finish(r.streamID, streamErr); err != nil {
		r.p.logger.Printf("CAPTURE_ERROR | stream=%s op=finish err=%v", r.streamID, err)
	}
}

// feed consumes one transport chunk.
func (r *streamRun) feed(chunk []byte) error {
	if r.done {
		return errStreamDone
	}

	if r.streamID != "" {
		if err := r.p.cfg.Recorder.Append(r.streamID, chunk); err != nil {
			r.p.logger.Printf("CAPTURE_ERROR | stream=%s op=append err=%v", r.streamID, err)
		}
	}

	if r.mode == DeliveryCumulative {
		// A shorter buffer means the transport restarted its accumulation
		if len(chunk) < r.consumed {
			r.consumed = 0
		}
		r.buf = append(r.buf[:0], chunk...)
	} else {
		r.buf = append(r.buf, chunk...)
	}

	end := bytes.LastIndexByte(r.buf[r.consumed:], '\n')
	if end < 0 {
		return nil
	}
	complete := string(r.buf[r.consumed : r.consumed+end+1])
	r.consumed += end + 1

	if r.mode == DeliveryIncremental {
		r.buf = append(r.buf[:0], r.buf[r.consumed:]...)
		r.consumed = 0
	}

	if r.apply(complete) {
		return errStreamDone
	}
	return nil
}

// flush parses a trailing line the transport left unterminated.
func (r *streamRun) flush() {
	if r.consumed < len(r.buf) {
		rest := string(r.buf[r.consumed:])
		r.consumed = len(r.buf)
		r.apply(rest)
	}
}

// apply runs text through the parser and classifier into the store.
// It reports whether the completion marker was seen.
func (r *streamRun) apply(text string) bool {
	p := r.p
	for frame := range p.parser.Frames(text) {
		if frame.Kind == stream.FrameDone {
			r.done = true
			return true
		}
		r.frames++

		msg, reason := stream.Classify(frame.Payload, p.cfg.Now())
		if reason != stream.DropNone {
			p.logger.Printf("FRAME_DROPPED | agent=%s id=%q type=%q reason=%s",
				p.cfg.AgentID, frame.Payload.ID, frame.Payload.Type, reason)
			continue
		}

		res := p.cfg.Store.Upsert(msg)
		if res == transcript.DroppedEmpty {
			p.logger.Printf("FRAME_DROPPED | agent=%s id=%q type=%q reason=empty",
				p.cfg.AgentID, msg.ID, msg.WireType)
			continue
		}
		if res.Changed() {
			r.messages++
		}
		p.updated(msg, res)
	}
	return false
}
