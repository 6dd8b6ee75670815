// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Interactive chat command for agentview.
//
// Command: chat <agent-id>
//
// Interactive Commands (during chat):
//
//	/thoughts on|off    Show or hide internal reasoning
//	/tools on|off       Show or hide tool activity
//	/open <agent-id>    Switch conversation
//	/reload             Re-fetch history
//	/history            Print the transcript
//	/status             Show conversation status
//	/help               Show chat commands
//	/quit, /q           Exit chat
//	Ctrl+C              Cancel the current response
//	Ctrl+D              Exit chat
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/peterh/liner"

	"github.com/jeranaias/agentview/internal/capture"
	"github.com/jeranaias/agentview/internal/config"
	"github.com/jeranaias/agentview/internal/model"
	"github.com/jeranaias/agentview/internal/session"
	"github.com/jeranaias/agentview/internal/transcript"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// ChatCLI provides line editing and persistent input history.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a ChatCLI with history loaded from the config dir.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	c := &ChatCLI{line: line, historyFile: filepath.Join(dir, "chat_history")}

	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
	return c
}

// ReadInput reads a line with the given prompt.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// Close saves history (0600) and restores the terminal.
func (c *ChatCLI) Close() {
	if err := config.EnsureConfigDir(); err == nil {
		if f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
			c.line.WriteHistory(f)
			f.Close()
		}
	}
	c.line.Close()
}

// =============================================================================
// SESSION STATE
// =============================================================================

// chatSession holds the state of an interactive chat.
type chatSession struct {
	env      *env
	mgr      *session.Manager
	renderer *Renderer
	live     *livePrinter
	out      io.Writer
	quiet    bool

	mu     sync.Mutex
	cancel context.CancelFunc
}

// newChatSession wires a manager to progressive output on out.
func newChatSession(e *env, client session.Client, recorder session.Recorder, out io.Writer) *chatSession {
	cs := &chatSession{
		env:      e,
		renderer: e.renderer(),
		out:      out,
		quiet:    e.args.Quiet,
	}

	cfg := session.ManagerConfig{
		Transport:   client,
		Delivery:    e.cfg.Delivery(),
		PageSize:    e.cfg.History.PageSize,
		Mode:        session.ParseDeliveryMode(e.cfg.Stream.Mode),
		Preferences: e.preferences(),
		Recorder:    recorder,
		Logger:      e.logger,
		OnUpdate: func(_ string, msg model.Message, res transcript.Result) {
			cs.live.Update(msg, res)
		},
	}
	cs.mgr = session.NewManager(cfg)
	cs.live = newLivePrinter(out, cs.renderer, func(m model.Message) bool {
		return cs.mgr.Preferences().Visible(m)
	})
	return cs
}

// open switches to agentID and prints its transcript.
func (cs *chatSession) open(ctx context.Context, agentID string) {
	n, err := cs.mgr.Open(ctx, agentID)
	if err != nil {
		fmt.Fprintf(cs.out, "%s could not load history: %v\n", WarningStyle.Render("Warning:"), err)
	}
	if !cs.quiet {
		fmt.Fprintf(cs.out, "%s %s %s\n", TitleStyle.Render("Conversation"), agentID,
			DimStyle.Render(fmt.Sprintf("(%d messages)", n)))
		cs.printView()
	}
}

func (cs *chatSession) printView() {
	view := cs.mgr.View()
	if len(view) == 0 {
		fmt.Fprintln(cs.out, DimStyle.Render("No messages yet."))
		return
	}
	cs.renderer.RenderTranscript(cs.out, view)
	fmt.Fprintln(cs.out, RenderSeparator(cs.renderer.Width/2))
}

// send streams one turn. Ctrl+C cancels it through interrupt.
func (cs *chatSession) send(ctx context.Context, input string) error {
	ctx, cancel := context.WithCancel(ctx)
	cs.mu.Lock()
	cs.cancel = cancel
	cs.mu.Unlock()

	defer func() {
		cs.mu.Lock()
		cs.cancel = nil
		cs.mu.Unlock()
		cancel()
	}()

	err := cs.mgr.Send(ctx, input)
	cs.live.End()
	return err
}

// interrupt cancels the current send, reporting whether one was running.
func (cs *chatSession) interrupt() bool {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if cs.cancel == nil {
		return false
	}
	cs.cancel()
	cs.cancel = nil
	return true
}

// =============================================================================
// CHAT HANDLER
// =============================================================================

// HandleChat handles "agentview chat <agent-id>".
func HandleChat(args Args) error {
	e, err := newEnv(args)
	if err != nil {
		return err
	}
	agentID, err := e.requireArg(0, "chat <agent-id>")
	if err != nil {
		return err
	}

	var recorder session.Recorder
	if e.cfg.Capture.Enabled {
		if store := openCaptureStore(e); store != nil {
			defer store.Close()
			recorder = store
		}
	}

	cs := newChatSession(e, e.client, recorder, e.out)
	defer cs.mgr.Close()

	if w := startConfigWatcher(e, cs.mgr.SetPreferences); w != nil {
		defer w.Close()
	}

	ctx := context.Background()
	cs.open(ctx, agentID)

	input := NewChatCLI()
	defer input.Close()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		for range sigChan {
			if cs.interrupt() {
				fmt.Fprintln(os.Stderr, "\n"+WarningStyle.Render("[Cancelled]"))
			}
		}
	}()

	for {
		line, err := input.ReadInput(promptStyle.Render("you> "))
		if err != nil {
			// Ctrl+C at the prompt, Ctrl+D, or a closed stdin
			fmt.Fprintln(e.out)
			return nil
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			if !cs.handleSlashCommand(ctx, line) {
				return nil
			}
			continue
		}

		if err := cs.send(ctx, line); err != nil {
			cs.reportSendError(err)
		}
	}
}

func (cs *chatSession) reportSendError(err error) {
	switch {
	case errors.Is(err, context.Canceled):
		// already reported by the signal handler
	case errors.Is(err, session.ErrInFlight):
		fmt.Fprintln(cs.out, WarningStyle.Render("A response is still streaming."))
	case errors.Is(err, session.ErrNoConversation):
		fmt.Fprintln(cs.out, WarningStyle.Render("No conversation is open. Use /open <agent-id>."))
	default:
		fmt.Fprintf(cs.out, "%s %v\n", ErrorStyle.Render("[Error]"), err)
	}
}

// openCaptureStore opens the capture journal, or returns nil after logging.
func openCaptureStore(e *env) *capture.Store {
	path, err := e.cfg.CapturePath()
	if err == nil {
		var store *capture.Store
		if store, err = capture.Open(path); err == nil {
			return store
		}
	}
	e.logger.Printf("CAPTURE_ERROR | err=%v", err)
	return nil
}

// startConfigWatcher passes display preference edits to apply while chatting.
func startConfigWatcher(e *env, apply func(transcript.Preferences)) *config.Watcher {
	path, err := config.ConfigPathTOML()
	if err != nil || config.EnsureConfigDir() != nil {
		return nil
	}
	w, err := config.NewWatcher(path, config.DefaultDebounce, func(cfg *config.Config) {
		apply(cfg.Preferences())
	}, e.logger)
	if err != nil {
		e.logger.Printf("CONFIG_WATCH_ERROR | path=%s err=%v", path, err)
		return nil
	}
	if err := w.Watch(); err != nil {
		e.logger.Printf("CONFIG_WATCH_ERROR | path=%s err=%v", path, err)
		w.Close()
		return nil
	}
	return w
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

const chatHelp = `Commands:
  /thoughts on|off    Show or hide internal reasoning
  /tools on|off       Show or hide tool activity
  /open <agent-id>    Switch conversation
  /reload             Re-fetch history
  /history            Print the transcript
  /export FMT [PATH]  Export the transcript (md, html, json)
  /status             Show conversation status
  /quit               Exit`

// handleSlashCommand runs a slash command. It returns false to exit.
func (cs *chatSession) handleSlashCommand(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	cmd, rest := strings.ToLower(fields[0]), fields[1:]
	arg := ""
	if len(rest) > 0 {
		arg = strings.ToLower(rest[0])
	}

	switch cmd {
	case "/quit", "/q", "/exit":
		return false

	case "/help", "/h", "/?":
		fmt.Fprintln(cs.out, chatHelp)

	case "/thoughts", "/reasoning":
		prefs := cs.mgr.Preferences()
		if on, ok := parseToggle(arg, prefs.ShowReasoning); ok {
			prefs.ShowReasoning = on
			cs.mgr.SetPreferences(prefs)
			fmt.Fprintf(cs.out, "Internal reasoning %s\n", onOff(on))
		} else {
			fmt.Fprintln(cs.out, "Usage: /thoughts on|off")
		}

	case "/tools":
		prefs := cs.mgr.Preferences()
		if on, ok := parseToggle(arg, prefs.ShowToolActivity); ok {
			prefs.ShowToolActivity = on
			cs.mgr.SetPreferences(prefs)
			fmt.Fprintf(cs.out, "Tool activity %s\n", onOff(on))
		} else {
			fmt.Fprintln(cs.out, "Usage: /tools on|off")
		}

	case "/open":
		if len(rest) == 0 {
			fmt.Fprintln(cs.out, "Usage: /open <agent-id>")
			break
		}
		cs.open(ctx, rest[0])

	case "/reload":
		n, err := cs.mgr.Reload(ctx)
		if err != nil {
			cs.reportSendError(err)
			break
		}
		fmt.Fprintf(cs.out, "Reloaded %d messages\n", n)
		cs.printView()

	case "/history":
		cs.printView()

	case "/export":
		if len(rest) == 0 {
			fmt.Fprintln(cs.out, "Usage: /export md|html|json [path]")
			break
		}
		agentID := cs.mgr.Active()
		if agentID == "" {
			fmt.Fprintln(cs.out, "No conversation is open.")
			break
		}
		path := ""
		if len(rest) > 1 {
			path = rest[1]
		}
		view := cs.mgr.View()
		written, err := cs.env.exportView(agentID, view, arg, path)
		if err != nil {
			fmt.Fprintf(cs.out, "%s %v\n", ErrorStyle.Render("Export failed:"), err)
			break
		}
		fmt.Fprintf(cs.out, "%s Exported %d messages to %s\n", SuccessStyle.Render("✓"), len(view), written)

	case "/status":
		st := cs.mgr.Status()
		if st.AgentID == "" {
			fmt.Fprintln(cs.out, "No conversation is open.")
			break
		}
		prefs := cs.mgr.Preferences()
		fmt.Fprintf(cs.out, "%s%s\n", RenderLabel("Agent"), st.AgentID)
		fmt.Fprintf(cs.out, "%s%d\n", RenderLabel("Messages"), st.Messages)
		fmt.Fprintf(cs.out, "%s%s\n", RenderLabel("State"), st.State)
		fmt.Fprintf(cs.out, "%s%s\n", RenderLabel("Reasoning"), onOff(prefs.ShowReasoning))
		fmt.Fprintf(cs.out, "%s%s\n", RenderLabel("Tools"), onOff(prefs.ShowToolActivity))

	default:
		fmt.Fprintf(cs.out, "Unknown command %s. Type /help for commands.\n", cmd)
	}
	return true
}

// parseToggle reads on/off; an empty argument flips current.
func parseToggle(arg string, current bool) (bool, bool) {
	switch arg {
	case "":
		return !current, true
	case "on", "true", "yes", "show":
		return true, true
	case "off", "false", "no", "hide":
		return false, true
	default:
		return current, false
	}
}

func onOff(b bool) string {
	if b {
		return "shown"
	}
	return "hidden"
}
