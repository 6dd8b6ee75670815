// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/jeranaias/agentview/internal/config"
	"github.com/jeranaias/agentview/internal/letta"
	"github.com/jeranaias/agentview/internal/transcript"
)

// env is the state shared by every command.
type env struct {
	cfg    *config.Config
	logger *log.Logger
	client *letta.Client
	args   Args
	out    io.Writer
	errOut io.Writer
}

// newEnv loads configuration and builds the transport.
func newEnv(args Args) (*env, error) {
	cfg, err := config.Load()
	if cfg == nil {
		return nil, err
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v (using defaults)\n", WarningStyle.Render("Warning:"), err)
	}
	if args.URL != "" {
		cfg.Server.BaseURL = args.URL
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid --url: %w", err)
		}
	}

	logger := newLogger(args.Verbose)
	cc := cfg.ClientConfig()
	cc.Logger = logger

	return &env{
		cfg:    cfg,
		logger: logger,
		client: letta.NewClientWithConfig(cc),
		args:   args,
		out:    os.Stdout,
		errOut: os.Stderr,
	}, nil
}

// newLogger returns the engine logger: stderr when verbose, silent otherwise.
func newLogger(verbose bool) *log.Logger {
	if verbose {
		return log.New(os.Stderr, "", log.LstdFlags)
	}
	return log.New(io.Discard, "", 0)
}

// preferences returns the configured preferences with --hide-* applied.
func (e *env) preferences() transcript.Preferences {
	prefs := e.cfg.Preferences()
	if e.args.Parser.BoolFlag("hide-reasoning") {
		prefs.ShowReasoning = false
	}
	if e.args.Parser.BoolFlag("hide-tools") {
		prefs.ShowToolActivity = false
	}
	return prefs
}

// renderer builds a renderer honoring --plain and the markdown setting.
func (e *env) renderer() *Renderer {
	markdown := e.cfg.Display.Markdown && !e.args.Parser.BoolFlag("plain") && IsStdoutTTY()
	return NewRenderer(e.cfg.Delivery(), markdown, GetTerminalWidth())
}

// requireArg returns positional i or a usage error.
func (e *env) requireArg(i int, usage string) (string, error) {
	if v := e.args.Parser.Positional(i); v != "" {
		return v, nil
	}
	return "", &UsageError{Usage: usage}
}
