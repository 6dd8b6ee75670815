// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing and command dispatch for agentview.
package cli

import (
	"fmt"
	"io"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdHelp Command = iota
	CmdAgents
	CmdHistory
	CmdChat
	CmdTUI
	CmdReplay
	CmdCaptures
	CmdConfig
	CmdVersion
)

// String returns the command name.
func (c Command) String() string {
	switch c {
	case CmdAgents:
		return "agents"
	case CmdHistory:
		return "history"
	case CmdChat:
		return "chat"
	case CmdTUI:
		return "tui"
	case CmdReplay:
		return "replay"
	case CmdCaptures:
		return "captures"
	case CmdConfig:
		return "config"
	case CmdVersion:
		return "version"
	default:
		return "help"
	}
}

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Verbose bool
	Quiet   bool
	JSON    bool
	URL     string // overrides server.base_url

	// Unknown is set when the command name was not recognized
	Unknown string

	// Command-specific arguments (flags and positionals after the command)
	Parser *ArgParser
}

const usageText = `agentview - terminal client for stateful conversational agents

Usage:
  agentview agents [--search TEXT]       List agents
  agentview history <agent-id>           Print a conversation's transcript
  agentview chat <agent-id>              Interactive chat
  agentview tui [agent-id]               Full-screen chat (same as chat --tui)
  agentview captures [list|show|delete]  Inspect recorded streams
  agentview replay <stream-id>           Rebuild a transcript from a recorded stream
  agentview config [show|path|get|set]   Configuration
  agentview version                      Show version

History and chat flags:
  --hide-reasoning    Hide the agent's internal reasoning
  --hide-tools        Hide tool calls and tool results
  --plain             Do not render markdown

History export:
  agentview history <agent-id> --export md|html|json [--output PATH]

Captures:
  agentview captures list [--limit N]    Recent streams, newest first
  agentview captures show <id>           Stream details and raw chunks
  agentview captures delete <id>         Delete a stream
  Stream ids may be abbreviated to any unique prefix.

Replay flags:
  --raw               Print the raw chunks instead of the transcript

Chat commands:
  /thoughts on|off    Show or hide internal reasoning
  /tools on|off       Show or hide tool activity
  /open <agent-id>    Switch conversation
  /reload             Re-fetch history
  /history            Print the transcript
  /export FMT [PATH]  Export the transcript (md, html, json)
  /status             Show conversation status
  /help               Show chat commands
  /quit               Exit

Full-screen keys:
  ctrl+r thoughts, ctrl+t tools, ctrl+c interrupt, pgup/pgdown scroll, esc quit

Global flags:
  -v, --verbose       Log engine events to stderr
  -q, --quiet         Minimal output
  --json              JSON output (agents, history, captures)
  --url URL           Override the server URL

Environment:
  AGENTVIEW_URL, AGENTVIEW_PAGE_SIZE, AGENTVIEW_SHOW_REASONING,
  AGENTVIEW_SHOW_TOOLS, AGENTVIEW_CAPTURE, AGENTVIEW_HOME

Version: %s
`

// PrintUsage prints the usage text.
func PrintUsage(w io.Writer) {
	fmt.Fprintf(w, usageText, Version)
}

// PrintVersion prints version information.
func PrintVersion(w io.Writer) {
	fmt.Fprintf(w, "agentview version %s\n", Version)
	fmt.Fprintf(w, "  Git commit: %s\n", GitCommit)
	fmt.Fprintf(w, "  Build date: %s\n", BuildDate)
}

// Parse parses command-line arguments (without the program name).
// Global flags may appear before or after the command.
func Parse(argv []string) (Command, Args) {
	var args Args
	var rest []string

	for i := 0; i < len(argv); i++ {
		switch a := argv[i]; {
		case a == "-v" || a == "--verbose":
			args.Verbose = true
		case a == "-q" || a == "--quiet":
			args.Quiet = true
		case a == "--json":
			args.JSON = true
		case a == "--url" && i+1 < len(argv):
			args.URL = argv[i+1]
			i++
		case strings.HasPrefix(a, "--url="):
			args.URL = strings.TrimPrefix(a, "--url=")
		default:
			rest = append(rest, a)
		}
	}

	if len(rest) == 0 {
		args.Parser = NewArgParser(nil)
		return CmdHelp, args
	}

	args.Parser = NewArgParser(rest[1:])

	switch strings.ToLower(rest[0]) {
	case "agents", "ls":
		return CmdAgents, args
	case "history", "log":
		return CmdHistory, args
	case "chat":
		if args.Parser.BoolFlag("tui") {
			return CmdTUI, args
		}
		return CmdChat, args
	case "tui":
		return CmdTUI, args
	case "replay":
		return CmdReplay, args
	case "captures", "capture":
		return CmdCaptures, args
	case "config":
		return CmdConfig, args
	case "version", "--version":
		return CmdVersion, args
	case "help", "--help", "-h":
		return CmdHelp, args
	default:
		args.Unknown = rest[0]
		return CmdHelp, args
	}
}
