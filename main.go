// agentview - terminal client for stateful conversational agents.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"os"

	"github.com/jeranaias/agentview/internal/cli"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse(os.Args[1:])

	var err error
	switch cmd {
	case cli.CmdAgents:
		err = cli.HandleAgents(args)
	case cli.CmdHistory:
		err = cli.HandleHistory(args)
	case cli.CmdChat:
		err = cli.HandleChat(args)
	case cli.CmdTUI:
		err = cli.HandleTUI(args)
	case cli.CmdReplay:
		err = cli.HandleReplay(args)
	case cli.CmdCaptures:
		err = cli.HandleCaptures(args)
	case cli.CmdConfig:
		err = cli.HandleConfig(args)
	case cli.CmdVersion:
		cli.PrintVersion(os.Stdout)
	default:
		if args.Unknown != "" {
			fmt.Fprintf(os.Stderr, "%s unknown command %q\n", cli.ErrorStyle.Render("Error:"), args.Unknown)
			if s := cli.SuggestCommand(args.Unknown); s != "" {
				fmt.Fprintf(os.Stderr, "Did you mean '%s'?\n", s)
			}
			os.Exit(cli.ExitUsageError)
		}
		cli.PrintUsage(os.Stdout)
	}

	if err != nil {
		cli.DisplayError(os.Stderr, err, args.JSON)
		os.Exit(cli.ExitCode(err))
	}
}
