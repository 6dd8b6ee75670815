// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// agents_cmd.go - Agent listing and transcript commands.
package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/jeranaias/agentview/internal/history"
	"github.com/jeranaias/agentview/internal/model"
	"github.com/jeranaias/agentview/internal/transcript"
	"github.com/jeranaias/agentview/internal/util"
)

// agentLister is the part of the transport the agents command needs.
type agentLister interface {
	FetchAgents(ctx context.Context) ([]model.Agent, error)
}

// HandleAgents handles "agentview agents [--search TEXT]".
func HandleAgents(args Args) error {
	e, err := newEnv(args)
	if err != nil {
		return err
	}
	return runAgents(context.Background(), e, e.client)
}

// runAgents lists agents. A fetch failure is logged and shown as an empty list.
func runAgents(ctx context.Context, e *env, lister agentLister) error {
	agents, err := lister.FetchAgents(ctx)
	if err != nil {
		e.logger.Printf("AGENTS_ERROR | err=%v", err)
		if !e.args.Quiet {
			fmt.Fprintf(e.errOut, "%s could not fetch agents: %v\n", WarningStyle.Render("Warning:"), err)
		}
		agents = nil
	}
	agents = model.FilterAgents(agents, e.args.Parser.Flag("search"))

	if e.args.JSON {
		if agents == nil {
			agents = []model.Agent{}
		}
		return outputJSON(e.out, agents)
	}

	if len(agents) == 0 {
		fmt.Fprintln(e.out, DimStyle.Render("No agents."))
		return nil
	}

	nameWidth := 24
	descWidth := GetTerminalWidth() - nameWidth - 44
	if descWidth < 10 {
		descWidth = 10
	}
	for _, a := range agents {
		created := ""
		if !a.CreatedAt.IsZero() {
			created = a.CreatedAt.Local().Format(time.DateOnly)
		}
		fmt.Fprintf(e.out, "%s  %s  %s  %s\n",
			a.ID,
			TitleStyle.Render(util.PadRight(util.TruncateWidth(a.Name, nameWidth), nameWidth)),
			DimStyle.Render(util.PadRight(created, 10)),
			util.TruncateWidth(util.SingleLine(a.Description), descWidth))
	}
	return nil
}

// HandleHistory handles "agentview history <agent-id>".
func HandleHistory(args Args) error {
	e, err := newEnv(args)
	if err != nil {
		return err
	}
	return runHistory(context.Background(), e, e.client)
}

// runHistory loads a conversation and prints or exports its filtered
// transcript.
func runHistory(ctx context.Context, e *env, fetcher history.Fetcher) error {
	agentID, err := e.requireArg(0, "history <agent-id>")
	if err != nil {
		return err
	}

	loader := history.NewLoader(fetcher,
		history.WithPageSize(e.cfg.History.PageSize),
		history.WithDelivery(e.cfg.Delivery()),
		history.WithLogger(e.logger),
	)
	store := transcript.NewStore()
	if _, err := loader.Load(ctx, store, agentID); err != nil {
		return fmt.Errorf("failed to load history for %s: %w", agentID, err)
	}

	view := transcript.View(store, e.preferences())
	if format := e.args.Parser.Flag("export"); format != "" {
		path, err := e.exportView(agentID, view, format, e.args.Parser.Flag("output"))
		if err != nil {
			return fmt.Errorf("failed to export %s: %w", agentID, err)
		}
		printExported(e, path, len(view))
		return nil
	}
	if e.args.JSON {
		return outputJSON(e.out, toJSONMessages(view, e.cfg.Delivery()))
	}
	if len(view) == 0 {
		fmt.Fprintln(e.out, DimStyle.Render("No messages."))
		return nil
	}
	e.renderer().RenderTranscript(e.out, view)
	return nil
}
