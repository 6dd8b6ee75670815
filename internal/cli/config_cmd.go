// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"strings"

	"github.com/jeranaias/agentview/internal/config"
)

// HandleConfig handles "agentview config [show|path|get|set|keys]".
func HandleConfig(args Args) error {
	e, err := newEnv(args)
	if err != nil {
		return err
	}
	return runConfig(e)
}

func runConfig(e *env) error {
	p := e.args.Parser
	switch p.Subcommand() {
	case "", "show":
		if e.args.JSON {
			return outputJSON(e.out, e.cfg)
		}
		fmt.Fprint(e.out, e.cfg.String())
		return nil

	case "path":
		path, err := config.ConfigPathTOML()
		if err != nil {
			return err
		}
		fmt.Fprintln(e.out, path)
		return nil

	case "keys":
		fmt.Fprintln(e.out, strings.Join(config.Keys(), "\n"))
		return nil

	case "get":
		key, err := e.requireArg(1, "config get <key>")
		if err != nil {
			return err
		}
		v, err := e.cfg.Get(key)
		if err != nil {
			return err
		}
		fmt.Fprintln(e.out, v)
		return nil

	case "set":
		key, err := e.requireArg(1, "config set <key> <value>")
		if err != nil {
			return err
		}
		if p.NArgs() < 3 {
			return fmt.Errorf("usage: agentview config set <key> <value>")
		}
		if err := e.cfg.Set(key, p.Positional(2)); err != nil {
			return err
		}
		if err := e.cfg.Validate(); err != nil {
			return err
		}
		if err := config.Save(e.cfg); err != nil {
			return err
		}
		if !e.args.Quiet {
			fmt.Fprintf(e.out, "%s %s = %s\n", SuccessStyle.Render("Set"), key, p.Positional(2))
		}
		return nil

	default:
		return fmt.Errorf("unknown config subcommand %q (show, path, keys, get, set)", p.Subcommand())
	}
}
