// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for agentview.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - ServerConfig: Agent server connection and retry policy
//   - StreamConfig: Streaming flags, delivery call and delivery mode
//   - DisplayConfig: Reasoning and tool activity visibility
//   - Watcher: Reloads the config file when it changes
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (AGENTVIEW_*)
//   - ~/.agentview/config.toml
//   - ~/.agentview/config.json
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	client := letta.NewClientWithConfig(cfg.ClientConfig())
package config
