// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// isolate points the config dir at a temp dir and clears env overrides.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("AGENTVIEW_HOME", dir)
	for _, key := range []string{
		"AGENTVIEW_URL", "AGENTVIEW_PAGE_SIZE", "AGENTVIEW_SHOW_REASONING",
		"AGENTVIEW_SHOW_TOOLS", "AGENTVIEW_CAPTURE",
	} {
		t.Setenv(key, "")
	}
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	require.Equal(t, "http://localhost:8283", cfg.Server.BaseURL)
	require.Equal(t, 1000, cfg.History.PageSize)
	require.Equal(t, "send_message", cfg.Stream.DeliveryCall)
	require.Equal(t, "message", cfg.Stream.DeliveryArg)
	require.True(t, cfg.Display.ShowReasoning)
	require.True(t, cfg.Display.ShowToolActivity)
}

func TestLoad_NoFileReturnsDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, Default().Server, cfg.Server)
}

func TestLoad_PartialTOMLKeepsDefaults(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "config.toml"), `
[server]
base_url = "http://agents.internal:9000/"

[display]
show_reasoning = false
`)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "http://agents.internal:9000", cfg.Server.BaseURL)
	require.False(t, cfg.Display.ShowReasoning)
	require.True(t, cfg.Display.ShowToolActivity)
	require.Equal(t, 30, cfg.Server.TimeoutSecs)
}

func TestLoad_JSONFallback(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "config.json"), `{"history": {"page_size": 50}}`)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 50, cfg.History.PageSize)
}

func TestLoad_TOMLPreferredOverJSON(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "config.toml"), "[history]\npage_size = 10\n")
	writeFile(t, filepath.Join(dir, "config.json"), `{"history": {"page_size": 50}}`)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 10, cfg.History.PageSize)
}

func TestLoad_InvalidFileReturnsDefaultsAndError(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "config.toml"), "[history]\npage_size = 0x\n")

	cfg, err := Load()
	require.Error(t, err)
	require.NotNil(t, cfg)
	require.Equal(t, Default().History, cfg.History)
}

func TestLoadFromPath_ValidationFailure(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, "[history]\npage_size = 20000\n")

	_, err := LoadFromPath(path)
	require.Error(t, err)

	var verrs ValidateErrors
	require.True(t, errors.As(err, &verrs))
	require.Len(t, verrs, 1)
	require.Equal(t, "history.page_size", verrs[0].Field)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*Config)
		field string
	}{
		{"bad scheme", func(c *Config) { c.Server.BaseURL = "ftp://host" }, "server.base_url"},
		{"missing host", func(c *Config) { c.Server.BaseURL = "http://" }, "server.base_url"},
		{"timeout", func(c *Config) { c.Server.TimeoutSecs = 0 }, "server.timeout_secs"},
		{"rate", func(c *Config) { c.Server.RequestsPerSecond = -1 }, "server.requests_per_second"},
		{"retries", func(c *Config) { c.Server.MaxRetries = 11 }, "server.max_retries"},
		{"delivery call", func(c *Config) { c.Stream.DeliveryCall = " " }, "stream.delivery_call"},
		{"delivery arg", func(c *Config) { c.Stream.DeliveryArg = "" }, "stream.delivery_arg"},
		{"mode", func(c *Config) { c.Stream.Mode = "batched" }, "stream.mode"},
		{"page size", func(c *Config) { c.History.PageSize = 0 }, "history.page_size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.edit(cfg)

			err := cfg.Validate()
			var verrs ValidateErrors
			require.True(t, errors.As(err, &verrs), "Validate() = %v", err)
			require.Equal(t, tt.field, verrs[0].Field)
		})
	}
}

func TestValidateErrors_Message(t *testing.T) {
	errs := ValidateErrors{
		{Field: "a", Message: "bad"},
		{Field: "b", Message: "worse"},
	}
	require.Equal(t, "a: bad; b: worse", errs.Error())
	require.Equal(t, "no validation errors", ValidateErrors{}.Error())
}

func TestApplyEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("AGENTVIEW_URL", "https://agents.example.com")
	t.Setenv("AGENTVIEW_PAGE_SIZE", "25")
	t.Setenv("AGENTVIEW_SHOW_REASONING", "false")
	t.Setenv("AGENTVIEW_SHOW_TOOLS", "0")
	t.Setenv("AGENTVIEW_CAPTURE", "yes")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "https://agents.example.com", cfg.Server.BaseURL)
	require.Equal(t, 25, cfg.History.PageSize)
	require.False(t, cfg.Display.ShowReasoning)
	require.False(t, cfg.Display.ShowToolActivity)
	require.True(t, cfg.Capture.Enabled)
}

func TestApplyEnvOverrides_IgnoresBadNumber(t *testing.T) {
	isolate(t)
	t.Setenv("AGENTVIEW_PAGE_SIZE", "many")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 1000, cfg.History.PageSize)
}

func TestSaveTOML_RoundTripAndPermissions(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg := Default()
	cfg.Display.ShowToolActivity = false
	cfg.Stream.Mode = "cumulative"
	require.NoError(t, SaveTOML(cfg, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "# agentview configuration file")

	if info, err := os.Stat(path); err == nil && os.PathSeparator == '/' {
		require.Equal(t, os.FileMode(0600), info.Mode().Perm())
	}

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	require.False(t, loaded.Display.ShowToolActivity)
	require.Equal(t, "cumulative", loaded.Stream.Mode)
}

func TestSaveJSON_RoundTrip(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.json")

	cfg := Default()
	cfg.History.PageSize = 77
	require.NoError(t, SaveJSON(cfg, path))

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	require.Equal(t, 77, loaded.History.PageSize)
}

func TestSave_UsesConfigDir(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, Save(Default()))

	_, err := os.Stat(filepath.Join(dir, "config.toml"))
	require.NoError(t, err)
}

func TestGetSet(t *testing.T) {
	cfg := Default()

	v, err := cfg.Get("server.base_url")
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8283", v)

	require.NoError(t, cfg.Set("display.show_reasoning", "false"))
	require.False(t, cfg.Display.ShowReasoning)

	require.NoError(t, cfg.Set("history.page_size", "42"))
	require.Equal(t, 42, cfg.History.PageSize)

	require.NoError(t, cfg.Set("server.requests_per_second", "2.5"))
	require.Equal(t, 2.5, cfg.Server.RequestsPerSecond)

	require.Error(t, cfg.Set("history.page_size", "lots"))
	require.Error(t, cfg.Set("server.nope", "x"))
	require.Error(t, cfg.Set("server", "x"))
	_, err = cfg.Get("")
	require.Error(t, err)
	_, err = cfg.Get("version.extra")
	require.Error(t, err)
}

func TestKeys(t *testing.T) {
	keys := Keys()
	require.Contains(t, keys, "server.base_url")
	require.Contains(t, keys, "stream.delivery_call")
	require.Contains(t, keys, "display.show_tool_activity")
	require.Contains(t, keys, "capture.path")

	cfg := Default()
	for _, k := range keys {
		_, err := cfg.Get(k)
		require.NoError(t, err, k)
	}
}

func TestDerivedSettings(t *testing.T) {
	isolate(t)
	cfg := Default()
	cfg.Display.ShowReasoning = false
	cfg.Stream.DeliveryCall = "reply"
	cfg.Stream.DeliveryArg = "text"

	require.False(t, cfg.Preferences().ShowReasoning)
	require.True(t, cfg.Preferences().ShowToolActivity)
	require.Equal(t, "reply", cfg.Delivery().Call)
	require.Equal(t, "text", cfg.Delivery().Arg)

	cc := cfg.ClientConfig()
	require.Equal(t, cfg.Server.BaseURL, cc.BaseURL)
	require.Equal(t, 30*time.Second, cc.Timeout)
	require.True(t, cc.StreamTokens)

	path, err := cfg.CapturePath()
	require.NoError(t, err)
	require.Equal(t, "captures.db", filepath.Base(path))

	cfg.Capture.Path = "/tmp/elsewhere.db"
	path, err = cfg.CapturePath()
	require.NoError(t, err)
	require.Equal(t, "/tmp/elsewhere.db", path)
}

func TestString_IsTOML(t *testing.T) {
	s := Default().String()
	require.Contains(t, s, "[server]")
	require.Contains(t, s, `base_url = "http://localhost:8283"`)
}
