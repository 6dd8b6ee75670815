// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Exit codes and error display for CLI commands.
//
// Commands always return errors; main decides how to display them and which
// exit code to use.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/jeranaias/agentview/internal/capture"
	"github.com/jeranaias/agentview/internal/config"
	"github.com/jeranaias/agentview/internal/letta"
	"github.com/jeranaias/agentview/internal/session"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	ExitSuccess       = 0
	ExitGeneralError  = 1
	ExitUsageError    = 2
	ExitConfigError   = 3
	ExitNetworkError  = 5
	ExitNotFoundError = 7
	ExitTimeoutError  = 8
)

// UsageError reports a missing or malformed command argument.
type UsageError struct {
	Usage string
}

func (e *UsageError) Error() string {
	return "usage: agentview " + e.Usage
}

// ExitCode maps an error to the process exit code.
func ExitCode(err error) int {
	var usage *UsageError
	var validation config.ValidateErrors
	var field config.ValidationError

	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &usage):
		return ExitUsageError
	case errors.As(err, &validation), errors.As(err, &field):
		return ExitConfigError
	case letta.IsTimeout(err):
		return ExitTimeoutError
	case letta.IsConnection(err):
		return ExitNetworkError
	case letta.IsNotFound(err), errors.Is(err, capture.ErrNotFound), errors.Is(err, session.ErrNoConversation):
		return ExitNotFoundError
	default:
		return ExitGeneralError
	}
}

// DisplayError prints err to w, as a JSON object when asJSON is set.
func DisplayError(w io.Writer, err error, asJSON bool) {
	if asJSON {
		b, _ := json.Marshal(struct {
			Error string `json:"error"`
			Code  int    `json:"code"`
		}{err.Error(), ExitCode(err)})
		fmt.Fprintln(w, string(b))
		return
	}
	fmt.Fprintf(w, "%s %v\n", ErrorStyle.Render("Error:"), err)

	var usage *UsageError
	if errors.As(err, &usage) {
		fmt.Fprintln(w, DimStyle.Render("Run 'agentview help' for usage."))
	}
}
