// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"

	"github.com/jeranaias/agentview/internal/export"
	"github.com/jeranaias/agentview/internal/model"
)

// exportView writes a filtered view to path (or a generated name) in the
// given format and returns the written path.
func (e *env) exportView(agentID string, view []model.Message, format, path string) (string, error) {
	exp, err := export.New(format, export.DefaultOptions())
	if err != nil {
		return "", err
	}

	written, err := export.WriteFile(&export.Transcript{
		AgentID:  agentID,
		Messages: view,
		Delivery: e.cfg.Delivery(),
	}, exp, path)
	if err != nil {
		return "", err
	}

	e.logger.Printf("TRANSCRIPT_EXPORTED | agent=%s format=%s messages=%d path=%s", agentID, format, len(view), written)
	return written, nil
}

// printExported reports an export on the normal output.
func printExported(e *env, path string, n int) {
	if e.args.Quiet {
		return
	}
	fmt.Fprintf(e.out, "%s Exported %d messages to %s\n", SuccessStyle.Render("✓"), n, path)
}
