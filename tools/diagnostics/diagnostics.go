/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package diagnostics provides the tool the model records findings with.
package diagnostics

import (
	"context"
	"fmt"

	"chainguard.dev/webster/agents/toolcall"
	"chainguard.dev/webster/agents/toolcall/params"
	"chainguard.dev/webster/store"
	"github.com/chainguard-dev/clog"
)

type submitArgs struct {
	ShortDesc string `json:"short_desc" jsonschema:"required,description=A short human-readable summary of the diagnostic."`
	FullDesc  string `json:"full_desc" jsonschema:"required,description=A full description with all context and information required to address the issue or suggestion."`
	Severity  string `json:"severity" jsonschema:"enum=error,enum=warning,enum=info,description=error (broken or critical) or warning (should fix) or info (suggestion or minor)."`
}

// Tool returns submit_diagnostic, writing to entryID through d.
func Tool(d store.Diagnostics, entryID int64) toolcall.Tool {
	return toolcall.Typed("submit_diagnostic",
		"Submit a diagnostic about an issue or suggestion found about the website. Returns the response from the database regarding the submission.",
		submitArgs{Severity: string(store.SeverityWarning)},
		func(ctx context.Context, a submitArgs) string {
			log := clog.FromContext(ctx).With("entry_id", entryID, "severity", a.Severity)

			severity := store.Severity(a.Severity)
			if !severity.Valid() {
				return params.Error("failed to create diagnostic: severity must be one of error, warning or info, got %q", a.Severity)
			}
			id, err := d.CreateDiagnostic(ctx, entryID, a.ShortDesc, a.FullDesc, severity)
			if err != nil {
				log.With("error", err).Error("Failed to create diagnostic")
				return params.Error("failed to create diagnostic: %v", err)
			}
			log.With("diagnostic_id", id).Info("Diagnostic created")
			return fmt.Sprintf("Diagnostic created successfully with id=%d", id)
		})
}
