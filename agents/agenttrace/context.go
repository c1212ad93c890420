/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package agenttrace

import (
	"context"
)

// ExecutionContext describes which website entry an agent run belongs to.
type ExecutionContext struct {
	EntryID    int64  `json:"entry_id,omitempty"`
	WebsiteURL string `json:"website_url,omitempty"`
	RepoName   string `json:"repo_name,omitempty"` // "owner/repo"
	Mode       string `json:"mode,omitempty"`      // "analyze" or "fix"
	Trigger    string `json:"trigger,omitempty"`   // "chat" or "verification"
}

type contextKey string

const executionContextKey contextKey = "execution_context"

// WithExecutionContext adds execution context to the Go context.
func WithExecutionContext(ctx context.Context, execCtx ExecutionContext) context.Context {
	return context.WithValue(ctx, executionContextKey, execCtx)
}

// GetExecutionContext retrieves execution context from the Go context.
func GetExecutionContext(ctx context.Context) ExecutionContext {
	if execCtx, ok := ctx.Value(executionContextKey).(ExecutionContext); ok {
		return execCtx
	}
	return ExecutionContext{}
}
