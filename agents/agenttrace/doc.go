/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

/*
Package agenttrace records agent runs as traces backed by OpenTelemetry spans.

A Trace covers one run of the agent graph; each tool the model invokes is a
ToolCall beneath it. Completed traces are handed to the Tracer found on the
context, which defaults to logging them through clog.

	ctx = agenttrace.WithExecutionContext(ctx, agenttrace.ExecutionContext{
		EntryID:  7,
		RepoName: "acme/site",
		Mode:     "analyze",
	})

	trace := agenttrace.StartTrace(ctx, "Check the landing page")
	tc := trace.StartToolCall("call_1", "open_page", map[string]any{"url": "https://acme.dev"})
	tc.Complete("Opened page.", nil)
	trace.Complete("The page looks healthy.", nil)
*/
package agenttrace
