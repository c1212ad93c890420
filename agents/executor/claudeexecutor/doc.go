/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package claudeexecutor adapts the Anthropic Messages API to agentgraph.Reasoner.
//
//	client := anthropic.NewClient(option.WithAPIKey(key))
//	reasoner, err := claudeexecutor.New(client,
//	    claudeexecutor.WithModel("claude-sonnet-4-5"),
//	    claudeexecutor.WithMaxTokens(16000),
//	)
//
// Tool results from the history are sent as tool_result blocks in user
// turns, and consecutive turns with the same role are merged.
package claudeexecutor
