/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package openaiexecutor adapts the OpenAI chat completions API to agentgraph.Reasoner.
//
//	client := openai.NewClient(option.WithAPIKey(key))
//	reasoner, err := openaiexecutor.New(client, openaiexecutor.WithModel("gpt-5.2"))
package openaiexecutor
