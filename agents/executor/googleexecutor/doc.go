/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package googleexecutor adapts the Gemini API to agentgraph.Reasoner.
//
//	client, err := genai.NewClient(ctx, &genai.ClientConfig{
//	    APIKey:  key,
//	    Backend: genai.BackendGeminiAPI,
//	})
//	reasoner, err := googleexecutor.New(client, googleexecutor.WithModel("gemini-2.5-pro"))
//
// A response that ends with a malformed function call is retried once with a
// reminder of the available function names.
package googleexecutor
