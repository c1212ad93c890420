/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"context"
	"fmt"

	"chainguard.dev/webster/agents/agentgraph"
	"chainguard.dev/webster/agents/executor/claudeexecutor"
	"chainguard.dev/webster/agents/executor/googleexecutor"
	"chainguard.dev/webster/agents/executor/openaiexecutor"
	"github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	"github.com/openai/openai-go"
	openaioption "github.com/openai/openai-go/option"
	"google.golang.org/genai"
)

// model selects the reasoning engine.
type model struct {
	Provider        string `env:"MODEL_PROVIDER,default=openai"`
	Name            string `env:"MODEL,default=gpt-5.2"`
	OpenAIAPIKey    string `env:"OPENAI_API_KEY"`
	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY"`
	GeminiAPIKey    string `env:"GEMINI_API_KEY"`
}

func (m model) reasoner(ctx context.Context) (agentgraph.Reasoner, error) {
	switch m.Provider {
	case "openai":
		if m.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for provider %q", m.Provider)
		}
		return openaiexecutor.New(openai.NewClient(openaioption.WithAPIKey(m.OpenAIAPIKey)),
			openaiexecutor.WithModel(m.Name))
	case "anthropic":
		if m.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY is required for provider %q", m.Provider)
		}
		return claudeexecutor.New(anthropic.NewClient(anthropicoption.WithAPIKey(m.AnthropicAPIKey)),
			claudeexecutor.WithModel(m.Name))
	case "google":
		if m.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required for provider %q", m.Provider)
		}
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  m.GeminiAPIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("creating genai client: %w", err)
		}
		return googleexecutor.New(client, googleexecutor.WithModel(m.Name))
	}
	return nil, fmt.Errorf("unknown MODEL_PROVIDER %q", m.Provider)
}
