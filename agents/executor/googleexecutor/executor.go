/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package googleexecutor

import (
	"context"
	"errors"
	"fmt"

	"chainguard.dev/webster/agents/agentgraph"
	"chainguard.dev/webster/agents/agenttrace"
	"chainguard.dev/webster/agents/executor/retry"
	"chainguard.dev/webster/agents/metrics"
	"chainguard.dev/webster/agents/toolcall"
	"github.com/chainguard-dev/clog"
	"google.golang.org/genai"
)

// Executor is an agentgraph.Reasoner backed by the Gemini API.
type Executor struct {
	client          *genai.Client
	model           string
	temperature     float32
	maxOutputTokens int32
	thinkingBudget  *int32 // nil = disabled
	genaiMetrics    *metrics.GenAI
	retryConfig     retry.RetryConfig
}

var _ agentgraph.Reasoner = (*Executor)(nil)

// New creates a new Gemini executor with the given configuration.
func New(client *genai.Client, options ...Option) (*Executor, error) {
	if client == nil {
		return nil, errors.New("client is required")
	}
	e := &Executor{
		client:          client,
		model:           "gemini-2.5-flash",
		temperature:     0.1,
		maxOutputTokens: 8192,
		genaiMetrics:    metrics.NewGenAI(metrics.MeterName),
		retryConfig:     retry.DefaultRetryConfig(),
	}
	for _, opt := range options {
		if err := opt(e); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}
	return e, nil
}

// ModelName implements agentgraph.ModelNamer.
func (e *Executor) ModelName() string { return e.model }

// Reason implements agentgraph.Reasoner.
func (e *Executor) Reason(ctx context.Context, system string, history []agentgraph.Message, tools []toolcall.Definition) (agentgraph.Message, error) {
	config := &genai.GenerateContentConfig{
		Temperature:     ptr(e.temperature),
		MaxOutputTokens: e.maxOutputTokens,
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: system}},
		},
	}
	if len(tools) > 0 {
		config.Tools = []*genai.Tool{{FunctionDeclarations: toDeclarations(tools)}}
	}
	if e.thinkingBudget != nil {
		config.ThinkingConfig = &genai.ThinkingConfig{
			IncludeThoughts: true,
			ThinkingBudget:  e.thinkingBudget,
		}
	}

	contents := toContents(history)
	resp, err := e.generate(ctx, contents, config)
	if err != nil {
		return agentgraph.Message{}, err
	}

	if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason == genai.FinishReasonMalformedFunctionCall {
		clog.FromContext(ctx).Warn("Model attempted a malformed function call, asking it to retry")
		names := make([]string, 0, len(tools))
		for _, t := range tools {
			names = append(names, t.Name)
		}
		contents = append(contents, &genai.Content{
			Role:  genai.RoleUser,
			Parts: []*genai.Part{{Text: fmt.Sprintf("The function call was malformed. Please try again using the available functions: %v", names)}},
		})
		if resp, err = e.generate(ctx, contents, config); err != nil {
			return agentgraph.Message{}, err
		}
	}

	return fromResponse(resp)
}

func (e *Executor) generate(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	resp, err := retry.RetryWithBackoff(ctx, e.retryConfig, "generate_content", retryable, func() (*genai.GenerateContentResponse, error) {
		return e.client.Models.GenerateContent(ctx, e.model, contents, config)
	})
	if err != nil {
		return nil, fmt.Errorf("gemini generate content: %w", err)
	}
	if u := resp.UsageMetadata; u != nil {
		prompt, completion := int64(u.PromptTokenCount), int64(u.CandidatesTokenCount)
		e.genaiMetrics.RecordTokens(ctx, e.model, prompt, completion)
		if trace := agenttrace.TraceFromContext(ctx); trace != nil {
			trace.RecordTokenUsage(e.model, prompt, completion)
		}
	}
	return resp, nil
}

// toContents converts the history to Gemini contents. Function responses
// travel in user turns, and consecutive turns with the same role are merged.
func toContents(history []agentgraph.Message) []*genai.Content {
	var out []*genai.Content
	push := func(role string, parts ...*genai.Part) {
		if len(parts) == 0 {
			return
		}
		if n := len(out); n > 0 && out[n-1].Role == role {
			out[n-1].Parts = append(out[n-1].Parts, parts...)
			return
		}
		out = append(out, &genai.Content{Role: role, Parts: parts})
	}

	for _, m := range history {
		switch m.Role {
		case agentgraph.RoleHuman:
			if m.Content != "" {
				push(genai.RoleUser, &genai.Part{Text: m.Content})
			}
		case agentgraph.RoleTool:
			push(genai.RoleUser, &genai.Part{FunctionResponse: &genai.FunctionResponse{
				ID:       m.ToolCallID,
				Name:     m.ToolName,
				Response: map[string]any{"output": m.Content},
			}})
		case agentgraph.RoleAI:
			var parts []*genai.Part
			if m.Content != "" {
				parts = append(parts, &genai.Part{Text: m.Content})
			}
			for _, call := range m.ToolCalls {
				parts = append(parts, &genai.Part{FunctionCall: &genai.FunctionCall{
					ID:   call.ID,
					Name: call.Name,
					Args: call.Args,
				}})
			}
			push(genai.RoleModel, parts...)
		}
	}
	return out
}

func toDeclarations(defs []toolcall.Definition) []*genai.FunctionDeclaration {
	out := make([]*genai.FunctionDeclaration, 0, len(defs))
	for _, d := range defs {
		out = append(out, &genai.FunctionDeclaration{
			Name:                 d.Name,
			Description:          d.Description,
			ParametersJsonSchema: d.JSONSchema(),
		})
	}
	return out
}

func fromResponse(resp *genai.GenerateContentResponse) (agentgraph.Message, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return agentgraph.Message{}, errors.New("no candidates in Gemini response")
	}
	out := agentgraph.Message{Role: agentgraph.RoleAI}
	for _, part := range resp.Candidates[0].Content.Parts {
		switch {
		case part.Thought:
			// Thought summaries are not part of the conversation.
		case part.FunctionCall != nil:
			args := part.FunctionCall.Args
			if args == nil {
				args = map[string]any{}
			}
			out.ToolCalls = append(out.ToolCalls, toolcall.ToolCall{
				ID:   part.FunctionCall.ID,
				Name: part.FunctionCall.Name,
				Args: args,
			})
		case part.Text != "":
			out.Content += part.Text
		}
	}
	return out, nil
}

func ptr[T any](v T) *T {
	return &v
}
