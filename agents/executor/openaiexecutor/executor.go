/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package openaiexecutor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"chainguard.dev/webster/agents/agentgraph"
	"chainguard.dev/webster/agents/agenttrace"
	"chainguard.dev/webster/agents/executor/retry"
	"chainguard.dev/webster/agents/metrics"
	"chainguard.dev/webster/agents/toolcall"
	"chainguard.dev/webster/agents/toolcall/params"
	"github.com/chainguard-dev/clog"
	"github.com/openai/openai-go"
)

// DefaultModel is the chat model used when WithModel is not given.
const DefaultModel = "gpt-5.2"

// Executor is an agentgraph.Reasoner backed by the OpenAI chat completions API.
type Executor struct {
	client       openai.Client
	modelName    string
	temperature  *float64
	maxTokens    int64
	genaiMetrics *metrics.GenAI
	retryConfig  retry.RetryConfig
}

var _ agentgraph.Reasoner = (*Executor)(nil)

// New creates a new Executor.
func New(client openai.Client, opts ...Option) (*Executor, error) {
	e := &Executor{
		client:       client,
		modelName:    DefaultModel,
		genaiMetrics: metrics.NewGenAI(metrics.MeterName),
		retryConfig:  retry.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}
	return e, nil
}

// ModelName implements agentgraph.ModelNamer.
func (e *Executor) ModelName() string { return e.modelName }

// Reason implements agentgraph.Reasoner.
func (e *Executor) Reason(ctx context.Context, system string, history []agentgraph.Message, tools []toolcall.Definition) (agentgraph.Message, error) {
	req := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(e.modelName),
		Messages: toMessages(system, history),
	}
	if len(tools) > 0 {
		req.Tools = toTools(tools)
	}
	if e.temperature != nil {
		req.Temperature = openai.Float(*e.temperature)
	}
	if e.maxTokens > 0 {
		req.MaxCompletionTokens = openai.Int(e.maxTokens)
	}

	completion, err := retry.RetryWithBackoff(ctx, e.retryConfig, "chat_completion", retryable, func() (*openai.ChatCompletion, error) {
		return e.client.Chat.Completions.New(ctx, req)
	})
	if err != nil {
		return agentgraph.Message{}, fmt.Errorf("openai chat completion: %w", err)
	}

	if completion.Usage.PromptTokens > 0 || completion.Usage.CompletionTokens > 0 {
		e.genaiMetrics.RecordTokens(ctx, e.modelName, completion.Usage.PromptTokens, completion.Usage.CompletionTokens)
		if trace := agenttrace.TraceFromContext(ctx); trace != nil {
			trace.RecordTokenUsage(e.modelName, completion.Usage.PromptTokens, completion.Usage.CompletionTokens)
		}
	}

	if len(completion.Choices) == 0 {
		return agentgraph.Message{}, errors.New("openai returned no choices")
	}
	return fromCompletion(ctx, completion.Choices[0].Message), nil
}

func toMessages(system string, history []agentgraph.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+1)
	out = append(out, openai.SystemMessage(system))
	for _, m := range history {
		switch m.Role {
		case agentgraph.RoleHuman:
			out = append(out, openai.UserMessage(m.Content))
		case agentgraph.RoleTool:
			out = append(out, openai.ToolMessage(m.Content, m.ToolCallID))
		case agentgraph.RoleAI:
			if len(m.ToolCalls) == 0 {
				out = append(out, openai.AssistantMessage(m.Content))
				continue
			}
			assistant := openai.ChatCompletionAssistantMessageParam{
				ToolCalls: make([]openai.ChatCompletionMessageToolCallParam, 0, len(m.ToolCalls)),
			}
			if m.Content != "" {
				assistant.Content = openai.ChatCompletionAssistantMessageParamContentUnion{
					OfString: openai.String(m.Content),
				}
			}
			for _, call := range m.ToolCalls {
				args, err := json.Marshal(call.Args)
				if err != nil {
					args = []byte("{}")
				}
				assistant.ToolCalls = append(assistant.ToolCalls, openai.ChatCompletionMessageToolCallParam{
					ID: call.ID,
					Function: openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      call.Name,
						Arguments: string(args),
					},
				})
			}
			out = append(out, openai.ChatCompletionMessageParamUnion{OfAssistant: &assistant})
		}
	}
	return out
}

func toTools(defs []toolcall.Definition) []openai.ChatCompletionToolParam {
	out := make([]openai.ChatCompletionToolParam, 0, len(defs))
	for _, d := range defs {
		out = append(out, openai.ChatCompletionToolParam{
			Function: openai.FunctionDefinitionParam{
				Name:        d.Name,
				Description: openai.String(d.Description),
				Parameters:  openai.FunctionParameters(d.JSONSchema()),
			},
		})
	}
	return out
}

func fromCompletion(ctx context.Context, msg openai.ChatCompletionMessage) agentgraph.Message {
	out := agentgraph.Message{Role: agentgraph.RoleAI, Content: msg.Content}
	for _, tc := range msg.ToolCalls {
		args, err := params.Decode(tc.Function.Arguments)
		if err != nil {
			clog.FromContext(ctx).With("tool", tc.Function.Name, "error", err).
				Warn("Model sent malformed tool arguments")
			args = map[string]any{}
		}
		out.ToolCalls = append(out.ToolCalls, toolcall.ToolCall{
			ID:   tc.ID,
			Name: tc.Function.Name,
			Args: args,
		})
	}
	return out
}
