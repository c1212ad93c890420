/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package claudeexecutor

import (
	"context"
	"errors"
	"fmt"

	"chainguard.dev/webster/agents/agentgraph"
	"chainguard.dev/webster/agents/agenttrace"
	"chainguard.dev/webster/agents/executor/retry"
	"chainguard.dev/webster/agents/metrics"
	"chainguard.dev/webster/agents/toolcall"
	"chainguard.dev/webster/agents/toolcall/params"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/chainguard-dev/clog"
)

// Executor is an agentgraph.Reasoner backed by the Anthropic Messages API.
type Executor struct {
	client               anthropic.Client
	modelName            string
	maxTokens            int64
	temperature          float64
	thinkingBudgetTokens *int64 // nil = disabled
	genaiMetrics         *metrics.GenAI
	retryConfig          retry.RetryConfig
}

var _ agentgraph.Reasoner = (*Executor)(nil)

// New creates a new Executor with minimal required configuration.
func New(client anthropic.Client, opts ...Option) (*Executor, error) {
	e := &Executor{
		client:       client,
		modelName:    "claude-sonnet-4-5",
		maxTokens:    8192,
		temperature:  0.1,
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
	req := anthropic.MessageNewParams{
		Model:     anthropic.Model(e.modelName),
		MaxTokens: e.maxTokens,
		System:    []anthropic.TextBlockParam{{Text: system}},
		Messages:  toMessages(history),
	}
	req.Temperature = anthropic.Float(e.temperature)
	// Extended thinking requires temperature 1.0.
	if e.thinkingBudgetTokens != nil {
		req.Temperature = anthropic.Float(1.0)
		req.Thinking = anthropic.ThinkingConfigParamUnion{
			OfEnabled: &anthropic.ThinkingConfigEnabledParam{
				BudgetTokens: *e.thinkingBudgetTokens,
			},
		}
	}
	if len(tools) > 0 {
		req.Tools = toTools(tools)
	}

	message, err := retry.RetryWithBackoff(ctx, e.retryConfig, "create_message", retryable, func() (*anthropic.Message, error) {
		return e.client.Messages.New(ctx, req)
	})
	if err != nil {
		return agentgraph.Message{}, fmt.Errorf("claude message: %w", err)
	}

	if message.Usage.InputTokens > 0 || message.Usage.OutputTokens > 0 {
		e.genaiMetrics.RecordTokens(ctx, e.modelName, message.Usage.InputTokens, message.Usage.OutputTokens)
		if trace := agenttrace.TraceFromContext(ctx); trace != nil {
			trace.RecordTokenUsage(e.modelName, message.Usage.InputTokens, message.Usage.OutputTokens)
		}
	}

	out := agentgraph.Message{Role: agentgraph.RoleAI}
	for _, content := range message.Content {
		switch content.Type {
		case "text":
			out.Content += content.Text
		case "tool_use":
			args, err := params.Decode(string(content.Input))
			if err != nil {
				clog.FromContext(ctx).With("tool", content.Name, "error", err).
					Warn("Model sent malformed tool arguments")
				args = map[string]any{}
			}
			out.ToolCalls = append(out.ToolCalls, toolcall.ToolCall{
				ID:   content.ID,
				Name: content.Name,
				Args: args,
			})
		}
	}
	if out.Content == "" && len(out.ToolCalls) == 0 && len(tools) == 0 {
		return out, errors.New("no content in Claude's response")
	}
	return out, nil
}

// toMessages converts the history into alternating user/assistant turns.
// Tool results ride in user turns, so consecutive tool and human messages
// are folded into a single turn.
func toMessages(history []agentgraph.Message) []anthropic.MessageParam {
	var out []anthropic.MessageParam
	push := func(role anthropic.MessageParamRole, blocks ...anthropic.ContentBlockParamUnion) {
		if len(blocks) == 0 {
			return
		}
		if n := len(out); n > 0 && out[n-1].Role == role {
			out[n-1].Content = append(out[n-1].Content, blocks...)
			return
		}
		out = append(out, anthropic.MessageParam{Role: role, Content: blocks})
	}

	for _, m := range history {
		switch m.Role {
		case agentgraph.RoleHuman:
			if m.Content != "" {
				push(anthropic.MessageParamRoleUser, anthropic.NewTextBlock(m.Content))
			}
		case agentgraph.RoleTool:
			push(anthropic.MessageParamRoleUser, anthropic.ContentBlockParamUnion{
				OfToolResult: &anthropic.ToolResultBlockParam{
					ToolUseID: m.ToolCallID,
					Content: []anthropic.ToolResultBlockParamContentUnion{{
						OfText: &anthropic.TextBlockParam{Text: m.Content},
					}},
				},
			})
		case agentgraph.RoleAI:
			var blocks []anthropic.ContentBlockParamUnion
			if m.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(m.Content))
			}
			for _, call := range m.ToolCalls {
				blocks = append(blocks, anthropic.ContentBlockParamUnion{
					OfToolUse: &anthropic.ToolUseBlockParam{
						ID:    call.ID,
						Name:  call.Name,
						Input: call.Args,
					},
				})
			}
			push(anthropic.MessageParamRoleAssistant, blocks...)
		}
	}
	return out
}

func toTools(defs []toolcall.Definition) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(defs))
	for _, d := range defs {
		out = append(out, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        d.Name,
				Description: anthropic.String(d.Description),
				InputSchema: anthropic.ToolInputSchemaParam{
					Properties: d.Properties(),
					Required:   d.Required(),
				},
			},
		})
	}
	return out
}
