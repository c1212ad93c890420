/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package claudeexecutor_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"chainguard.dev/webster/agents/agentgraph"
	"chainguard.dev/webster/agents/executor/claudeexecutor"
	"chainguard.dev/webster/agents/toolcall"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/google/go-cmp/cmp"
)

type messagesRequest struct {
	System   []struct{ Text string } `json:"system"`
	Messages []struct {
		Role    string           `json:"role"`
		Content []map[string]any `json:"content"`
	} `json:"messages"`
	Tools []struct {
		Name        string         `json:"name"`
		InputSchema map[string]any `json:"input_schema"`
	} `json:"tools"`
}

func TestReason(t *testing.T) {
	var got messagesRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "msg_1", "type": "message", "role": "assistant", "model": "claude-sonnet-4-5",
			"stop_reason": "tool_use",
			"content": [
				{"type": "text", "text": "Let me submit that."},
				{"type": "tool_use", "id": "toolu_1", "name": "submit_diagnostic",
				 "input": {"short_desc": "Missing meta description", "full_desc": "none set", "severity": "warning"}}
			],
			"usage": {"input_tokens": 50, "output_tokens": 20}
		}`)
	}))
	defer srv.Close()

	client := anthropic.NewClient(option.WithAPIKey("k"), option.WithBaseURL(srv.URL), option.WithMaxRetries(0))
	e, err := claudeexecutor.New(client)
	if err != nil {
		t.Fatal(err)
	}

	history := []agentgraph.Message{
		agentgraph.HumanMessage("Check SEO"),
		{Role: agentgraph.RoleAI, ToolCalls: []toolcall.ToolCall{
			{ID: "toolu_a", Name: "open_page", Args: map[string]any{"url": "https://example.com"}},
			{ID: "toolu_b", Name: "get_page_metadata", Args: map[string]any{}},
		}},
		{Role: agentgraph.RoleTool, ToolCallID: "toolu_a", Content: "Opened page."},
		{Role: agentgraph.RoleTool, ToolCallID: "toolu_b", Content: "Meta description: missing"},
	}
	tools := []toolcall.Definition{{
		Name:       "submit_diagnostic",
		Parameters: []toolcall.Parameter{{Name: "short_desc", Type: "string", Required: true}},
	}}

	msg, err := e.Reason(context.Background(), "be Webster", history, tools)
	if err != nil {
		t.Fatal(err)
	}
	want := agentgraph.Message{
		Role:    agentgraph.RoleAI,
		Content: "Let me submit that.",
		ToolCalls: []toolcall.ToolCall{{
			ID:   "toolu_1",
			Name: "submit_diagnostic",
			Args: map[string]any{"short_desc": "Missing meta description", "full_desc": "none set", "severity": "warning"},
		}},
	}
	if diff := cmp.Diff(want, msg); diff != "" {
		t.Errorf("Reason() mismatch (-want +got):\n%s", diff)
	}

	if len(got.System) != 1 || got.System[0].Text != "be Webster" {
		t.Errorf("system = %+v", got.System)
	}
	// user, assistant(2 tool_use), user(2 tool_result)
	if len(got.Messages) != 3 {
		t.Fatalf("messages = %d, want 3", len(got.Messages))
	}
	if got.Messages[2].Role != "user" || len(got.Messages[2].Content) != 2 {
		t.Errorf("tool results turn = %+v", got.Messages[2])
	}
	if typ := got.Messages[2].Content[1]["type"]; typ != "tool_result" {
		t.Errorf("tool result block type = %v", typ)
	}
	if len(got.Tools) != 1 || got.Tools[0].Name != "submit_diagnostic" {
		t.Errorf("tools = %+v", got.Tools)
	}
}

func TestConcludeRequestEndsWithUserTurn(t *testing.T) {
	var requests []messagesRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req messagesRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		requests = append(requests, req)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "msg_1", "type": "message", "role": "assistant", "model": "claude-sonnet-4-5",
			"stop_reason": "end_turn",
			"content": [{"type": "text", "text": "The page has no title."}],
			"usage": {"input_tokens": 50, "output_tokens": 20}
		}`)
	}))
	defer srv.Close()

	client := anthropic.NewClient(option.WithAPIKey("k"), option.WithBaseURL(srv.URL), option.WithMaxRetries(0))
	e, err := claudeexecutor.New(client)
	if err != nil {
		t.Fatal(err)
	}
	g, err := agentgraph.New(e)
	if err != nil {
		t.Fatal(err)
	}
	state := &agentgraph.State{History: []agentgraph.Message{agentgraph.HumanMessage("Check SEO")}}
	tool := toolcall.Tool{
		Def:     toolcall.Definition{Name: "open_page", Description: "Open a page"},
		Handler: func(context.Context, toolcall.ToolCall) string { return "Opened page." },
	}
	if err := g.Run(context.Background(), state, agentgraph.Invocation{Tools: []toolcall.Tool{tool}}); err != nil {
		t.Fatal(err)
	}

	// One reason request and one conclude request.
	if len(requests) != 2 {
		t.Fatalf("requests = %d, want 2", len(requests))
	}
	conclude := requests[1]
	if len(conclude.Tools) != 0 {
		t.Errorf("conclude request bound %d tools", len(conclude.Tools))
	}
	var roles []string
	for _, m := range conclude.Messages {
		roles = append(roles, m.Role)
	}
	if diff := cmp.Diff([]string{"user", "assistant", "user"}, roles); diff != "" {
		t.Errorf("conclude roles mismatch (-want +got):\n%s", diff)
	}
	if state.Conclusion != "The page has no title." {
		t.Errorf("Conclusion = %q", state.Conclusion)
	}
}

func TestOptions(t *testing.T) {
	client := anthropic.NewClient(option.WithAPIKey("k"))
	if _, err := claudeexecutor.New(client, claudeexecutor.WithModel("gpt-5.2")); err == nil {
		t.Error("non-claude model should fail")
	}
	if _, err := claudeexecutor.New(client, claudeexecutor.WithMaxTokens(4096), claudeexecutor.WithThinking(4096)); err == nil {
		t.Error("thinking budget at max tokens should fail")
	}
	if _, err := claudeexecutor.New(client, claudeexecutor.WithTemperature(1.5)); err == nil {
		t.Error("temperature above 1 should fail")
	}
}
