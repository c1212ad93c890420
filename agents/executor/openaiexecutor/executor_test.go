/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package openaiexecutor_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"chainguard.dev/webster/agents/agentgraph"
	"chainguard.dev/webster/agents/executor/openaiexecutor"
	"chainguard.dev/webster/agents/executor/retry"
	"chainguard.dev/webster/agents/toolcall"
	"github.com/google/go-cmp/cmp"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role       string `json:"role"`
		Content    any    `json:"content"`
		ToolCallID string `json:"tool_call_id"`
		ToolCalls  []struct {
			ID       string `json:"id"`
			Function struct {
				Name      string `json:"name"`
				Arguments string `json:"arguments"`
			} `json:"function"`
		} `json:"tool_calls"`
	} `json:"messages"`
	Tools []struct {
		Function struct {
			Name       string         `json:"name"`
			Parameters map[string]any `json:"parameters"`
		} `json:"function"`
	} `json:"tools"`
}

const toolCallCompletion = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1700000000,
  "model": "gpt-5.2",
  "choices": [{
    "index": 0,
    "finish_reason": "tool_calls",
    "message": {
      "role": "assistant",
      "content": null,
      "tool_calls": [{
        "id": "call_abc",
        "type": "function",
        "function": {"name": "get_page_metadata", "arguments": "{\"url\":\"https://example.com\"}"}
      }]
    }
  }],
  "usage": {"prompt_tokens": 120, "completion_tokens": 14, "total_tokens": 134}
}`

func newExecutor(t *testing.T, handler http.HandlerFunc) *openaiexecutor.Executor {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := openai.NewClient(
		option.WithAPIKey("test-key"),
		option.WithBaseURL(srv.URL),
		option.WithMaxRetries(0),
	)
	e, err := openaiexecutor.New(client, openaiexecutor.WithRetryConfig(retry.RetryConfig{
		MaxRetries:  2,
		BaseBackoff: time.Millisecond,
		MaxBackoff:  time.Millisecond,
	}))
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func TestReasonToolCall(t *testing.T) {
	var got chatRequest
	e := newExecutor(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, toolCallCompletion)
	})

	history := []agentgraph.Message{
		agentgraph.HumanMessage("Check my homepage"),
		{Role: agentgraph.RoleAI, ToolCalls: []toolcall.ToolCall{{ID: "call_0", Name: "open_page", Args: map[string]any{"url": "https://example.com"}}}},
		{Role: agentgraph.RoleTool, ToolCallID: "call_0", ToolName: "open_page", Content: "Opened page."},
	}
	tools := []toolcall.Definition{{
		Name:        "get_page_metadata",
		Description: "Read SEO metadata",
		Parameters:  []toolcall.Parameter{{Name: "url", Type: "string", Required: true}},
	}}

	msg, err := e.Reason(context.Background(), "system text", history, tools)
	if err != nil {
		t.Fatal(err)
	}

	want := agentgraph.Message{
		Role: agentgraph.RoleAI,
		ToolCalls: []toolcall.ToolCall{{
			ID:   "call_abc",
			Name: "get_page_metadata",
			Args: map[string]any{"url": "https://example.com"},
		}},
	}
	if diff := cmp.Diff(want, msg); diff != "" {
		t.Errorf("Reason() mismatch (-want +got):\n%s", diff)
	}

	if got.Model != "gpt-5.2" {
		t.Errorf("model = %q", got.Model)
	}
	roles := make([]string, 0, len(got.Messages))
	for _, m := range got.Messages {
		roles = append(roles, m.Role)
	}
	if diff := cmp.Diff([]string{"system", "user", "assistant", "tool"}, roles); diff != "" {
		t.Errorf("roles mismatch (-want +got):\n%s", diff)
	}
	if tc := got.Messages[2].ToolCalls; len(tc) != 1 || tc[0].ID != "call_0" || tc[0].Function.Arguments != `{"url":"https://example.com"}` {
		t.Errorf("assistant tool calls = %+v", tc)
	}
	if got.Messages[3].ToolCallID != "call_0" {
		t.Errorf("tool message id = %q", got.Messages[3].ToolCallID)
	}
	if len(got.Tools) != 1 || got.Tools[0].Function.Name != "get_page_metadata" {
		t.Fatalf("tools = %+v", got.Tools)
	}
	if diff := cmp.Diff([]any{"url"}, got.Tools[0].Function.Parameters["required"]); diff != "" {
		t.Errorf("required mismatch (-want +got):\n%s", diff)
	}
}

func TestReasonWithoutToolsOmitsThem(t *testing.T) {
	var raw map[string]any
	e := newExecutor(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&raw)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"x","object":"chat.completion","created":1,"model":"gpt-5.2",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"All good."}}]}`)
	})

	msg, err := e.Reason(context.Background(), "conclude", []agentgraph.Message{agentgraph.HumanMessage("hi")}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if msg.Content != "All good." || len(msg.ToolCalls) != 0 {
		t.Errorf("Reason() = %+v", msg)
	}
	if _, ok := raw["tools"]; ok {
		t.Error("tools should be omitted when none are bound")
	}
}

func TestReasonRetriesRateLimits(t *testing.T) {
	attempts := 0
	e := newExecutor(t, func(w http.ResponseWriter, _ *http.Request) {
		attempts++
		w.Header().Set("Content-Type", "application/json")
		if attempts == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = io.WriteString(w, `{"error":{"message":"slow down","type":"rate_limit"}}`)
			return
		}
		_, _ = io.WriteString(w, toolCallCompletion)
	})

	if _, err := e.Reason(context.Background(), "s", nil, nil); err != nil {
		t.Fatal(err)
	}
	if attempts != 2 {
		t.Errorf("attempts = %d, want 2", attempts)
	}
}

func TestReasonDoesNotRetryBadRequests(t *testing.T) {
	attempts := 0
	e := newExecutor(t, func(w http.ResponseWriter, _ *http.Request) {
		attempts++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"message":"bad","type":"invalid_request_error"}}`)
	})

	if _, err := e.Reason(context.Background(), "s", nil, nil); err == nil {
		t.Fatal("expected error")
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestOptionsValidate(t *testing.T) {
	client := openai.NewClient(option.WithAPIKey("k"))
	if _, err := openaiexecutor.New(client, openaiexecutor.WithModel("")); err == nil {
		t.Error("empty model should fail")
	}
	if _, err := openaiexecutor.New(client, openaiexecutor.WithTemperature(3)); err == nil {
		t.Error("temperature 3 should fail")
	}
	e, err := openaiexecutor.New(client)
	if err != nil {
		t.Fatal(err)
	}
	if e.ModelName() != openaiexecutor.DefaultModel {
		t.Errorf("ModelName() = %q", e.ModelName())
	}
}
