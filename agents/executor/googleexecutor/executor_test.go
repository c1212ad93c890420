/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package googleexecutor

import (
	"testing"

	"chainguard.dev/webster/agents/agentgraph"
	"chainguard.dev/webster/agents/toolcall"
	"github.com/google/go-cmp/cmp"
	"google.golang.org/genai"
)

func TestToContents(t *testing.T) {
	history := []agentgraph.Message{
		agentgraph.HumanMessage("Check SEO"),
		{Role: agentgraph.RoleAI, Content: "Looking.", ToolCalls: []toolcall.ToolCall{
			{ID: "1", Name: "open_page", Args: map[string]any{"url": "https://example.com"}},
		}},
		{Role: agentgraph.RoleTool, ToolCallID: "1", ToolName: "open_page", Content: "Opened page."},
		agentgraph.AIMessage(""),
		agentgraph.HumanMessage("And performance?"),
	}

	got := toContents(history)
	want := []*genai.Content{
		{Role: genai.RoleUser, Parts: []*genai.Part{{Text: "Check SEO"}}},
		{Role: genai.RoleModel, Parts: []*genai.Part{
			{Text: "Looking."},
			{FunctionCall: &genai.FunctionCall{ID: "1", Name: "open_page", Args: map[string]any{"url": "https://example.com"}}},
		}},
		{Role: genai.RoleUser, Parts: []*genai.Part{
			{FunctionResponse: &genai.FunctionResponse{ID: "1", Name: "open_page", Response: map[string]any{"output": "Opened page."}}},
			{Text: "And performance?"},
		}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("toContents() mismatch (-want +got):\n%s", diff)
	}
}

func TestFromResponse(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Role: genai.RoleModel, Parts: []*genai.Part{
				{Text: "thinking...", Thought: true},
				{Text: "Submitting."},
				{FunctionCall: &genai.FunctionCall{Name: "submit_diagnostic", Args: map[string]any{"short_desc": "x"}}},
				{FunctionCall: &genai.FunctionCall{Name: "get_current_page_url"}},
			}},
		}},
	}
	got, err := fromResponse(resp)
	if err != nil {
		t.Fatal(err)
	}
	want := agentgraph.Message{
		Role:    agentgraph.RoleAI,
		Content: "Submitting.",
		ToolCalls: []toolcall.ToolCall{
			{Name: "submit_diagnostic", Args: map[string]any{"short_desc": "x"}},
			{Name: "get_current_page_url", Args: map[string]any{}},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("fromResponse() mismatch (-want +got):\n%s", diff)
	}

	if _, err := fromResponse(&genai.GenerateContentResponse{}); err == nil {
		t.Error("expected error for empty response")
	}
}

func TestToDeclarations(t *testing.T) {
	defs := []toolcall.Definition{{
		Name:        "open_page",
		Description: "Open a URL",
		Parameters:  []toolcall.Parameter{{Name: "url", Type: "string", Required: true}},
	}}
	got := toDeclarations(defs)
	if len(got) != 1 || got[0].Name != "open_page" || got[0].Description != "Open a URL" {
		t.Fatalf("toDeclarations() = %+v", got)
	}
	schema, ok := got[0].ParametersJsonSchema.(map[string]any)
	if !ok {
		t.Fatalf("ParametersJsonSchema type = %T", got[0].ParametersJsonSchema)
	}
	if diff := cmp.Diff([]string{"url"}, schema["required"]); diff != "" {
		t.Errorf("required mismatch (-want +got):\n%s", diff)
	}
}
