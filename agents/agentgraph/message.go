/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package agentgraph

import (
	"context"

	"chainguard.dev/webster/agents/toolcall"
)

// Role identifies who authored a message in the run history.
type Role string

const (
	RoleHuman Role = "human"
	RoleAI    Role = "ai"
	RoleTool  Role = "tool"
)

// Message is one entry in the run history.
type Message struct {
	Role    Role
	Content string

	// ToolCalls is set on AI messages that request tool execution.
	ToolCalls []toolcall.ToolCall

	// ToolCallID and ToolName are set on tool result messages.
	ToolCallID string
	ToolName   string
}

// HumanMessage returns a human message with the given content.
func HumanMessage(content string) Message {
	return Message{Role: RoleHuman, Content: content}
}

// AIMessage returns an AI message with the given content and no tool calls.
func AIMessage(content string) Message {
	return Message{Role: RoleAI, Content: content}
}

// State is scoped to one run of the graph. History only grows.
type State struct {
	History    []Message
	WebsiteURL string
	RepoName   string
	FixMode    bool

	// Conclusion is written once, by the conclude step.
	Conclusion string
}

// Reasoner produces the next AI message from the history.
// When tools is empty the reasoner must answer in text.
type Reasoner interface {
	Reason(ctx context.Context, system string, history []Message, tools []toolcall.Definition) (Message, error)
}

// ModelNamer is implemented by reasoners that report which model they call.
type ModelNamer interface {
	ModelName() string
}

// EventType identifies a streamed run event.
type EventType string

const (
	EventToolStart EventType = "tool_start"
	EventDone      EventType = "done"
)

// Event is emitted while a run progresses. Done is emitted exactly once,
// last, and carries the conclusion.
type Event struct {
	Type    EventType `json:"type"`
	Tool    string    `json:"tool,omitempty"`
	Content string    `json:"content,omitempty"`
}
