/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package githubread discovers the read-only repository tools served by the
// GitHub MCP server and adapts them to toolcall.Tool.
package githubread

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"chainguard.dev/webster/agents/toolcall"
	"github.com/chainguard-dev/clog"
	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"
)

// DefaultURL is GitHub's hosted read-only MCP endpoint.
const DefaultURL = "https://api.githubcopilot.com/mcp/readonly"

// CallTimeout bounds one remote tool call.
const CallTimeout = 30 * time.Second

// Caller is the part of an MCP client the tools need.
type Caller interface {
	ListTools(ctx context.Context, req mcp.ListToolsRequest) (*mcp.ListToolsResult, error)
	CallTool(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

// Session is an initialized connection to an MCP server.
type Session struct {
	client *client.Client
}

// Connect opens and initializes a streamable-HTTP MCP session, sending token
// as a Bearer credential.
func Connect(ctx context.Context, url, token string) (*Session, error) {
	c, err := client.NewStreamableHttpClient(url,
		transport.WithHTTPHeaders(map[string]string{"Authorization": "Bearer " + token}))
	if err != nil {
		return nil, fmt.Errorf("creating MCP client: %w", err)
	}
	if err := c.Start(ctx); err != nil {
		return nil, fmt.Errorf("starting MCP client: %w", err)
	}

	req := mcp.InitializeRequest{}
	req.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	req.Params.ClientInfo = mcp.Implementation{Name: "webster", Version: "1.0.0"}
	if _, err := c.Initialize(ctx, req); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("initializing MCP session: %w", err)
	}
	return &Session{client: c}, nil
}

// Tools lists the server's tools.
func (s *Session) Tools(ctx context.Context) ([]toolcall.Tool, error) {
	return Discover(ctx, s.client)
}

// Close ends the session.
func (s *Session) Close() error {
	return s.client.Close()
}

// Discover lists c's tools and wraps each one.
func Discover(ctx context.Context, c Caller) ([]toolcall.Tool, error) {
	res, err := c.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("listing MCP tools: %w", err)
	}
	out := make([]toolcall.Tool, 0, len(res.Tools))
	for _, t := range res.Tools {
		schema, err := inputSchema(t)
		if err != nil {
			return nil, fmt.Errorf("tool %s: %w", t.Name, err)
		}
		out = append(out, toolcall.Tool{
			Def: toolcall.Definition{
				Name:        t.Name,
				Description: t.Description,
				InputSchema: schema,
			},
			Handler: handler(c, t.Name),
		})
	}
	clog.FromContext(ctx).With("tools", len(out)).Info("Discovered repository tools")
	return out, nil
}

func inputSchema(t mcp.Tool) (map[string]any, error) {
	raw := []byte(t.RawInputSchema)
	if len(raw) == 0 {
		var err error
		if raw, err = json.Marshal(t.InputSchema); err != nil {
			return nil, err
		}
	}
	schema := map[string]any{}
	if err := json.Unmarshal(raw, &schema); err != nil {
		return nil, fmt.Errorf("decoding input schema: %w", err)
	}
	if _, ok := schema["properties"]; !ok {
		schema["properties"] = map[string]any{}
	}
	return schema, nil
}

func handler(c Caller, name string) toolcall.Handler {
	return func(ctx context.Context, call toolcall.ToolCall) string {
		ctx, cancel := context.WithTimeout(ctx, CallTimeout)
		defer cancel()

		req := mcp.CallToolRequest{}
		req.Params.Name = name
		req.Params.Arguments = call.Args
		res, err := c.CallTool(ctx, req)
		if err != nil {
			clog.FromContext(ctx).With("tool", name, "error", err).Warn("Repository tool call failed")
			return fmt.Sprintf("Error calling %s: %v", name, err)
		}

		var parts []string
		for _, content := range res.Content {
			if text, ok := mcp.AsTextContent(content); ok {
				parts = append(parts, text.Text)
			}
		}
		out := strings.Join(parts, "\n")
		if res.IsError {
			return "Error: " + out
		}
		return out
	}
}
