/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package agentgraph

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"chainguard.dev/webster/agents/agenttrace"
	"chainguard.dev/webster/agents/metrics"
	"chainguard.dev/webster/agents/prompts"
	"chainguard.dev/webster/agents/toolcall"
	"chainguard.dev/webster/agents/toolcall/params"
	"github.com/chainguard-dev/clog"
	"github.com/google/uuid"
)

// DefaultMaxSteps bounds the number of node executions in one run.
const DefaultMaxSteps = 100

// ErrStepLimit is returned when a run exceeds its step ceiling.
var ErrStepLimit = errors.New("agent graph exceeded its step limit")

// Graph runs the reason -> act -> conclude state machine.
type Graph struct {
	reasoner     Reasoner
	concluder    Reasoner
	maxSteps     int
	genaiMetrics *metrics.GenAI
}

// Option configures a Graph.
type Option func(*Graph) error

// WithMaxSteps overrides DefaultMaxSteps.
func WithMaxSteps(n int) Option {
	return func(g *Graph) error {
		if n < 2 {
			return fmt.Errorf("max steps must allow at least reason and conclude, got %d", n)
		}
		g.maxSteps = n
		return nil
	}
}

// WithConcluder uses a separate reasoner for the conclude step.
func WithConcluder(r Reasoner) Option {
	return func(g *Graph) error {
		if r == nil {
			return errors.New("concluder cannot be nil")
		}
		g.concluder = r
		return nil
	}
}

// WithMetrics overrides the metrics sink.
func WithMetrics(m *metrics.GenAI) Option {
	return func(g *Graph) error {
		g.genaiMetrics = m
		return nil
	}
}

// New creates a Graph around the given reasoner.
func New(reasoner Reasoner, opts ...Option) (*Graph, error) {
	if reasoner == nil {
		return nil, errors.New("reasoner cannot be nil")
	}
	g := &Graph{
		reasoner:     reasoner,
		concluder:    reasoner,
		maxSteps:     DefaultMaxSteps,
		genaiMetrics: metrics.NewGenAI(metrics.MeterName),
	}
	for _, opt := range opts {
		if err := opt(g); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}
	return g, nil
}

// Invocation carries what one run is bound to.
type Invocation struct {
	// Tools is the visible tool set, already filtered for the run's mode.
	Tools []toolcall.Tool

	// Emit receives run events. It may be nil.
	Emit func(Event)

	// Teardown releases run-scoped resources. It runs exactly once when Run
	// returns, on every exit path.
	Teardown func()
}

type node int

const (
	nodeReason node = iota
	nodeAct
	nodeConclude
)

// Run drives state through the graph until it concludes. On success
// state.Conclusion is set and a done event has been emitted.
func (g *Graph) Run(ctx context.Context, state *State, inv Invocation) (err error) {
	var once sync.Once
	teardown := func() {
		if inv.Teardown != nil {
			once.Do(inv.Teardown)
		}
	}
	defer teardown()

	emit := inv.Emit
	if emit == nil {
		emit = func(Event) {}
	}

	byName, err := toolcall.Index(inv.Tools)
	if err != nil {
		return err
	}
	defs := toolcall.Definitions(inv.Tools)

	system, err := prompts.AnalyzeSystem(prompts.Analyze{
		WebsiteURL: state.WebsiteURL,
		RepoName:   state.RepoName,
		FixMode:    state.FixMode,
	})
	if err != nil {
		return fmt.Errorf("building analyze prompt: %w", err)
	}

	trace := agenttrace.StartTrace(ctx, lastHumanContent(state.History))
	ctx = agenttrace.WithTrace(ctx, trace)
	steps := 0
	defer func() {
		outcome := "concluded"
		if err != nil {
			outcome = "failed"
		}
		g.genaiMetrics.RecordRun(ctx, outcome, trace.Steps)
		trace.Complete(state.Conclusion, err)
	}()

	log := clog.FromContext(ctx).With("fix_mode", state.FixMode, "tools", len(defs))
	log.Info("Starting agent run")

	next := nodeReason
	for {
		if steps >= g.maxSteps {
			return fmt.Errorf("%w (%d)", ErrStepLimit, g.maxSteps)
		}
		steps++

		switch next {
		case nodeReason:
			trace.RecordStep()
			msg, err := g.reasoner.Reason(ctx, system, state.History, defs)
			if err != nil {
				return fmt.Errorf("reason step: %w", err)
			}
			msg.Role = RoleAI
			for i := range msg.ToolCalls {
				if msg.ToolCalls[i].ID == "" {
					msg.ToolCalls[i].ID = "call_" + uuid.NewString()
				}
			}
			state.History = append(state.History, msg)
			if len(msg.ToolCalls) > 0 {
				next = nodeAct
			} else {
				next = nodeConclude
			}

		case nodeAct:
			last := state.History[len(state.History)-1]
			for _, call := range last.ToolCalls {
				emit(Event{Type: EventToolStart, Tool: call.Name})
				state.History = append(state.History, g.execute(ctx, trace, byName, call))
			}
			next = nodeReason

		case nodeConclude:
			conclusion, err := g.conclude(ctx, state.History)
			if err != nil {
				return fmt.Errorf("conclude step: %w", err)
			}
			state.Conclusion = conclusion
			log.With("steps", steps).Info("Agent run concluded")
			emit(Event{Type: EventDone, Content: conclusion})
			return nil
		}
	}
}

// execute runs one tool call. Failures become result text.
func (g *Graph) execute(ctx context.Context, trace *agenttrace.Trace, byName map[string]toolcall.Tool, call toolcall.ToolCall) Message {
	result := Message{Role: RoleTool, ToolCallID: call.ID, ToolName: call.Name}
	log := clog.FromContext(ctx).With("tool", call.Name, "id", call.ID)

	tool, ok := byName[call.Name]
	if !ok {
		log.Error("Unknown tool requested")
		err := fmt.Errorf("unknown tool: %q", call.Name)
		trace.BadToolCall(call.ID, call.Name, call.Args, err)
		result.Content = params.Error("%v", err)
		return result
	}

	g.genaiMetrics.RecordToolCall(ctx, g.modelName(), call.Name)
	tc := trace.StartToolCall(call.ID, call.Name, call.Args)
	start := time.Now()
	log.Info("Tool start")

	result.Content = invoke(ctx, tool, call)

	elapsed := time.Since(start).Milliseconds()
	var failure error
	if params.IsError(result.Content) {
		failure = errors.New(result.Content)
		log.With("elapsed_ms", elapsed).Warn("Tool failed")
	} else {
		log.With("elapsed_ms", elapsed).Info("Tool success")
	}
	tc.Complete(result.Content, failure)
	return result
}

// invoke calls the handler, converting a panic into result text.
func invoke(ctx context.Context, tool toolcall.Tool, call toolcall.ToolCall) (out string) {
	defer func() {
		if r := recover(); r != nil {
			out = params.Error("%s failed: %v", call.Name, r)
		}
	}()
	return tool.Handler(ctx, call)
}

// conclude runs the tool-free summary pass over the history.
func (g *Graph) conclude(ctx context.Context, history []Message) (string, error) {
	system, err := prompts.ConcludeSystem()
	if err != nil {
		return "", fmt.Errorf("building conclude prompt: %w", err)
	}
	// The request must end on a human turn. Providers treat a trailing AI
	// turn as a prefill and continue it instead of summarizing.
	request := append(slices.Clip(history), HumanMessage(prompts.ConcludeRequest))
	msg, err := g.concluder.Reason(ctx, system, request, nil)
	if err != nil {
		return "", err
	}
	if len(msg.ToolCalls) > 0 {
		clog.FromContext(ctx).With("tool_calls", len(msg.ToolCalls)).
			Warn("Ignoring tool calls requested by the conclude step")
	}
	return msg.Content, nil
}

func (g *Graph) modelName() string {
	if n, ok := g.reasoner.(ModelNamer); ok {
		return n.ModelName()
	}
	return "unknown"
}

func lastHumanContent(history []Message) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == RoleHuman {
			return history[i].Content
		}
	}
	return ""
}
