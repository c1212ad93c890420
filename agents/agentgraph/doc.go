/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package agentgraph implements the Webster agent loop.
//
// A run starts in the reason step, which asks the Reasoner for the next AI
// message with the visible tools bound. If that message requests tool calls
// the act step executes them in request order, appends one tool message per
// call, and returns to reason. Otherwise the conclude step asks the Reasoner
// for a tool-free summary of the history, which becomes the run's conclusion.
//
// Tool failures never abort a run: handlers report them as result text and
// panics are recovered at the tool boundary. The Invocation's Teardown runs
// exactly once when Run returns.
package agentgraph
