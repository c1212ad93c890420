/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package agenttrace

import (
	"context"

	"golang.org/x/sync/errgroup"
)

type tracerKey struct{}

type traceKey struct{}

// Tracer is the interface for creating and managing traces.
type Tracer interface {
	// NewTrace creates a new trace with the given prompt.
	NewTrace(ctx context.Context, prompt string) *Trace
	// RecordTrace records a completed trace.
	RecordTrace(trace *Trace)
}

// WithTracer returns a new context with the given tracer.
func WithTracer(ctx context.Context, tracer Tracer) context.Context {
	return context.WithValue(ctx, tracerKey{}, tracer)
}

// TracerFromContext returns the tracer from the context, or a default tracer that logs.
func TracerFromContext(ctx context.Context) Tracer {
	if tracer, ok := ctx.Value(tracerKey{}).(Tracer); ok {
		return tracer
	}
	return NewDefaultTracer(ctx)
}

// StartTrace starts a new trace using the tracer from the context.
func StartTrace(ctx context.Context, prompt string) *Trace {
	return TracerFromContext(ctx).NewTrace(ctx, prompt)
}

// WithTrace returns a context carrying the active trace, so that code deeper
// in the run (reasoners recording token usage) can reach it.
func WithTrace(ctx context.Context, trace *Trace) context.Context {
	return context.WithValue(ctx, traceKey{}, trace)
}

// TraceFromContext returns the active trace, or nil outside of a run.
func TraceFromContext(ctx context.Context) *Trace {
	trace, _ := ctx.Value(traceKey{}).(*Trace)
	return trace
}

// TraceCallback receives completed traces.
type TraceCallback func(*Trace)

type byCodeTracer struct {
	callbacks []TraceCallback
}

// ByCode creates a Tracer that invokes the given callbacks when traces are recorded.
func ByCode(callbacks ...TraceCallback) Tracer {
	return &byCodeTracer{callbacks: callbacks}
}

func (t *byCodeTracer) NewTrace(ctx context.Context, prompt string) *Trace {
	return newTraceWithTracer(ctx, t, prompt)
}

// RecordTrace invokes all callbacks in parallel and waits for them.
func (t *byCodeTracer) RecordTrace(trace *Trace) {
	var g errgroup.Group
	for _, callback := range t.callbacks {
		if callback != nil {
			g.Go(func() error {
				callback(trace)
				return nil
			})
		}
	}
	_ = g.Wait()
}
