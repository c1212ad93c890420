/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package metrics

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// MeterName is the meter shared by every reasoner and the agent graph.
// The model name is a dimension on recorded metrics, not part of the meter.
const MeterName = "chainguard.webster.agents"

// GenAI provides OpenTelemetry metrics for generative AI operations.
// Counters that fail to initialize degrade to no-ops.
type GenAI struct {
	promptTokens     metric.Int64Counter
	completionTokens metric.Int64Counter
	toolCallCounter  metric.Int64Counter
	runCounter       metric.Int64Counter
	stepHistogram    metric.Int64Histogram
	attrEnricher     AttributeEnricher
}

// NewGenAI creates a new GenAI metrics instance with the specified meter name.
func NewGenAI(meterName string) *GenAI {
	meter := otel.Meter(meterName, metric.WithInstrumentationVersion("1.0.0"))

	counter := func(name, desc, unit string) metric.Int64Counter {
		c, err := meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit(unit))
		if err != nil {
			slog.Warn("Failed to create counter, metrics will be disabled", "error", err, "meter", meterName, "counter", name)
			return noop.Int64Counter{}
		}
		return c
	}

	steps, err := meter.Int64Histogram("webster.graph.steps",
		metric.WithDescription("The number of reason steps taken by a single run"),
		metric.WithUnit("{steps}"))
	if err != nil {
		slog.Warn("Failed to create step histogram, metrics will be disabled", "error", err, "meter", meterName)
		steps = noop.Int64Histogram{}
	}

	return &GenAI{
		promptTokens:     counter("genai.token.prompt", "The number of prompt tokens used", "{tokens}"),
		completionTokens: counter("genai.token.completion", "The number of completion tokens used", "{tokens}"),
		toolCallCounter:  counter("genai.tool.calls", "The number of tool calls made during execution", "{calls}"),
		runCounter:       counter("webster.graph.runs", "The number of agent runs by mode and outcome", "{runs}"),
		stepHistogram:    steps,
		attrEnricher:     RunEnricher,
	}
}

// SetAttributeEnricher replaces the attribute enricher for this metrics instance.
func (m *GenAI) SetAttributeEnricher(enricher AttributeEnricher) {
	m.attrEnricher = enricher
}

func (m *GenAI) attributes(ctx context.Context, base []attribute.KeyValue, extra []attribute.KeyValue) []attribute.KeyValue {
	if m.attrEnricher != nil {
		base = m.attrEnricher(ctx, base)
	}
	return append(base, extra...)
}

// RecordTokens records prompt and completion token usage.
func (m *GenAI) RecordTokens(ctx context.Context, model string, promptTokens, completionTokens int64, attrs ...attribute.KeyValue) {
	all := m.attributes(ctx, []attribute.KeyValue{attribute.String("model", model)}, attrs)
	m.promptTokens.Add(ctx, promptTokens, metric.WithAttributes(all...))
	m.completionTokens.Add(ctx, completionTokens, metric.WithAttributes(all...))
}

// RecordToolCall records a tool invocation.
func (m *GenAI) RecordToolCall(ctx context.Context, model, toolName string, attrs ...attribute.KeyValue) {
	all := m.attributes(ctx, []attribute.KeyValue{
		attribute.String("model", model),
		attribute.String("tool", toolName),
	}, attrs)
	m.toolCallCounter.Add(ctx, 1, metric.WithAttributes(all...))
}

// RecordRun records a finished agent run and the number of reason steps it took.
func (m *GenAI) RecordRun(ctx context.Context, outcome string, steps int) {
	all := m.attributes(ctx, []attribute.KeyValue{attribute.String("outcome", outcome)}, nil)
	m.runCounter.Add(ctx, 1, metric.WithAttributes(all...))
	m.stepHistogram.Record(ctx, int64(steps), metric.WithAttributes(all...))
}
